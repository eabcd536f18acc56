package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopping-agent/internal/application/port/input"
	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Status is reported by the health endpoint.
type Status struct {
	Service     string `json:"service"`
	BrowserUse  bool   `json:"browser_use"`
	LLM         bool   `json:"llm"`
	LiveView    bool   `json:"live_view"`
	Receipts    bool   `json:"receipts"`
	Environment string `json:"environment"`
}

type Handler struct {
	assistant input.ShoppingAssistant
	chat      input.ChatHandler
	logger    output.LoggerPort
	status    Status
}

func NewHandler(assistant input.ShoppingAssistant, chat input.ChatHandler, logger output.LoggerPort, status Status) *Handler {
	return &Handler{
		assistant: assistant,
		chat:      chat,
		logger:    logger,
		status:    status,
	}
}

type healthResponse struct {
	Status
	OK   bool      `json:"ok"`
	Time time.Time `json:"time"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: h.status, OK: true, Time: time.Now().UTC()})
}

type searchResponse struct {
	Query             string                 `json:"query"`
	Products          []entity.SearchProduct `json:"products"`
	TotalResults      int                    `json:"total_results"`
	SearchTimeSeconds float64                `json:"search_time_seconds"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(chi.URLParam(r, "query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query required")
		return
	}

	maxResults := 0
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "max must be a positive integer")
			return
		}
		maxResults = n
	}

	result := h.assistant.Search(r.Context(), query, maxResults)
	writeJSON(w, http.StatusOK, searchResponse{
		Query:             query,
		Products:          result.Products,
		TotalResults:      result.TotalResults,
		SearchTimeSeconds: result.SearchTime.Seconds(),
	})
}

type compareResponse struct {
	Product string           `json:"product"`
	Offers  []entity.Product `json:"offers"`
}

func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	product := strings.TrimSpace(chi.URLParam(r, "product"))
	if product == "" {
		writeError(w, http.StatusBadRequest, "Product required")
		return
	}

	offers := h.assistant.ComparePrices(r.Context(), product)
	writeJSON(w, http.StatusOK, compareResponse{Product: product, Offers: offers})
}

type purchaseRequest struct {
	URL  string          `json:"url"`
	User entity.UserInfo `json:"user"`
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if !validProductURL(req.URL) {
		writeError(w, http.StatusBadRequest, "A valid http(s) product url is required")
		return
	}
	if strings.TrimSpace(req.User.Name) == "" || strings.TrimSpace(req.User.Address) == "" {
		writeError(w, http.StatusBadRequest, "User name and address are required")
		return
	}

	result := h.assistant.Purchase(r.Context(), req.URL, req.User)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	store := strings.TrimSpace(r.URL.Query().Get("store"))
	if orderID == "" || store == "" {
		writeError(w, http.StatusBadRequest, "Order ID and store are required")
		return
	}

	info := h.assistant.TrackOrder(r.Context(), orderID, store)
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) StopTask(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSpace(chi.URLParam(r, "taskID"))
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "Task ID required")
		return
	}

	ack, err := h.assistant.StopTask(r.Context(), taskID)
	if err != nil {
		h.logger.Warn("Stop task failed", "taskID", taskID, "error", err)

		var reqErr *entity.RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			writeError(w, http.StatusNotFound, "Task not found")
			return
		}
		writeError(w, http.StatusBadGateway, "Failed to stop task")
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.assistant.Summary())
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message required")
		return
	}

	reply, err := h.chat.Handle(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("Chat error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func validProductURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
