package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shopping-agent/internal/domain/entity"
	"shopping-agent/internal/infrastructure/logger"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssistant struct {
	maxResults int
	purchaseTo string
	trackArgs  [2]string
	stopErr    error
}

func (f *fakeAssistant) Search(ctx context.Context, query string, maxResults int) *entity.SearchResult {
	f.maxResults = maxResults
	return &entity.SearchResult{
		Products:     []entity.SearchProduct{{Name: query + " 1", Price: 10}},
		SearchTime:   1500 * time.Millisecond,
		TotalResults: 7,
	}
}

func (f *fakeAssistant) ComparePrices(ctx context.Context, productName string) []entity.Product {
	return []entity.Product{{Name: productName, Price: 99, Description: "From Amazon - In Stock"}}
}

func (f *fakeAssistant) Purchase(ctx context.Context, productURL string, user entity.UserInfo) *entity.PurchaseResult {
	f.purchaseTo = productURL
	return &entity.PurchaseResult{Success: true, OrderID: "ORD-1"}
}

func (f *fakeAssistant) TrackOrder(ctx context.Context, orderID, storeURL string) *entity.TrackingInfo {
	f.trackArgs = [2]string{orderID, storeURL}
	return &entity.TrackingInfo{Status: "shipped"}
}

func (f *fakeAssistant) StopTask(ctx context.Context, taskID string) (*entity.StopAck, error) {
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	return &entity.StopAck{TaskID: taskID}, nil
}

func (f *fakeAssistant) Summary() entity.ShoppingSummary {
	return entity.ShoppingSummary{SearchesPerformed: 2, PurchasesMade: 1, TotalSpent: 49.99}
}

type fakeChat struct {
	err error
}

func (f *fakeChat) Handle(ctx context.Context, message string) (*entity.ChatReply, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.ChatReply{Intent: entity.IntentGeneral, Response: "echo: " + message}, nil
}

func newTestRouter(assistant *fakeAssistant, chat *fakeChat) http.Handler {
	h := NewHandler(assistant, chat, logger.NewNop(), Status{Service: "shopping-agent", BrowserUse: true})
	return NewRouter(h, zerolog.Nop())
}

func do(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestRouter(&fakeAssistant{}, &fakeChat{}), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["browser_use"])
	assert.Equal(t, "shopping-agent", body["service"])
}

func TestSearch(t *testing.T) {
	assistant := &fakeAssistant{}
	router := newTestRouter(assistant, &fakeChat{})

	rec, body := do(t, router, http.MethodGet, "/api/search/wireless%20headphones?max=3", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, assistant.maxResults)
	assert.Equal(t, "wireless headphones", body["query"])
	assert.Equal(t, 7.0, body["total_results"])
	assert.Equal(t, 1.5, body["search_time_seconds"])
}

func TestSearch_BadMax(t *testing.T) {
	rec, body := do(t, newTestRouter(&fakeAssistant{}, &fakeChat{}), http.MethodGet, "/api/search/laptop?max=lots", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "max must be a positive integer", body["error"])
}

func TestCompare(t *testing.T) {
	rec, body := do(t, newTestRouter(&fakeAssistant{}, &fakeChat{}), http.MethodGet, "/api/compare/monitor", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "monitor", body["product"])
	assert.Len(t, body["offers"], 1)
}

func TestPurchase(t *testing.T) {
	assistant := &fakeAssistant{}
	router := newTestRouter(assistant, &fakeChat{})

	rec, body := do(t, router, http.MethodPost, "/api/purchase",
		`{"url":"https://shop.example/p/1","user":{"name":"Alice","address":"123 Demo St","email":"a@demo.com"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://shop.example/p/1", assistant.purchaseTo)
	assert.Equal(t, "ORD-1", body["order_id"])
}

func TestPurchase_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad json", `{"url":`, "Invalid JSON body"},
		{"unknown field", `{"url":"https://a.example","wallet":"x"}`, "Invalid JSON body"},
		{"bad url", `{"url":"javascript:alert(1)","user":{"name":"A","address":"B"}}`, "A valid http(s) product url is required"},
		{"missing user", `{"url":"https://a.example/p"}`, "User name and address are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assistant := &fakeAssistant{}
			rec, body := do(t, newTestRouter(assistant, &fakeChat{}), http.MethodPost, "/api/purchase", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, body["error"])
			assert.Empty(t, assistant.purchaseTo)
		})
	}
}

func TestTrack(t *testing.T) {
	assistant := &fakeAssistant{}
	router := newTestRouter(assistant, &fakeChat{})

	rec, body := do(t, router, http.MethodGet, "/api/track/ORD-1?store=https://shop.example", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]string{"ORD-1", "https://shop.example"}, assistant.trackArgs)
	assert.Equal(t, "shipped", body["status"])

	rec, _ = do(t, router, http.MethodGet, "/api/track/ORD-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStopTask(t *testing.T) {
	rec, body := do(t, newTestRouter(&fakeAssistant{}, &fakeChat{}), http.MethodPost, "/api/tasks/task-9/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "task-9", body["task_id"])

	notFound := &fakeAssistant{stopErr: &entity.RequestError{StatusCode: http.StatusNotFound}}
	rec, _ = do(t, newTestRouter(notFound, &fakeChat{}), http.MethodPost, "/api/tasks/nope/stop", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	broken := &fakeAssistant{stopErr: errors.New("connection refused")}
	rec, _ = do(t, newTestRouter(broken, &fakeChat{}), http.MethodPost, "/api/tasks/x/stop", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSummary(t *testing.T) {
	rec, body := do(t, newTestRouter(&fakeAssistant{}, &fakeChat{}), http.MethodGet, "/api/summary", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, body["searches_performed"])
	assert.Equal(t, 49.99, body["total_spent"])
}

func TestChat(t *testing.T) {
	router := newTestRouter(&fakeAssistant{}, &fakeChat{})

	rec, body := do(t, router, http.MethodPost, "/api/alice/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "echo: hi", body["response"])

	rec, body = do(t, router, http.MethodPost, "/api/alice/chat", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Message required", body["error"])

	failing := newTestRouter(&fakeAssistant{}, &fakeChat{err: errors.New("boom")})
	rec, body = do(t, failing, http.MethodPost, "/api/alice/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer("127.0.0.1:0", http.NotFoundHandler(), logger.NewNop())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
