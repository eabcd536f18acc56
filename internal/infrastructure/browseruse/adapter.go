package browseruse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"
)

var (
	_ output.TaskClientPort   = (*Client)(nil)
	_ output.ScreenshotSource = (*Client)(nil)
)

const (
	DefaultBaseURL = "https://api.browser-use.com/api/v1"

	maxErrorBodyLen = 512
)

var ErrMissingAPIKey = errors.New("browser-use api key is required")

type Config struct {
	APIKey  string
	BaseURL string
	// HTTPTimeout limits a single round trip. Zero leaves the transport default.
	HTTPTimeout time.Duration
	Logger      output.LoggerPort
	Transport   http.RoundTripper
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
	}
}

// Client talks to the browser-use REST API. It performs exactly one round
// trip per call and never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     output.LoggerPort
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("HTTP Request",
		"method", req.Method,
		"url", req.URL.String(),
	)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("HTTP Request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"error", err,
		)
		return nil, err
	}

	t.logger.Debug("HTTP Response",
		"status", resp.Status,
		"statusCode", resp.StatusCode,
		"durationMs", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.Logger != nil {
		transport = &loggingTransport{base: transport, logger: cfg.Logger}
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.HTTPTimeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  cfg.Logger,
	}, nil
}

type createTaskRequest struct {
	Task                 string `json:"task"`
	StructuredOutputJSON string `json:"structured_output_json,omitempty"`
}

type createTaskResponse struct {
	ID string `json:"id"`
}

func (c *Client) CreateTask(ctx context.Context, instructions string, shape output.OutputShape) (string, error) {
	payload := createTaskRequest{Task: instructions}
	if shape != nil {
		payload.StructuredOutputJSON = shape.SchemaJSON()
	}

	var resp createTaskResponse
	if err := c.do(ctx, http.MethodPost, "/run-task", payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &entity.RequestError{
			Method: http.MethodPost,
			URL:    c.baseURL + "/run-task",
			Err:    errors.New("response has no task id"),
		}
	}
	return resp.ID, nil
}

func (c *Client) GetTaskDetails(ctx context.Context, taskID string) (*entity.TaskDetails, error) {
	var details entity.TaskDetails
	if err := c.do(ctx, http.MethodGet, "/task/"+url.PathEscape(taskID), nil, &details); err != nil {
		return nil, err
	}
	if details.ID == "" {
		details.ID = taskID
	}
	return &details, nil
}

func (c *Client) StopTask(ctx context.Context, taskID string) (*entity.StopAck, error) {
	path := "/stop-task?task_id=" + url.QueryEscape(taskID)

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, path, nil, &raw); err != nil {
		return nil, err
	}

	ack := &entity.StopAck{TaskID: taskID}
	// the acknowledgement body is informational only
	_ = json.Unmarshal(raw, &ack.Body)
	return ack, nil
}

type screenshotsResponse struct {
	Screenshots []string `json:"screenshots"`
}

func (c *Client) ListScreenshots(ctx context.Context, taskID string) ([]string, error) {
	var resp screenshotsResponse
	if err := c.do(ctx, http.MethodGet, "/task/"+url.PathEscape(taskID)+"/screenshots", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Screenshots, nil
}

// Download fetches an absolute URL without the API credentials; screenshot
// links point at pre-signed storage.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &entity.RequestError{Method: http.MethodGet, URL: rawURL, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &entity.RequestError{Method: http.MethodGet, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &entity.RequestError{Method: http.MethodGet, URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &entity.RequestError{
			Method:     http.MethodGet,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(data), maxErrorBodyLen),
		}
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return &entity.RequestError{Method: method, URL: fullURL, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &entity.RequestError{Method: method, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &entity.RequestError{Method: method, URL: fullURL, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &entity.RequestError{
			Method:     method,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(data)), maxErrorBodyLen),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &entity.RequestError{
			Method:     method,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
