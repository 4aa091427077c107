package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/agentops/console/pkg/errors"
)

// Defaults for the backend location.
const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultAPIPrefix = "/api/v1"
)

// Client talks to the agent backend REST API.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	apiPrefix  string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		apiPrefix: DefaultAPIPrefix,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: zap.NewNop(),
	}
	c.SetBaseURL(baseURL)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures the client
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithAPIPrefix overrides the path prefix of the REST routes
func WithAPIPrefix(prefix string) Option {
	return func(c *Client) {
		c.apiPrefix = "/" + strings.Trim(prefix, "/")
		if c.apiPrefix == "/" {
			c.apiPrefix = ""
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the request logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With(zap.String("component", "backend"))
	}
}

// SetBaseURL points the client at a new backend. Safe to call while
// requests are in flight; they keep the URL they started with.
func (c *Client) SetBaseURL(baseURL string) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c.mu.Lock()
	c.baseURL = baseURL
	c.mu.Unlock()
}

// SetAPIKey replaces the bearer token.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = strings.TrimSpace(key)
	c.mu.Unlock()
}

// BaseURL returns the current backend root URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Agents returns the agent collection.
func (c *Client) Agents() *Agents {
	return &Agents{c: c}
}

// Workflows returns the workflow collection.
func (c *Client) Workflows() *Workflows {
	return &Workflows{c: c}
}

// Health checks the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	c.mu.RLock()
	url := c.baseURL + "/health"
	c.mu.RUnlock()

	var out struct {
		Status string `json:"status"`
	}
	if err := c.doURL(ctx, http.MethodGet, url, nil, &out); err != nil {
		return err
	}
	if out.Status != "" && out.Status != "ok" && out.Status != "healthy" {
		return apperrors.NewUnavailableError("backend reports status "+out.Status, nil)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	c.mu.RLock()
	url := c.baseURL + c.apiPrefix + path
	c.mu.RUnlock()
	return c.doURL(ctx, method, url, body, out)
}

func (c *Client) doURL(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalErrorWithCause("marshal request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return apperrors.NewInternalErrorWithCause("create request", err)
	}
	requestID := uuid.NewString()
	c.setHeaders(req, requestID, body != nil)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("Backend request failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return apperrors.NewUnavailableError("backend unreachable at "+c.BaseURL(), err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Backend request",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("latency", time.Since(start)),
	)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.NewUnavailableError("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.FromStatus(resp.StatusCode, parseDetail(respBody))
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.NewInternalErrorWithCause(
			fmt.Sprintf("unexpected response from %s %s", method, url), err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, requestID string, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	c.mu.RLock()
	key := c.apiKey
	c.mu.RUnlock()
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
}

// parseDetail extracts the human-readable detail from an error body. The
// backend sends either {"detail": "text"} or a validation list
// {"detail": [{"loc": [...], "msg": "..."}]}.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg == "" {
				continue
			}
			if len(it.Loc) > 0 {
				parts = append(parts, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			} else {
				parts = append(parts, it.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return string(envelope.Detail)
}
