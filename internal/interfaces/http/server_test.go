package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentops/console/internal/infrastructure/monitoring"
)

type okBackend struct{}

func (okBackend) Health(ctx context.Context) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv, err := NewServer(Config{Host: "127.0.0.1", Port: 0}, Deps{
		Health:    okBackend{},
		Monitor:   monitoring.NewMonitor(zap.NewNop()),
		NoticeTTL: func() time.Duration { return time.Second },
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"backend":"ok"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestServer_SecureHeaders(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agents/new", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	checks := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "same-origin",
	}
	for header, want := range checks {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if csp := w.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'self'") {
		t.Errorf("unexpected CSP %q", csp)
	}
}

func TestServer_AgentFormListsModels(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agents/new", nil))

	body := w.Body.String()
	for _, label := range []string{"GPT-4o", "Claude 3.5 Sonnet", "Llama 3 (Local)"} {
		if !strings.Contains(body, label) {
			t.Errorf("model %q missing", label)
		}
	}
	if !strings.Contains(body, `value="gpt-4o" selected`) {
		t.Error("default model should be preselected")
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestServer_MetricsCountRequests(t *testing.T) {
	srv := newTestServer(t)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "agentops_http_requests_total 1") {
		t.Errorf("expected one counted request:\n%s", w.Body.String())
	}
}
