package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/safecheck/internal/config"
	"github.com/albapepper/safecheck/internal/notifications"
	"github.com/albapepper/safecheck/internal/store"
)

type stubRunner struct{ calls int }

func (s *stubRunner) Run(ctx context.Context, opts notifications.Options) (*notifications.Summary, error) {
	s.calls++
	return &notifications.Summary{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		CORSAllowOrigins:  []string{"http://localhost:5173"},
		RateLimitEnabled:  false,
		RateLimitRequests: 60,
		RateLimitWindow:   time.Minute,
		JobTriggerToken:   "secret",
	}
}

func newServer(cfg *config.Config, runner *stubRunner) http.Handler {
	return NewRouter(store.NewMemory(), runner, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRootAndHealth(t *testing.T) {
	h := newServer(testConfig(), &stubRunner{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Safecheck API")
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newServer(testConfig(), &stubRunner{}), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "safecheck_users_scanned_total")
}

func TestJobTriggerRequiresBearer(t *testing.T) {
	runner := &stubRunner{}
	h := newServer(testConfig(), runner)

	tests := []struct {
		name   string
		auth   string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/inactivity-check", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			assert.Equal(t, tt.status, serve(h, req).Code)
		})
	}
	assert.Equal(t, 1, runner.calls)
}

func TestJobTriggerDisabledWithoutToken(t *testing.T) {
	cfg := testConfig()
	cfg.JobTriggerToken = ""
	runner := &stubRunner{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/inactivity-check", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := serve(newServer(cfg, runner), req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, runner.calls)
}

func TestUserRoutes(t *testing.T) {
	h := newServer(testConfig(), &stubRunner{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"device_id":"dev-1"}`))
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"device_id":"dev-1"`)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/users/missing/status", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitRequests = 4 // burst 2
	h := newServer(cfg, &stubRunner{})

	var codes []int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/x/status", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(h, req).Code)
	}
	assert.Equal(t, []int{http.StatusNotFound, http.StatusNotFound, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)

	// Health is outside the limited group.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, http.StatusOK, serve(h, req).Code)

	// Other clients have their own bucket.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/x/status", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusNotFound, serve(h, req).Code)
}

func TestIPLimiterEvictsIdleClients(t *testing.T) {
	l := newIPLimiter(10, time.Minute)
	now := time.Now()
	assert.True(t, l.allow("a", now))
	assert.True(t, l.allow("b", now.Add(limiterIdleTTL+time.Second)))
	_, ok := l.clients["a"]
	assert.False(t, ok)
	assert.Len(t, l.clients, 1)
}
