package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/infrastructure/auth"
	"github.com/lingoquest/lingoquest-backend/internal/interface/http/handlers"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
)

type stubAuthenticator struct {
	claims *auth.Claims
	err    error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, _ string) (*auth.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

type stubHealth struct {
	status handlers.HealthStatus
}

func (s *stubHealth) Check(_ context.Context) handlers.HealthStatus { return s.status }

func (s *stubHealth) AddCheck(_ string, _ handlers.HealthCheckFunc) {}

func newTestServer(t *testing.T, mutate func(*Config, *Dependencies)) *Server {
	t.Helper()

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0

	deps := Dependencies{
		Authenticator: &stubAuthenticator{err: shared.ErrTokenMalformed},
		HealthChecker: &stubHealth{status: handlers.HealthStatus{Healthy: true, Ready: true, Timestamp: time.Now()}},
		Logger:        logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError}),
	}

	if mutate != nil {
		mutate(&cfg, &deps)
	}

	return NewServer(cfg, deps)
}

func doRequest(s *Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

// ─────────────────────────────────────────────────────────────────────────────
// Error classification
// ─────────────────────────────────────────────────────────────────────────────

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"not found", shared.ErrLessonNotFound, http.StatusNotFound, "not_found"},
		{"not enrolled", shared.ErrNotEnrolled, http.StatusConflict, "not_enrolled"},
		{"already enrolled", shared.ErrAlreadyEnrolled, http.StatusConflict, "conflict"},
		{"duplicate user", shared.ErrUserAlreadyExists, http.StatusConflict, "conflict"},
		{"validation", shared.ErrNegativeScore, http.StatusBadRequest, "validation"},
		{"bad credentials", shared.ErrInvalidCredentials, http.StatusUnauthorized, "unauthenticated"},
		{"expired session", shared.ErrSessionNotFound, http.StatusUnauthorized, "session_expired"},
		{"bad token", shared.ErrTokenMalformed, http.StatusUnauthorized, "invalid_token"},
		{"missing token", shared.ErrMissingToken, http.StatusUnauthorized, "unauthenticated"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind := classifyError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestWriteError_InternalDetailHidden(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.writeError(rec, errors.New("pq: password authentication failed"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal", body.Error.Kind)
	assert.Equal(t, "internal error", body.Error.Message)
	assert.NotContains(t, rec.Body.String(), "password")
}

// ─────────────────────────────────────────────────────────────────────────────
// Routes and middleware
// ─────────────────────────────────────────────────────────────────────────────

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data handlers.HealthStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Healthy)
}

func TestHealthEndpoint_Degraded(t *testing.T) {
	s := newTestServer(t, func(_ *Config, deps *Dependencies) {
		deps.HealthChecker = &stubHealth{status: handlers.HealthStatus{
			Healthy: false,
			Message: "postgres: connection refused",
		}}
	})

	rec := doRequest(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/v1/progress", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unauthenticated", body.Error.Kind)
}

func TestProtectedRouteWithBadToken(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/v1/progress", map[string]string{
		"Authorization": "Bearer garbage",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_token", body.Error.Kind)
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/live", map[string]string{
		"X-Request-ID": "req-42",
	})
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	rec = doRequest(s, http.MethodGet, "/live", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/live", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRateLimitExceeded(t *testing.T) {
	s := newTestServer(t, func(cfg *Config, _ *Dependencies) {
		cfg.RateLimitPerMinute = 2
	})

	headers := map[string]string{"X-Forwarded-For": "203.0.113.9"}
	for i := 0; i < 2; i++ {
		rec := doRequest(s, http.MethodGet, "/live", headers)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(s, http.MethodGet, "/live", headers)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// A different client is unaffected.
	rec = doRequest(s, http.MethodGet, "/live", map[string]string{"X-Forwarded-For": "203.0.113.10"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "203.0.113.7")
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:51234"
	assert.Equal(t, "192.0.2.1", clientIP(req))
}

func TestQueryParamInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit=25", nil)
	assert.Equal(t, 25, queryParamInt(req, "limit", 10))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil)
	assert.Equal(t, 10, queryParamInt(req, "limit", 10))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit=abc", nil)
	assert.Equal(t, 10, queryParamInt(req, "limit", 10))
}
