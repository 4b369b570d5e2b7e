package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/mir00r/airtraffic/internal/config"
	"github.com/mir00r/airtraffic/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestMiddlewareLogger creates a logger for middleware testing
func createTestMiddlewareLogger() *logger.Logger {
	testLogger, _ := logger.New(logger.Config{
		Level:  "error",
		Format: "text",
		Output: "stderr",
	})
	return testLogger
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterBurstThenBlock(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2}, createTestMiddlewareLogger())
	h := rl.RateLimitMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "same host on another port shares the limit")
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimiterPerClientIsolation(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}, createTestMiddlewareLogger())
	h := rl.RateLimitMiddleware()(okHandler())

	for _, ip := range []string{"10.0.0.1:1000", "10.0.0.2:1000"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, ip)
	}
	assert.Equal(t, 2, rl.ActiveClients())
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:4431"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	req.Header.Set("X-Real-IP", "203.0.113.9")

	assert.Equal(t, "198.51.100.7", getClientIP(req, false), "forwarding headers are ignored by default")
	assert.Equal(t, "203.0.113.5", getClientIP(req, true))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "203.0.113.9", getClientIP(req, true))
}

func TestRateLimiterIgnoresSpoofedForwardedFor(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}, createTestMiddlewareLogger())
	h := rl.RateLimitMiddleware()(okHandler())

	allowed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.1.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed)
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestRateLimiterTrustsForwardedForWhenConfigured(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(config.RateLimitConfig{
		RequestsPerSecond:     1,
		BurstSize:             1,
		TrustForwardedHeaders: true,
	}, createTestMiddlewareLogger())
	h := rl.RateLimitMiddleware()(okHandler())

	for _, client := range []string{"10.1.0.1", "10.1.0.2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		req.Header.Set("X-Forwarded-For", client+", 192.0.2.10")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, client)
	}
	assert.Equal(t, 2, rl.ActiveClients())
}

const testSecret = "test-secret"

func signToken(t *testing.T, claims JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newTestJWT(t *testing.T) http.Handler {
	t.Helper()
	m, err := NewJWTAuthMiddleware(config.AuthConfig{
		Enabled:   true,
		SecretKey: testSecret,
		Issuer:    "airtraffic",
		AdminRole: "admin",
		ClockSkew: 5 * time.Second,
	}, createTestMiddlewareLogger())
	require.NoError(t, err)
	return m.JWTAuth()(okHandler())
}

func claimsFor(roles ...string) JWTClaims {
	return JWTClaims{
		Username: "ops",
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			Issuer:    "airtraffic",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestJWTAuth(t *testing.T) {
	h := newTestJWT(t)

	expired := claimsFor("admin")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	withinSkew := claimsFor("admin")
	withinSkew.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Second))

	wrongIssuer := claimsFor("admin")
	wrongIssuer.Issuer = "someone-else"

	tests := []struct {
		name   string
		method string
		token  string
		status int
	}{
		{"missing token", http.MethodGet, "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "not.a.jwt", http.StatusUnauthorized},
		{"reader can read", http.MethodGet, signToken(t, claimsFor("viewer")), http.StatusOK},
		{"reader cannot write", http.MethodPost, signToken(t, claimsFor("viewer")), http.StatusForbidden},
		{"admin can write", http.MethodPut, signToken(t, claimsFor("admin")), http.StatusOK},
		{"expired", http.MethodGet, signToken(t, expired), http.StatusUnauthorized},
		{"expired within skew", http.MethodGet, signToken(t, withinSkew), http.StatusOK},
		{"wrong issuer", http.MethodGet, signToken(t, wrongIssuer), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/info", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestJWTRequiresSecret(t *testing.T) {
	_, err := NewJWTAuthMiddleware(config.AuthConfig{Enabled: true}, createTestMiddlewareLogger())
	assert.Error(t, err)
}

func TestLoggingMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	h := LoggingMiddleware(createTestMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc", seen)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RecoveryMiddleware(createTestMiddlewareLogger()))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() { h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecoveryLogsRequestID(t *testing.T) {
	log, err := logger.New(logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	var buf bytes.Buffer
	log.SetOutput(&buf)

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), LoggingMiddleware(log), RecoveryMiddleware(log))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var panicEntry map[string]interface{}
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var entry map[string]interface{}
		require.NoError(t, dec.Decode(&entry))
		if entry["msg"] == "Panic recovered in request handler" {
			panicEntry = entry
		}
	}
	require.NotNil(t, panicEntry)
	assert.Equal(t, "req-42", panicEntry["request_id"])
}

func TestRecoveryFallsBackToResponseHeader(t *testing.T) {
	log, err := logger.New(logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	var buf bytes.Buffer
	log.SetOutput(&buf)

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RecoveryMiddleware(log), LoggingMiddleware(log))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-43")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"request_id":"req-43"`)
}
