package middleware

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mir00r/airtraffic/internal/config"
	cerrors "github.com/mir00r/airtraffic/internal/errors"
	"github.com/mir00r/airtraffic/pkg/logger"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the limiter table
const maxTrackedClients = 10000

// RateLimiter throttles gateway clients. Every gateway request costs at least
// one round trip on the HAProxy control socket, so clients are limited per IP.
type RateLimiter struct {
	limiters       map[string]*rate.Limiter
	mu             sync.Mutex
	rate           rate.Limit
	burst          int
	trustForwarded bool
	logger         *logger.Logger
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg config.RateLimitConfig, logger *logger.Logger) *RateLimiter {
	return &RateLimiter{
		limiters:       make(map[string]*rate.Limiter),
		rate:           rate.Limit(cfg.RequestsPerSecond),
		burst:          cfg.BurstSize,
		trustForwarded: cfg.TrustForwardedHeaders,
		logger:         logger.MiddlewareLogger("rate_limiter"),
	}
}

// getLimiter gets or creates a rate limiter for a client IP
func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[ip]
	if !exists {
		if len(rl.limiters) >= maxTrackedClients {
			rl.limiters = make(map[string]*rate.Limiter)
			rl.logger.Info("Cleaned up rate limiter cache")
		}
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[ip] = limiter
	}

	return limiter
}

// RateLimitMiddleware provides rate limiting functionality
func (rl *RateLimiter) RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r, rl.trustForwarded)
			limiter := rl.getLimiter(clientIP)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%.2f", float64(rl.rate)))

			if !limiter.Allow() {
				rl.logger.WithFields(map[string]interface{}{
					"client_ip": clientIP,
					"path":      r.URL.Path,
					"method":    r.Method,
				}).Warn("Rate limit exceeded")

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", "1")
				writeError(w, r, cerrors.NewRateLimitError(clientIP, float64(rl.rate)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ActiveClients returns the number of tracked clients
func (rl *RateLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// getClientIP extracts the client IP address from the request. Forwarding
// headers are set by the client unless a proxy rewrites them, so they are
// only read when trustForwarded is set.
func getClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			return strings.TrimSpace(strings.Split(xff, ",")[0])
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// errorResponse mirrors the gateway's error body
type errorResponse struct {
	Error     string            `json:"error"`
	Code      cerrors.ErrorCode `json:"code"`
	Timestamp time.Time         `json:"timestamp"`
	RequestID string            `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err *cerrors.ControlError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatusCode())
	json.NewEncoder(w).Encode(errorResponse{
		Error:     err.Message,
		Code:      err.Code,
		Timestamp: time.Now().UTC(),
		RequestID: RequestID(r.Context()),
	})
}
