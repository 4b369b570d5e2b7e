package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/mir00r/airtraffic/internal/config"
	cerrors "github.com/mir00r/airtraffic/internal/errors"
	"github.com/mir00r/airtraffic/pkg/logger"
)

const claimsKey contextKey = "jwt_claims"

// JWTClaims represents JWT token claims
type JWTClaims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries role
func (c *JWTClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ClaimsFromContext returns the claims of an authenticated request
func ClaimsFromContext(ctx context.Context) (*JWTClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*JWTClaims)
	return claims, ok
}

// JWTAuthMiddleware authenticates gateway requests with HMAC-signed bearer
// tokens. Read-only requests need any valid token; requests that change
// HAProxy state also need the admin role.
type JWTAuthMiddleware struct {
	config config.AuthConfig
	logger *logger.Logger
	parser *jwt.Parser
}

// NewJWTAuthMiddleware creates a new JWT authentication middleware
func NewJWTAuthMiddleware(cfg config.AuthConfig, logger *logger.Logger) (*JWTAuthMiddleware, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("jwt secret key is required")
	}

	m := &JWTAuthMiddleware{
		config: cfg,
		logger: logger.MiddlewareLogger("jwt_auth"),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})),
	}

	m.logger.WithFields(map[string]interface{}{
		"issuer":     cfg.Issuer,
		"admin_role": cfg.AdminRole,
	}).Info("JWT authentication middleware initialized")

	return m, nil
}

// JWTAuth returns the JWT authentication middleware
func (m *JWTAuthMiddleware) JWTAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				writeError(w, r, cerrors.NewAuthenticationError("missing bearer token"))
				return
			}

			claims, err := m.validateToken(tokenString)
			if err != nil {
				m.logger.WithError(err).WithField("path", r.URL.Path).Warn("JWT validation failed")
				writeError(w, r, cerrors.NewAuthenticationError(err.Error()))
				return
			}

			if isMutating(r.Method) && m.config.AdminRole != "" && !claims.HasRole(m.config.AdminRole) {
				writeError(w, r, cerrors.NewAuthorizationError(
					fmt.Sprintf("role %q required for %s", m.config.AdminRole, r.Method)))
				return
			}

			m.logger.WithFields(map[string]interface{}{
				"subject": claims.Subject,
				"path":    r.URL.Path,
				"method":  r.Method,
			}).Debug("JWT authentication successful")

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// extractToken extracts the JWT from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// validateToken validates and parses the JWT token
func (m *JWTAuthMiddleware) validateToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := m.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(m.config.SecretKey), nil
	})
	if err != nil && !expiredWithinSkew(err, claims, m.config.ClockSkew) {
		return nil, err
	}

	if m.config.Issuer != "" && !claims.VerifyIssuer(m.config.Issuer, true) {
		return nil, fmt.Errorf("invalid issuer")
	}

	return claims, nil
}

// expiredWithinSkew accepts a token whose only fault is an expiry less than
// skew in the past
func expiredWithinSkew(err error, claims *JWTClaims, skew time.Duration) bool {
	vErr, ok := err.(*jwt.ValidationError)
	if !ok || vErr.Errors != jwt.ValidationErrorExpired || claims.ExpiresAt == nil {
		return false
	}
	return time.Since(claims.ExpiresAt.Time) <= skew
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}
