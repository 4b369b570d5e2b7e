package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mir00r/airtraffic/internal/config"
	_ "github.com/mir00r/airtraffic/internal/docs"
	"github.com/mir00r/airtraffic/internal/middleware"
	"github.com/mir00r/airtraffic/pkg/logger"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter builds the gateway's route table wrapped in the configured
// middleware chain
func NewRouter(cfg config.GatewayConfig, factory ClientFactory, version string, log *logger.Logger) (http.Handler, error) {
	router := mux.NewRouter()

	controlHandler := NewControlHandler(factory, log)
	healthHandler := NewHealthHandler(version, SocketProber{NewClient: factory, Timeout: 5 * time.Second})

	router.HandleFunc("/health", healthHandler.LivenessHandler).Methods("GET")
	router.HandleFunc("/liveness", healthHandler.LivenessHandler).Methods("GET")
	router.HandleFunc("/readiness", healthHandler.ReadinessHandler).Methods("GET")

	if cfg.Swagger {
		router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/info", controlHandler.InfoHandler).Methods("GET")
	api.HandleFunc("/sessions", controlHandler.SessionsHandler).Methods("GET")
	api.HandleFunc("/sessions/{id}", controlHandler.ShutdownSessionHandler).Methods("DELETE")
	api.HandleFunc("/errors", controlHandler.ErrorsHandler).Methods("GET")
	api.HandleFunc("/stats", controlHandler.StatsHandler).Methods("GET")

	servers := api.PathPrefix("/backends/{backend}/servers/{server}").Subrouter()
	servers.HandleFunc("/agent/{action}", controlHandler.AgentStateHandler).Methods("POST")
	servers.HandleFunc("/sessions", controlHandler.ShutdownServerSessionsHandler).Methods("DELETE")
	servers.HandleFunc("/weight", controlHandler.GetWeightHandler).Methods("GET")
	servers.HandleFunc("/weight", controlHandler.SetWeightHandler).Methods("PUT")
	servers.HandleFunc("/{action:enable|disable}", controlHandler.ServerStateHandler).Methods("POST")

	api.HandleFunc("/frontends/{name}/maxconn", controlHandler.FrontendMaxConnHandler).Methods("PUT")
	api.HandleFunc("/frontends/{name}/{action}", controlHandler.FrontendStateHandler).Methods("POST")

	api.HandleFunc("/maps", controlHandler.ListMapsHandler).Methods("GET")
	api.HandleFunc("/maps/{name:.+}", controlHandler.GetMapHandler).Methods("GET")
	api.HandleFunc("/maps/{name:.+}", controlHandler.SetMapHandler).Methods("PUT")
	api.HandleFunc("/maps/{name:.+}", controlHandler.ClearMapHandler).Methods("DELETE")

	api.HandleFunc("/global/maxconn", controlHandler.GlobalMaxConnHandler).Methods("PUT")
	api.HandleFunc("/global/rate-limit/{kind}", controlHandler.GlobalRateLimitHandler).Methods("PUT")

	middlewares := []func(http.Handler) http.Handler{
		middleware.LoggingMiddleware(log),
		middleware.RecoveryMiddleware(log),
		middleware.SecurityHeadersMiddleware(),
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, log)
		middlewares = append(middlewares, limiter.RateLimitMiddleware())
	}
	// Auth guards /api/v1 only; probes and docs stay reachable.
	if cfg.Auth.Enabled {
		auth, err := middleware.NewJWTAuthMiddleware(cfg.Auth, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create auth middleware: %w", err)
		}
		api.Use(mux.MiddlewareFunc(auth.JWTAuth()))
	}

	return middleware.Chain(router, middlewares...), nil
}
