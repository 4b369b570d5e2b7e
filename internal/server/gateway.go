package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mir00r/airtraffic/internal/config"
	"github.com/mir00r/airtraffic/pkg/logger"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ShutdownTimeout bounds graceful shutdown of the gateway
const ShutdownTimeout = 30 * time.Second

// GatewayServer serves the HTTP gateway, optionally speaking cleartext HTTP/2
type GatewayServer struct {
	config     config.GatewayConfig
	logger     *logger.Logger
	httpServer *http.Server
}

// NewGatewayServer creates the gateway's http.Server around handler
func NewGatewayServer(cfg config.GatewayConfig, handler http.Handler, log *logger.Logger) *GatewayServer {
	if cfg.HTTP2 {
		handler = h2c.NewHandler(handler, &http2.Server{
			MaxConcurrentStreams: 250,
			MaxReadFrameSize:     1048576, // 1MB
			IdleTimeout:          cfg.IdleTimeout,
		})
	}

	return &GatewayServer{
		config: cfg,
		logger: log.GatewayLogger(),
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Start listens on the configured port and blocks until Shutdown
func (s *GatewayServer) Start() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(l)
}

// Serve accepts connections on l and blocks until Shutdown
func (s *GatewayServer) Serve(l net.Listener) error {
	s.logger.WithFields(map[string]interface{}{
		"address":       l.Addr().String(),
		"http2_enabled": s.config.HTTP2,
	}).Info("Starting gateway server")

	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *GatewayServer) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to shutdown gateway server")
		return err
	}
	s.logger.Info("Gateway server stopped")
	return nil
}
