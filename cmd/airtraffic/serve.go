package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mir00r/airtraffic/internal/config"
	"github.com/mir00r/airtraffic/internal/handler"
	"github.com/mir00r/airtraffic/internal/server"
	"github.com/mir00r/airtraffic/pkg/logger"
)

// runServe runs the HTTP gateway, and the gRPC health service when a port is
// configured, until ctx is cancelled
func runServe(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	factory := handler.DialFactory(cfg.ToControlOptions(), log)

	router, err := handler.NewRouter(cfg.Gateway, factory, version, log)
	if err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"version":      version,
		"socket":       cfg.Socket.Path,
		"policy":       cfg.Socket.Policy,
		"port":         cfg.Gateway.Port,
		"rate_limit":   cfg.Gateway.RateLimit.Enabled,
		"auth_enabled": cfg.Gateway.Auth.Enabled,
	}).Info("Starting airtraffic gateway")

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	errCh := make(chan error, 2)

	gateway := server.NewGatewayServer(cfg.Gateway, router, log)
	go func() {
		if err := gateway.Start(); err != nil {
			errCh <- fmt.Errorf("gateway server failed: %w", err)
		}
	}()

	var health *server.HealthServer
	if cfg.Gateway.GRPCHealthPort > 0 {
		prober := handler.SocketProber{NewClient: factory, Timeout: 5 * time.Second}
		health = server.NewHealthServer(prober, cfg.Gateway.HealthProbeInterval, log)
		go health.Run(ctx)
		go func() {
			if err := health.Start(cfg.Gateway.GRPCHealthPort); err != nil {
				errCh <- fmt.Errorf("grpc health server failed: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err = <-errCh:
		log.WithError(err).Error("Server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancel()

	if health != nil {
		health.Stop()
	}
	if shutdownErr := gateway.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}

	log.Info("airtraffic gateway stopped")
	return err
}
