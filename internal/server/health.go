package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/mir00r/airtraffic/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ControlService is the health service name tracking the control socket
const ControlService = "airtraffic.control"

// Prober checks that the control socket answers
type Prober interface {
	Probe(ctx context.Context) error
}

// HealthServer exposes grpc.health.v1 with a status driven by periodic probes
// of the control socket
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	prober     Prober
	interval   time.Duration
	logger     *logger.Logger
}

// NewHealthServer creates a health server. Both the overall ("") service and
// ControlService start NOT_SERVING until the first probe succeeds.
func NewHealthServer(prober Prober, interval time.Duration, log *logger.Logger) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	hs := health.NewServer()
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ControlService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)

	return &HealthServer{
		grpcServer: gs,
		health:     hs,
		prober:     prober,
		interval:   interval,
		logger:     log.HealthLogger(),
	}
}

// Start listens on port and serves until Stop
func (s *HealthServer) Start(port int) error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on grpc health port %d: %w", port, err)
	}
	return s.Serve(l)
}

// Serve serves grpc.health.v1 on l until Stop
func (s *HealthServer) Serve(l net.Listener) error {
	s.logger.WithField("address", l.Addr().String()).Info("Starting gRPC health server")
	return s.grpcServer.Serve(l)
}

// Run probes the control socket every interval until ctx is done
func (s *HealthServer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *HealthServer) probe(ctx context.Context) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := s.prober.Probe(ctx); err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		s.logger.WithError(err).Warn("Control socket probe failed")
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ControlService, status)
}

// Stop marks every service NOT_SERVING and stops the gRPC server
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
