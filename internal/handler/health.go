package handler

import (
	"context"
	"net/http"
	"time"
)

// Prober checks that the control socket answers
type Prober interface {
	Probe(ctx context.Context) error
}

// SocketProber probes by running "show info" on a fresh client
type SocketProber struct {
	NewClient ClientFactory
	Timeout   time.Duration
}

// Probe implements Prober
func (p SocketProber) Probe(ctx context.Context) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	client, err := p.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	_, err = client.Info(ctx)
	return err
}

// HealthHandler provides liveness and readiness endpoints
type HealthHandler struct {
	startTime time.Time
	version   string
	prober    Prober
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, prober Prober) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		version:   version,
		prober:    prober,
	}
}

// ReadinessHandler reports ready only while the control socket answers
func (h *HealthHandler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
		"uptime":    time.Since(h.startTime).String(),
	}

	status := http.StatusOK
	if h.prober != nil {
		if err := h.prober.Probe(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			response["status"] = "not_ready"
			response["error"] = err.Error()
		}
	}

	writeJSON(w, status, response)
}

// LivenessHandler checks if the gateway process is alive
func (h *HealthHandler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
		"uptime":    time.Since(h.startTime).String(),
	})
}
