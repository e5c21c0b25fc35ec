package handler

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/cutout-server/internal/logger"
)

// Pinger reports backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves grpc.health.v1 for the process and tracks backend
// availability under the overall ("") service.
type Health struct {
	server *health.Server
	pinger Pinger
	logger *logger.Logger
}

// NewHealth reports SERVING until the first failed probe. pinger may be nil.
func NewHealth(pinger Pinger, logger *logger.Logger) *Health {
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return &Health{server: srv, pinger: pinger, logger: logger}
}

// Server returns the service implementation for registration.
func (h *Health) Server() healthpb.HealthServer {
	return h.server
}

// Probe pings the backend once and updates the status.
func (h *Health) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn("Health handler: backend probe failed",
				"error", err.Error())
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.server.SetServingStatus("", st)
	return st
}

// Watch probes every interval until ctx is done.
func (h *Health) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, interval)
			h.Probe(probeCtx)
			cancel()
		}
	}
}

// Shutdown reports NOT_SERVING for every service and ignores later updates.
func (h *Health) Shutdown() {
	h.server.Shutdown()
}
