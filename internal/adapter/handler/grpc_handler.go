package handler

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/westock/internal/port"
)

// RemoteServiceName is the health service name that tracks the remote store.
const RemoteServiceName = "westock.Remote"

const DefaultProbeInterval = 15 * time.Second

// GRPCHandler serves grpc.health.v1.Health. The overall status and
// RemoteServiceName follow the remote store's reachability; with no remote
// configured both report SERVING.
type GRPCHandler struct {
	health   *health.Server
	remote   port.DocumentStore
	interval time.Duration
	log      *slog.Logger
}

func NewGRPCHandler(log *slog.Logger, remote port.DocumentStore, interval time.Duration) *GRPCHandler {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	h := &GRPCHandler{
		health:   health.NewServer(),
		remote:   remote,
		interval: interval,
		log:      log.With("handler", "grpc"),
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
	return h
}

func (h *GRPCHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
}

// Run probes the remote until ctx is cancelled, then marks everything
// NOT_SERVING.
func (h *GRPCHandler) Run(ctx context.Context) {
	if h.remote == nil {
		<-ctx.Done()
		h.health.Shutdown()
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

// Probe pings the remote once and updates the served status.
func (h *GRPCHandler) Probe(ctx context.Context) {
	if h.remote == nil {
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()

	if err := h.remote.Ping(pingCtx); err != nil {
		h.log.Warn("remote store unreachable", slog.Any("error", err))
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

func (h *GRPCHandler) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(RemoteServiceName, status)
}
