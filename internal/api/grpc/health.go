// internal/api/grpc/health.go

// Package grpc exposes the instance claim through the standard gRPC health
// protocol: the service is SERVING only while this process owns the claim.
package grpc

import (
	"log/slog"

	"single-instance/internal/domain"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer publishes claim ownership as gRPC health status.
type HealthServer struct {
	*health.Server
	status  domain.StatusProvider
	service string
	logger  *slog.Logger
}

// NewHealthServer creates a health server for service and publishes the
// current claim status.
func NewHealthServer(status domain.StatusProvider, service string, logger *slog.Logger) *HealthServer {
	h := &HealthServer{
		Server:  health.NewServer(),
		status:  status,
		service: service,
		logger:  logger.With("component", "grpc-health"),
	}
	h.Refresh()
	return h
}

// Register adds the health service to srv.
func (h *HealthServer) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, h.Server)
}

// Refresh re-publishes the claim status. Callers invoke it when the claim
// changes while the server keeps running; on shutdown Shutdown is used
// instead, which marks every service NOT_SERVING.
func (h *HealthServer) Refresh() {
	st := h.status.Status()
	serving := healthpb.HealthCheckResponse_NOT_SERVING
	if st.Held {
		serving = healthpb.HealthCheckResponse_SERVING
	}
	h.SetServingStatus(h.service, serving)
	h.SetServingStatus("", serving)
	h.logger.Debug("health status updated", "service", h.service, "claim_name", st.Name, "status", serving.String())
}
