package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/resilience"
	"github.com/MKhiriev/report-sync/internal/service"
)

// SyncServiceName is the health service name of the sync core. The empty
// name reports the whole server.
const SyncServiceName = "reportsync.Sync"

// Handler is the root gRPC transport handler.
//
// It serves the standard grpc.health.v1 service. The status of
// [SyncServiceName] follows the degradation level: every level except
// offline is SERVING.
type Handler struct {
	// services provides access to the sync components.
	services *service.Services

	health *health.Server

	// logger is used for diagnostic log output.
	logger *logger.Logger
}

// NewHandler constructs a [Handler] and, when the services carry the sync
// components, subscribes it to degradation level changes.
func NewHandler(services *service.Services, logger *logger.Logger) *Handler {
	h := &Handler{
		services: services,
		health:   health.NewServer(),
		logger:   logger,
	}
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if services != nil && services.Components != nil {
		h.setLevel(services.Degradation.Level())
		services.Degradation.OnChange(h.levelChanged)
	} else {
		h.health.SetServingStatus(SyncServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	logger.Debug().Msg("gRPC handler created")
	return h
}

// Register adds the handler's services to srv.
func (h *Handler) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, h.health)
}

// Shutdown reports NOT_SERVING for every service and ends open watches.
func (h *Handler) Shutdown() {
	h.health.Shutdown()
}

func (h *Handler) levelChanged(_ context.Context, from, to resilience.Level, _ resilience.LevelSettings) {
	h.setLevel(to)
	h.logger.Info().
		Str("func", "Handler.levelChanged").
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("health status updated")
}

func (h *Handler) setLevel(level resilience.Level) {
	status := healthpb.HealthCheckResponse_SERVING
	if level == resilience.LevelOffline {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus(SyncServiceName, status)
}
