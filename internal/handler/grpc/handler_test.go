package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/resilience"
	"github.com/MKhiriev/report-sync/internal/service"
	"github.com/MKhiriev/report-sync/internal/store"
)

func check(t *testing.T, h *Handler, name string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: name})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHandler_FollowsDegradationLevel(t *testing.T) {
	ctx := context.Background()
	services, err := service.NewServices(
		&store.Storages{Records: store.NewMemoryRecordStore(), Audit: audit.Nop()},
		*config.Defaults(), "1.0.0", logger.Nop())
	require.NoError(t, err)

	h := NewHandler(services, logger.Nop())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, h, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, h, SyncServiceName))

	services.Degradation.SetLevel(ctx, resilience.LevelManualRefresh)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, h, SyncServiceName))

	services.Degradation.SetLevel(ctx, resilience.LevelOffline)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, h, SyncServiceName))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, h, ""))

	services.Degradation.SetLevel(ctx, resilience.LevelNormal)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, h, SyncServiceName))

	h.Shutdown()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, h, SyncServiceName))
}

func TestHandler_WithoutComponents(t *testing.T) {
	h := NewHandler(nil, logger.Nop())

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, h, SyncServiceName))
}
