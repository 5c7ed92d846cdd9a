package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/service"
	"github.com/MKhiriev/report-sync/internal/store"
)

// ─────────────────────────────────────────────
// NewHandler
// ─────────────────────────────────────────────

func TestNewHandler_WithoutComponents(t *testing.T) {
	svc := &service.Services{}
	log := logger.Nop()
	h := NewHandler(svc, config.StructuredConfig{}, log)

	require.NotNil(t, h)
	assert.Equal(t, svc, h.services)
	assert.Equal(t, log, h.logger)
	assert.Nil(t, h.Realtime())
	assert.False(t, h.sharesRealtime())
}

func TestNewHandler_MountsRealtime(t *testing.T) {
	cfg := *config.Defaults()
	services, err := service.NewServices(
		&store.Storages{Records: store.NewMemoryRecordStore(), Audit: audit.Nop()},
		cfg, "1.0.0", logger.Nop())
	require.NoError(t, err)

	h := NewHandler(services, cfg, logger.Nop())
	assert.NotNil(t, h.Realtime())
	assert.True(t, h.sharesRealtime())

	cfg.WebSocket.Port = 8081
	h = NewHandler(services, cfg, logger.Nop())
	assert.NotNil(t, h.Realtime())
	assert.False(t, h.sharesRealtime(), "a dedicated listener serves the endpoint")
}

func TestNewHandler_IndependentInstances(t *testing.T) {
	h1 := NewHandler(&service.Services{}, config.StructuredConfig{}, logger.Nop())
	h2 := NewHandler(&service.Services{}, config.StructuredConfig{}, logger.Nop())

	assert.NotSame(t, h1, h2)
}
