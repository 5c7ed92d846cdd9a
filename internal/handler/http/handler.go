package http

import (
	"net/http"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/realtime"
	"github.com/MKhiriev/report-sync/internal/service"
)

type Handler struct {
	services *service.Services
	cfg      config.StructuredConfig

	// realtime is nil when the services carry no sync components.
	realtime http.Handler

	logger *logger.Logger
}

func NewHandler(services *service.Services, cfg config.StructuredConfig, logger *logger.Logger) *Handler {
	h := &Handler{
		services: services,
		cfg:      cfg,
		logger:   logger,
	}
	if services != nil && services.Components != nil {
		h.realtime = realtime.NewEndpoint(services.Connections, services.SyncService,
			cfg.WebSocket, cfg.Server.AllowedOrigins, logger.WithComponent("websocket"))
	}

	logger.Info().Msg("http handler created")
	return h
}

// Realtime returns the WebSocket endpoint.
func (h *Handler) Realtime() http.Handler {
	return h.realtime
}

// sharesRealtime reports whether the WebSocket endpoint is mounted on the
// API router instead of a listener of its own.
func (h *Handler) sharesRealtime() bool {
	return h.realtime != nil && h.cfg.WebSocket.Address() == ""
}
