package http

import (
	"net/http"

	"github.com/rs/cors"
)

// withCORS allows the configured origins, or any origin when none are set.
func (h *Handler) withCORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: h.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Content-Encoding", userIDHeader, traceIDHeader},
		ExposedHeaders: []string{traceIDHeader},
		MaxAge:         300,
	}).Handler
}
