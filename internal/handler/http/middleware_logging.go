package http

import (
	"net/http"
	"time"

	"github.com/MKhiriev/report-sync/internal/logger"
)

func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		start := time.Now()
		lw := &responseWriter{
			ResponseWriter: w,
		}

		next.ServeHTTP(lw, r)

		event := log.Info()
		if lw.status >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("uri", r.RequestURI).
			Str("method", r.Method).
			Str("user_id", r.Header.Get(userIDHeader)).
			Int("status", lw.status).
			Dur("duration", time.Since(start)).
			Int("size", lw.size).
			Send()
	})
}
