package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/MKhiriev/report-sync/internal/utils"
)

const traceIDHeader = "X-Trace-ID"

var traceIDs = utils.NewUUIDGenerator()

// withTraceID reuses the caller's X-Trace-ID or generates one, and stores a
// request logger carrying it in the context.
func (h *Handler) withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if traceID == "" {
			traceID = traceIDs.Generate()
		}

		l := h.logger.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("trace_id", traceID)
		})
		r = r.WithContext(l.WithContext(r.Context()))

		w.Header().Set(traceIDHeader, traceID)
		next.ServeHTTP(w, r)
	})
}
