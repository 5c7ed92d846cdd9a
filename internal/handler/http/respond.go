package http

import (
	"net/http"

	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/utils"
)

// writeError logs err with the request logger and answers with the JSON
// error body and the status mapped from err.
func writeError(w http.ResponseWriter, r *http.Request, fn string, err error, msg string) {
	status := statusFromError(err)

	log := logger.FromRequest(r)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("func", fn).Int("status", status).Msg(msg)

	utils.WriteJSON(w, errorResponse(err, status), status)
}
