package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/report-sync/internal/app"
	"github.com/MKhiriev/report-sync/internal/service"
	"github.com/MKhiriev/report-sync/internal/syncerr"
	"github.com/MKhiriev/report-sync/internal/validators"
	"github.com/MKhiriev/report-sync/models"
)

// errorStatuses is matched in order, so specific causes come before the
// error kinds that wrap them.
var errorStatuses = []struct {
	target error
	status int
}{
	{ErrInvalidJSON, http.StatusBadRequest},
	{ErrInvalidTTL, http.StatusBadRequest},
	{ErrEmptyUserIDHeader, http.StatusBadRequest},

	{service.ErrRecordNotFound, http.StatusNotFound},
	{service.ErrUnknownConnection, http.StatusNotFound},
	{service.ErrEmptyPairingKey, http.StatusBadRequest},
	{service.ErrSystemOffline, http.StatusServiceUnavailable},
	{service.ErrRecordRolledBack, http.StatusBadGateway},

	{validators.ErrInvalidRecordID, http.StatusBadRequest},
	{validators.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},

	{syncerr.ErrVersionConflict, http.StatusConflict},
	{syncerr.ErrLockAcquisitionFailed, http.StatusLocked},
	{syncerr.ErrBroadcastFailed, http.StatusBadGateway},
	{syncerr.ErrDataIntegrity, http.StatusBadRequest},
	{syncerr.ErrServiceUnavailable, http.StatusServiceUnavailable},
	{syncerr.ErrConnection, http.StatusServiceUnavailable},
}

func statusFromError(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// errorResponse builds the JSON body for err. Internal errors are not
// echoed to the client.
func errorResponse(err error, status int) models.ErrorResponse {
	resp := models.ErrorResponse{Error: err.Error()}
	if status == http.StatusInternalServerError {
		resp.Error = app.MsgInternalServerError
	}
	if kind := syncerr.KindOf(err); kind != syncerr.KindUnknown {
		resp.Kind = kind.String()
	}
	return resp
}
