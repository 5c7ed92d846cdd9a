package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/report-sync/internal/app"
	"github.com/MKhiriev/report-sync/internal/service"
	"github.com/MKhiriev/report-sync/internal/syncerr"
	"github.com/MKhiriev/report-sync/internal/validators"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"version conflict", syncerr.New(syncerr.KindVersionConflict, "HandleRecordUpdate", "R1", errors.New("stale")), http.StatusConflict},
		{"lock held", syncerr.New(syncerr.KindLockAcquisitionFailed, "LockRecord", "R1", nil), http.StatusLocked},
		{"broadcast failed", syncerr.New(syncerr.KindBroadcastFailed, "publish", "R1", nil), http.StatusBadGateway},
		{"data integrity", syncerr.New(syncerr.KindDataIntegrity, "HandleRecordUpdate", "R1", validators.ErrInvalidVersion), http.StatusBadRequest},
		{"unavailable", syncerr.New(syncerr.KindServiceUnavailable, "breaker", "", nil), http.StatusServiceUnavailable},
		{"offline", syncerr.New(syncerr.KindServiceUnavailable, "HandleRecordUpdate", "R1", service.ErrSystemOffline), http.StatusServiceUnavailable},
		{"rolled back", fmt.Errorf("%w: %w", service.ErrRecordRolledBack, syncerr.New(syncerr.KindBroadcastFailed, "publish", "R1", nil)), http.StatusBadGateway},
		{"unknown connection wins over kind", syncerr.New(syncerr.KindConnection, "SyncClient", "", service.ErrUnknownConnection), http.StatusNotFound},
		{"record not found", fmt.Errorf("%w: R9", service.ErrRecordNotFound), http.StatusNotFound},
		{"payload too large", syncerr.New(syncerr.KindDataIntegrity, "HandleRecordUpdate", "R1", validators.ErrPayloadTooLarge), http.StatusRequestEntityTooLarge},
		{"bad json", fmt.Errorf("%w: eof", ErrInvalidJSON), http.StatusBadRequest},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}

func TestErrorResponse(t *testing.T) {
	conflict := syncerr.New(syncerr.KindVersionConflict, "HandleRecordUpdate", "R1", errors.New("stale"))
	resp := errorResponse(conflict, http.StatusConflict)
	assert.Equal(t, "version_conflict", resp.Kind)
	assert.Equal(t, conflict.Error(), resp.Error)

	internal := errorResponse(errors.New("pq: password leaked in message"), http.StatusInternalServerError)
	assert.Equal(t, app.MsgInternalServerError, internal.Error)
	assert.Empty(t, internal.Kind)
}
