package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/report-sync/internal/app"
	"github.com/MKhiriev/report-sync/internal/utils"
	"github.com/MKhiriev/report-sync/models"
)

func (h *Handler) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.services.SyncService.Status(r.Context()), http.StatusOK)
}

// syncClient delivers the offline backlog of a live WebSocket connection.
// The body is optional.
func (h *Handler) syncClient(w http.ResponseWriter, r *http.Request) {
	connectionID := chi.URLParam(r, "connectionID")

	var req models.ClientSyncRequest
	if err := utils.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, "*Handler.syncClient", fmt.Errorf("%w: %w", ErrInvalidJSON, err), app.MsgInvalidSyncBody)
		return
	}

	delivered, err := h.services.SyncService.SyncClient(r.Context(), connectionID, req.LastSyncTimestamp)
	if err != nil {
		writeError(w, r, "*Handler.syncClient", err, app.MsgClientSyncFailed)
		return
	}

	utils.WriteJSON(w, models.ClientSyncResponse{ConnectionID: connectionID, Delivered: delivered}, http.StatusOK)
}

func (h *Handler) detectExternalChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := h.services.SyncService.DetectExternalChanges(r.Context())
	if err != nil {
		writeError(w, r, "*Handler.detectExternalChanges", err, app.MsgExternalDetectionFailed)
		return
	}

	if changes == nil {
		changes = []models.SyncEvent{}
	}
	utils.WriteJSON(w, models.ExternalChangesResponse{Changes: changes, Length: len(changes)}, http.StatusOK)
}
