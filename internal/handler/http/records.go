package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/report-sync/internal/app"
	"github.com/MKhiriev/report-sync/internal/utils"
	"github.com/MKhiriev/report-sync/models"
)

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)
	recordID := chi.URLParam(r, "recordID")

	var req models.UpdateRecordRequest
	if err := utils.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, "*Handler.updateRecord", fmt.Errorf("%w: %w", ErrInvalidJSON, err), app.MsgInvalidUpdateBody)
		return
	}

	result, err := h.services.SyncService.HandleRecordUpdate(ctx, recordID, req.Data, userID, req.Version)
	if err != nil {
		writeError(w, r, "*Handler.updateRecord", err, app.MsgUpdateRejected)
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) bulkUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	var req models.BulkUpdateRequest
	if err := utils.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, "*Handler.bulkUpdate", fmt.Errorf("%w: %w", ErrInvalidJSON, err), app.MsgInvalidBulkBody)
		return
	}

	result, err := h.services.SyncService.HandleBulkUpdate(ctx, req.Updates, userID)
	if err != nil {
		writeError(w, r, "*Handler.bulkUpdate", err, app.MsgBulkUpdateRejected)
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) lockRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)
	recordID := chi.URLParam(r, "recordID")

	var req models.LockRequest
	if err := utils.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, "*Handler.lockRecord", fmt.Errorf("%w: %w", ErrInvalidJSON, err), app.MsgInvalidLockBody)
		return
	}
	if req.TTLSeconds < 0 {
		writeError(w, r, "*Handler.lockRecord", ErrInvalidTTL, app.MsgInvalidLockBody)
		return
	}

	lock, err := h.services.SyncService.LockRecord(ctx, recordID, userID, req.Version, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		writeError(w, r, "*Handler.lockRecord", err, app.MsgLockRejected)
		return
	}

	utils.WriteJSON(w, lock, http.StatusOK)
}

func (h *Handler) unlockRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)
	recordID := chi.URLParam(r, "recordID")

	released, err := h.services.SyncService.UnlockRecord(ctx, recordID, userID)
	if err != nil {
		writeError(w, r, "*Handler.unlockRecord", err, app.MsgUnlockRejected)
		return
	}

	utils.WriteJSON(w, models.UnlockResponse{RecordID: recordID, Released: released}, http.StatusOK)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.services.RecordService.GetRecord(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		writeError(w, r, "*Handler.getRecord", err, app.MsgRecordNotFound)
		return
	}

	utils.WriteJSON(w, record, http.StatusOK)
}

func (h *Handler) getPairing(w http.ResponseWriter, r *http.Request) {
	pairingKey := chi.URLParam(r, "pairingKey")

	records, err := h.services.RecordService.GetPairing(r.Context(), pairingKey)
	if err != nil {
		writeError(w, r, "*Handler.getPairing", err, app.MsgPairingFailed)
		return
	}

	utils.WriteJSON(w, models.PairingResponse{
		PairingKey: pairingKey,
		Records:    records,
		Length:     len(records),
	}, http.StatusOK)
}
