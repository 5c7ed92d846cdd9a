package http

import (
	"net/http"

	"github.com/MKhiriev/report-sync/internal/utils"
	"github.com/MKhiriev/report-sync/models"
)

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, models.VersionResponse{
		Version: h.services.AppInfoService.GetAppVersion(r.Context()),
	}, http.StatusOK)
}
