package http

import (
	"net/http"

	"github.com/MKhiriev/report-sync/internal/app"
	"github.com/MKhiriev/report-sync/internal/realtime"
	"github.com/MKhiriev/report-sync/internal/utils"
)

const userIDHeader = realtime.UserIDHeader

// withUserID stores the acting user from the X-User-ID header in the request
// context. The header is an identity, not a credential.
func (h *Handler) withUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			writeError(w, r, "*Handler.withUserID", ErrEmptyUserIDHeader, app.MsgNoUserIDProvided)
			return
		}

		next.ServeHTTP(w, r.WithContext(utils.WithUserID(r.Context(), userID)))
	})
}
