package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withCORS())

	// the upgrade needs the raw writer, so the endpoint skips the
	// body-wrapping middlewares
	if h.sharesRealtime() {
		router.Get(h.cfg.WebSocket.Path, h.realtime.ServeHTTP)
	}

	router.Group(func(r chi.Router) {
		r.Use(h.withLogging)
		r.Use(withGZip)
		if h.cfg.Server.RequestTimeout > 0 {
			r.Use(middleware.Timeout(h.cfg.Server.RequestTimeout))
		}

		r.Get("/api/version", h.getServerVersion)
		r.Get("/api/sync/status", h.getSyncStatus)
		r.Post("/api/sync/external", h.detectExternalChanges)
		r.Get("/api/records/{recordID}", h.getRecord)
		r.Get("/api/pairs/{pairingKey}", h.getPairing)

		// routes acting on behalf of a user
		r.Group(func(r chi.Router) {
			r.Use(h.withUserID)

			r.Post("/api/records/bulk", h.bulkUpdate)
			r.Post("/api/records/{recordID}", h.updateRecord)
			r.Post("/api/records/{recordID}/lock", h.lockRecord)
			r.Delete("/api/records/{recordID}/lock", h.unlockRecord)
			r.Post("/api/sync/clients/{connectionID}", h.syncClient)
		})
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
