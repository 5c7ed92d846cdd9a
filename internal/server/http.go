package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/MKhiriev/report-sync/internal/logger"
)

const readHeaderTimeout = 10 * time.Second

type httpServer struct {
	name     string
	server   *http.Server
	listener net.Listener

	logger *logger.Logger
}

// newHTTPServer serves handler on address. No write timeout is set since
// WebSocket connections may share the server.
func newHTTPServer(name string, handler http.Handler, address string, logger *logger.Logger) *httpServer {
	return &httpServer{
		name: name,
		server: &http.Server{
			Addr:              address,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: logger,
	}
}

func (h *httpServer) listen() error {
	ln, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return err
	}
	h.listener = ln
	return nil
}

func (h *httpServer) release() {
	if h.listener != nil {
		_ = h.listener.Close()
	}
}

func (h *httpServer) addr() string {
	if h.listener == nil {
		return h.server.Addr
	}
	return h.listener.Addr().String()
}

func (h *httpServer) RunServer() {
	if h.listener == nil {
		if err := h.listen(); err != nil {
			h.logger.Err(err).Str("func", "httpServer.RunServer").Str("server", h.name).Msg("failed to listen")
			return
		}
	}

	h.logger.Info().Str("server", h.name).Str("address", h.addr()).Msg("serving")
	if err := h.server.Serve(h.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.Err(err).Str("func", "httpServer.RunServer").Str("server", h.name).Msg("serve failed")
	}
}

func (h *httpServer) Shutdown() {
	if err := h.shutdown(context.Background()); err != nil {
		h.logger.Err(err).Str("func", "httpServer.Shutdown").Str("server", h.name).Msg("shutdown failed")
	}
}

func (h *httpServer) shutdown(ctx context.Context) error {
	if h.listener == nil {
		return nil
	}
	if err := h.server.Shutdown(ctx); err != nil {
		return errors.Join(err, h.server.Close())
	}
	return nil
}
