package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/handler"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/service"
	"github.com/MKhiriev/report-sync/internal/workers"
)

const defaultShutdownTimeout = 10 * time.Second

type server struct {
	httpServer      *httpServer
	websocketServer *httpServer
	gRPCServer      *grpcServer

	services *service.Services
	workers  *workers.Workers

	shutdownTimeout time.Duration
	logger          *logger.Logger
}

// NewServer builds the servers selected by cfg. Services may be nil, in
// which case no workers run and no connections are closed on shutdown.
func NewServer(handlers *handler.Handlers, services *service.Services, cfg config.StructuredConfig, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")
	servers := &server{
		services:        services,
		workers:         workers.New(),
		shutdownTimeout: cfg.Server.ShutdownTimeout,
		logger:          logger,
	}
	if servers.shutdownTimeout <= 0 {
		servers.shutdownTimeout = defaultShutdownTimeout
	}

	if handlers.HTTP != nil {
		servers.httpServer = newHTTPServer("http", handlers.HTTP.Init(), cfg.Server.HTTPAddress, logger)

		if address := cfg.WebSocket.Address(); address != "" {
			endpoint := handlers.HTTP.Realtime()
			if endpoint == nil {
				return nil, errNoRealtimeEndpoint
			}
			mux := http.NewServeMux()
			mux.Handle(cfg.WebSocket.Path, endpoint)
			servers.websocketServer = newHTTPServer("websocket", mux, address, logger)
		}
	}
	if handlers.GRPC != nil {
		servers.gRPCServer = newGRPCServer(handlers.GRPC, cfg.Server.GRPCAddress, logger)
	}

	if servers.httpServer == nil && servers.gRPCServer == nil {
		return nil, errNoServersAreCreated
	}

	if services != nil {
		servers.workers.Add(services.Workers()...)
	}

	return servers, nil
}

func (s *server) RunServer() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	if err := s.run(ctx); err != nil {
		s.logger.Err(err).Str("func", "server.RunServer").Msg("error running server")
	}
}

func (s *server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.shutdown(ctx); err != nil {
		s.logger.Err(err).Str("func", "server.Shutdown").Msg("server shutdown was not graceful")
	}
}

func (s *server) listeners() []listener {
	var ls []listener
	if s.httpServer != nil {
		ls = append(ls, s.httpServer)
	}
	if s.websocketServer != nil {
		ls = append(ls, s.websocketServer)
	}
	if s.gRPCServer != nil {
		ls = append(ls, s.gRPCServer)
	}
	return ls
}

// run binds every listener, serves until ctx is done or a worker fails, and
// then shuts everything down.
func (s *server) run(ctx context.Context) error {
	if err := s.bind(); err != nil {
		return err
	}
	return s.serve(ctx)
}

func (s *server) bind() error {
	ls := s.listeners()
	if len(ls) == 0 {
		return errNoServersAreCreated
	}

	for i, l := range ls {
		if err := l.listen(); err != nil {
			for _, bound := range ls[:i] {
				bound.release()
			}
			return err
		}
	}
	return nil
}

func (s *server) serve(ctx context.Context) error {
	ls := s.listeners()

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	workersDone := make(chan error, 1)
	go func() {
		workersDone <- s.workers.Run(workersCtx)
	}()
	s.logger.Info().Int("workers", s.workers.Len()).Msg("background workers started")

	for _, l := range ls {
		go l.RunServer()
	}

	var workersErr error
	select {
	case <-ctx.Done():
		s.logger.Info().Msg("stop signal received")
	case workersErr = <-workersDone:
		s.logger.Err(workersErr).Str("func", "server.run").Msg("background worker stopped")
		workersDone = nil
	}

	s.Shutdown()

	stopWorkers()
	if workersDone != nil {
		workersErr = <-workersDone
	}

	s.logger.Info().Msg("server Shutdown gracefully")
	return workersErr
}

// shutdown closes the live connections of the sync core first, since HTTP
// shutdown does not track hijacked WebSocket connections.
func (s *server) shutdown(ctx context.Context) error {
	if s.services != nil {
		s.services.Shutdown(ctx)
	}

	var errs []error
	for _, l := range s.listeners() {
		errs = append(errs, l.shutdown(ctx))
	}
	return errors.Join(errs...)
}
