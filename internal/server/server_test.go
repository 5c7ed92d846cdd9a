package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/handler"
	myGRPC "github.com/MKhiriev/report-sync/internal/handler/grpc"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/service"
	"github.com/MKhiriev/report-sync/internal/store"
)

func newTestConfig() config.StructuredConfig {
	cfg := *config.Defaults()
	cfg.Server.HTTPAddress = "127.0.0.1:0"
	cfg.Server.GRPCAddress = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Features.DisableBatching = true
	return cfg
}

func newTestServices(t *testing.T, cfg config.StructuredConfig) *service.Services {
	t.Helper()

	services, err := service.NewServices(
		&store.Storages{Records: store.NewMemoryRecordStore(), Audit: audit.Nop()},
		cfg, "1.0.0", logger.Nop())
	require.NoError(t, err)
	return services
}

// ─────────────────────────────────────────────
// NewServer
// ─────────────────────────────────────────────

func TestNewServer_NoHandlers(t *testing.T) {
	srv, err := NewServer(&handler.Handlers{}, nil, newTestConfig(), logger.Nop())
	require.ErrorIs(t, err, errNoServersAreCreated)
	assert.Nil(t, srv)
}

func TestNewServer_WebSocketListenerNeedsServices(t *testing.T) {
	cfg := newTestConfig()
	cfg.WebSocket.Host = "127.0.0.1"

	handlers, err := handler.NewHandlers(nil, cfg, logger.Nop())
	require.NoError(t, err)

	_, err = NewServer(handlers, nil, cfg, logger.Nop())
	require.ErrorIs(t, err, errNoRealtimeEndpoint)
}

func TestNewServer_SelectsTransports(t *testing.T) {
	cfg := newTestConfig()
	cfg.Server.GRPCAddress = ""
	services := newTestServices(t, cfg)

	handlers, err := handler.NewHandlers(services, cfg, logger.Nop())
	require.NoError(t, err)

	srv, err := NewServer(handlers, services, cfg, logger.Nop())
	require.NoError(t, err)

	s := srv.(*server)
	assert.NotNil(t, s.httpServer)
	assert.Nil(t, s.websocketServer)
	assert.Nil(t, s.gRPCServer)
	assert.Equal(t, len(services.Workers()), s.workers.Len())
}

func TestRun_BindFailure(t *testing.T) {
	cfg := newTestConfig()
	cfg.Server.GRPCAddress = "256.0.0.1:bad"

	handlers, err := handler.NewHandlers(nil, cfg, logger.Nop())
	require.NoError(t, err)
	srv, err := NewServer(handlers, nil, cfg, logger.Nop())
	require.NoError(t, err)

	require.Error(t, srv.(*server).run(context.Background()))
}

// ─────────────────────────────────────────────
// lifecycle
// ─────────────────────────────────────────────

func TestServe_RunsAndShutsDown(t *testing.T) {
	cfg := newTestConfig()
	cfg.WebSocket.Host = "127.0.0.1"
	services := newTestServices(t, cfg)

	handlers, err := handler.NewHandlers(services, cfg, logger.Nop())
	require.NoError(t, err)
	srv, err := NewServer(handlers, services, cfg, logger.Nop())
	require.NoError(t, err)

	s := srv.(*server)
	require.NoError(t, s.bind())
	httpAddr, wsAddr, grpcAddr := s.httpServer.addr(), s.websocketServer.addr(), s.gRPCServer.addr()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx) }()

	// HTTP API
	resp, err := http.Get("http://" + httpAddr + "/api/version")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the dedicated listener serves the WebSocket endpoint
	ws, wsResp, err := websocket.DefaultDialer.Dial("ws://"+wsAddr+cfg.WebSocket.Path+"?user_id=dr-a", nil)
	require.NoError(t, err)
	defer wsResp.Body.Close()
	defer ws.Close()
	assert.Eventually(t, func() bool { return services.Connections.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// gRPC health
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	check, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: myGRPC.SyncServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check.GetStatus())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	assert.Zero(t, services.Connections.Count())
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	_, err = http.Get("http://" + httpAddr + "/api/version")
	assert.Error(t, err)
}
