package server

import (
	"context"
	"net"

	"google.golang.org/grpc"

	myGRPC "github.com/MKhiriev/report-sync/internal/handler/grpc"
	"github.com/MKhiriev/report-sync/internal/logger"
)

type grpcServer struct {
	handler *myGRPC.Handler

	address         string
	server          *grpc.Server
	gRPCNetListener net.Listener

	logger *logger.Logger
}

func newGRPCServer(handler *myGRPC.Handler, address string, logger *logger.Logger) *grpcServer {
	srv := grpc.NewServer()
	handler.Register(srv)

	return &grpcServer{
		handler: handler,
		address: address,
		server:  srv,
		logger:  logger,
	}
}

func (g *grpcServer) listen() error {
	ln, err := net.Listen("tcp", g.address)
	if err != nil {
		return err
	}
	g.gRPCNetListener = ln
	return nil
}

func (g *grpcServer) release() {
	if g.gRPCNetListener != nil {
		_ = g.gRPCNetListener.Close()
	}
}

func (g *grpcServer) addr() string {
	if g.gRPCNetListener == nil {
		return g.address
	}
	return g.gRPCNetListener.Addr().String()
}

func (g *grpcServer) RunServer() {
	if g.gRPCNetListener == nil {
		if err := g.listen(); err != nil {
			g.logger.Err(err).Str("func", "grpcServer.RunServer").Msg("failed to listen")
			return
		}
	}

	g.logger.Info().Str("server", "grpc").Str("address", g.addr()).Msg("serving")
	if err := g.server.Serve(g.gRPCNetListener); err != nil {
		g.logger.Err(err).Str("func", "grpcServer.RunServer").Msg("gRPC server Serve failed")
	}
}

func (g *grpcServer) Shutdown() {
	_ = g.shutdown(context.Background())
}

// shutdown ends health watches first, since GracefulStop waits for open
// streams. When ctx expires the server is stopped hard.
func (g *grpcServer) shutdown(ctx context.Context) error {
	g.logger.Info().Msg("GRPC server Shutdown")
	g.handler.Shutdown()

	stopped := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		g.server.Stop()
		<-stopped
		return ctx.Err()
	}
}
