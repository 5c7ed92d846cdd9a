package server

import "context"

// Server defines the common lifecycle contract for transport servers managed
// by this package.
//
// Implementations are expected to block in [RunServer] until shutdown is
// requested and to release resources in [Shutdown].
type Server interface {
	// RunServer starts serving requests and blocks until the server stops.
	RunServer()

	// Shutdown gracefully stops the server and frees associated resources.
	Shutdown()
}

// listener is a transport that binds its address before it serves, so a
// bad address fails startup instead of a goroutine.
type listener interface {
	Server

	listen() error
	// release closes a bound listener that never served.
	release()
	shutdown(ctx context.Context) error
}
