// Package server wires and runs the application's transport servers.
//
// It owns the lifecycle of the HTTP API, the optional dedicated WebSocket
// listener, the gRPC health server and the background workers of the sync
// core: startup, signal handling and graceful shutdown.
package server
