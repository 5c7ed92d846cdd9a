// Package http implements the HTTP transport layer of the sync server.
//
// It exposes route wiring, request handlers, and middleware for the REST
// API and mounts the WebSocket endpoint. Request tracing, access logging,
// CORS, response compression and acting-user extraction are handled in this
// package before requests are delegated to the service layer.
package http
