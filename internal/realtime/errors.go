package realtime

import "errors"

var (
	// ErrTooManyConnections is returned by AddConnection when the user
	// already holds the maximum number of live connections.
	ErrTooManyConnections = errors.New("too many connections for user")
	// ErrDuplicateConnection is returned when the connection id is live.
	ErrDuplicateConnection = errors.New("connection id already in use")
	// ErrConnectionClosed is returned by sends on a removed connection.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrUnknownMessageType is returned by ParseClientMessage for a type
	// outside the client protocol.
	ErrUnknownMessageType = errors.New("unknown message type")
	// ErrInvalidMessage is returned by ParseClientMessage for malformed
	// payloads.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrStaleConnection is returned by health checks when no frame arrived
	// recently.
	ErrStaleConnection = errors.New("no traffic from client")
)
