package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the frame-level side of a client connection.
type Transport interface {
	// WriteMessage sends one text frame.
	WriteMessage(ctx context.Context, data []byte) error
	// Ping sends a ping control frame.
	Ping(ctx context.Context) error
	// ReadMessage blocks until the next data frame arrives.
	ReadMessage() ([]byte, error)
	// SetPongHandler registers a callback for pong frames.
	SetPongHandler(fn func())
	// Close sends a close frame with code and reason and releases the
	// connection. It is safe to call more than once.
	Close(code int, reason string) error
	RemoteAddr() string
}

// wsTransport adapts a gorilla connection. gorilla allows one concurrent
// writer, so data frames are serialized with writeMu.
type wsTransport struct {
	conn         *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	closeOnce    sync.Once
}

// NewWebSocketTransport wraps an upgraded gorilla connection.
func NewWebSocketTransport(conn *websocket.Conn, writeTimeout time.Duration, readLimit int64) Transport {
	if readLimit > 0 {
		conn.SetReadLimit(readLimit)
	}
	return &wsTransport{conn: conn, writeTimeout: writeTimeout}
}

func (t *wsTransport) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(t.writeTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(d) {
		return dl
	}
	return d
}

func (t *wsTransport) WriteMessage(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.SetWriteDeadline(t.deadline(ctx)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Ping(ctx context.Context) error {
	return t.conn.WriteControl(websocket.PingMessage, nil, t.deadline(ctx))
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (t *wsTransport) SetPongHandler(fn func()) {
	t.conn.SetPongHandler(func(string) error {
		fn()
		return nil
	})
}

func (t *wsTransport) Close(code int, reason string) error {
	var err error
	t.closeOnce.Do(func() {
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(time.Second))
		err = t.conn.Close()
	})
	return err
}

func (t *wsTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
