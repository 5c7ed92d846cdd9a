package realtime

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Connection is a live client connection. The connection manager owns it
// from AddConnection until removal.
type Connection struct {
	id          string
	userID      string
	transport   Transport
	connectedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
	topics   []string
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc

	reconnector *Reconnector
	health      *HealthMonitor
}

func NewConnection(id, userID string, transport Transport, now time.Time) *Connection {
	return &Connection{
		id:          id,
		userID:      userID,
		transport:   transport,
		connectedAt: now,
		lastSeen:    now,
	}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) UserID() string { return c.userID }

func (c *Connection) ConnectedAt() time.Time { return c.connectedAt }

func (c *Connection) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func (c *Connection) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

// Topics returns the subscription set last acknowledged to the client.
func (c *Connection) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.topics)
}

func (c *Connection) SetTopics(topics []string) {
	c.mu.Lock()
	c.topics = slices.Clone(topics)
	c.mu.Unlock()
}

// Closed reports whether the connection has been removed.
func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Send writes a pre-encoded payload.
func (c *Connection) Send(ctx context.Context, payload []byte) error {
	if c.Closed() {
		return ErrConnectionClosed
	}
	return c.transport.WriteMessage(ctx, payload)
}

// SendMessage encodes msg as JSON and writes it.
func (c *Connection) SendMessage(ctx context.Context, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.Send(ctx, payload)
}

// ReconnectState reports the state of the connection's reconnector.
func (c *Connection) ReconnectState() ReconnectState {
	if c.reconnector == nil {
		return StateIdle
	}
	return c.reconnector.State()
}
