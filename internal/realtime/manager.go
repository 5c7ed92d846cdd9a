// Package realtime manages WebSocket client connections: admission with a
// per-user limit, heartbeats and timeout detection, per-connection
// reconnection and health monitoring, and the wire protocol endpoint.
package realtime

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

// DisconnectReason says why a connection was removed.
type DisconnectReason string

const (
	ReasonClosed   DisconnectReason = "closed"
	ReasonTimeout  DisconnectReason = "timeout"
	ReasonForced   DisconnectReason = "forced"
	ReasonDegraded DisconnectReason = "degraded"
	ReasonShutdown DisconnectReason = "shutdown"
)

// DisconnectHook is called after a connection has been removed, outside the
// manager's lock.
type DisconnectHook func(ctx context.Context, conn *Connection, reason DisconnectReason)

type ManagerOption func(*Manager)

func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithReconnectOptions is applied to every per-connection reconnector.
func WithReconnectOptions(opts ...ReconnectOption) ManagerOption {
	return func(m *Manager) { m.reconnectOpts = append(m.reconnectOpts, opts...) }
}

type Manager struct {
	cfg  config.WebSocket
	rcfg config.Reconnection

	mu     sync.Mutex
	conns  map[string]*Connection
	byUser map[string]map[string]*Connection
	stats  models.ConnectionStats
	hooks  []DisconnectHook

	reconnectOpts []ReconnectOption
	now           func() time.Time
	audit         audit.Sink
	logger        *logger.Logger
}

func NewManager(cfg config.WebSocket, rcfg config.Reconnection, sink audit.Sink, log *logger.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:    cfg,
		rcfg:   rcfg,
		conns:  make(map[string]*Connection),
		byUser: make(map[string]map[string]*Connection),
		now:    time.Now,
		audit:  sink,
		logger: log,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.stats.MaxPerUser = cfg.MaxConnectionsPerUser
	return m
}

// OnDisconnect registers a hook run after every removal.
func (m *Manager) OnDisconnect(hook DisconnectHook) {
	m.mu.Lock()
	m.hooks = append(m.hooks, hook)
	m.mu.Unlock()
}

// AddConnection admits conn and starts its heartbeat, health monitor and
// reconnector. A user already at the connection limit gets an error message
// and the transport is closed.
func (m *Manager) AddConnection(ctx context.Context, conn *Connection) error {
	m.mu.Lock()
	if _, dup := m.conns[conn.id]; dup {
		m.mu.Unlock()
		return ErrDuplicateConnection
	}
	if len(m.byUser[conn.userID]) >= m.cfg.MaxConnectionsPerUser {
		m.stats.Rejected++
		m.mu.Unlock()

		m.refuse(ctx, conn)
		return ErrTooManyConnections
	}

	conn.ctx, conn.cancel = context.WithCancel(context.WithoutCancel(ctx))
	conn.reconnector = NewReconnector(m.rcfg, conn.transport.Ping, append([]ReconnectOption{
		WithOnConnected(func() {
			if conn.health != nil {
				conn.health.Reset()
			}
		}),
		WithOnDegraded(func(attempts int, lastErr error) {
			m.degrade(conn, attempts, lastErr)
		}),
	}, m.reconnectOpts...)...)
	conn.reconnector.MarkConnected()
	conn.health = NewHealthMonitor(m.rcfg.HealthCheckInterval, m.rcfg.HealthFailureThreshold,
		m.healthCheck(conn),
		func() { conn.reconnector.Start(conn.ctx) })

	m.conns[conn.id] = conn
	if m.byUser[conn.userID] == nil {
		m.byUser[conn.userID] = make(map[string]*Connection)
	}
	m.byUser[conn.userID][conn.id] = conn
	m.stats.TotalEver++
	m.mu.Unlock()

	conn.transport.SetPongHandler(func() { conn.touch(m.now()) })
	go m.heartbeat(conn)
	if m.rcfg.HealthCheckInterval > 0 {
		go conn.health.Run(conn.ctx)
	}

	audit.Record(ctx, m.audit, m.logger, models.AuditEvent{
		Kind:      models.AuditConnectionOpened,
		Severity:  models.SeverityInfo,
		Actor:     conn.userID,
		Subject:   conn.id,
		Details:   map[string]any{"remote_addr": conn.transport.RemoteAddr()},
		Success:   true,
		Timestamp: conn.connectedAt,
	})
	return nil
}

func (m *Manager) refuse(ctx context.Context, conn *Connection) {
	msg := models.NewErrorMessage(models.ErrCodeTooManyConnections, "maximum number of connections reached",
		map[string]any{"max_connections": m.cfg.MaxConnectionsPerUser})
	if payload, err := json.Marshal(msg); err == nil {
		_ = conn.transport.WriteMessage(ctx, payload)
	}
	_ = conn.transport.Close(websocket.ClosePolicyViolation, "too many connections")

	audit.Record(ctx, m.audit, m.logger, models.AuditEvent{
		Kind:      models.AuditConnectionRefused,
		Severity:  models.SeverityWarning,
		Actor:     conn.userID,
		Subject:   conn.id,
		Details:   map[string]any{"max_connections": m.cfg.MaxConnectionsPerUser},
		Timestamp: m.now(),
	})
}

// healthCheck passes when a ping can be written and the client sent
// something within two heartbeat intervals.
func (m *Manager) healthCheck(conn *Connection) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := conn.transport.Ping(ctx); err != nil {
			return err
		}
		if m.cfg.HeartbeatInterval > 0 && m.now().Sub(conn.LastSeen()) > 2*m.cfg.HeartbeatInterval {
			return ErrStaleConnection
		}
		return nil
	}
}

func (m *Manager) degrade(conn *Connection, attempts int, lastErr error) {
	m.logger.Warn().Err(lastErr).
		Str("func", "Manager.degrade").
		Str("connection_id", conn.id).
		Int("attempts", attempts).
		Msg("reconnection budget exhausted")

	msg := models.NewErrorMessage(models.ErrCodeManualRefresh, "connection lost, please refresh",
		map[string]any{"attempts": attempts})
	_ = conn.SendMessage(conn.ctx, msg)
	m.removeConnection(conn.ctx, conn.id, ReasonDegraded)
}

// heartbeat pings every interval and removes the connection once it has been
// silent longer than the connection timeout.
func (m *Manager) heartbeat(conn *Connection) {
	if m.cfg.HeartbeatInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.ctx.Done():
			return
		case <-ticker.C:
			if m.now().Sub(conn.LastSeen()) > m.cfg.ConnectionTimeout {
				m.removeConnection(conn.ctx, conn.id, ReasonTimeout)
				return
			}
			if err := conn.transport.Ping(conn.ctx); err != nil {
				m.logger.Debug().Err(err).
					Str("func", "Manager.heartbeat").
					Str("connection_id", conn.id).
					Msg("ping failed")
			}
		}
	}
}

// RemoveConnection removes a connection the client closed.
func (m *Manager) RemoveConnection(ctx context.Context, id string) (*Connection, bool) {
	return m.removeConnection(ctx, id, ReasonClosed)
}

// ForceRemove removes a connection for reason and closes its transport.
func (m *Manager) ForceRemove(ctx context.Context, id string, reason DisconnectReason) (*Connection, bool) {
	return m.removeConnection(ctx, id, reason)
}

// removeConnection updates indices and counters and cancels the
// connection's tasks in one critical section, so concurrent heartbeat and
// sweep removals count once.
func (m *Manager) removeConnection(ctx context.Context, id string, reason DisconnectReason) (*Connection, bool) {
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	conn, ok := m.conns[id]
	if !ok {
		m.mu.Unlock()
		return nil, false
	}
	delete(m.conns, id)
	if userConns := m.byUser[conn.userID]; userConns != nil {
		delete(userConns, id)
		if len(userConns) == 0 {
			delete(m.byUser, conn.userID)
		}
	}
	m.stats.Disconnections++
	if reason == ReasonTimeout {
		m.stats.Timeouts++
	}
	conn.mu.Lock()
	conn.closed = true
	conn.mu.Unlock()
	conn.cancel()
	hooks := slices.Clone(m.hooks)
	m.mu.Unlock()

	code, text := websocket.CloseNormalClosure, string(reason)
	if reason == ReasonTimeout || reason == ReasonDegraded {
		code = websocket.CloseGoingAway
	}
	_ = conn.transport.Close(code, text)

	m.logger.Info().
		Str("func", "Manager.removeConnection").
		Str("connection_id", id).
		Str("user_id", conn.userID).
		Str("reason", string(reason)).
		Msg("connection removed")

	audit.Record(ctx, m.audit, m.logger, models.AuditEvent{
		Kind:      models.AuditConnectionClosed,
		Severity:  models.SeverityInfo,
		Actor:     conn.userID,
		Subject:   id,
		Details:   map[string]any{"reason": string(reason), "duration_seconds": m.now().Sub(conn.connectedAt).Seconds()},
		Success:   true,
		Timestamp: m.now(),
	})

	for _, hook := range hooks {
		hook(ctx, conn, reason)
	}
	return conn, true
}

func (m *Manager) GetConnection(id string) (*Connection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	return c, ok
}

// GetUserConnections returns the user's live connections ordered by id.
func (m *Manager) GetUserConnections(userID string) []*Connection {
	m.mu.Lock()
	out := make([]*Connection, 0, len(m.byUser[userID]))
	for _, c := range m.byUser[userID] {
		out = append(out, c)
	}
	m.mu.Unlock()

	sortConnections(out)
	return out
}

// GetAllConnections returns every live connection ordered by id.
func (m *Manager) GetAllConnections() []*Connection {
	m.mu.Lock()
	out := make([]*Connection, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, c)
	}
	m.mu.Unlock()

	sortConnections(out)
	return out
}

// Count returns the number of live connections.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

func (m *Manager) UpdateLastSeen(id string) bool {
	m.mu.Lock()
	c, ok := m.conns[id]
	m.mu.Unlock()

	if ok {
		c.touch(m.now())
	}
	return ok
}

// SendMessage encodes msg and sends it to one connection.
func (m *Manager) SendMessage(ctx context.Context, id string, msg any) bool {
	c, ok := m.GetConnection(id)
	if !ok {
		return false
	}

	err := c.SendMessage(ctx, msg)
	m.countSend(err)
	if err != nil {
		m.logger.Debug().Err(err).
			Str("func", "Manager.SendMessage").
			Str("connection_id", id).
			Msg("send failed")
	}
	return err == nil
}

// SendToUser sends msg to every live connection of userID and returns the
// number of successful sends.
func (m *Manager) SendToUser(ctx context.Context, userID string, msg any) int {
	sent := 0
	for _, c := range m.GetUserConnections(userID) {
		if m.SendMessage(ctx, c.id, msg) {
			sent++
		}
	}
	return sent
}

// BroadcastMessage sends msg to every live connection except the excluded
// ids and returns the number of successful sends.
func (m *Manager) BroadcastMessage(ctx context.Context, msg any, exclude ...string) int {
	payload, err := json.Marshal(msg)
	if err != nil {
		m.logger.Err(err).Str("func", "Manager.BroadcastMessage").Msg("encode failed")
		return 0
	}

	sent := 0
	for _, c := range m.GetAllConnections() {
		if slices.Contains(exclude, c.id) {
			continue
		}
		err := c.Send(ctx, payload)
		m.countSend(err)
		if err == nil {
			sent++
		}
	}
	return sent
}

func (m *Manager) countSend(err error) {
	m.mu.Lock()
	if err == nil {
		m.stats.MessagesSent++
	} else {
		m.stats.MessageFailures++
	}
	m.mu.Unlock()
}

func (m *Manager) Stats() models.ConnectionStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats
	stats.Active = len(m.conns)
	stats.UniqueUsers = len(m.byUser)
	return stats
}

// Sweep force-removes every connection silent for longer than the
// connection timeout and returns their ids.
func (m *Manager) Sweep(ctx context.Context) []string {
	now := m.now()
	var stale []string
	for _, c := range m.GetAllConnections() {
		if now.Sub(c.LastSeen()) > m.cfg.ConnectionTimeout {
			stale = append(stale, c.id)
		}
	}

	removed := stale[:0]
	for _, id := range stale {
		if _, ok := m.removeConnection(ctx, id, ReasonTimeout); ok {
			removed = append(removed, id)
		}
	}
	return removed
}

// Run sweeps stale connections every cleanup interval. On cancellation it
// closes every remaining connection.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll(context.WithoutCancel(ctx), ReasonShutdown)
			return nil
		case <-ticker.C:
			if removed := m.Sweep(ctx); len(removed) > 0 {
				m.logger.Info().
					Str("func", "Manager.Run").
					Strs("connections", removed).
					Msg("swept stale connections")
			}
		}
	}
}

// CloseAll removes every connection.
func (m *Manager) CloseAll(ctx context.Context, reason DisconnectReason) {
	for _, c := range m.GetAllConnections() {
		m.removeConnection(ctx, c.id, reason)
	}
}

func sortConnections(conns []*Connection) {
	slices.SortFunc(conns, func(a, b *Connection) int {
		return strings.Compare(a.id, b.id)
	})
}

// IsCloseError reports whether err is a normal client-side close.
func IsCloseError(err error) bool {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway || ce.Code == websocket.CloseNoStatusReceived
	}
	return false
}
