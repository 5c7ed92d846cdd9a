// Package monitor releases the locks of users who went away.
//
// An explicit disconnect releases the user's locks as soon as their last
// connection closes. Silent losses (heartbeat timeout, exhausted
// reconnection) only release after the lock grace period, and a periodic
// sweep catches users whose every connection went quiet.
package monitor

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/realtime"
	"github.com/MKhiriev/report-sync/models"
)

// LockReleaser is the part of the lock manager the monitor drives.
type LockReleaser interface {
	ReleaseUserLocks(ctx context.Context, userID string) []models.RecordLock
	CleanupLocksForDisconnectedUser(ctx context.Context, userID string, disconnectedAt time.Time) []models.RecordLock
}

// Connections is the part of the connection manager the monitor reads.
type Connections interface {
	GetAllConnections() []*realtime.Connection
	GetUserConnections(userID string) []*realtime.Connection
	ForceRemove(ctx context.Context, id string, reason realtime.DisconnectReason) (*realtime.Connection, bool)
}

type Option func(*Monitor)

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithInterval replaces the sweep period, which defaults to the connection
// cleanup interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

type Monitor struct {
	locks LockReleaser
	conns Connections

	timeout  time.Duration
	grace    time.Duration
	interval time.Duration

	mu   sync.Mutex
	lost map[string]time.Time

	now    func() time.Time
	logger *logger.Logger
}

func NewMonitor(locks LockReleaser, conns Connections, ws config.WebSocket, lcfg config.Locks, log *logger.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		locks:    locks,
		conns:    conns,
		timeout:  ws.ConnectionTimeout,
		grace:    lcfg.DisconnectGrace,
		interval: ws.CleanupInterval,
		lost:     make(map[string]time.Time),
		now:      time.Now,
		logger:   log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Disconnected has the shape of a connection manager disconnect hook.
// A client-initiated close is treated as an explicit disconnect, anything
// else as a silent loss.
func (m *Monitor) Disconnected(ctx context.Context, conn *realtime.Connection, reason realtime.DisconnectReason) {
	if reason == realtime.ReasonClosed {
		m.HandleDisconnect(ctx, conn.UserID())
		return
	}
	m.HandleLost(conn.UserID(), m.now())
}

// HandleDisconnect releases every lock of userID immediately unless the user
// still has a live connection.
func (m *Monitor) HandleDisconnect(ctx context.Context, userID string) []models.RecordLock {
	if len(m.conns.GetUserConnections(userID)) > 0 {
		return nil
	}

	m.mu.Lock()
	delete(m.lost, userID)
	m.mu.Unlock()

	released := m.locks.ReleaseUserLocks(ctx, userID)
	if len(released) > 0 {
		m.logger.Info().
			Str("func", "Monitor.HandleDisconnect").
			Str("user_id", userID).
			Int("locks", len(released)).
			Msg("released locks of disconnected user")
	}
	return released
}

// HandleLost remembers the earliest silent loss of userID. Its locks are
// released by Sweep once the grace period has passed and the user has not
// come back.
func (m *Monitor) HandleLost(userID string, at time.Time) {
	m.mu.Lock()
	if prev, ok := m.lost[userID]; !ok || at.Before(prev) {
		m.lost[userID] = at
	}
	m.mu.Unlock()
}

// Sweep releases the locks of stale users, force-removes their connections
// and settles pending silent losses. It returns the stale user ids.
func (m *Monitor) Sweep(ctx context.Context) []string {
	now := m.now()

	byUser := make(map[string][]*realtime.Connection)
	for _, c := range m.conns.GetAllConnections() {
		byUser[c.UserID()] = append(byUser[c.UserID()], c)
	}

	var stale []string
	for userID, conns := range byUser {
		if allStale(conns, now, m.timeout) {
			stale = append(stale, userID)
		}
	}
	slices.Sort(stale)

	for _, userID := range stale {
		released := m.locks.ReleaseUserLocks(ctx, userID)
		for _, c := range byUser[userID] {
			m.conns.ForceRemove(ctx, c.ID(), realtime.ReasonTimeout)
		}
		m.logger.Info().
			Str("func", "Monitor.Sweep").
			Str("user_id", userID).
			Int("locks", len(released)).
			Int("connections", len(byUser[userID])).
			Msg("cleaned up stale user")
	}

	m.settleLost(ctx, now)
	return stale
}

func (m *Monitor) settleLost(ctx context.Context, now time.Time) {
	m.mu.Lock()
	pending := make(map[string]time.Time, len(m.lost))
	for userID, at := range m.lost {
		pending[userID] = at
	}
	m.mu.Unlock()

	for userID, at := range pending {
		if len(m.conns.GetUserConnections(userID)) > 0 {
			m.forget(userID, at)
			continue
		}
		if now.Sub(at) < m.grace {
			continue
		}
		m.locks.CleanupLocksForDisconnectedUser(ctx, userID, at)
		m.forget(userID, at)
	}
}

// forget drops the pending loss unless a newer one replaced it meanwhile.
func (m *Monitor) forget(userID string, at time.Time) {
	m.mu.Lock()
	if cur, ok := m.lost[userID]; ok && cur.Equal(at) {
		delete(m.lost, userID)
	}
	m.mu.Unlock()
}

// Pending returns the number of users with an unsettled silent loss.
func (m *Monitor) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lost)
}

// Run sweeps on the cleanup interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

func allStale(conns []*realtime.Connection, now time.Time, timeout time.Duration) bool {
	for _, c := range conns {
		if now.Sub(c.LastSeen()) < timeout {
			return false
		}
	}
	return true
}
