package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/locks"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/realtime"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type nopTransport struct{}

func (nopTransport) WriteMessage(context.Context, []byte) error { return nil }
func (nopTransport) Ping(context.Context) error                 { return nil }
func (nopTransport) ReadMessage() ([]byte, error)               { select {} }
func (nopTransport) SetPongHandler(func())                      {}
func (nopTransport) Close(int, string) error                    { return nil }
func (nopTransport) RemoteAddr() string                         { return "test" }

type fixture struct {
	clock   *fakeClock
	locks   *locks.Manager
	conns   *realtime.Manager
	monitor *Monitor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	ws := config.WebSocket{ConnectionTimeout: time.Minute, MaxConnectionsPerUser: 5, CleanupInterval: time.Hour}
	lcfg := config.Locks{DefaultTimeout: 10 * time.Minute, CleanupInterval: time.Hour, DisconnectGrace: 30 * time.Second}

	f := &fixture{
		clock: clock,
		locks: locks.NewManager(lcfg, nil, logger.Nop(), locks.WithClock(clock.Now)),
		conns: realtime.NewManager(ws, config.Reconnection{MaxAttempts: 1}, nil, logger.Nop(), realtime.WithManagerClock(clock.Now)),
	}
	f.monitor = NewMonitor(f.locks, f.conns, ws, lcfg, logger.Nop(), WithClock(clock.Now))
	f.conns.OnDisconnect(f.monitor.Disconnected)
	return f
}

func (f *fixture) connect(t *testing.T, id, user string) {
	t.Helper()
	require.NoError(t, f.conns.AddConnection(context.Background(), realtime.NewConnection(id, user, nopTransport{}, f.clock.Now())))
}

func (f *fixture) lock(t *testing.T, record, user string) {
	t.Helper()
	_, err := f.locks.AcquireLock(context.Background(), record, user, 1, 0)
	require.NoError(t, err)
}

func TestExplicitDisconnectReleasesImmediately(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "c1", "A")
	f.lock(t, "R1", "A")
	f.lock(t, "R2", "A")

	f.conns.RemoveConnection(context.Background(), "c1")

	assert.Empty(t, f.locks.ActiveLocks())
	assert.Zero(t, f.monitor.Pending())
}

func TestExplicitDisconnectKeepsLocksWhileAnotherConnectionLives(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "c1", "A")
	f.connect(t, "c2", "A")
	f.lock(t, "R1", "A")

	f.conns.RemoveConnection(context.Background(), "c1")
	assert.Len(t, f.locks.ActiveLocks(), 1)

	f.conns.RemoveConnection(context.Background(), "c2")
	assert.Empty(t, f.locks.ActiveLocks())
}

func TestSilentLossWaitsForGrace(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "c1", "A")
	f.lock(t, "R1", "A")

	f.conns.ForceRemove(context.Background(), "c1", realtime.ReasonTimeout)
	require.Equal(t, 1, f.monitor.Pending())

	f.clock.Advance(10 * time.Second)
	f.monitor.Sweep(context.Background())
	assert.Len(t, f.locks.ActiveLocks(), 1, "blip inside grace keeps the lock")

	f.clock.Advance(25 * time.Second)
	f.monitor.Sweep(context.Background())
	assert.Empty(t, f.locks.ActiveLocks())
	assert.Zero(t, f.monitor.Pending())
}

func TestSilentLossForgottenWhenUserReturns(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "c1", "A")
	f.lock(t, "R1", "A")

	f.conns.ForceRemove(context.Background(), "c1", realtime.ReasonDegraded)
	f.clock.Advance(5 * time.Second)
	f.connect(t, "c2", "A")

	f.clock.Advance(time.Minute - time.Second)
	f.monitor.Sweep(context.Background())

	assert.Len(t, f.locks.ActiveLocks(), 1)
	assert.Zero(t, f.monitor.Pending())
}

func TestSweepCleansUsersWhoseConnectionsAreAllStale(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "a1", "A")
	f.connect(t, "a2", "A")
	f.connect(t, "b1", "B")
	f.lock(t, "R1", "A")
	f.lock(t, "R2", "B")

	f.clock.Advance(45 * time.Second)
	f.conns.UpdateLastSeen("b1")
	f.clock.Advance(20 * time.Second)

	stale := f.monitor.Sweep(context.Background())

	assert.Equal(t, []string{"A"}, stale)
	assert.Empty(t, f.conns.GetUserConnections("A"))
	assert.Len(t, f.conns.GetUserConnections("B"), 1)

	active := f.locks.ActiveLocks()
	require.Len(t, active, 1)
	assert.Equal(t, "B", active[0].UserID)
}

func TestSweepKeepsUserWithOneFreshConnection(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "a1", "A")
	f.clock.Advance(50 * time.Second)
	f.connect(t, "a2", "A")
	f.lock(t, "R1", "A")
	f.clock.Advance(20 * time.Second)

	assert.Empty(t, f.monitor.Sweep(context.Background()))
	assert.Len(t, f.conns.GetUserConnections("A"), 2)
	assert.Len(t, f.locks.ActiveLocks(), 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.monitor.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.monitor.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
