// Package locks implements optimistic per-record locks with a TTL.
//
// A single map guarded by one mutex is the source of truth for who may
// mutate a record. Expired locks are evicted lazily on every read and by a
// periodic sweep, so correctness never depends on the sweep firing.
package locks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/syncerr"
	"github.com/MKhiriev/report-sync/models"
)

// Option customises a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

type Manager struct {
	mu    sync.Mutex
	locks map[string]*models.RecordLock
	stats models.LockStats

	defaultTTL      time.Duration
	cleanupInterval time.Duration
	disconnectGrace time.Duration

	now    func() time.Time
	audit  audit.Sink
	logger *logger.Logger
}

func NewManager(cfg config.Locks, sink audit.Sink, log *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		locks:           make(map[string]*models.RecordLock),
		defaultTTL:      cfg.DefaultTimeout,
		cleanupInterval: cfg.CleanupInterval,
		disconnectGrace: cfg.DisconnectGrace,
		now:             time.Now,
		audit:           sink,
		logger:          log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AcquireLock takes or refreshes the lock on recordID for userID.
//
// An expired lock is evicted first. A live lock held by the same user only
// has its expiry extended (re-entrant refresh); the held version stays, see
// [Manager.MoveLockVersion]. A live lock held by anyone else rejects the
// call with a LockAcquisitionFailed error; there is no queueing. ttl <= 0
// selects the configured default.
func (m *Manager) AcquireLock(ctx context.Context, recordID, userID string, version int64, ttl time.Duration) (models.RecordLock, error) {
	if recordID == "" || userID == "" {
		return models.RecordLock{}, syncerr.New(syncerr.KindDataIntegrity, "AcquireLock", recordID, ErrEmptyIdentifier)
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	now := m.now()
	expired := m.evictIfExpiredLocked(recordID, now)

	var (
		result    models.RecordLock
		holder    string
		refreshed bool
	)
	existing, ok := m.locks[recordID]
	switch {
	case ok && existing.UserID == userID:
		existing.ExpiresAt = now.Add(ttl)
		result = *existing
		refreshed = true
	case ok:
		holder = existing.UserID
		result = *existing
		m.stats.Rejected++
	default:
		lock := &models.RecordLock{
			RecordID:   recordID,
			UserID:     userID,
			Version:    version,
			AcquiredAt: now,
			ExpiresAt:  now.Add(ttl),
			State:      models.LockAcquired,
		}
		m.locks[recordID] = lock
		m.stats.Acquired++
		result = *lock
	}
	m.mu.Unlock()

	m.auditExpired(ctx, expired)

	if holder != "" {
		audit.Record(ctx, m.audit, m.logger, models.AuditEvent{
			Kind:      models.AuditLockRejected,
			Severity:  models.SeverityWarning,
			Actor:     userID,
			Subject:   recordID,
			Details:   map[string]any{"holder": holder, "requested_version": version, "held_version": result.Version},
			Timestamp: now,
		})
		return models.RecordLock{}, syncerr.New(syncerr.KindLockAcquisitionFailed, "AcquireLock", recordID,
			fmt.Errorf("%w: held by %s until %s", ErrLockHeld, holder, result.ExpiresAt.Format(time.RFC3339)))
	}

	kind := models.AuditLockAcquired
	if refreshed {
		kind = models.AuditLockRefreshed
	}
	audit.Record(ctx, m.audit, m.logger, models.AuditEvent{
		Kind:      kind,
		Severity:  models.SeverityInfo,
		Actor:     userID,
		Subject:   recordID,
		Details:   map[string]any{"version": result.Version, "expires_at": result.ExpiresAt},
		Success:   true,
		Timestamp: now,
	})

	return result, nil
}

// MoveLockVersion sets the version of the live lock userID holds on
// recordID, after the holder's own write advanced the record. It reports
// false when userID holds no live lock there. The expiry is unchanged.
func (m *Manager) MoveLockVersion(ctx context.Context, recordID, userID string, version int64) bool {
	m.mu.Lock()
	now := m.now()
	expired := m.evictIfExpiredLocked(recordID, now)

	existing, ok := m.locks[recordID]
	moved := ok && existing.UserID == userID
	var from int64
	if moved {
		from = existing.Version
		existing.Version = version
	}
	m.mu.Unlock()

	m.auditExpired(ctx, expired)
	if moved {
		m.logger.Debug().
			Str("func", "Manager.MoveLockVersion").
			Str("record_id", recordID).
			Str("user_id", userID).
			Int64("from", from).
			Int64("to", version).
			Msg("lock moved to new version")
	}
	return moved
}

// ReleaseLock removes the lock on recordID if userID holds it.
func (m *Manager) ReleaseLock(ctx context.Context, recordID, userID string) bool {
	m.mu.Lock()
	now := m.now()
	expired := m.evictIfExpiredLocked(recordID, now)

	existing, ok := m.locks[recordID]
	released := ok && existing.UserID == userID
	var lock models.RecordLock
	if released {
		delete(m.locks, recordID)
		m.stats.Released++
		existing.State = models.LockReleased
		lock = *existing
	}
	m.mu.Unlock()

	m.auditExpired(ctx, expired)
	if released {
		m.auditReleased(ctx, []models.RecordLock{lock}, userID, "explicit", now)
	}

	return released
}

// CheckLock returns the live lock on recordID, if any.
func (m *Manager) CheckLock(recordID string) (models.RecordLock, bool) {
	m.mu.Lock()
	expired := m.evictIfExpiredLocked(recordID, m.now())
	existing, ok := m.locks[recordID]
	var lock models.RecordLock
	if ok {
		lock = *existing
	}
	m.mu.Unlock()

	m.auditExpired(context.Background(), expired)
	return lock, ok
}

// ValidateVersion reports whether a mutation expecting version may proceed:
// true when no live lock exists or the lock's version equals expected.
func (m *Manager) ValidateVersion(recordID string, expected int64) bool {
	lock, ok := m.CheckLock(recordID)
	return !ok || lock.Version == expected
}

// ReleaseUserLocks removes every lock held by userID, live or not.
func (m *Manager) ReleaseUserLocks(ctx context.Context, userID string) []models.RecordLock {
	m.mu.Lock()
	now := m.now()
	var released []models.RecordLock
	for id, lock := range m.locks {
		if lock.UserID != userID {
			continue
		}
		delete(m.locks, id)
		m.stats.Released++
		lock.State = models.LockReleased
		released = append(released, *lock)
	}
	m.mu.Unlock()

	sortByRecord(released)
	if len(released) > 0 {
		m.auditReleased(ctx, released, userID, "user_cleanup", now)
		m.logger.Info().
			Str("func", "Manager.ReleaseUserLocks").
			Str("user_id", userID).
			Int("released", len(released)).
			Msg("released user locks")
	}

	return released
}

// CleanupLocksForDisconnectedUser releases the user's locks only when the
// disconnection happened at least the grace period ago. Brief network blips
// keep their locks.
func (m *Manager) CleanupLocksForDisconnectedUser(ctx context.Context, userID string, disconnectedAt time.Time) []models.RecordLock {
	if m.now().Sub(disconnectedAt) < m.disconnectGrace {
		return nil
	}
	return m.ReleaseUserLocks(ctx, userID)
}

// CleanupExpiredLocks evicts every expired lock.
func (m *Manager) CleanupExpiredLocks(ctx context.Context) []models.RecordLock {
	m.mu.Lock()
	now := m.now()
	var expired []models.RecordLock
	for id := range m.locks {
		if e := m.evictIfExpiredLocked(id, now); e.ok {
			expired = append(expired, e.lock)
		}
	}
	m.mu.Unlock()

	sortByRecord(expired)
	for _, lock := range expired {
		m.auditExpired(ctx, lockOrNone{lock: lock, ok: true})
	}

	return expired
}

// ActiveLocks returns a snapshot of the live locks ordered by record id.
func (m *Manager) ActiveLocks() []models.RecordLock {
	m.mu.Lock()
	now := m.now()
	active := make([]models.RecordLock, 0, len(m.locks))
	for _, lock := range m.locks {
		if !lock.Expired(now) {
			active = append(active, *lock)
		}
	}
	m.mu.Unlock()

	sortByRecord(active)
	return active
}

func (m *Manager) Stats() models.LockStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats
	now := m.now()
	for _, lock := range m.locks {
		if !lock.Expired(now) {
			stats.Active++
		}
	}
	return stats
}

// Run sweeps expired locks every cleanup interval until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if expired := m.CleanupExpiredLocks(ctx); len(expired) > 0 {
				m.logger.Debug().
					Str("func", "Manager.Run").
					Int("expired", len(expired)).
					Msg("swept expired locks")
			}
		}
	}
}

type lockOrNone struct {
	lock models.RecordLock
	ok   bool
}

// evictIfExpiredLocked must be called with m.mu held.
func (m *Manager) evictIfExpiredLocked(recordID string, now time.Time) lockOrNone {
	existing, ok := m.locks[recordID]
	if !ok || !existing.Expired(now) {
		return lockOrNone{}
	}
	delete(m.locks, recordID)
	m.stats.Expired++
	existing.State = models.LockExpired
	return lockOrNone{lock: *existing, ok: true}
}

func (m *Manager) auditExpired(ctx context.Context, expired lockOrNone) {
	if !expired.ok {
		return
	}
	audit.Record(ctx, m.audit, m.logger, models.AuditEvent{
		Kind:      models.AuditLockExpired,
		Severity:  models.SeverityInfo,
		Actor:     expired.lock.UserID,
		Subject:   expired.lock.RecordID,
		Details:   map[string]any{"version": expired.lock.Version, "expired_at": expired.lock.ExpiresAt},
		Success:   true,
		Timestamp: m.now(),
	})
}

func (m *Manager) auditReleased(ctx context.Context, released []models.RecordLock, actor, reason string, now time.Time) {
	for _, lock := range released {
		audit.Record(ctx, m.audit, m.logger, models.AuditEvent{
			Kind:      models.AuditLockReleased,
			Severity:  models.SeverityInfo,
			Actor:     actor,
			Subject:   lock.RecordID,
			Details:   map[string]any{"version": lock.Version, "reason": reason},
			Success:   true,
			Timestamp: now,
		})
	}
}

func sortByRecord(locks []models.RecordLock) {
	slices.SortFunc(locks, func(a, b models.RecordLock) int {
		return strings.Compare(a.RecordID, b.RecordID)
	})
}
