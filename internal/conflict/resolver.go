// Package conflict decides which of several concurrent operations on the same
// record is accepted.
//
// The policy is first-wins: the operation with the earliest timestamp is
// accepted and every other one is rejected with a notification naming the
// winner. Equal timestamps are ordered by user id, then by version, then by
// input position, so the outcome never depends on map or sort instability.
package conflict

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

const defaultHistorySize = 50

// LockChecker is the read side of the lock manager.
type LockChecker interface {
	CheckLock(recordID string) (models.RecordLock, bool)
}

// Resolution is the outcome of [Resolver.ResolveConflict]. Notifications[i]
// belongs to Rejected[i].
type Resolution struct {
	Winners       []models.SyncEvent
	Rejected      []models.SyncEvent
	Notifications []models.ConflictNotification
}

// OperationResult is the outcome of [Resolver.AttemptOperation].
type OperationResult struct {
	Success       bool
	Winner        *models.SyncEvent
	Rejected      []models.SyncEvent
	Notifications []models.ConflictNotification
}

type Option func(*Resolver)

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithHistorySize bounds the list of recent notifications kept for status
// queries.
func WithHistorySize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.historySize = n
		}
	}
}

type Resolver struct {
	locks LockChecker

	mu          sync.Mutex
	total       int
	byType      map[models.ConflictType]int
	history     []models.ConflictNotification
	historySize int

	now    func() time.Time
	audit  audit.Sink
	logger *logger.Logger
}

func NewResolver(locks LockChecker, sink audit.Sink, log *logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		locks:       locks,
		byType:      make(map[models.ConflictType]int),
		historySize: defaultHistorySize,
		now:         time.Now,
		audit:       sink,
		logger:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveConflict groups events by record id and keeps one winner per record.
// Groups are processed in record id order.
func (r *Resolver) ResolveConflict(ctx context.Context, events []models.SyncEvent) Resolution {
	groups := make(map[string][]models.SyncEvent)
	for _, e := range events {
		groups[e.RecordID] = append(groups[e.RecordID], e)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var res Resolution
	now := r.now()
	for _, id := range ids {
		group := groups[id]
		slices.SortStableFunc(group, compareFirstWins)

		winner := group[0]
		res.Winners = append(res.Winners, winner)
		for _, loser := range group[1:] {
			n := models.ConflictNotification{
				RecordID:        id,
				ConflictType:    models.ConflictSimultaneousEdit,
				Message:         fmt.Sprintf("update by %s was rejected: %s changed record %s first", loser.UserID, winner.UserID, id),
				ConflictingUser: winner.UserID,
				Timestamp:       now,
			}
			res.Rejected = append(res.Rejected, loser)
			res.Notifications = append(res.Notifications, n)
		}
	}

	for i, n := range res.Notifications {
		r.record(ctx, n, res.Rejected[i])
	}

	return res
}

// AttemptOperation checks event against the current lock on its record.
// event.Version is the version the author expects to be current.
func (r *Resolver) AttemptOperation(ctx context.Context, event models.SyncEvent) OperationResult {
	lock, held := r.locks.CheckLock(event.RecordID)
	if !held {
		return OperationResult{Success: true, Winner: &event}
	}

	var n models.ConflictNotification
	switch {
	case lock.UserID != event.UserID:
		n = models.ConflictNotification{
			RecordID:        event.RecordID,
			ConflictType:    models.ConflictSimultaneousEdit,
			Message:         fmt.Sprintf("record %s is being edited by %s", event.RecordID, lock.UserID),
			ConflictingUser: lock.UserID,
			Timestamp:       r.now(),
		}
	case lock.Version != event.Version:
		n = models.ConflictNotification{
			RecordID:        event.RecordID,
			ConflictType:    models.ConflictVersionMismatch,
			Message:         fmt.Sprintf("record %s is at version %d, update expected %d", event.RecordID, lock.Version, event.Version),
			ConflictingUser: lock.UserID,
			Timestamp:       r.now(),
		}
	default:
		return OperationResult{Success: true, Winner: &event}
	}

	r.record(ctx, n, event)
	return OperationResult{
		Rejected:      []models.SyncEvent{event},
		Notifications: []models.ConflictNotification{n},
	}
}

// Record registers a conflict detected elsewhere (for example a stale
// version rejected by the store) in the counters, the history and the audit
// trail.
func (r *Resolver) Record(ctx context.Context, n models.ConflictNotification, rejected models.SyncEvent) {
	r.record(ctx, n, rejected)
}

func (r *Resolver) Stats() models.ConflictStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	byType := make(map[models.ConflictType]int, len(r.byType))
	for k, v := range r.byType {
		byType[k] = v
	}
	return models.ConflictStats{
		Total:  r.total,
		ByType: byType,
		Recent: slices.Clone(r.history),
	}
}

func (r *Resolver) record(ctx context.Context, n models.ConflictNotification, rejected models.SyncEvent) {
	r.mu.Lock()
	r.total++
	r.byType[n.ConflictType]++
	r.history = append(r.history, n)
	if over := len(r.history) - r.historySize; over > 0 {
		r.history = slices.Delete(r.history, 0, over)
	}
	r.mu.Unlock()

	r.logger.Info().
		Str("func", "Resolver.record").
		Str("record_id", n.RecordID).
		Str("conflict_type", string(n.ConflictType)).
		Str("rejected_user", rejected.UserID).
		Str("winner", n.ConflictingUser).
		Msg("conflict detected")

	audit.Record(ctx, r.audit, r.logger, models.AuditEvent{
		Kind:     models.AuditConflictDetected,
		Severity: models.SeverityWarning,
		Actor:    rejected.UserID,
		Subject:  n.RecordID,
		Details: map[string]any{
			"conflict_type":    string(n.ConflictType),
			"conflicting_user": n.ConflictingUser,
			"rejected_version": rejected.Version,
		},
		Timestamp: n.Timestamp,
	})
}

// compareFirstWins orders events earliest first; ties go to the lexically
// smaller user id, then to the lower version.
func compareFirstWins(a, b models.SyncEvent) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
		return c
	}
	return cmp.Compare(a.Version, b.Version)
}
