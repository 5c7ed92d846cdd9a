// Package resilience holds the cross-cutting failure handling of the sync
// core: circuit breakers around risky calls, kind-driven error recovery with
// snapshots for rollback, and load-based graceful degradation.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/syncerr"
	"github.com/MKhiriev/report-sync/models"
)

// Action is one recovery step.
type Action string

const (
	ActionRetry      Action = "retry"
	ActionRollback   Action = "rollback"
	ActionCompensate Action = "compensate"
	ActionEscalate   Action = "escalate"
)

// Policy maps an error kind to its ordered recovery steps. A kind without
// an entry uses the entry of its fallback kind.
type Policy map[syncerr.Kind][]Action

// DefaultPolicy never retries version conflicts.
func DefaultPolicy() Policy {
	return Policy{
		syncerr.KindVersionConflict:    {ActionEscalate},
		syncerr.KindConnection:         {ActionRetry, ActionEscalate},
		syncerr.KindBroadcastFailed:    {ActionRetry, ActionRollback, ActionEscalate},
		syncerr.KindDataIntegrity:      {ActionRollback, ActionEscalate},
		syncerr.KindServiceUnavailable: {ActionCompensate, ActionEscalate},
	}
}

// Actions resolves the steps for kind, following the declared fallback.
func (p Policy) Actions(kind syncerr.Kind) []Action {
	for k := kind; ; k = k.Fallback() {
		if actions, ok := p[k]; ok {
			return actions
		}
		if k == syncerr.KindUnknown {
			return []Action{ActionEscalate}
		}
	}
}

// Operation describes a failed step and the hooks available to recover it.
// Nil hooks make the matching action unavailable.
type Operation struct {
	Name       string
	UserID     string
	Err        error
	SnapshotID string

	Retry      func(ctx context.Context) error
	Rollback   func(ctx context.Context, snap models.OperationSnapshot) error
	Compensate func(ctx context.Context) error
}

// Outcome reports how a failure was handled.
type Outcome struct {
	// Recovered is true when the operation completed after all, by a
	// successful retry or compensation.
	Recovered  bool
	Action     Action
	Attempts   int
	RolledBack bool
}

type RecoveryOption func(*RecoveryManager)

func WithPolicy(p Policy) RecoveryOption {
	return func(r *RecoveryManager) { r.policy = p }
}

// WithBackoff replaces the retry backoff factory.
func WithBackoff(fn func() retry.Backoff) RecoveryOption {
	return func(r *RecoveryManager) { r.backoff = fn }
}

func WithRecoveryClock(now func() time.Time) RecoveryOption {
	return func(r *RecoveryManager) { r.now = now }
}

type RecoveryManager struct {
	policy    Policy
	backoff   func() retry.Backoff
	snapshots *Snapshots
	sweep     time.Duration
	now       func() time.Time

	audit  audit.Sink
	logger *logger.Logger
}

func NewRecoveryManager(cfg config.Resilience, sink audit.Sink, log *logger.Logger, opts ...RecoveryOption) *RecoveryManager {
	r := &RecoveryManager{
		policy: DefaultPolicy(),
		sweep:  max(cfg.SnapshotTTL/4, time.Minute),
		now:    time.Now,
		audit:  sink,
		logger: log,
	}
	r.backoff = func() retry.Backoff {
		b := retry.NewExponential(cfg.RetryBaseDelay)
		b = retry.WithJitterPercent(25, b)
		b = retry.WithCappedDuration(cfg.RetryMaxDelay, b)
		return retry.WithMaxRetries(uint64(max(cfg.RetryAttempts, 0)), b)
	}
	for _, opt := range opts {
		opt(r)
	}
	r.snapshots = NewSnapshots(cfg.SnapshotCapacity, cfg.SnapshotTTL, func() time.Time { return r.now() })
	return r
}

// Snapshots exposes the snapshot store.
func (r *RecoveryManager) Snapshots() *Snapshots { return r.snapshots }

// TakeSnapshot stores snap for a later rollback.
func (r *RecoveryManager) TakeSnapshot(snap models.OperationSnapshot) {
	if evicted := r.snapshots.Put(snap); evicted != "" {
		r.logger.Debug().
			Str("func", "RecoveryManager.TakeSnapshot").
			Str("evicted", evicted).
			Msg("snapshot store full")
	}
}

// Recover walks the steps the policy lists for the kind of op.Err. Retry
// and compensate end the walk on success with a nil error. Rollback
// restores the snapshot and the walk continues, so the caller still gets
// the failure. Escalate audits the failure and ends the walk.
func (r *RecoveryManager) Recover(ctx context.Context, op Operation) (Outcome, error) {
	kind := syncerr.KindOf(op.Err)
	actions := r.policy.Actions(kind)

	var out Outcome
	lastErr := op.Err
	for _, action := range actions {
		out.Action = action

		switch action {
		case ActionRetry:
			attempts, err := r.retry(ctx, op)
			out.Attempts += attempts
			if err == nil {
				out.Recovered = true
				return out, nil
			}
			if !errors.Is(err, ErrNoRetry) {
				lastErr = err
			}

		case ActionRollback:
			if err := r.rollback(ctx, op); err != nil {
				r.logger.Err(err).
					Str("func", "RecoveryManager.Recover").
					Str("operation", op.Name).
					Str("snapshot_id", op.SnapshotID).
					Msg("rollback unavailable")
				continue
			}
			out.RolledBack = true

		case ActionCompensate:
			if op.Compensate == nil {
				continue
			}
			if err := op.Compensate(ctx); err == nil {
				out.Recovered = true
				return out, nil
			}

		case ActionEscalate:
			r.escalate(ctx, op, kind, lastErr, out)
			return out, lastErr
		}
	}
	return out, lastErr
}

func (r *RecoveryManager) retry(ctx context.Context, op Operation) (int, error) {
	if op.Retry == nil || !syncerr.KindOf(op.Err).Retryable() {
		return 0, ErrNoRetry
	}

	attempts := 0
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempts++
		err := op.Retry(ctx)
		if err != nil && syncerr.KindOf(err).Retryable() {
			return retry.RetryableError(err)
		}
		return err
	})
	return attempts, err
}

func (r *RecoveryManager) rollback(ctx context.Context, op Operation) error {
	if op.Rollback == nil {
		return ErrNoRollback
	}
	snap, ok := r.snapshots.Get(op.SnapshotID)
	if !ok {
		return ErrSnapshotNotFound
	}
	if err := op.Rollback(ctx, snap); err != nil {
		return fmt.Errorf("rollback %s: %w", op.SnapshotID, err)
	}
	r.snapshots.Drop(op.SnapshotID)

	audit.Record(ctx, r.audit, r.logger, models.AuditEvent{
		Kind:      models.AuditRollback,
		Severity:  models.SeverityWarning,
		Actor:     snap.UserID,
		Subject:   op.SnapshotID,
		Details:   map[string]any{"operation": op.Name, "records": slices.Clone(snap.AffectedRecords)},
		Success:   true,
		Timestamp: r.now(),
	})
	return nil
}

func (r *RecoveryManager) escalate(ctx context.Context, op Operation, kind syncerr.Kind, err error, out Outcome) {
	r.logger.Error().Err(err).
		Str("func", "RecoveryManager.escalate").
		Str("operation", op.Name).
		Str("kind", kind.String()).
		Int("attempts", out.Attempts).
		Bool("rolled_back", out.RolledBack).
		Msg("recovery exhausted")

	details := map[string]any{
		"operation":   op.Name,
		"kind":        kind.String(),
		"attempts":    out.Attempts,
		"rolled_back": out.RolledBack,
	}
	if err != nil {
		details["error"] = err.Error()
	}
	audit.Record(ctx, r.audit, r.logger, models.AuditEvent{
		Kind:      models.AuditRecoveryEscalated,
		Severity:  models.SeverityCritical,
		Actor:     op.UserID,
		Subject:   op.SnapshotID,
		Details:   details,
		Timestamp: r.now(),
	})
}

// Run sweeps expired snapshots until ctx is done.
func (r *RecoveryManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.snapshots.Sweep()
		}
	}
}
