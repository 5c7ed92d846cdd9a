package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/resilience"
	"github.com/MKhiriev/report-sync/internal/store"
	"github.com/MKhiriev/report-sync/internal/syncerr"
	"github.com/MKhiriev/report-sync/internal/utils"
	"github.com/MKhiriev/report-sync/internal/validators"
	"github.com/MKhiriev/report-sync/models"
)

// externalUserID is the author of events for changes made outside the sync
// path.
const externalUserID = "external"

// detectInterval is the shortest time between two external change scans.
const detectInterval = 5 * time.Second

type Option func(*syncService)

func WithClock(now func() time.Time) Option {
	return func(s *syncService) { s.now = now }
}

// recordState is the last known content of a record, used to tell
// external changes from changes that went through the sync path.
type recordState struct {
	checksum string
	version  int64
}

type syncService struct {
	records store.RecordStore
	*Components

	validator validators.Validator
	offline   *offlineBuffers
	// handoff orders publishing against a resuming connection taking its
	// backlog: publishers hold it shared, the resume holds it exclusively.
	handoff sync.RWMutex

	extMu      sync.Mutex
	lastDetect time.Time
	lastCheck  time.Time
	known      map[string]recordState

	syncCfg  config.Sync
	eventCfg config.Events
	features config.Features

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	newID  func() string
	audit  audit.Sink
	logger *logger.Logger
}

// NewSyncService wires the coordinator into the components: it becomes a
// disconnect hook of the connection manager and a listener of the
// degradation manager.
func NewSyncService(records store.RecordStore, c *Components, cfg config.StructuredConfig, sink audit.Sink, log *logger.Logger, opts ...Option) SyncService {
	s := &syncService{
		records:    records,
		Components: c,
		validator:  validators.NewRecordValidator(cfg.Sync.MaxPayloadBytes),
		offline:    newOfflineBuffers(cfg.Events.BufferSize, cfg.Events.BufferTTL),
		known:      make(map[string]recordState),
		syncCfg:    cfg.Sync,
		eventCfg:   cfg.Events,
		features:   cfg.Features,
		now:        time.Now,
		sleep:      sleepContext,
		newID:      utils.NewUUIDGenerator().Generate,
		audit:      sink,
		logger:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastCheck = s.now()

	c.Connections.OnDisconnect(s.connectionClosed)
	c.Degradation.OnChange(s.levelChanged)
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HandleRecordUpdate validates the update against the record's lock,
// stores it with a snapshot of the previous state, broadcasts it and
// buffers it for offline clients.
func (s *syncService) HandleRecordUpdate(ctx context.Context, recordID string, data map[string]any, userID string, version int64) (result models.UpdateResult, err error) {
	const op = "HandleRecordUpdate"
	started := s.now()
	defer func() { s.observe(started, err) }()

	if err = s.checkAvailable(op, recordID); err != nil {
		return models.UpdateResult{}, err
	}
	update := models.RecordUpdate{RecordID: recordID, Data: data, Version: version}
	if err = s.validateUpdate(ctx, op, userID, update); err != nil {
		return models.UpdateResult{}, err
	}

	if err = s.checkLock(ctx, op, update, userID); err != nil {
		return models.UpdateResult{}, s.escalate(ctx, op, userID, err)
	}

	snap, before, existed, err := s.snapshot(ctx, op, "record_update", userID, recordID)
	if err != nil {
		return models.UpdateResult{}, err
	}

	saved, err := s.save(ctx, op, update, userID)
	if err != nil {
		s.Recovery.Snapshots().Drop(snap.OperationID)
		if errors.Is(err, syncerr.ErrVersionConflict) {
			s.notifyStale(ctx, update, userID, err)
		}
		// transient failures were already retried and escalated by save
		if syncerr.KindOf(err) != syncerr.KindConnection {
			err = s.escalate(ctx, op, userID, err)
		}
		return models.UpdateResult{}, err
	}
	s.remember(saved)

	eventType := models.EventRecordUpdated
	if !existed {
		eventType = models.EventRecordAdded
	}
	event := models.NewSyncEvent(eventType, recordID, saved.Data, saved.Version, userID, s.now())

	if err = s.broadcast(ctx, op, userID, snap.OperationID, []models.SyncEvent{event}); err != nil {
		return models.UpdateResult{}, err
	}
	s.Recovery.Snapshots().Drop(snap.OperationID)

	s.afterAccepted(ctx, userID, saved)

	var beforeData map[string]any
	if existed {
		beforeData = before.Data
	}
	audit.Record(ctx, s.audit, s.logger, models.AuditEvent{
		Kind:      models.AuditRecordUpdated,
		Severity:  models.SeverityInfo,
		Actor:     userID,
		Subject:   recordID,
		Details:   map[string]any{"operation_id": snap.OperationID, "version": saved.Version},
		Success:   true,
		Before:    beforeData,
		After:     saved.Data,
		Timestamp: event.Timestamp,
	})

	return models.UpdateResult{Event: event, OperationID: snap.OperationID}, nil
}

// HandleBulkUpdate processes every update on its own. Conflicts and invalid
// updates are reported as skipped; the accepted ones are broadcast
// together.
func (s *syncService) HandleBulkUpdate(ctx context.Context, updates []models.RecordUpdate, userID string) (result models.BulkResult, err error) {
	const op = "HandleBulkUpdate"
	started := s.now()
	result.Processed = len(updates)

	defer func() {
		s.observe(started, err)
		result.Duration = s.now().Sub(started)
		s.logBulk(ctx, userID, result, err)
	}()

	if err = s.checkAvailable(op, ""); err != nil {
		return result, err
	}
	if err = s.validator.Validate(ctx, validators.BulkUpdate{UserID: userID, Updates: updates}); err != nil {
		return result, syncerr.New(syncerr.KindDataIntegrity, op, "", err)
	}

	snap := models.OperationSnapshot{
		OperationID:   s.newID(),
		Timestamp:     s.now(),
		OperationType: "bulk_update",
		OriginalData:  make(map[string]models.Record),
		UserID:        userID,
		VersionInfo:   make(map[string]int64),
	}

	contested := s.resolveContested(ctx, updates, userID)

	var saved []models.Record
	for i, update := range updates {
		if n, lost := contested[i]; lost {
			result.Skipped = append(result.Skipped, models.SkippedUpdate{
				RecordID:     update.RecordID,
				Reason:       n.Message,
				ConflictType: n.ConflictType,
			})
			result.Conflicts++
			continue
		}
		skip, rec := s.applyBulkItem(ctx, op, update, userID, &snap)
		if skip != nil {
			result.Skipped = append(result.Skipped, *skip)
			if skip.ConflictType != "" {
				result.Conflicts++
			} else {
				result.Failed++
			}
			continue
		}
		saved = append(saved, rec)
		result.Events = append(result.Events, models.NewSyncEvent(
			models.EventRecordUpdated, rec.ID, rec.Data, rec.Version, userID, s.now()))
	}
	result.Accepted = len(saved)

	if len(saved) == 0 {
		return result, nil
	}

	s.Recovery.TakeSnapshot(snap)
	if err = s.broadcast(ctx, op, userID, snap.OperationID, result.Events); err != nil {
		if errors.Is(err, ErrRecordRolledBack) {
			for _, e := range result.Events {
				result.Skipped = append(result.Skipped, models.SkippedUpdate{RecordID: e.RecordID, Reason: ErrRecordRolledBack.Error()})
			}
			result.Failed += result.Accepted
			result.Accepted = 0
			result.Events = nil
		}
		return result, err
	}
	s.Recovery.Snapshots().Drop(snap.OperationID)

	for _, rec := range saved {
		s.afterAccepted(ctx, userID, rec)
	}
	return result, nil
}

// resolveContested runs first-wins resolution over updates of one batch
// that expect the same version of the same record. Updates are ordered by
// their position in the batch. The losers are returned by position.
func (s *syncService) resolveContested(ctx context.Context, updates []models.RecordUpdate, userID string) map[int]models.ConflictNotification {
	type target struct {
		recordID string
		version  int64
	}
	positions := make(map[target][]int)
	for i, u := range updates {
		if u.RecordID == "" {
			continue
		}
		k := target{u.RecordID, u.Version}
		positions[k] = append(positions[k], i)
	}

	base := s.now()
	lost := make(map[int]models.ConflictNotification)
	for _, u := range updates {
		idx := positions[target{u.RecordID, u.Version}]
		if len(idx) < 2 {
			continue
		}
		delete(positions, target{u.RecordID, u.Version})

		candidates := make([]models.SyncEvent, 0, len(idx))
		for _, i := range idx {
			candidates = append(candidates, models.NewSyncEvent(models.EventRecordUpdated,
				u.RecordID, updates[i].Data, u.Version, userID, base.Add(time.Duration(i))))
		}
		res := s.Resolver.ResolveConflict(ctx, candidates)
		for j, rejected := range res.Rejected {
			n := res.Notifications[j]
			lost[int(rejected.Timestamp.Sub(base))] = n
			s.Connections.SendToUser(ctx, userID, models.NewConflictMessage(n))
		}
	}
	return lost
}

// applyBulkItem validates and stores one update of a bulk request. The
// previous state is recorded in snap before the write.
func (s *syncService) applyBulkItem(ctx context.Context, op string, update models.RecordUpdate, userID string, snap *models.OperationSnapshot) (*models.SkippedUpdate, models.Record) {
	if err := s.validator.Validate(ctx, update); err != nil {
		return &models.SkippedUpdate{RecordID: update.RecordID, Reason: err.Error()}, models.Record{}
	}

	if err := s.checkLock(ctx, op, update, userID); err != nil {
		skip := &models.SkippedUpdate{RecordID: update.RecordID, Reason: err.Error()}
		if errors.Is(err, syncerr.ErrVersionConflict) {
			skip.ConflictType = conflictTypeOf(err)
		}
		return skip, models.Record{}
	}

	before, existed, err := s.load(ctx, op, update.RecordID)
	if err != nil {
		return &models.SkippedUpdate{RecordID: update.RecordID, Reason: err.Error()}, models.Record{}
	}

	rec, err := s.save(ctx, op, update, userID)
	if err != nil {
		skip := &models.SkippedUpdate{RecordID: update.RecordID, Reason: err.Error()}
		if errors.Is(err, syncerr.ErrVersionConflict) {
			skip.ConflictType = models.ConflictStaleUpdate
			s.notifyStale(ctx, update, userID, err)
		}
		return skip, models.Record{}
	}

	s.remember(rec)

	// the first write of a record in the batch holds its original state
	if _, seen := snap.VersionInfo[update.RecordID]; !seen {
		snap.AffectedRecords = append(snap.AffectedRecords, update.RecordID)
		snap.VersionInfo[update.RecordID] = before.Version
		if existed {
			snap.OriginalData[update.RecordID] = before
		}
	}
	return nil, rec
}

func (s *syncService) logBulk(ctx context.Context, userID string, result models.BulkResult, err error) {
	s.logger.Info().Err(err).
		Str("func", "syncService.HandleBulkUpdate").
		Str("user_id", userID).
		Int("processed", result.Processed).
		Int("accepted", result.Accepted).
		Int("conflicts", result.Conflicts).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("bulk update finished")

	audit.Record(ctx, s.audit, s.logger, models.AuditEvent{
		Kind:     models.AuditBulkUpdate,
		Severity: models.SeverityInfo,
		Actor:    userID,
		Details: map[string]any{
			"processed": result.Processed,
			"accepted":  result.Accepted,
			"conflicts": result.Conflicts,
			"failed":    result.Failed,
		},
		Success:   err == nil,
		Timestamp: s.now(),
	})
}

// LockRecord takes the optimistic lock and announces it.
func (s *syncService) LockRecord(ctx context.Context, recordID, userID string, version int64, ttl time.Duration) (models.RecordLock, error) {
	const op = "LockRecord"
	if err := s.checkAvailable(op, recordID); err != nil {
		return models.RecordLock{}, err
	}

	lock, err := s.Locks.AcquireLock(ctx, recordID, userID, version, ttl)
	if err != nil {
		if errors.Is(err, syncerr.ErrLockAcquisitionFailed) {
			holder, _ := s.Locks.CheckLock(recordID)
			n := models.ConflictNotification{
				RecordID:        recordID,
				ConflictType:    models.ConflictLock,
				Message:         fmt.Sprintf("record %s is locked by %s", recordID, holder.UserID),
				ConflictingUser: holder.UserID,
				Timestamp:       s.now(),
			}
			s.Resolver.Record(ctx, n, models.NewSyncEvent(models.EventRecordLocked, recordID, nil, version, userID, n.Timestamp))
			s.Connections.SendToUser(ctx, userID, models.NewConflictMessage(n))
		}
		return models.RecordLock{}, err
	}

	s.announce(ctx, op, models.NewSyncEvent(models.EventRecordLocked, recordID, map[string]any{
		"locked_by":  userID,
		"expires_at": lock.ExpiresAt,
	}, lock.Version, userID, s.now()))
	return lock, nil
}

func (s *syncService) UnlockRecord(ctx context.Context, recordID, userID string) (bool, error) {
	const op = "UnlockRecord"
	if userID == "" {
		return false, syncerr.New(syncerr.KindDataIntegrity, op, recordID, ErrEmptyUserID)
	}
	if recordID == "" {
		return false, syncerr.New(syncerr.KindDataIntegrity, op, recordID, validators.ErrInvalidRecordID)
	}

	lock, held := s.Locks.CheckLock(recordID)
	if !s.Locks.ReleaseLock(ctx, recordID, userID) {
		return false, nil
	}

	var version int64
	if held {
		version = lock.Version
	}
	s.announce(ctx, op, models.NewSyncEvent(models.EventRecordUnlocked, recordID, map[string]any{
		"unlocked_by": userID,
	}, version, userID, s.now()))
	return true, nil
}

// announce publishes an informational event. Its delivery failure does not
// fail the caller.
func (s *syncService) announce(ctx context.Context, op string, event models.SyncEvent) {
	if err := s.deliver(ctx, []models.SyncEvent{event}); err != nil {
		s.logger.Warn().Err(err).
			Str("func", "syncService."+op).
			Str("record_id", event.RecordID).
			Str("event_type", string(event.EventType)).
			Msg("event was not delivered")
	}
}

// deliver publishes events through the broadcast breaker and, once they
// are accepted, buffers them for offline connections.
func (s *syncService) deliver(ctx context.Context, events []models.SyncEvent) error {
	s.handoff.RLock()
	defer s.handoff.RUnlock()

	err := s.Breakers.Get(resilience.BreakerBroadcast).Execute(ctx, func(ctx context.Context) error {
		if len(events) == 1 {
			return s.Broker.PublishEvent(ctx, events[0])
		}
		return s.Broker.PublishBulkEvents(ctx, events)
	})
	if err != nil {
		return err
	}
	s.offline.add(events...)
	return nil
}

func (s *syncService) Status(ctx context.Context) models.SyncStatus {
	clients, buffered := s.offline.stats()

	return models.SyncStatus{
		Timestamp:       s.now(),
		Connections:     s.Connections.Stats(),
		Locks:           s.Locks.Stats(),
		Broker:          s.Broker.Stats(),
		Conflicts:       s.Resolver.Stats(),
		Degradation:     s.Degradation.Status(),
		CircuitBreakers: s.Breakers.States(),
		OfflineClients:  clients,
		BufferedEvents:  buffered,
	}
}

// checkAvailable rejects mutations while the service is offline.
func (s *syncService) checkAvailable(op, recordID string) error {
	if s.Degradation.Level() == resilience.LevelOffline {
		return syncerr.New(syncerr.KindServiceUnavailable, op, recordID, ErrSystemOffline)
	}
	return nil
}

func (s *syncService) validateUpdate(ctx context.Context, op, userID string, update models.RecordUpdate) error {
	if userID == "" {
		return syncerr.New(syncerr.KindDataIntegrity, op, update.RecordID, ErrEmptyUserID)
	}
	if err := s.validator.Validate(ctx, update); err != nil {
		return syncerr.New(syncerr.KindDataIntegrity, op, update.RecordID, err)
	}
	return nil
}

// checkLock runs the lock validation through its breaker. A lock held by
// someone else or at another version rejects the update with a
// VersionConflict error and a conflict message to the author.
func (s *syncService) checkLock(ctx context.Context, op string, update models.RecordUpdate, userID string) error {
	event := models.NewSyncEvent(models.EventRecordUpdated, update.RecordID, nil, update.Version, userID, s.now())

	return s.Breakers.Get(resilience.BreakerLockValidation).Execute(ctx, func(ctx context.Context) error {
		res := s.Resolver.AttemptOperation(ctx, event)
		if res.Success {
			return nil
		}
		for _, n := range res.Notifications {
			s.Connections.SendToUser(ctx, userID, models.NewConflictMessage(n))
		}
		n := res.Notifications[0]
		return syncerr.New(syncerr.KindVersionConflict, op, update.RecordID, &conflictError{n: n})
	})
}

// conflictError carries the notification behind a VersionConflict.
type conflictError struct {
	n models.ConflictNotification
}

func (e *conflictError) Error() string { return e.n.Message }

func conflictTypeOf(err error) models.ConflictType {
	var ce *conflictError
	if errors.As(err, &ce) {
		return ce.n.ConflictType
	}
	return models.ConflictVersionMismatch
}

// notifyStale records a stale write rejected by the store and tells the
// author who changed the record.
func (s *syncService) notifyStale(ctx context.Context, update models.RecordUpdate, userID string, cause error) {
	var holder string
	if current, err := s.records.Get(ctx, update.RecordID); err == nil {
		holder = current.UpdatedBy
	}

	n := models.ConflictNotification{
		RecordID:        update.RecordID,
		ConflictType:    models.ConflictStaleUpdate,
		Message:         fmt.Sprintf("record %s changed since version %d: %v", update.RecordID, update.Version, errors.Unwrap(cause)),
		ConflictingUser: holder,
		Timestamp:       s.now(),
	}
	s.Resolver.Record(ctx, n, models.NewSyncEvent(models.EventRecordUpdated, update.RecordID, update.Data, update.Version, userID, n.Timestamp))
	s.Connections.SendToUser(ctx, userID, models.NewConflictMessage(n))
}

// escalate hands a failure without recovery hooks to the recovery
// manager, which audits it.
func (s *syncService) escalate(ctx context.Context, op, userID string, err error) error {
	if _, rerr := s.Recovery.Recover(ctx, resilience.Operation{Name: op, UserID: userID, Err: err}); rerr != nil {
		return rerr
	}
	return err
}

// load reads the current record through the store breaker.
func (s *syncService) load(ctx context.Context, op, recordID string) (models.Record, bool, error) {
	var rec models.Record
	err := s.Breakers.Get(resilience.BreakerStore).Execute(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.records.Get(ctx, recordID)
		switch {
		case err == nil, errors.Is(err, store.ErrRecordNotFound):
			return nil
		default:
			return storeError(op, recordID, err)
		}
	})
	if err != nil {
		return models.Record{}, false, err
	}
	return rec, rec.ID != "", nil
}

// snapshot records the state of recordID before a write.
func (s *syncService) snapshot(ctx context.Context, op, opType, userID, recordID string) (models.OperationSnapshot, models.Record, bool, error) {
	before, existed, err := s.load(ctx, op, recordID)
	if err != nil {
		return models.OperationSnapshot{}, models.Record{}, false, err
	}

	snap := models.OperationSnapshot{
		OperationID:     s.newID(),
		Timestamp:       s.now(),
		OperationType:   opType,
		AffectedRecords: []string{recordID},
		OriginalData:    map[string]models.Record{},
		UserID:          userID,
		VersionInfo:     map[string]int64{recordID: before.Version},
	}
	if existed {
		snap.OriginalData[recordID] = before
	}
	s.Recovery.TakeSnapshot(snap)
	return snap, before, existed, nil
}

// save writes the update through the store breaker. Transient store
// failures are retried by the recovery manager.
func (s *syncService) save(ctx context.Context, op string, update models.RecordUpdate, userID string) (models.Record, error) {
	var saved models.Record
	// errors are classified inside the breaker so stale writes do not count
	// as store failures
	write := func(ctx context.Context) error {
		return s.Breakers.Get(resilience.BreakerStore).Execute(ctx, func(ctx context.Context) error {
			var err error
			saved, err = s.records.SaveVersioned(ctx, models.Record{
				ID:        update.RecordID,
				Data:      update.Data,
				UpdatedBy: userID,
			}, update.Version)
			if err != nil {
				return storeError(op, update.RecordID, err)
			}
			return nil
		})
	}

	err := write(ctx)
	if err == nil || syncerr.KindOf(err) != syncerr.KindConnection {
		return saved, err
	}

	out, err := s.Recovery.Recover(ctx, resilience.Operation{Name: op, UserID: userID, Err: err, Retry: write})
	if err != nil || !out.Recovered {
		return models.Record{}, err
	}
	return saved, nil
}

// storeError classifies a record store failure.
func storeError(op, recordID string, err error) error {
	var classified *syncerr.Error
	switch {
	case errors.As(err, &classified):
		return err
	case errors.Is(err, store.ErrVersionConflict):
		return syncerr.New(syncerr.KindVersionConflict, op, recordID, err)
	case errors.Is(err, store.ErrTransient):
		return syncerr.New(syncerr.KindConnection, op, recordID, err)
	case errors.Is(err, store.ErrInvalidRecord), errors.Is(err, store.ErrEncodingData):
		return syncerr.New(syncerr.KindDataIntegrity, op, recordID, err)
	default:
		return syncerr.New(syncerr.KindUnknown, op, recordID, err)
	}
}

// broadcast publishes accepted events through the broadcast breaker. The
// records are already stored, so every failure, an open breaker included,
// goes through recovery as a broadcast failure: the publish is retried,
// then the records are restored from the snapshot and the failure
// escalated.
func (s *syncService) broadcast(ctx context.Context, op, userID, snapshotID string, batch []models.SyncEvent) error {
	publish := func(ctx context.Context) error {
		return s.deliver(ctx, batch)
	}

	err := publish(ctx)
	if err == nil {
		return nil
	}
	if syncerr.KindOf(err) != syncerr.KindBroadcastFailed {
		var recordID string
		if len(batch) == 1 {
			recordID = batch[0].RecordID
		}
		err = syncerr.New(syncerr.KindBroadcastFailed, op, recordID, err)
	}

	out, err := s.Recovery.Recover(ctx, resilience.Operation{
		Name:       op,
		UserID:     userID,
		Err:        err,
		SnapshotID: snapshotID,
		Retry:      publish,
		Rollback:   s.rollback,
	})
	if out.Recovered {
		return nil
	}
	if out.RolledBack {
		return fmt.Errorf("%w: %w", ErrRecordRolledBack, err)
	}
	return err
}

// rollback restores the records of snap. Records that did not exist are
// deleted.
func (s *syncService) rollback(ctx context.Context, snap models.OperationSnapshot) error {
	var errs []error
	for _, id := range snap.AffectedRecords {
		original, existed := snap.OriginalData[id]
		var err error
		if existed {
			_, err = s.records.Upsert(ctx, original)
		} else {
			err = s.records.Delete(ctx, id)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", id, err))
			continue
		}
		s.forgetKnown(id)
	}
	return errors.Join(errs...)
}

// afterAccepted keeps the author's lock usable for the next edit.
func (s *syncService) afterAccepted(ctx context.Context, userID string, rec models.Record) {
	s.Locks.MoveLockVersion(ctx, rec.ID, userID, rec.Version)
}

// observe feeds the degradation manager. Business rejections are not
// failures of the service. Requests the service turned away itself, while
// offline or behind an open breaker, are not observed at all.
func (s *syncService) observe(started time.Time, err error) {
	if s.features.DisableMetrics {
		return
	}

	failed := false
	switch syncerr.KindOf(err) {
	case syncerr.KindServiceUnavailable:
		return
	case syncerr.KindVersionConflict, syncerr.KindLockAcquisitionFailed, syncerr.KindDataIntegrity:
	default:
		failed = err != nil
	}
	s.Degradation.Observe(s.now().Sub(started), failed)
}

// remember stores the state written through the sync path so the external
// change scan does not report it.
func (s *syncService) remember(rec models.Record) {
	checksum := rec.Checksum
	if checksum == "" {
		checksum, _ = store.Checksum(rec.Data)
	}

	s.extMu.Lock()
	s.known[rec.ID] = recordState{checksum: checksum, version: rec.Version}
	s.extMu.Unlock()
}

func (s *syncService) forgetKnown(recordID string) {
	s.extMu.Lock()
	delete(s.known, recordID)
	s.extMu.Unlock()
}
