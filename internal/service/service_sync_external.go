package service

import (
	"context"
	"time"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/resilience"
	"github.com/MKhiriev/report-sync/internal/store"
	"github.com/MKhiriev/report-sync/models"
)

// DetectExternalChanges reports records whose content changed outside the
// sync path since the previous scan. Scans closer than detectInterval to the
// previous one return nothing.
func (s *syncService) DetectExternalChanges(ctx context.Context) ([]models.SyncEvent, error) {
	const op = "DetectExternalChanges"

	s.extMu.Lock()
	now := s.now()
	if !s.lastDetect.IsZero() && now.Sub(s.lastDetect) < detectInterval {
		s.extMu.Unlock()
		return nil, nil
	}
	s.lastDetect = now
	since := s.lastCheck
	s.extMu.Unlock()

	var modified []models.Record
	err := s.Breakers.Get(resilience.BreakerStore).Execute(ctx, func(ctx context.Context) error {
		var err error
		modified, err = s.records.ListModifiedSince(ctx, since)
		return err
	})
	if err != nil {
		s.logger.Err(err).Str("func", "syncService."+op).Msg("failed to list modified records")
		return nil, storeError(op, "", err)
	}

	changed := s.diffKnown(modified, since, now)
	if len(changed) == 0 {
		return nil, nil
	}

	if err = s.deliver(ctx, changed); err != nil {
		s.logger.Err(err).
			Str("func", "syncService."+op).
			Int("changes", len(changed)).
			Msg("failed to broadcast external changes")
		return changed, err
	}

	ids := make([]string, 0, len(changed))
	for _, e := range changed {
		ids = append(ids, e.RecordID)
	}
	audit.Record(ctx, s.audit, s.logger, models.AuditEvent{
		Kind:      models.AuditExternalChange,
		Severity:  models.SeverityInfo,
		Actor:     externalUserID,
		Details:   map[string]any{"record_ids": ids, "since": since},
		Success:   true,
		Timestamp: now,
	})

	s.logger.Info().
		Str("func", "syncService."+op).
		Int("changes", len(changed)).
		Msg("external changes broadcast")
	return changed, nil
}

// diffKnown turns the records whose checksum or version differs from the
// last known state into events and advances the scan watermark.
func (s *syncService) diffKnown(modified []models.Record, since, now time.Time) []models.SyncEvent {
	s.extMu.Lock()
	defer s.extMu.Unlock()

	var changed []models.SyncEvent
	for _, rec := range modified {
		if rec.UpdatedAt.After(s.lastCheck) {
			s.lastCheck = rec.UpdatedAt
		}

		checksum := rec.Checksum
		if checksum == "" {
			var err error
			if checksum, err = store.Checksum(rec.Data); err != nil {
				s.logger.Warn().Err(err).
					Str("func", "syncService.diffKnown").
					Str("record_id", rec.ID).
					Msg("skipping record with unreadable payload")
				continue
			}
		}

		known, seen := s.known[rec.ID]
		if seen && known.checksum == checksum && known.version == rec.Version {
			continue
		}
		s.known[rec.ID] = recordState{checksum: checksum, version: rec.Version}

		eventType := models.EventRecordUpdated
		if !seen && rec.CreatedAt.After(since) {
			eventType = models.EventRecordAdded
		}
		changed = append(changed, models.NewSyncEvent(eventType, rec.ID, rec.Data, rec.Version, externalUserID, now))
	}
	return changed
}

// RunExternalChanges polls the record store for external changes.
func (s *syncService) RunExternalChanges(ctx context.Context) error {
	ticker := time.NewTicker(max(s.syncCfg.ExternalPollInterval, detectInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// failures are logged by DetectExternalChanges
			_, _ = s.DetectExternalChanges(ctx)
		}
	}
}
