package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
)

// Storages bundles the record store and the audit sink.
type Storages struct {
	Records RecordStore
	Audit   audit.Sink

	closers []func() error
}

// NewStorages opens the record store and the audit sink selected by cfg.
// An empty DSN selects the in-memory record store.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	s := &Storages{}

	var db *DB
	if cfg.DB.ResolvedDriver() == "" {
		log.Warn().Str("func", "NewStorages").Msg("no database configured, records are kept in memory")
		s.Records = NewMemoryRecordStore()
	} else {
		var err error
		if db, err = NewDB(ctx, cfg.DB, log); err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)

		if err = db.Migrate(); err != nil {
			log.Err(err).Str("func", "NewStorages").Msg("failed to apply migrations")
			return nil, errors.Join(err, s.Close())
		}
		s.Records = NewRecordRepository(db, log)
	}

	switch cfg.Audit.Backend {
	case config.AuditBackendBolt:
		sink, err := audit.NewBoltSink(cfg.Audit.Path)
		if err != nil {
			return nil, errors.Join(err, s.Close())
		}
		s.closers = append(s.closers, sink.Close)
		s.Audit = audit.Multi{audit.NewLogSink(log), sink}
	case config.AuditBackendDB:
		if db == nil {
			return nil, errors.Join(fmt.Errorf("audit backend %q needs a database", cfg.Audit.Backend), s.Close())
		}
		s.Audit = audit.Multi{audit.NewLogSink(log), NewAuditRepository(db, log)}
	default:
		s.Audit = audit.NewLogSink(log)
	}

	return s, nil
}

// Close releases the opened resources in reverse order.
func (s *Storages) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
