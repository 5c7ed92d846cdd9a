package store

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

// AuditRepository is an audit sink writing to the audit_events table.
type AuditRepository struct {
	*DB
	logger *logger.Logger
}

func NewAuditRepository(db *DB, logger *logger.Logger) *AuditRepository {
	return &AuditRepository{DB: db, logger: logger}
}

func (a *AuditRepository) LogEvent(ctx context.Context, e models.AuditEvent) error {
	details, err := encodeOptional(e.Details)
	if err != nil {
		return err
	}
	before, err := encodeOptional(e.Before)
	if err != nil {
		return err
	}
	after, err := encodeOptional(e.After)
	if err != nil {
		return err
	}

	query, args, err := buildInsertAuditQuery(a.builder, e, details, before, after)
	if err != nil {
		return err
	}

	if _, err = a.DB.ExecContext(ctx, query, args...); err != nil {
		a.logger.Err(err).
			Str("func", "AuditRepository.LogEvent").
			Str("kind", e.Kind).
			Msg("failed to insert audit event")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, a.classify(err))
	}
	return nil
}

func encodeOptional(m map[string]any) (*string, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingData, err)
	}
	s := string(raw)
	return &s, nil
}
