//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock
package store

import (
	"context"
	"time"

	"github.com/MKhiriev/report-sync/models"
)

// RecordStore persists pseudonymized report records keyed by record id.
type RecordStore interface {
	// Get returns the record or ErrRecordNotFound.
	Get(ctx context.Context, id string) (models.Record, error)
	// Upsert writes rec as given, replacing any stored version.
	Upsert(ctx context.Context, rec models.Record) (models.Record, error)
	// SaveVersioned writes rec only when the stored version equals
	// expected, and stores it as version expected+1. A missing record is
	// created. A mismatch returns ErrVersionConflict.
	SaveVersioned(ctx context.Context, rec models.Record, expected int64) (models.Record, error)
	// Delete removes the record; deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error
	// ListByPairingKey returns the records of one review pair ordered by id.
	ListByPairingKey(ctx context.Context, pairingKey string) ([]models.Record, error)
	// ListModifiedSince returns records updated strictly after since,
	// oldest first.
	ListModifiedSince(ctx context.Context, since time.Time) ([]models.Record, error)
}

// ErrorClassificator decides whether a driver error is worth retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
