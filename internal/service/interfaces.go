//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock
package service

import (
	"context"
	"time"

	"github.com/MKhiriev/report-sync/internal/realtime"
	"github.com/MKhiriev/report-sync/models"
)

// SyncService is the coordinator of the synchronization core. It is the
// only component that talks to every other one.
type SyncService interface {
	// HandleRecordUpdate applies one update. version is the version the
	// user expects to be current; the accepted record is stored and
	// broadcast as version+1.
	HandleRecordUpdate(ctx context.Context, recordID string, data map[string]any, userID string, version int64) (models.UpdateResult, error)
	// HandleBulkUpdate applies every update it can. Conflicting or invalid
	// updates are skipped, never aborting the batch.
	HandleBulkUpdate(ctx context.Context, updates []models.RecordUpdate, userID string) (models.BulkResult, error)

	LockRecord(ctx context.Context, recordID, userID string, version int64, ttl time.Duration) (models.RecordLock, error)
	UnlockRecord(ctx context.Context, recordID, userID string) (bool, error)

	// SyncClient delivers the offline backlog of a live connection,
	// optionally only the events after since.
	SyncClient(ctx context.Context, connectionID string, since *time.Time) (int, error)
	SyncReconnectedClient(ctx context.Context, connectionID string, disconnectedAt *time.Time) (int, error)

	// DetectExternalChanges diffs the record store against the last known
	// state and broadcasts what changed outside the sync path.
	DetectExternalChanges(ctx context.Context) ([]models.SyncEvent, error)

	Status(ctx context.Context) models.SyncStatus

	// realtime.MessageHandler
	OnConnect(ctx context.Context, conn *realtime.Connection, resumed bool)
	HandleMessage(ctx context.Context, conn *realtime.Connection, msg models.ClientMessage) error

	// Background tasks.
	RunBufferSweeper(ctx context.Context) error
	RunExternalChanges(ctx context.Context) error
}

// RecordService is the read side over the record store.
type RecordService interface {
	GetRecord(ctx context.Context, recordID string) (models.Record, error)
	// GetPairing returns the records sharing one pairing key.
	GetPairing(ctx context.Context, pairingKey string) ([]models.Record, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}
