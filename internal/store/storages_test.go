package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

func TestNewStorages_MemoryWithLogAudit(t *testing.T) {
	s, err := NewStorages(context.Background(), config.Storage{}, logger.Nop())
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &MemoryRecordStore{}, s.Records)
	assert.IsType(t, &audit.LogSink{}, s.Audit)
}

func TestNewStorages_BoltAudit(t *testing.T) {
	cfg := config.Storage{Audit: config.Audit{Backend: config.AuditBackendBolt, Path: filepath.Join(t.TempDir(), "audit.db")}}

	s, err := NewStorages(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, s.Audit.LogEvent(context.Background(), models.AuditEvent{Kind: models.AuditLockAcquired}))
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close(), "second close is a no-op")
}

func TestNewStorages_DBAuditNeedsDatabase(t *testing.T) {
	cfg := config.Storage{Audit: config.Audit{Backend: config.AuditBackendDB}}

	_, err := NewStorages(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}

func TestNewStorages_SQLite(t *testing.T) {
	cfg := config.Storage{
		DB:    config.DB{Driver: config.DriverSQLite, DSN: filepath.Join(t.TempDir(), "records.db")},
		Audit: config.Audit{Backend: config.AuditBackendDB},
	}

	s, err := NewStorages(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	saved, err := s.Records.SaveVersioned(ctx, models.Record{ID: "R1", PairingKey: "P1", Data: map[string]any{"a": "b"}, UpdatedBy: "A"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)

	_, err = s.Records.SaveVersioned(ctx, models.Record{ID: "R1", UpdatedBy: "B"}, 0)
	assert.ErrorIs(t, err, ErrVersionConflict)

	got, err := s.Records.Get(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Data["a"])

	require.NoError(t, s.Audit.LogEvent(ctx, models.AuditEvent{Kind: models.AuditRecordUpdated, Actor: "A", Subject: "R1", Success: true}))
}
