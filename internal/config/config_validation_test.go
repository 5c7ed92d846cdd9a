package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Defaults().validate())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *StructuredConfig)
		wantErr error
	}{
		{
			name:    "empty http address",
			mutate:  func(cfg *StructuredConfig) { cfg.Server.HTTPAddress = "" },
			wantErr: ErrInvalidServerConfigs,
		},
		{
			name:    "relative ws path",
			mutate:  func(cfg *StructuredConfig) { cfg.WebSocket.Path = "ws" },
			wantErr: ErrInvalidWebSocketConfigs,
		},
		{
			name:    "heartbeat not shorter than timeout",
			mutate:  func(cfg *StructuredConfig) { cfg.WebSocket.HeartbeatInterval = cfg.WebSocket.ConnectionTimeout },
			wantErr: ErrInvalidWebSocketConfigs,
		},
		{
			name:    "zero lock timeout",
			mutate:  func(cfg *StructuredConfig) { cfg.Locks.DefaultTimeout = 0 },
			wantErr: ErrInvalidLockConfigs,
		},
		{
			name:    "zero batch size",
			mutate:  func(cfg *StructuredConfig) { cfg.Events.MaxBatchSize = 0 },
			wantErr: ErrInvalidEventConfigs,
		},
		{
			name:    "shrinking backoff",
			mutate:  func(cfg *StructuredConfig) { cfg.Reconnection.BackoffMultiplier = 0.5 },
			wantErr: ErrInvalidReconnectionConfigs,
		},
		{
			name:    "initial delay above max",
			mutate:  func(cfg *StructuredConfig) { cfg.Reconnection.InitialDelay = time.Hour },
			wantErr: ErrInvalidReconnectionConfigs,
		},
		{
			name:    "error rate above one",
			mutate:  func(cfg *StructuredConfig) { cfg.Degradation.ErrorRateThreshold = 1.5 },
			wantErr: ErrInvalidDegradationConfigs,
		},
		{
			name:    "bolt without path",
			mutate:  func(cfg *StructuredConfig) { cfg.Storage.Audit.Backend = AuditBackendBolt },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "db audit without dsn",
			mutate:  func(cfg *StructuredConfig) { cfg.Storage.Audit.Backend = AuditBackendDB },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "unknown log level",
			mutate:  func(cfg *StructuredConfig) { cfg.Log.Level = "loud" },
			wantErr: ErrInvalidLogConfigs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.validate(), tt.wantErr)
		})
	}
}

func TestDB_ResolvedDriver(t *testing.T) {
	assert.Empty(t, DB{}.ResolvedDriver())
	assert.Equal(t, DriverPostgres, DB{DSN: "postgres://u@h/db"}.ResolvedDriver())
	assert.Equal(t, DriverPostgres, DB{DSN: "postgresql://u@h/db"}.ResolvedDriver())
	assert.Equal(t, DriverSQLite, DB{DSN: "file:reports.db"}.ResolvedDriver())
	assert.Equal(t, DriverSQLite, DB{DSN: "host=x", Driver: DriverSQLite}.ResolvedDriver())
}

func TestGetMonitorConfig(t *testing.T) {
	t.Setenv("MONITOR_SERVER_URL", "http://sync.local:8080")

	cfg, err := GetMonitorConfig([]string{"-refresh", "5s"})

	assert.NoError(t, err)
	assert.Equal(t, "http://sync.local:8080", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "monitor", cfg.UserID)
}
