// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Recognised values of [DB.Driver].
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Recognised values of [Audit.Backend].
const (
	AuditBackendLog  = "log"
	AuditBackendBolt = "bolt"
	AuditBackendDB   = "db"
)

// validate checks that the final merged [StructuredConfig] satisfies the
// invariants the components rely on.
func (cfg *StructuredConfig) validate() error {
	if cfg.Server.HTTPAddress == "" {
		return fmt.Errorf("%w: empty http address", ErrInvalidServerConfigs)
	}

	ws := cfg.WebSocket
	if !strings.HasPrefix(ws.Path, "/") {
		return fmt.Errorf("%w: path %q must start with /", ErrInvalidWebSocketConfigs, ws.Path)
	}
	if ws.MaxConnectionsPerUser < 1 {
		return fmt.Errorf("%w: max connections per user must be positive", ErrInvalidWebSocketConfigs)
	}
	if ws.HeartbeatInterval <= 0 || ws.HeartbeatInterval >= ws.ConnectionTimeout {
		return fmt.Errorf("%w: heartbeat interval must be positive and shorter than the connection timeout", ErrInvalidWebSocketConfigs)
	}

	if cfg.Locks.DefaultTimeout <= 0 || cfg.Locks.CleanupInterval <= 0 {
		return fmt.Errorf("%w: lock timeout and cleanup interval must be positive", ErrInvalidLockConfigs)
	}

	if cfg.Events.MaxBatchSize < 1 || cfg.Events.BatchTimeout <= 0 || cfg.Events.BufferSize < 1 {
		return fmt.Errorf("%w: batch size, batch timeout and buffer size must be positive", ErrInvalidEventConfigs)
	}

	r := cfg.Reconnection
	if r.MaxAttempts < 1 || r.BackoffMultiplier < 1 || r.InitialDelay > r.MaxDelay {
		return fmt.Errorf("%w: need max attempts >= 1, multiplier >= 1 and initial delay <= max delay", ErrInvalidReconnectionConfigs)
	}

	if rate := cfg.Degradation.ErrorRateThreshold; rate <= 0 || rate > 1 {
		return fmt.Errorf("%w: error rate threshold %v outside (0, 1]", ErrInvalidDegradationConfigs, rate)
	}

	switch cfg.Storage.DB.Driver {
	case "", DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidStorageConfigs, cfg.Storage.DB.Driver)
	}

	switch cfg.Storage.Audit.Backend {
	case AuditBackendLog:
	case AuditBackendBolt:
		if cfg.Storage.Audit.Path == "" {
			return fmt.Errorf("%w: bolt audit backend needs a path", ErrInvalidStorageConfigs)
		}
	case AuditBackendDB:
		if cfg.Storage.DB.DSN == "" {
			return fmt.Errorf("%w: db audit backend needs a database DSN", ErrInvalidStorageConfigs)
		}
	default:
		return fmt.Errorf("%w: unknown audit backend %q", ErrInvalidStorageConfigs, cfg.Storage.Audit.Backend)
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogConfigs, err)
	}

	return nil
}

// ResolvedDriver returns the SQL driver for the configured DSN, or "" when
// the in-memory store should be used.
func (db DB) ResolvedDriver() string {
	switch {
	case db.DSN == "":
		return ""
	case db.Driver != "":
		return db.Driver
	case strings.HasPrefix(db.DSN, "postgres://"), strings.HasPrefix(db.DSN, "postgresql://"):
		return DriverPostgres
	default:
		return DriverSQLite
	}
}

func (cfg *MonitorConfig) validate() error {
	if cfg.ServerURL == "" || cfg.RequestTimeout <= 0 {
		return ErrInvalidMonitorConfigs
	}
	if cfg.RefreshInterval <= 0 {
		return ErrInvalidMonitorConfigs
	}
	return nil
}
