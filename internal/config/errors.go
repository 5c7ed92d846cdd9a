package config

import "errors"

// Validation errors returned when a configuration group is incomplete or
// inconsistent.
var (
	// ErrInvalidServerConfigs indicates invalid listener settings.
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
	// ErrInvalidWebSocketConfigs indicates invalid real-time endpoint
	// settings (for example, a heartbeat longer than the idle timeout).
	ErrInvalidWebSocketConfigs = errors.New("invalid websocket configuration")
	ErrInvalidLockConfigs      = errors.New("invalid lock configuration")
	ErrInvalidEventConfigs     = errors.New("invalid event configuration")
	// ErrInvalidReconnectionConfigs indicates an unusable backoff schedule.
	ErrInvalidReconnectionConfigs = errors.New("invalid reconnection configuration")
	ErrInvalidDegradationConfigs  = errors.New("invalid degradation configuration")
	// ErrInvalidStorageConfigs indicates an unknown driver or audit backend,
	// or a backend missing its path or DSN.
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	ErrInvalidLogConfigs     = errors.New("invalid log configuration")
	// ErrInvalidMonitorConfigs indicates invalid status monitor settings
	// (for example, missing server URL or refresh interval).
	ErrInvalidMonitorConfigs = errors.New("invalid monitor configuration")
)
