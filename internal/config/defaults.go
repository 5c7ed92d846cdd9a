package config

import "time"

// Defaults returns the configuration used for every field no other source
// sets.
func Defaults() *StructuredConfig {
	return &StructuredConfig{
		Server: Server{
			HTTPAddress:     ":8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		WebSocket: WebSocket{
			Path:                  "/ws",
			ConnectionTimeout:     60 * time.Second,
			HeartbeatInterval:     30 * time.Second,
			MaxConnectionsPerUser: 5,
			CleanupInterval:       60 * time.Second,
			WriteTimeout:          10 * time.Second,
			ReadLimit:             1 << 20,
		},
		Locks: Locks{
			DefaultTimeout:  300 * time.Second,
			CleanupInterval: 10 * time.Second,
			DisconnectGrace: 30 * time.Second,
		},
		Events: Events{
			MaxBatchSize:         50,
			BatchTimeout:         100 * time.Millisecond,
			BufferSize:           1000,
			BufferTTL:            time.Hour,
			CompressionThreshold: 10,
			DeliveryConcurrency:  16,
		},
		Reconnection: Reconnection{
			MaxAttempts:            5,
			InitialDelay:           time.Second,
			MaxDelay:               30 * time.Second,
			BackoffMultiplier:      2.0,
			HealthCheckInterval:    30 * time.Second,
			HealthFailureThreshold: 3,
		},
		Resilience: Resilience{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
			RetryAttempts:    3,
			RetryBaseDelay:   100 * time.Millisecond,
			RetryMaxDelay:    2 * time.Second,
			SnapshotCapacity: 100,
			SnapshotTTL:      time.Hour,
		},
		Degradation: Degradation{
			EvaluationInterval: 10 * time.Second,
			SustainDuration:    30 * time.Second,
			Window:             60 * time.Second,
			LatencyThreshold:   time.Second,
			ErrorRateThreshold: 0.1,
			MemoryThresholdMB:  1024,
		},
		Sync: Sync{
			MonitorInterval:      30 * time.Second,
			ExternalPollInterval: 5 * time.Second,
			ChunkSize:            50,
			ChunkDelay:           10 * time.Millisecond,
			MaxPayloadBytes:      1 << 20,
			BufferSweepInterval:  time.Hour,
		},
		Storage: Storage{
			Audit: Audit{Backend: AuditBackendLog},
		},
		Log: Log{Level: "info"},
	}
}
