package models

import "time"

// ConnectionStats are the aggregate counters of the connection manager.
type ConnectionStats struct {
	Active          int `json:"active"`
	TotalEver       int `json:"total_ever"`
	Disconnections  int `json:"disconnections"`
	Rejected        int `json:"rejected"`
	Timeouts        int `json:"timeouts"`
	UniqueUsers     int `json:"unique_users"`
	MaxPerUser      int `json:"max_per_user"`
	MessagesSent    int `json:"messages_sent"`
	MessageFailures int `json:"message_failures"`
}

type LockStats struct {
	Active   int `json:"active"`
	Acquired int `json:"acquired"`
	Rejected int `json:"rejected"`
	Released int `json:"released"`
	Expired  int `json:"expired"`
}

type BrokerStats struct {
	Subscribers       int           `json:"subscribers"`
	Buffered          int           `json:"buffered"`
	Published         int           `json:"published"`
	Flushes           int           `json:"flushes"`
	Delivered         int           `json:"delivered"`
	Deduplicated      int           `json:"deduplicated"`
	DeliveryFailures  int           `json:"delivery_failures"`
	BatchSize         int           `json:"batch_size"`
	BatchTimeout      time.Duration `json:"batch_timeout"`
	LastFlushDuration time.Duration `json:"last_flush_duration"`
}

type ConflictStats struct {
	Total  int                    `json:"total"`
	ByType map[ConflictType]int   `json:"by_type"`
	Recent []ConflictNotification `json:"recent,omitempty"`
}

type DegradationStatus struct {
	Level            string        `json:"level"`
	RealtimeEnabled  bool          `json:"realtime_enabled"`
	BatchSize        int           `json:"batch_size"`
	UpdateInterval   time.Duration `json:"update_interval"`
	AverageLatency   time.Duration `json:"average_latency"`
	ErrorRate        float64       `json:"error_rate"`
	MemoryMB         float64       `json:"memory_mb"`
	LastTransitionAt time.Time     `json:"last_transition_at"`
}

// SyncStatus is the answer to the status query.
type SyncStatus struct {
	Timestamp       time.Time         `json:"timestamp"`
	Connections     ConnectionStats   `json:"connections"`
	Locks           LockStats         `json:"locks"`
	Broker          BrokerStats       `json:"broker"`
	Conflicts       ConflictStats     `json:"conflicts"`
	Degradation     DegradationStatus `json:"degradation"`
	CircuitBreakers map[string]string `json:"circuit_breakers"`
	OfflineClients  int               `json:"offline_clients"`
	BufferedEvents  int               `json:"buffered_events"`
}
