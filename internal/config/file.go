package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors StructuredConfig for config files. Durations are
// written as strings ("30s") or as integer nanoseconds.
type fileConfig struct {
	Server struct {
		HTTPAddress     string   `json:"http_address" yaml:"http_address"`
		GRPCAddress     string   `json:"grpc_address" yaml:"grpc_address"`
		RequestTimeout  Duration `json:"request_timeout" yaml:"request_timeout"`
		ShutdownTimeout Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
		AllowedOrigins  []string `json:"allowed_origins" yaml:"allowed_origins"`
	} `json:"server" yaml:"server"`

	WebSocket struct {
		Host                  string   `json:"host" yaml:"host"`
		Port                  int      `json:"port" yaml:"port"`
		Path                  string   `json:"path" yaml:"path"`
		ConnectionTimeout     Duration `json:"connection_timeout" yaml:"connection_timeout"`
		HeartbeatInterval     Duration `json:"heartbeat_interval" yaml:"heartbeat_interval"`
		MaxConnectionsPerUser int      `json:"max_connections_per_user" yaml:"max_connections_per_user"`
		CleanupInterval       Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
		WriteTimeout          Duration `json:"write_timeout" yaml:"write_timeout"`
		ReadLimit             int64    `json:"read_limit" yaml:"read_limit"`
	} `json:"websocket" yaml:"websocket"`

	Locks struct {
		DefaultTimeout  Duration `json:"default_timeout" yaml:"default_timeout"`
		CleanupInterval Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
		DisconnectGrace Duration `json:"disconnect_grace" yaml:"disconnect_grace"`
	} `json:"locks" yaml:"locks"`

	Events struct {
		MaxBatchSize         int      `json:"max_batch_size" yaml:"max_batch_size"`
		BatchTimeout         Duration `json:"batch_timeout" yaml:"batch_timeout"`
		BufferSize           int      `json:"buffer_size" yaml:"buffer_size"`
		BufferTTL            Duration `json:"buffer_ttl" yaml:"buffer_ttl"`
		CompressionThreshold int      `json:"compression_threshold" yaml:"compression_threshold"`
		DeliveryConcurrency  int      `json:"delivery_concurrency" yaml:"delivery_concurrency"`
	} `json:"events" yaml:"events"`

	Reconnection struct {
		MaxAttempts            int      `json:"max_attempts" yaml:"max_attempts"`
		InitialDelay           Duration `json:"initial_delay" yaml:"initial_delay"`
		MaxDelay               Duration `json:"max_delay" yaml:"max_delay"`
		BackoffMultiplier      float64  `json:"backoff_multiplier" yaml:"backoff_multiplier"`
		HealthCheckInterval    Duration `json:"health_check_interval" yaml:"health_check_interval"`
		HealthFailureThreshold int      `json:"health_failure_threshold" yaml:"health_failure_threshold"`
	} `json:"reconnection" yaml:"reconnection"`

	Resilience struct {
		FailureThreshold int      `json:"failure_threshold" yaml:"failure_threshold"`
		RecoveryTimeout  Duration `json:"recovery_timeout" yaml:"recovery_timeout"`
		RetryAttempts    int      `json:"retry_attempts" yaml:"retry_attempts"`
		RetryBaseDelay   Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
		RetryMaxDelay    Duration `json:"retry_max_delay" yaml:"retry_max_delay"`
		SnapshotCapacity int      `json:"snapshot_capacity" yaml:"snapshot_capacity"`
		SnapshotTTL      Duration `json:"snapshot_ttl" yaml:"snapshot_ttl"`
	} `json:"resilience" yaml:"resilience"`

	Degradation struct {
		EvaluationInterval Duration `json:"evaluation_interval" yaml:"evaluation_interval"`
		SustainDuration    Duration `json:"sustain_duration" yaml:"sustain_duration"`
		Window             Duration `json:"window" yaml:"window"`
		LatencyThreshold   Duration `json:"latency_threshold" yaml:"latency_threshold"`
		ErrorRateThreshold float64  `json:"error_rate_threshold" yaml:"error_rate_threshold"`
		MemoryThresholdMB  float64  `json:"memory_threshold_mb" yaml:"memory_threshold_mb"`
	} `json:"degradation" yaml:"degradation"`

	Sync struct {
		MonitorInterval      Duration `json:"monitor_interval" yaml:"monitor_interval"`
		ExternalPollInterval Duration `json:"external_poll_interval" yaml:"external_poll_interval"`
		ChunkSize            int      `json:"chunk_size" yaml:"chunk_size"`
		ChunkDelay           Duration `json:"chunk_delay" yaml:"chunk_delay"`
		MaxPayloadBytes      int      `json:"max_payload_bytes" yaml:"max_payload_bytes"`
		BufferSweepInterval  Duration `json:"buffer_sweep_interval" yaml:"buffer_sweep_interval"`
	} `json:"sync" yaml:"sync"`

	Storage struct {
		DB struct {
			DSN    string `json:"dsn" yaml:"dsn"`
			Driver string `json:"driver" yaml:"driver"`
		} `json:"db" yaml:"db"`
		Audit struct {
			Backend string `json:"backend" yaml:"backend"`
			Path    string `json:"path" yaml:"path"`
		} `json:"audit" yaml:"audit"`
	} `json:"storage" yaml:"storage"`

	Features Features `json:"features" yaml:"features"`

	Log struct {
		Level string `json:"level" yaml:"level"`
	} `json:"log" yaml:"log"`
}

func parseFile(path string) (*StructuredConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading a config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("error decoding yaml configs: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("error decoding json configs: %w", err)
		}
	}

	return fc.toStructured(), nil
}

func (fc *fileConfig) toStructured() *StructuredConfig {
	return &StructuredConfig{
		Server: Server{
			HTTPAddress:     fc.Server.HTTPAddress,
			GRPCAddress:     fc.Server.GRPCAddress,
			RequestTimeout:  time.Duration(fc.Server.RequestTimeout),
			ShutdownTimeout: time.Duration(fc.Server.ShutdownTimeout),
			AllowedOrigins:  fc.Server.AllowedOrigins,
		},
		WebSocket: WebSocket{
			Host:                  fc.WebSocket.Host,
			Port:                  fc.WebSocket.Port,
			Path:                  fc.WebSocket.Path,
			ConnectionTimeout:     time.Duration(fc.WebSocket.ConnectionTimeout),
			HeartbeatInterval:     time.Duration(fc.WebSocket.HeartbeatInterval),
			MaxConnectionsPerUser: fc.WebSocket.MaxConnectionsPerUser,
			CleanupInterval:       time.Duration(fc.WebSocket.CleanupInterval),
			WriteTimeout:          time.Duration(fc.WebSocket.WriteTimeout),
			ReadLimit:             fc.WebSocket.ReadLimit,
		},
		Locks: Locks{
			DefaultTimeout:  time.Duration(fc.Locks.DefaultTimeout),
			CleanupInterval: time.Duration(fc.Locks.CleanupInterval),
			DisconnectGrace: time.Duration(fc.Locks.DisconnectGrace),
		},
		Events: Events{
			MaxBatchSize:         fc.Events.MaxBatchSize,
			BatchTimeout:         time.Duration(fc.Events.BatchTimeout),
			BufferSize:           fc.Events.BufferSize,
			BufferTTL:            time.Duration(fc.Events.BufferTTL),
			CompressionThreshold: fc.Events.CompressionThreshold,
			DeliveryConcurrency:  fc.Events.DeliveryConcurrency,
		},
		Reconnection: Reconnection{
			MaxAttempts:            fc.Reconnection.MaxAttempts,
			InitialDelay:           time.Duration(fc.Reconnection.InitialDelay),
			MaxDelay:               time.Duration(fc.Reconnection.MaxDelay),
			BackoffMultiplier:      fc.Reconnection.BackoffMultiplier,
			HealthCheckInterval:    time.Duration(fc.Reconnection.HealthCheckInterval),
			HealthFailureThreshold: fc.Reconnection.HealthFailureThreshold,
		},
		Resilience: Resilience{
			FailureThreshold: fc.Resilience.FailureThreshold,
			RecoveryTimeout:  time.Duration(fc.Resilience.RecoveryTimeout),
			RetryAttempts:    fc.Resilience.RetryAttempts,
			RetryBaseDelay:   time.Duration(fc.Resilience.RetryBaseDelay),
			RetryMaxDelay:    time.Duration(fc.Resilience.RetryMaxDelay),
			SnapshotCapacity: fc.Resilience.SnapshotCapacity,
			SnapshotTTL:      time.Duration(fc.Resilience.SnapshotTTL),
		},
		Degradation: Degradation{
			EvaluationInterval: time.Duration(fc.Degradation.EvaluationInterval),
			SustainDuration:    time.Duration(fc.Degradation.SustainDuration),
			Window:             time.Duration(fc.Degradation.Window),
			LatencyThreshold:   time.Duration(fc.Degradation.LatencyThreshold),
			ErrorRateThreshold: fc.Degradation.ErrorRateThreshold,
			MemoryThresholdMB:  fc.Degradation.MemoryThresholdMB,
		},
		Sync: Sync{
			MonitorInterval:      time.Duration(fc.Sync.MonitorInterval),
			ExternalPollInterval: time.Duration(fc.Sync.ExternalPollInterval),
			ChunkSize:            fc.Sync.ChunkSize,
			ChunkDelay:           time.Duration(fc.Sync.ChunkDelay),
			MaxPayloadBytes:      fc.Sync.MaxPayloadBytes,
			BufferSweepInterval:  time.Duration(fc.Sync.BufferSweepInterval),
		},
		Storage: Storage{
			DB:    DB{DSN: fc.Storage.DB.DSN, Driver: fc.Storage.DB.Driver},
			Audit: Audit{Backend: fc.Storage.Audit.Backend, Path: fc.Storage.Audit.Path},
		},
		Features: fc.Features,
		Log:      Log{Level: fc.Log.Level},
	}
}

// Duration is a wrapper around time.Duration that supports JSON and YAML
// unmarshaling from strings like "1h", "30s" or from integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if err := node.Decode(&n); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	tmp, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(tmp)
	return nil
}
