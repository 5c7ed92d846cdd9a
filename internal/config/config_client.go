package config

import (
	"flag"
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
)

// MonitorConfig configures the status monitor (cmd/monitor).
type MonitorConfig struct {
	// ServerURL is the base URL of the report-sync HTTP API.
	// Env: MONITOR_SERVER_URL
	ServerURL string `env:"SERVER_URL"`
	// RequestTimeout bounds each status request.
	// Env: MONITOR_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	// RefreshInterval is the polling period of the dashboard.
	// Env: MONITOR_REFRESH_INTERVAL
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL"`
	// UserID is sent as X-User-ID.
	// Env: MONITOR_USER_ID
	UserID string `env:"USER_ID"`
}

// GetMonitorConfig builds and validates the monitor configuration from the
// MONITOR_* environment, then args, then defaults.
func GetMonitorConfig(args []string) (*MonitorConfig, error) {
	envCfg := MonitorConfig{}
	if err := env.ParseWithOptions(&envCfg, env.Options{Prefix: "MONITOR_"}); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}

	flagCfg := MonitorConfig{}
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	fs.StringVar(&flagCfg.ServerURL, "s", "", "report-sync base URL")
	fs.DurationVar(&flagCfg.RequestTimeout, "request-timeout", 0, "Request timeout")
	fs.DurationVar(&flagCfg.RefreshInterval, "refresh", 0, "Refresh interval")
	fs.StringVar(&flagCfg.UserID, "user", "", "User id sent as X-User-ID")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &MonitorConfig{}
	defaults := MonitorConfig{
		ServerURL:       "http://localhost:8080",
		RequestTimeout:  5 * time.Second,
		RefreshInterval: 2 * time.Second,
		UserID:          "monitor",
	}
	for _, src := range []MonitorConfig{envCfg, flagCfg, defaults} {
		if err := mergo.Merge(cfg, src); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	return cfg, cfg.validate()
}
