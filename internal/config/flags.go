package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses args into a partial config. Unset flags keep their zero
// value so lower-priority sources can fill them.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-grpc-address grpc health server address in format [host]:[port]
//	-ws-path websocket endpoint path
//	-d database DSN
//	-db-driver database driver (postgres, sqlite)
//	-audit-backend audit sink (log, bolt, db)
//	-audit-path bbolt audit file
//	-c/-config json or yaml file path with configs
//	-log-level log level
//	-max-connections-per-user live connection limit per user
//	-lock-timeout default lock TTL (e.g. "5m")
//	-batch-size broker max batch size
//	-batch-timeout broker batch timeout (e.g. "100ms")
//	-connection-timeout websocket idle timeout
//	-heartbeat-interval websocket ping period
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-disable-batching, -disable-pooling, -disable-metrics feature toggles
func ParseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("report-sync", flag.ContinueOnError)

	var serverAddress, grpcServerAddress NetAddress
	var cfg StructuredConfig

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.Var(&grpcServerAddress, "grpc-address", "Net grpc server address host:port")
	fs.StringVar(&cfg.WebSocket.Path, "ws-path", "", "WebSocket endpoint path")
	fs.StringVar(&cfg.Storage.DB.DSN, "d", "", "Database DSN")
	fs.StringVar(&cfg.Storage.DB.Driver, "db-driver", "", "Database driver (postgres, sqlite)")
	fs.StringVar(&cfg.Storage.Audit.Backend, "audit-backend", "", "Audit sink (log, bolt, db)")
	fs.StringVar(&cfg.Storage.Audit.Path, "audit-path", "", "bbolt audit file path")
	fs.StringVar(&cfg.ConfigFilePath, "c", "", "Config file path (json or yaml)")
	fs.StringVar(&cfg.ConfigFilePath, "config", "", "Config file path (alias)")
	fs.StringVar(&cfg.Log.Level, "log-level", "", "Log level")
	fs.IntVar(&cfg.WebSocket.MaxConnectionsPerUser, "max-connections-per-user", 0, "Live connection limit per user")
	fs.DurationVar(&cfg.Locks.DefaultTimeout, "lock-timeout", 0, "Default lock TTL (e.g., 5m)")
	fs.IntVar(&cfg.Events.MaxBatchSize, "batch-size", 0, "Broker max batch size")
	fs.DurationVar(&cfg.Events.BatchTimeout, "batch-timeout", 0, "Broker batch timeout (e.g., 100ms)")
	fs.DurationVar(&cfg.WebSocket.ConnectionTimeout, "connection-timeout", 0, "WebSocket idle timeout")
	fs.DurationVar(&cfg.WebSocket.HeartbeatInterval, "heartbeat-interval", 0, "WebSocket ping period")
	fs.DurationVar(&cfg.Server.RequestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.BoolVar(&cfg.Features.DisableBatching, "disable-batching", false, "Flush every event immediately")
	fs.BoolVar(&cfg.Features.DisablePooling, "disable-pooling", false, "Deliver broker flushes sequentially")
	fs.BoolVar(&cfg.Features.DisableMetrics, "disable-metrics", false, "Do not feed the degradation manager")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Server.HTTPAddress = serverAddress.String()
	cfg.Server.GRPCAddress = grpcServerAddress.String()

	return &cfg, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is
// "localhost" or empty, and returns an error if the format or values are
// invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1-65535")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
