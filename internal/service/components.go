package service

import (
	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/conflict"
	"github.com/MKhiriev/report-sync/internal/events"
	"github.com/MKhiriev/report-sync/internal/locks"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/monitor"
	"github.com/MKhiriev/report-sync/internal/realtime"
	"github.com/MKhiriev/report-sync/internal/resilience"
	"github.com/MKhiriev/report-sync/internal/workers"
)

// Components are the stateful parts of the sync core. They are built once
// and shared by the coordinator, the HTTP and WebSocket handlers and the
// background workers.
type Components struct {
	Locks       *locks.Manager
	Resolver    *conflict.Resolver
	Broker      *events.Broker
	Connections *realtime.Manager
	Monitor     *monitor.Monitor
	Breakers    *resilience.Breakers
	Recovery    *resilience.RecoveryManager
	Degradation *resilience.DegradationManager
}

func NewComponents(cfg config.StructuredConfig, sink audit.Sink, log *logger.Logger) *Components {
	lockManager := locks.NewManager(cfg.Locks, sink, log.WithComponent("locks"))
	connections := realtime.NewManager(cfg.WebSocket, cfg.Reconnection, sink, log.WithComponent("connections"))
	mon := monitor.NewMonitor(lockManager, connections, cfg.WebSocket, cfg.Locks, log.WithComponent("monitor"),
		monitor.WithInterval(cfg.Sync.MonitorInterval))
	connections.OnDisconnect(mon.Disconnected)

	return &Components{
		Locks:       lockManager,
		Resolver:    conflict.NewResolver(lockManager, sink, log.WithComponent("conflicts")),
		Broker:      events.NewBroker(cfg.Events, cfg.Features, log.WithComponent("broker")),
		Connections: connections,
		Monitor:     mon,
		Breakers:    resilience.NewBreakers(cfg.Resilience, log.WithComponent("breakers")),
		Recovery:    resilience.NewRecoveryManager(cfg.Resilience, sink, log.WithComponent("recovery")),
		Degradation: resilience.NewDegradationManager(cfg.Degradation, sink, log.WithComponent("degradation")),
	}
}

// Workers returns the background loop of every component.
func (c *Components) Workers() []workers.Worker {
	return []workers.Worker{
		c.Locks,
		c.Broker,
		c.Connections,
		c.Monitor,
		c.Recovery,
		c.Degradation,
	}
}
