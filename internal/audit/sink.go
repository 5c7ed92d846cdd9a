// Package audit receives structured facts from the synchronization core.
//
// The core only writes audit events; it never reads them back. A failing sink
// must not fail the operation that produced the event, so components call
// [Record] which logs and swallows sink errors.
package audit

import (
	"context"

	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

//go:generate mockgen -source=sink.go -destination=../mock/audit_mock.go -package=mock

// Sink persists audit events.
type Sink interface {
	LogEvent(ctx context.Context, event models.AuditEvent) error
}

// Record hands event to sink and logs a delivery failure instead of
// returning it. A nil sink is allowed.
func Record(ctx context.Context, sink Sink, log *logger.Logger, event models.AuditEvent) {
	if sink == nil {
		return
	}
	if err := sink.LogEvent(ctx, event); err != nil {
		log.Err(err).
			Str("func", "audit.Record").
			Str("kind", event.Kind).
			Str("subject", event.Subject).
			Msg("audit sink rejected event")
	}
}

type nopSink struct{}

func (nopSink) LogEvent(context.Context, models.AuditEvent) error { return nil }

// Nop returns a sink that drops every event.
func Nop() Sink {
	return nopSink{}
}

// LogSink writes audit events as structured log lines.
type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) LogEvent(_ context.Context, event models.AuditEvent) error {
	e := s.logger.Info()
	switch event.Severity {
	case models.SeverityWarning:
		e = s.logger.Warn()
	case models.SeverityError, models.SeverityCritical:
		e = s.logger.Error()
	}

	e.Str("audit_kind", event.Kind).
		Str("severity", string(event.Severity)).
		Str("actor", event.Actor).
		Str("subject", event.Subject).
		Bool("success", event.Success).
		Time("event_ts", event.Timestamp)
	if len(event.Details) > 0 {
		e.Interface("details", event.Details)
	}
	if event.Before != nil {
		e.Interface("before", event.Before)
	}
	if event.After != nil {
		e.Interface("after", event.After)
	}
	e.Msg("audit")

	return nil
}

// Multi fans an event out to every sink and returns the first error.
type Multi []Sink

func (m Multi) LogEvent(ctx context.Context, event models.AuditEvent) error {
	var first error
	for _, s := range m {
		if err := s.LogEvent(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
