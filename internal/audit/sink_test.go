package audit

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

type failingSink struct{ calls int }

func (f *failingSink) LogEvent(context.Context, models.AuditEvent) error {
	f.calls++
	return errors.New("disk full")
}

func TestRecord_SwallowsSinkError(t *testing.T) {
	var buf bytes.Buffer
	log := &logger.Logger{Logger: zerolog.New(&buf)}
	sink := &failingSink{}

	Record(context.Background(), sink, log, models.AuditEvent{Kind: models.AuditLockAcquired, Subject: "R1"})

	assert.Equal(t, 1, sink.calls)
	assert.Contains(t, buf.String(), "audit sink rejected event")
	assert.Contains(t, buf.String(), `"subject":"R1"`)
}

func TestRecord_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		Record(context.Background(), nil, logger.Nop(), models.AuditEvent{})
	})
}

func TestLogSink_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(&logger.Logger{Logger: zerolog.New(&buf)})

	err := sink.LogEvent(context.Background(), models.AuditEvent{
		Kind:     models.AuditConflictDetected,
		Severity: models.SeverityWarning,
		Actor:    "B",
		Subject:  "R1",
		Details:  map[string]any{"conflict_type": "simultaneous_edit"},
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"audit_kind":"conflict_detected"`)
	assert.Contains(t, out, `"conflict_type":"simultaneous_edit"`)
}

func TestMulti_ReturnsFirstErrorAndReachesAll(t *testing.T) {
	f1, f2 := &failingSink{}, &failingSink{}
	err := Multi{Nop(), f1, f2}.LogEvent(context.Background(), models.AuditEvent{})

	require.Error(t, err)
	assert.Equal(t, 1, f1.calls)
	assert.Equal(t, 1, f2.calls)
}

func TestBoltSink_AppendsInOrder(t *testing.T) {
	sink, err := NewBoltSink(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, kind := range []string{models.AuditLockAcquired, models.AuditRecordUpdated, models.AuditLockReleased} {
		err := sink.LogEvent(context.Background(), models.AuditEvent{
			Kind:      kind,
			Severity:  models.SeverityInfo,
			Actor:     "A",
			Subject:   "R1",
			Success:   true,
			Timestamp: base.Add(time.Duration(i) * time.Millisecond),
		})
		require.NoError(t, err)
	}

	events, err := sink.Events(0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.AuditLockAcquired, events[0].Kind)
	assert.Equal(t, models.AuditLockReleased, events[2].Kind)

	limited, err := sink.Events(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestBoltSink_Closed(t *testing.T) {
	sink, err := NewBoltSink(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	assert.ErrorIs(t, sink.LogEvent(context.Background(), models.AuditEvent{}), ErrSinkClosed)
	assert.NoError(t, sink.Close())
}
