package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

type transition struct {
	from, to Level
	settings LevelSettings
}

func newTestDegradation(t *testing.T, sink *recordingSink) (*DegradationManager, *time.Time, *float64, *[]transition) {
	t.Helper()
	now := t0
	mem := 100.0
	var seen []transition

	d := NewDegradationManager(config.Degradation{
		EvaluationInterval: 10 * time.Second,
		SustainDuration:    30 * time.Second,
		Window:             time.Minute,
		LatencyThreshold:   time.Second,
		ErrorRateThreshold: 0.1,
		MemoryThresholdMB:  1024,
	}, sink, logger.Nop(),
		WithDegradationClock(func() time.Time { return now }),
		WithMemoryReader(func() float64 { return mem }),
	)
	d.OnChange(func(_ context.Context, from, to Level, s LevelSettings) {
		seen = append(seen, transition{from: from, to: to, settings: s})
	})
	return d, &now, &mem, &seen
}

func TestDegradation_SustainedBreachStepsDownOneLevel(t *testing.T) {
	sink := &recordingSink{}
	d, now, _, seen := newTestDegradation(t, sink)
	ctx := context.Background()

	for range 10 {
		d.Observe(10*time.Millisecond, true)
	}

	assert.Equal(t, LevelNormal, d.Evaluate(ctx), "breach must be sustained")
	*now = now.Add(20 * time.Second)
	assert.Equal(t, LevelNormal, d.Evaluate(ctx))

	*now = now.Add(10 * time.Second)
	for range 10 {
		d.Observe(10*time.Millisecond, true)
	}
	assert.Equal(t, LevelReduced, d.Evaluate(ctx))

	*now = now.Add(10 * time.Second)
	assert.Equal(t, LevelReduced, d.Evaluate(ctx), "one level per sustain period")

	require.Len(t, *seen, 1)
	assert.Equal(t, transition{from: LevelNormal, to: LevelReduced, settings: LevelReduced.Settings()}, (*seen)[0])
	assert.Equal(t, []string{models.AuditDegradationChange}, sink.kinds())

	status := d.Status()
	assert.Equal(t, "reduced", status.Level)
	assert.Equal(t, 100, status.BatchSize)
	assert.True(t, status.RealtimeEnabled)
	assert.InDelta(t, 1.0, status.ErrorRate, 1e-9)
}

func TestDegradation_RecoveryNeedsHysteresis(t *testing.T) {
	d, now, mem, seen := newTestDegradation(t, &recordingSink{})
	ctx := context.Background()
	d.SetLevel(ctx, LevelMinimal)

	*mem = 900
	assert.Equal(t, LevelMinimal, d.Evaluate(ctx))
	*now = now.Add(time.Minute)
	assert.Equal(t, LevelMinimal, d.Evaluate(ctx), "90% of threshold is not healthy")

	*mem = 500
	assert.Equal(t, LevelMinimal, d.Evaluate(ctx))
	*now = now.Add(30 * time.Second)
	assert.Equal(t, LevelReduced, d.Evaluate(ctx))
	*now = now.Add(30 * time.Second)
	assert.Equal(t, LevelNormal, d.Evaluate(ctx))
	*now = now.Add(30 * time.Second)
	assert.Equal(t, LevelNormal, d.Evaluate(ctx))

	require.Len(t, *seen, 3)
	assert.Equal(t, LevelNormal, (*seen)[2].to)
}

func TestDegradation_ReachesOfflineAndStops(t *testing.T) {
	d, now, mem, _ := newTestDegradation(t, &recordingSink{})
	ctx := context.Background()
	*mem = 4096

	d.Evaluate(ctx)
	for range 6 {
		*now = now.Add(30 * time.Second)
		d.Evaluate(ctx)
	}

	assert.Equal(t, LevelOffline, d.Level())
	status := d.Status()
	assert.Equal(t, "offline", status.Level)
	assert.False(t, status.RealtimeEnabled)
}

func TestDegradation_WindowDropsOldSamples(t *testing.T) {
	d, now, _, _ := newTestDegradation(t, &recordingSink{})
	ctx := context.Background()

	d.Observe(5*time.Second, false)
	d.Evaluate(ctx)
	assert.Equal(t, 5*time.Second, d.Status().AverageLatency)

	*now = now.Add(2 * time.Minute)
	d.Observe(100*time.Millisecond, false)
	d.Evaluate(ctx)
	assert.Equal(t, 100*time.Millisecond, d.Status().AverageLatency)
}

func TestLevel_SettingsAndNames(t *testing.T) {
	assert.Equal(t, "manual_refresh", LevelManualRefresh.String())
	assert.Equal(t, "unknown", Level(42).String())
	assert.False(t, LevelManualRefresh.Settings().RealtimeEnabled)
	assert.Equal(t, LevelSettings{BatchSize: 50, UpdateInterval: 100 * time.Millisecond, RealtimeEnabled: true}, LevelNormal.Settings())
}

func TestDegradation_RunStops(t *testing.T) {
	d, _, _, _ := newTestDegradation(t, &recordingSink{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, d.Run(ctx))
}
