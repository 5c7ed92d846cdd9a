package resilience

import (
	"context"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/report-sync/internal/audit"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

// Level is a degradation level; higher is worse.
type Level int

const (
	LevelNormal Level = iota
	LevelReduced
	LevelMinimal
	LevelManualRefresh
	LevelOffline
)

var levelNames = [...]string{"normal", "reduced", "minimal", "manual_refresh", "offline"}

func (l Level) String() string {
	if l < LevelNormal || l > LevelOffline {
		return "unknown"
	}
	return levelNames[l]
}

// LevelSettings are the recommended delivery settings at a level.
type LevelSettings struct {
	BatchSize       int
	UpdateInterval  time.Duration
	RealtimeEnabled bool
}

var levelSettings = map[Level]LevelSettings{
	LevelNormal:        {BatchSize: 50, UpdateInterval: 100 * time.Millisecond, RealtimeEnabled: true},
	LevelReduced:       {BatchSize: 100, UpdateInterval: 500 * time.Millisecond, RealtimeEnabled: true},
	LevelMinimal:       {BatchSize: 200, UpdateInterval: 2 * time.Second, RealtimeEnabled: true},
	LevelManualRefresh: {BatchSize: 200, UpdateInterval: 5 * time.Second},
	LevelOffline:       {BatchSize: 200, UpdateInterval: 5 * time.Second},
}

func (l Level) Settings() LevelSettings { return levelSettings[l] }

// recoveryFactor is the share of each threshold every metric must stay
// under before the manager steps back up.
const recoveryFactor = 0.8

// LevelListener is notified after every level change, outside the
// manager's lock.
type LevelListener func(ctx context.Context, from, to Level, settings LevelSettings)

type DegradationOption func(*DegradationManager)

func WithDegradationClock(now func() time.Time) DegradationOption {
	return func(d *DegradationManager) { d.now = now }
}

// WithMemoryReader replaces the heap reader, which reports megabytes.
func WithMemoryReader(fn func() float64) DegradationOption {
	return func(d *DegradationManager) { d.memory = fn }
}

type sample struct {
	at      time.Time
	latency time.Duration
	failed  bool
}

// DegradationManager steps one level at a time between normal and offline
// based on rolling latency, error rate and heap usage. A threshold must be
// breached for the sustain duration to step down. Stepping up needs every
// metric below 80% of its threshold for the same duration.
type DegradationManager struct {
	cfg config.Degradation

	mu           sync.Mutex
	level        Level
	samples      []sample
	breachSince  time.Time
	healthySince time.Time
	lastChange   time.Time
	last         metrics
	listeners    []LevelListener

	now    func() time.Time
	memory func() float64
	audit  audit.Sink
	logger *logger.Logger
}

type metrics struct {
	latency   time.Duration
	errorRate float64
	memoryMB  float64
}

func NewDegradationManager(cfg config.Degradation, sink audit.Sink, log *logger.Logger, opts ...DegradationOption) *DegradationManager {
	d := &DegradationManager{
		cfg:    cfg,
		now:    time.Now,
		memory: heapMB,
		audit:  sink,
		logger: log,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.lastChange = d.now()
	return d
}

func heapMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapAlloc) / (1 << 20)
}

// OnChange registers a listener.
func (d *DegradationManager) OnChange(fn LevelListener) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

// Observe records one operation outcome.
func (d *DegradationManager) Observe(latency time.Duration, failed bool) {
	d.mu.Lock()
	d.samples = append(d.samples, sample{at: d.now(), latency: latency, failed: failed})
	d.mu.Unlock()
}

func (d *DegradationManager) Level() Level {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.level
}

// Evaluate computes the window metrics and steps at most one level.
func (d *DegradationManager) Evaluate(ctx context.Context) Level {
	mem := d.memory()

	d.mu.Lock()
	now := d.now()
	d.pruneLocked(now)
	m := d.metricsLocked(mem)
	d.last = m

	from := d.level
	to := from
	switch {
	case d.breached(m, 1):
		d.healthySince = time.Time{}
		if d.breachSince.IsZero() {
			d.breachSince = now
		}
		if now.Sub(d.breachSince) >= d.cfg.SustainDuration && from < LevelOffline {
			to = from + 1
			d.breachSince = now
		}
	case !d.breached(m, recoveryFactor):
		d.breachSince = time.Time{}
		if from == LevelNormal {
			break
		}
		if d.healthySince.IsZero() {
			d.healthySince = now
		}
		if now.Sub(d.healthySince) >= d.cfg.SustainDuration {
			to = from - 1
			d.healthySince = now
		}
	default:
		d.breachSince = time.Time{}
		d.healthySince = time.Time{}
	}
	if to == from {
		d.mu.Unlock()
		return from
	}
	listeners := d.transitionLocked(to, now)
	d.mu.Unlock()

	d.notify(ctx, from, to, m, listeners)
	return to
}

// SetLevel forces a level, for operators and tests.
func (d *DegradationManager) SetLevel(ctx context.Context, to Level) {
	d.mu.Lock()
	from := d.level
	if from == to {
		d.mu.Unlock()
		return
	}
	d.breachSince, d.healthySince = time.Time{}, time.Time{}
	listeners := d.transitionLocked(to, d.now())
	m := d.last
	d.mu.Unlock()

	d.notify(ctx, from, to, m, listeners)
}

func (d *DegradationManager) transitionLocked(to Level, now time.Time) []LevelListener {
	d.level = to
	d.lastChange = now
	return slices.Clone(d.listeners)
}

func (d *DegradationManager) notify(ctx context.Context, from, to Level, m metrics, listeners []LevelListener) {
	severity := models.SeverityWarning
	if to < from {
		severity = models.SeverityInfo
	}
	d.logger.Warn().
		Str("func", "DegradationManager.notify").
		Str("from", from.String()).
		Str("to", to.String()).
		Dur("avg_latency", m.latency).
		Float64("error_rate", m.errorRate).
		Float64("memory_mb", m.memoryMB).
		Msg("degradation level changed")

	audit.Record(ctx, d.audit, d.logger, models.AuditEvent{
		Kind:     models.AuditDegradationChange,
		Severity: severity,
		Actor:    "system",
		Subject:  to.String(),
		Details: map[string]any{
			"avg_latency_ms": m.latency.Milliseconds(),
			"error_rate":     m.errorRate,
			"memory_mb":      m.memoryMB,
		},
		Success:   true,
		Before:    map[string]any{"level": from.String()},
		After:     map[string]any{"level": to.String()},
		Timestamp: d.now(),
	})

	settings := to.Settings()
	for _, fn := range listeners {
		fn(ctx, from, to, settings)
	}
}

// breached reports whether any metric is above factor times its threshold.
// A zero threshold disables that metric.
func (d *DegradationManager) breached(m metrics, factor float64) bool {
	if t := d.cfg.LatencyThreshold; t > 0 && float64(m.latency) > float64(t)*factor {
		return true
	}
	if t := d.cfg.ErrorRateThreshold; t > 0 && m.errorRate > t*factor {
		return true
	}
	if t := d.cfg.MemoryThresholdMB; t > 0 && m.memoryMB > t*factor {
		return true
	}
	return false
}

func (d *DegradationManager) pruneLocked(now time.Time) {
	if d.cfg.Window <= 0 {
		return
	}
	cutoff := now.Add(-d.cfg.Window)
	i := 0
	for i < len(d.samples) && d.samples[i].at.Before(cutoff) {
		i++
	}
	d.samples = slices.Delete(d.samples, 0, i)
}

func (d *DegradationManager) metricsLocked(mem float64) metrics {
	m := metrics{memoryMB: mem}
	if len(d.samples) == 0 {
		return m
	}
	var total time.Duration
	failed := 0
	for _, s := range d.samples {
		total += s.latency
		if s.failed {
			failed++
		}
	}
	m.latency = total / time.Duration(len(d.samples))
	m.errorRate = float64(failed) / float64(len(d.samples))
	return m
}

func (d *DegradationManager) Status() models.DegradationStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.level.Settings()
	return models.DegradationStatus{
		Level:            d.level.String(),
		RealtimeEnabled:  s.RealtimeEnabled,
		BatchSize:        s.BatchSize,
		UpdateInterval:   s.UpdateInterval,
		AverageLatency:   d.last.latency,
		ErrorRate:        d.last.errorRate,
		MemoryMB:         d.last.memoryMB,
		LastTransitionAt: d.lastChange,
	}
}

// Run evaluates every evaluation interval until ctx is done.
func (d *DegradationManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.EvaluationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.Evaluate(ctx)
		}
	}
}
