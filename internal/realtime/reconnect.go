package realtime

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/MKhiriev/report-sync/internal/config"
)

// ReconnectState is the state of a [Reconnector].
type ReconnectState string

const (
	StateIdle       ReconnectState = "idle"
	StateConnecting ReconnectState = "connecting"
	StateConnected  ReconnectState = "connected"
	// StateDegraded is terminal until Start is called again.
	StateDegraded ReconnectState = "degraded"
)

const jitterFraction = 0.25

// Delay returns the wait before attempt n (1-based): min(initial *
// multiplier^(n-1), max) scaled by a jitter factor in [0.75, 1.25]. The
// first attempt is immediate. jitter is a value in [0, 1).
func Delay(cfg config.Reconnection, attempt int, jitter float64) time.Duration {
	if attempt <= 1 {
		return 0
	}
	base := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffMultiplier, float64(attempt-1))
	if limit := float64(cfg.MaxDelay); limit > 0 && base > limit {
		base = limit
	}
	return time.Duration(base * (1 + (2*jitter-1)*jitterFraction))
}

type ReconnectOption func(*Reconnector)

// WithOnConnected is called after a successful attempt.
func WithOnConnected(fn func()) ReconnectOption {
	return func(r *Reconnector) { r.onConnected = fn }
}

// WithOnDegraded is called once the attempt budget is spent.
func WithOnDegraded(fn func(attempts int, lastErr error)) ReconnectOption {
	return func(r *Reconnector) { r.onDegraded = fn }
}

// WithSleep replaces the context-aware sleep used between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ReconnectOption {
	return func(r *Reconnector) { r.sleep = fn }
}

// WithJitterSource replaces the uniform [0, 1) jitter source.
func WithJitterSource(fn func() float64) ReconnectOption {
	return func(r *Reconnector) { r.jitter = fn }
}

// Reconnector drives idle -> connecting -> {connected | degraded} with
// exponential backoff.
type Reconnector struct {
	cfg     config.Reconnection
	connect func(ctx context.Context) error

	onConnected func()
	onDegraded  func(attempts int, lastErr error)
	sleep       func(ctx context.Context, d time.Duration) error
	jitter      func() float64

	mu       sync.Mutex
	state    ReconnectState
	attempts int
	lastErr  error
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewReconnector(cfg config.Reconnection, connect func(ctx context.Context) error, opts ...ReconnectOption) *Reconnector {
	r := &Reconnector{
		cfg:         cfg,
		connect:     connect,
		onConnected: func() {},
		onDegraded:  func(int, error) {},
		sleep:       sleepCtx,
		jitter:      rand.Float64,
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins a reconnection cycle. It returns false when a cycle is
// already running.
func (r *Reconnector) Start(ctx context.Context) bool {
	r.mu.Lock()
	if r.state == StateConnecting {
		r.mu.Unlock()
		return false
	}
	cctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.state = StateConnecting
	r.attempts = 0
	r.lastErr = nil
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go r.loop(cctx, done)
	return true
}

func (r *Reconnector) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for attempt := 1; ; attempt++ {
		if d := Delay(r.cfg, attempt, r.jitter()); d > 0 {
			if err := r.sleep(ctx, d); err != nil {
				r.abandon()
				return
			}
		}

		err := r.connect(ctx)
		if ctx.Err() != nil {
			r.abandon()
			return
		}

		r.mu.Lock()
		r.attempts = attempt
		if err == nil {
			r.state = StateConnected
			r.attempts = 0
			r.lastErr = nil
			r.mu.Unlock()
			r.onConnected()
			return
		}
		r.lastErr = err
		if attempt >= r.cfg.MaxAttempts {
			r.state = StateDegraded
			r.mu.Unlock()
			r.onDegraded(attempt, err)
			return
		}
		r.mu.Unlock()
	}
}

func (r *Reconnector) abandon() {
	r.mu.Lock()
	if r.state == StateConnecting {
		r.state = StateIdle
	}
	r.mu.Unlock()
}

// MarkConnected records an externally established connection.
func (r *Reconnector) MarkConnected() {
	r.mu.Lock()
	if r.state != StateConnecting {
		r.state = StateConnected
		r.attempts = 0
	}
	r.mu.Unlock()
}

// Stop cancels a running cycle and waits for it to exit.
func (r *Reconnector) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Done is closed when the current cycle ends. It is nil before the first
// Start.
func (r *Reconnector) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Reconnector) State() ReconnectState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Attempts returns the failed attempts of the current or last cycle.
func (r *Reconnector) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func (r *Reconnector) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
