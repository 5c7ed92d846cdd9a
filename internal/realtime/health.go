package realtime

import (
	"context"
	"sync"
	"time"
)

// HealthMonitor runs a periodic check independent of the transport. After
// threshold consecutive failures it calls onUnhealthy and starts counting
// again, which catches connections that died without a close.
type HealthMonitor struct {
	interval    time.Duration
	threshold   int
	check       func(ctx context.Context) error
	onUnhealthy func()

	mu       sync.Mutex
	failures int
	lastErr  error
}

func NewHealthMonitor(interval time.Duration, threshold int, check func(ctx context.Context) error, onUnhealthy func()) *HealthMonitor {
	if threshold < 1 {
		threshold = 1
	}
	return &HealthMonitor{
		interval:    interval,
		threshold:   threshold,
		check:       check,
		onUnhealthy: onUnhealthy,
	}
}

// Check runs one check and reports whether it passed.
func (h *HealthMonitor) Check(ctx context.Context) bool {
	err := h.check(ctx)

	h.mu.Lock()
	if err == nil {
		h.failures = 0
		h.lastErr = nil
		h.mu.Unlock()
		return true
	}
	h.failures++
	h.lastErr = err
	trip := h.failures >= h.threshold
	if trip {
		h.failures = 0
	}
	h.mu.Unlock()

	if trip {
		h.onUnhealthy()
	}
	return false
}

func (h *HealthMonitor) ConsecutiveFailures() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failures
}

func (h *HealthMonitor) Reset() {
	h.mu.Lock()
	h.failures = 0
	h.lastErr = nil
	h.mu.Unlock()
}

// Run checks every interval until ctx is done.
func (h *HealthMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
