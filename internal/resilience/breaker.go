package resilience

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/syncerr"
)

// Breaker names used by the sync service.
const (
	BreakerBroadcast      = "broadcast"
	BreakerLockValidation = "lock_validation"
	BreakerStore          = "store"
)

// Breaker opens after a run of consecutive failures, rejects calls while
// open, and lets one trial call through once the recovery timeout passed.
// Business rejections do not count as failures.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreaker(name string, cfg config.Resilience, log *logger.Logger) *Breaker {
	threshold := uint32(max(cfg.FailureThreshold, 1))

	return &Breaker{
		name: name,
		cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.RecoveryTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: isSuccessful,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("func", "Breaker.OnStateChange").
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		}),
	}
}

func isSuccessful(err error) bool {
	switch syncerr.KindOf(err) {
	case syncerr.KindVersionConflict, syncerr.KindLockAcquisitionFailed, syncerr.KindDataIntegrity:
		return true
	}
	return err == nil
}

// Execute runs fn through the breaker. While the breaker rejects calls the
// result is a ServiceUnavailable error and fn is not called.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return syncerr.New(syncerr.KindServiceUnavailable, "breaker "+b.name, "", err)
	}
	return err
}

func (b *Breaker) Name() string { return b.name }

// State is one of "closed", "open" or "half-open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Breakers is a named set of breakers sharing one configuration.
type Breakers struct {
	cfg    config.Resilience
	logger *logger.Logger

	mu  sync.Mutex
	set map[string]*Breaker
}

func NewBreakers(cfg config.Resilience, log *logger.Logger) *Breakers {
	return &Breakers{cfg: cfg, logger: log, set: make(map[string]*Breaker)}
}

// Get returns the breaker called name, creating it on first use.
func (bs *Breakers) Get(name string) *Breaker {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	b, ok := bs.set[name]
	if !ok {
		b = NewBreaker(name, bs.cfg, bs.logger)
		bs.set[name] = b
	}
	return b
}

// States returns the state of every breaker by name.
func (bs *Breakers) States() map[string]string {
	bs.mu.Lock()
	set := maps.Clone(bs.set)
	bs.mu.Unlock()

	out := make(map[string]string, len(set))
	for name, b := range set {
		out[name] = b.State()
	}
	return out
}
