package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/syncerr"
)

var errBoom = syncerr.New(syncerr.KindBroadcastFailed, "send", "", errors.New("boom"))

func fail(context.Context) error { return errBoom }
func pass(context.Context) error { return nil }

func TestBreaker_OpensAfterThresholdAndRecovers(t *testing.T) {
	b := NewBreaker("broadcast", config.Resilience{FailureThreshold: 3, RecoveryTimeout: 30 * time.Millisecond}, logger.Nop())
	ctx := context.Background()

	for range 2 {
		require.ErrorIs(t, b.Execute(ctx, fail), errBoom)
	}
	assert.Equal(t, "closed", b.State())

	require.ErrorIs(t, b.Execute(ctx, fail), errBoom)
	assert.Equal(t, "open", b.State())

	called := false
	err := b.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, syncerr.ErrServiceUnavailable)
	assert.False(t, called)

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, "half-open", b.State())
	require.NoError(t, b.Execute(ctx, pass))
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("store", config.Resilience{FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond}, logger.Nop())
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	require.Equal(t, "open", b.State())

	time.Sleep(30 * time.Millisecond)
	_ = b.Execute(ctx, fail)
	assert.Equal(t, "open", b.State())
}

func TestBreaker_BusinessRejectionsDoNotTrip(t *testing.T) {
	b := NewBreaker("lock_validation", config.Resilience{FailureThreshold: 2, RecoveryTimeout: time.Minute}, logger.Nop())
	ctx := context.Background()

	conflict := syncerr.New(syncerr.KindVersionConflict, "update", "R1", nil)
	for range 5 {
		err := b.Execute(ctx, func(context.Context) error { return conflict })
		require.ErrorIs(t, err, syncerr.ErrVersionConflict)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreakers_GetAndStates(t *testing.T) {
	bs := NewBreakers(config.Resilience{FailureThreshold: 1, RecoveryTimeout: time.Minute}, logger.Nop())

	assert.Same(t, bs.Get(BreakerBroadcast), bs.Get(BreakerBroadcast))
	_ = bs.Get(BreakerStore).Execute(context.Background(), fail)

	assert.Equal(t, map[string]string{
		BreakerBroadcast: "closed",
		BreakerStore:     "open",
	}, bs.States())
}
