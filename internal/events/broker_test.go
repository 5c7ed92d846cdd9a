package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/syncerr"
	"github.com/MKhiriev/report-sync/models"
)

type fakeClient struct {
	id, user string
	fail     bool

	mu       sync.Mutex
	payloads [][]byte
}

func (c *fakeClient) ID() string     { return c.id }
func (c *fakeClient) UserID() string { return c.user }

func (c *fakeClient) Send(_ context.Context, payload []byte) error {
	if c.fail {
		return errors.New("broken pipe")
	}
	c.mu.Lock()
	c.payloads = append(c.payloads, payload)
	c.mu.Unlock()
	return nil
}

func (c *fakeClient) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.payloads...)
}

type envelope struct {
	Type                   models.MessageType `json:"type"`
	RecordID               string             `json:"record_id"`
	Count                  int                `json:"count"`
	BatchID                string             `json:"batch_id"`
	CompressionRecommended bool               `json:"compression_recommended"`
	Events                 []struct {
		RecordID string `json:"record_id"`
		Version  int64  `json:"version"`
	} `json:"events"`
}

func decode(t *testing.T, raw []byte) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(raw, &e))
	return e
}

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func event(record string, typ models.EventType, version int64, offset time.Duration) models.SyncEvent {
	return models.NewSyncEvent(typ, record, map[string]any{"v": version}, version, "A", t0.Add(offset))
}

func newTestBroker(cfg config.Events, features config.Features) *Broker {
	return NewBroker(cfg, features, logger.Nop(), WithBatchIDGenerator(func() string { return "batch-1" }))
}

func TestBroker_BuffersUntilTimeoutThenSendsOneBatch(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 50, BatchTimeout: 60 * time.Millisecond, CompressionThreshold: 10}, config.Features{})
	client := &fakeClient{id: "c1", user: "U"}
	require.NoError(t, b.SubscribeClient(client, []string{models.WildcardTopic}))

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, b.PublishEvent(ctx, event(fmt.Sprintf("R%d", i), models.EventRecordUpdated, 1, 0)))
	}

	assert.Empty(t, client.received())
	assert.Equal(t, 3, b.Stats().Buffered)

	require.Eventually(t, func() bool { return len(client.received()) == 1 }, time.Second, 5*time.Millisecond)

	msg := decode(t, client.received()[0])
	assert.Equal(t, models.MsgSyncBatch, msg.Type)
	assert.Equal(t, 3, msg.Count)
	assert.Equal(t, "batch-1", msg.BatchID)
	assert.False(t, msg.CompressionRecommended)
	require.Len(t, msg.Events, 3)
	assert.Equal(t, "R1", msg.Events[0].RecordID)

	// No second flush is pending.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, client.received(), 1)
	assert.Equal(t, 1, b.Stats().Flushes)
}

func TestBroker_FlushesWhenBatchSizeReached(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 2, BatchTimeout: time.Hour}, config.Features{})
	client := &fakeClient{id: "c1"}
	require.NoError(t, b.SubscribeClient(client, []string{"*"}))

	ctx := context.Background()
	require.NoError(t, b.PublishEvent(ctx, event("R1", models.EventRecordUpdated, 1, 0)))
	assert.Empty(t, client.received())
	require.NoError(t, b.PublishEvent(ctx, event("R2", models.EventRecordUpdated, 1, 0)))

	require.Len(t, client.received(), 1)
	assert.Equal(t, 2, decode(t, client.received()[0]).Count)
	assert.Zero(t, b.Stats().Buffered)
}

func TestBroker_SingleEventIsPointMessage(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 50, BatchTimeout: time.Hour}, config.Features{DisableBatching: true})
	client := &fakeClient{id: "c1"}
	require.NoError(t, b.SubscribeClient(client, []string{"R7"}))

	require.NoError(t, b.PublishEvent(context.Background(), event("R7", models.EventRecordLocked, 3, 0)))

	require.Len(t, client.received(), 1)
	msg := decode(t, client.received()[0])
	assert.Equal(t, models.MsgSyncEvent, msg.Type)
	assert.Equal(t, "R7", msg.RecordID)
}

func TestBroker_CompressionHint(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 100, BatchTimeout: time.Hour, CompressionThreshold: 2}, config.Features{})
	client := &fakeClient{id: "c1"}
	require.NoError(t, b.SubscribeClient(client, []string{"*"}))

	ctx := context.Background()
	for i := range 3 {
		require.NoError(t, b.PublishEvent(ctx, event(fmt.Sprintf("R%d", i), models.EventRecordUpdated, 1, 0)))
	}
	require.NoError(t, b.Flush(ctx))

	require.Len(t, client.received(), 1)
	assert.True(t, decode(t, client.received()[0]).CompressionRecommended)
}

func TestBroker_Targeting(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 100, BatchTimeout: time.Hour}, config.Features{})
	all := &fakeClient{id: "all"}
	byType := &fakeClient{id: "type"}
	byRecord := &fakeClient{id: "record"}
	none := &fakeClient{id: "none"}
	require.NoError(t, b.SubscribeClient(all, []string{"*"}))
	require.NoError(t, b.SubscribeClient(byType, []string{string(models.EventRecordLocked)}))
	require.NoError(t, b.SubscribeClient(byRecord, []string{"R2"}))
	require.NoError(t, b.SubscribeClient(none, []string{"R99"}))

	ctx := context.Background()
	require.NoError(t, b.PublishBulkEvents(ctx, []models.SyncEvent{
		event("R1", models.EventRecordLocked, 1, 0),
		event("R2", models.EventRecordUpdated, 2, 0),
	}))
	require.NoError(t, b.Flush(ctx))

	assert.Equal(t, 2, decode(t, all.received()[0]).Count)
	assert.Equal(t, "R1", decode(t, byType.received()[0]).RecordID)
	assert.Equal(t, "R2", decode(t, byRecord.received()[0]).RecordID)
	assert.Empty(t, none.received())
}

func TestBroker_FailedClientIsIsolatedAndUnsubscribed(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 100, BatchTimeout: time.Hour}, config.Features{})
	good := &fakeClient{id: "good"}
	bad := &fakeClient{id: "bad", fail: true}
	require.NoError(t, b.SubscribeClient(good, []string{"*"}))
	require.NoError(t, b.SubscribeClient(bad, []string{"*"}))

	ctx := context.Background()
	require.NoError(t, b.PublishEvent(ctx, event("R1", models.EventRecordUpdated, 1, 0)))
	require.NoError(t, b.Flush(ctx))

	assert.Len(t, good.received(), 1)
	assert.Nil(t, b.Topics("bad"))
	assert.Equal(t, []string{"*"}, b.Topics("good"))

	stats := b.Stats()
	assert.Equal(t, 1, stats.Subscribers)
	assert.Equal(t, 1, stats.DeliveryFailures)
	assert.Equal(t, 1, stats.Delivered)
}

func TestBroker_AllDeliveriesFailed(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 1, BatchTimeout: time.Hour}, config.Features{DisablePooling: true})
	require.NoError(t, b.SubscribeClient(&fakeClient{id: "bad", fail: true}, []string{"*"}))

	err := b.PublishEvent(context.Background(), event("R1", models.EventRecordUpdated, 1, 0))

	require.Error(t, err)
	assert.ErrorIs(t, err, syncerr.ErrBroadcastFailed)
	assert.ErrorIs(t, err, ErrAllDeliveriesFailed)
}

func TestBroker_NoSubscribersIsNotAFailure(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 1, BatchTimeout: time.Hour}, config.Features{})
	assert.NoError(t, b.PublishEvent(context.Background(), event("R1", models.EventRecordUpdated, 1, 0)))
}

func TestBroker_RejectsInvalidInput(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 10, BatchTimeout: time.Hour}, config.Features{})

	err := b.PublishEvent(context.Background(), models.SyncEvent{EventType: models.EventRecordUpdated})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	err = b.PublishEvent(context.Background(), models.SyncEvent{RecordID: "R1", EventType: "renamed"})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	assert.ErrorIs(t, b.SubscribeClient(&fakeClient{id: "c"}, []string{""}), ErrInvalidTopic)
	assert.Zero(t, b.Stats().Buffered)
}

func TestBroker_FlushDeduplicates(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 100, BatchTimeout: time.Hour}, config.Features{})
	client := &fakeClient{id: "c1"}
	require.NoError(t, b.SubscribeClient(client, []string{"*"}))

	ctx := context.Background()
	require.NoError(t, b.PublishBulkEvents(ctx, []models.SyncEvent{
		event("R1", models.EventRecordUpdated, 1, 0),
		event("R1", models.EventRecordUpdated, 3, time.Second),
		event("R1", models.EventRecordUpdated, 2, 2*time.Second),
		event("R2", models.EventRecordUpdated, 1, 0),
	}))
	require.NoError(t, b.Flush(ctx))

	msg := decode(t, client.received()[0])
	require.Equal(t, 2, msg.Count)
	assert.Equal(t, "R1", msg.Events[0].RecordID)
	assert.Equal(t, int64(3), msg.Events[0].Version)
	assert.Equal(t, 2, b.Stats().Deduplicated)
}

func TestDeduplicateEvents(t *testing.T) {
	in := []models.SyncEvent{
		event("R1", models.EventRecordUpdated, 1, 0),
		event("R1", models.EventRecordLocked, 1, 0),
		event("R1", models.EventRecordUpdated, 2, 0),
		event("R2", models.EventRecordUpdated, 5, 0),
		event("R2", models.EventRecordUpdated, 5, time.Second),
	}

	out := DeduplicateEvents(in)

	require.Len(t, out, 3)
	keys := map[string]bool{}
	for _, e := range out {
		assert.False(t, keys[e.DedupKey()], "duplicate key %s", e.DedupKey())
		keys[e.DedupKey()] = true
	}
	assert.Equal(t, int64(2), out[1].Version)
	assert.Equal(t, t0.Add(time.Second), out[2].Timestamp)

	assert.Equal(t, out, DeduplicateEvents(out))
	assert.Empty(t, DeduplicateEvents(nil))
}

func TestBroker_OptimizeBatchSettings(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 50, BatchTimeout: 100 * time.Millisecond}, config.Features{})

	tests := []struct {
		conns   int
		changed bool
		size    int
		timeout time.Duration
	}{
		{conns: 3, changed: true, size: 10, timeout: 50 * time.Millisecond},
		{conns: 3, changed: false, size: 10, timeout: 50 * time.Millisecond},
		{conns: 5, changed: true, size: 10, timeout: 50 * time.Millisecond},
		{conns: 6, changed: true, size: 25, timeout: 100 * time.Millisecond},
		{conns: 20, changed: true, size: 25, timeout: 100 * time.Millisecond},
		{conns: 21, changed: true, size: 50, timeout: 200 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d connections", tt.conns), func(t *testing.T) {
			assert.Equal(t, tt.changed, b.OptimizeBatchSettings(tt.conns))
			stats := b.Stats()
			assert.Equal(t, tt.size, stats.BatchSize)
			assert.Equal(t, tt.timeout, stats.BatchTimeout)
		})
	}
}

func TestBroker_ApplyAndResetSettings(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 50, BatchTimeout: 100 * time.Millisecond}, config.Features{})
	b.OptimizeBatchSettings(2)

	b.ApplySettings(200, 2*time.Second)
	assert.False(t, b.OptimizeBatchSettings(30))
	assert.Equal(t, 200, b.Stats().BatchSize)

	b.ResetSettings()
	stats := b.Stats()
	assert.Equal(t, 50, stats.BatchSize)
	assert.Equal(t, 200*time.Millisecond, stats.BatchTimeout)
}

func TestBroker_RunFlushesOnCancel(t *testing.T) {
	b := newTestBroker(config.Events{MaxBatchSize: 50, BatchTimeout: time.Hour}, config.Features{})
	client := &fakeClient{id: "c1"}
	require.NoError(t, b.SubscribeClient(client, []string{"*"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.NoError(t, b.PublishEvent(context.Background(), event("R1", models.EventRecordUpdated, 1, 0)))
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Len(t, client.received(), 1)
	assert.Zero(t, b.Stats().Buffered)
}
