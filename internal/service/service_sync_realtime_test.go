package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/events"
	"github.com/MKhiriev/report-sync/internal/realtime"
	"github.com/MKhiriev/report-sync/internal/resilience"
	"github.com/MKhiriev/report-sync/internal/syncerr"
	"github.com/MKhiriev/report-sync/models"
)

type unknownMessage struct{}

func (unknownMessage) MessageType() models.MessageType { return "bogus" }

func TestOnConnect_SubscribesToEverything(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "c1", "A")

	assert.Equal(t, []string{models.WildcardTopic}, f.c.Broker.Topics("c1"))
	conn, ok := f.c.Connections.GetConnection("c1")
	require.True(t, ok)
	assert.Equal(t, []string{models.WildcardTopic}, conn.Topics())
}

func TestHandleMessage_Subscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.connect(t, "c1", "A")
	conn, _ := f.c.Connections.GetConnection("c1")

	err := f.svc.HandleMessage(ctx, conn, models.SubscribeRequest{Topics: []string{"R7", string(models.EventRecordLocked)}})
	require.NoError(t, err)

	updated := tr.messages(t, models.MsgSubscriptionUpdated)
	require.Len(t, updated, 1)
	assert.Equal(t, []any{"R7", "record_locked"}, updated[0]["topics"])

	// only R7 and lock events reach the connection now
	_, err = f.svc.HandleRecordUpdate(ctx, "R1", map[string]any{"k": "v"}, "B", 1)
	require.NoError(t, err)
	_, err = f.svc.HandleRecordUpdate(ctx, "R7", map[string]any{"k": "v"}, "B", 1)
	require.NoError(t, err)

	delivered := tr.messages(t, models.MsgSyncEvent)
	require.Len(t, delivered, 1)
	assert.Equal(t, "R7", delivered[0]["record_id"])
}

func TestHandleMessage_SubscribeFailure(t *testing.T) {
	f := newFixture(t)
	tr := f.connect(t, "c1", "A")
	conn, _ := f.c.Connections.GetConnection("c1")

	err := f.svc.HandleMessage(context.Background(), conn, models.SubscribeRequest{Topics: []string{""}})
	require.ErrorIs(t, err, events.ErrInvalidTopic)

	failures := tr.messages(t, models.MsgError)
	require.Len(t, failures, 1)
	assert.Equal(t, models.ErrCodeSubscriptionFailed, failures[0]["error_code"])
}

func TestHandleMessage_UnsupportedAndHeartbeat(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "c1", "A")
	conn, _ := f.c.Connections.GetConnection("c1")

	assert.NoError(t, f.svc.HandleMessage(context.Background(), conn, models.HeartbeatRequest{}))
	assert.ErrorIs(t, f.svc.HandleMessage(context.Background(), conn, unknownMessage{}), ErrUnsupportedMessage)
}

func TestReconnect_DeliversBacklogInChunks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, "c1", "A")

	conn, _ := f.c.Connections.GetConnection("c1")
	require.NoError(t, f.svc.HandleMessage(ctx, conn, models.SubscribeRequest{Topics: []string{string(models.EventRecordUpdated), string(models.EventRecordAdded)}}))

	_, ok := f.c.Connections.RemoveConnection(ctx, "c1")
	require.True(t, ok)
	assert.Empty(t, f.c.Broker.Topics("c1"))

	for i := 1; i <= 5; i++ {
		f.clock.Advance(time.Second)
		_, err := f.svc.HandleRecordUpdate(ctx, fmt.Sprintf("R%d", i), map[string]any{"n": i}, "B", 1)
		require.NoError(t, err)
	}
	st := f.svc.Status(ctx)
	assert.Equal(t, 1, st.OfflineClients)
	assert.Equal(t, 5, st.BufferedEvents)

	tr := &recordingTransport{}
	f.attach(t, "c1", "A", tr, true)

	batches := tr.messages(t, models.MsgSyncBatch)
	require.Len(t, batches, 2)
	assert.EqualValues(t, 2, batches[0]["count"])
	assert.EqualValues(t, 2, batches[1]["count"])
	single := tr.messages(t, models.MsgSyncEvent)
	require.Len(t, single, 1)
	assert.Equal(t, "R5", single[0]["record_id"])
	assert.EqualValues(t, 2, f.sleeps.Load())

	// the resumed connection keeps its subscription
	assert.Equal(t, []string{"record_added", "record_updated"}, f.c.Broker.Topics("c1"))

	st = f.svc.Status(ctx)
	assert.Equal(t, 0, st.OfflineClients)
}

func TestReconnect_QueuedEventReachesResumedConnectionOnce(t *testing.T) {
	f := newFixture(t, withConfig(func(cfg *config.StructuredConfig) {
		cfg.Features.DisableBatching = false
	}))
	ctx := context.Background()
	f.connect(t, "c1", "A")
	f.c.Broker.ApplySettings(50, time.Hour)

	_, ok := f.c.Connections.RemoveConnection(ctx, "c1")
	require.True(t, ok)

	_, err := f.svc.HandleRecordUpdate(ctx, "R1", map[string]any{"k": "v"}, "B", 1)
	require.NoError(t, err)

	tr := &recordingTransport{}
	f.attach(t, "c1", "A", tr, true)
	require.NoError(t, f.c.Broker.Flush(ctx))

	delivered := len(tr.messages(t, models.MsgSyncEvent))
	for _, batch := range tr.messages(t, models.MsgSyncBatch) {
		delivered += int(batch["count"].(float64))
	}
	assert.Equal(t, 1, delivered)
}

func TestReconnect_ShutdownKeepsNoBacklog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, "c1", "A")

	_, ok := f.c.Connections.ForceRemove(ctx, "c1", realtime.ReasonShutdown)
	require.True(t, ok)

	clients, _ := f.svc.offline.stats()
	assert.Zero(t, clients)
}

func TestSyncClient_UnknownConnection(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SyncClient(context.Background(), "missing", nil)
	require.ErrorIs(t, err, syncerr.ErrConnection)
	assert.ErrorIs(t, err, ErrUnknownConnection)
}

func TestSyncClient_FiltersBySince(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clock.Now()

	f.svc.offline.markOffline("c1", "A", []string{models.WildcardTopic}, base)
	f.svc.offline.add(
		models.NewSyncEvent(models.EventRecordUpdated, "R1", nil, 2, "B", base.Add(1*time.Second)),
		models.NewSyncEvent(models.EventRecordUpdated, "R2", nil, 2, "B", base.Add(2*time.Second)),
		models.NewSyncEvent(models.EventRecordUpdated, "R3", nil, 2, "B", base.Add(3*time.Second)),
	)

	tr := f.connect(t, "c1", "A")
	since := base.Add(2 * time.Second)
	sent, err := f.svc.SyncClient(ctx, "c1", &since)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := tr.messages(t, models.MsgSyncEvent)
	require.Len(t, msgs, 1)
	assert.Equal(t, "R3", msgs[0]["record_id"])
}

func TestSyncClient_RestoresUndeliveredEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clock.Now()

	f.svc.offline.markOffline("c1", "A", nil, base)
	for i := 1; i <= 3; i++ {
		f.svc.offline.add(models.NewSyncEvent(models.EventRecordUpdated, fmt.Sprintf("R%d", i), nil, 2, "B", base.Add(time.Duration(i)*time.Second)))
	}

	tr := &recordingTransport{failAfter: 1}
	conn := realtime.NewConnection("c1", "A", tr, f.clock.Now())
	require.NoError(t, f.c.Connections.AddConnection(ctx, conn))

	sent, err := f.svc.SyncClient(ctx, "c1", nil)
	require.ErrorIs(t, err, syncerr.ErrConnection)
	assert.Equal(t, 2, sent)

	clients, buffered := f.svc.offline.stats()
	assert.Equal(t, 1, clients)
	assert.Equal(t, 1, buffered)
}

func TestBacklog_DeduplicatesAndOrders(t *testing.T) {
	base := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	buffered := []models.SyncEvent{
		models.NewSyncEvent(models.EventRecordUpdated, "R2", nil, 2, "B", base.Add(3*time.Second)),
		models.NewSyncEvent(models.EventRecordUpdated, "R1", nil, 2, "B", base.Add(1*time.Second)),
		models.NewSyncEvent(models.EventRecordUpdated, "R1", nil, 3, "B", base.Add(2*time.Second)),
		models.NewSyncEvent(models.EventRecordLocked, "R1", nil, 3, "A", base.Add(4*time.Second)),
	}

	got := backlog(buffered, nil)
	require.Len(t, got, 3)
	assert.Equal(t, "R1", got[0].RecordID)
	assert.Equal(t, int64(3), got[0].Version)
	assert.Equal(t, "R2", got[1].RecordID)
	assert.Equal(t, models.EventRecordLocked, got[2].EventType)
}

func TestLevelChanged_PausesRealtime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.connect(t, "c1", "A")

	f.c.Degradation.SetLevel(ctx, resilience.LevelReduced)
	assert.Equal(t, 100, f.c.Broker.Stats().BatchSize)
	assert.Empty(t, tr.messages(t, models.MsgError))

	f.c.Degradation.SetLevel(ctx, resilience.LevelManualRefresh)
	assert.Equal(t, 200, f.c.Broker.Stats().BatchSize)

	notices := tr.messages(t, models.MsgError)
	require.Len(t, notices, 1)
	assert.Equal(t, models.ErrCodeManualRefresh, notices[0]["error_code"])

	// a connection opened while paused is told right away
	late := f.connect(t, "c2", "B")
	require.Len(t, late.messages(t, models.MsgError), 1)

	f.c.Degradation.SetLevel(ctx, resilience.LevelNormal)
	assert.Equal(t, 10, f.c.Broker.Stats().BatchSize)
}
