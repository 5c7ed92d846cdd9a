// Package events batches, deduplicates and delivers sync events to
// subscribed clients.
package events

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/syncerr"
	"github.com/MKhiriev/report-sync/internal/utils"
	"github.com/MKhiriev/report-sync/models"
)

// Client is a subscriber the broker can deliver to.
type Client interface {
	ID() string
	UserID() string
	Send(ctx context.Context, payload []byte) error
}

type subscriber struct {
	client Client
	topics map[string]struct{}
}

func (s *subscriber) matches(e models.SyncEvent) bool {
	if _, ok := s.topics[models.WildcardTopic]; ok {
		return true
	}
	if _, ok := s.topics[string(e.EventType)]; ok {
		return true
	}
	_, ok := s.topics[e.RecordID]
	return ok
}

type Option func(*Broker)

// WithBatchIDGenerator replaces the UUIDv7 batch id generator.
func WithBatchIDGenerator(gen func() string) Option {
	return func(b *Broker) { b.newBatchID = gen }
}

// Broker buffers published events and flushes them when the buffer reaches
// the batch size or when the batch timeout fires, whichever comes first. At
// most one flush timer is pending at any time.
type Broker struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	buffer      []models.SyncEvent
	timer       *time.Timer

	batchSize    int
	batchTimeout time.Duration
	override     bool
	lastConns    int

	compressionThreshold int
	concurrency          int
	synchronous          bool

	// flushMu serializes flushes so per-client delivery order follows
	// publish order.
	flushMu sync.Mutex

	runCtx context.Context
	stats  models.BrokerStats

	newBatchID func() string
	logger     *logger.Logger
}

func NewBroker(cfg config.Events, features config.Features, log *logger.Logger, opts ...Option) *Broker {
	concurrency := cfg.DeliveryConcurrency
	if concurrency < 1 || features.DisablePooling {
		concurrency = 1
	}

	b := &Broker{
		subscribers:          make(map[string]*subscriber),
		batchSize:            cfg.MaxBatchSize,
		batchTimeout:         cfg.BatchTimeout,
		lastConns:            -1,
		compressionThreshold: cfg.CompressionThreshold,
		concurrency:          concurrency,
		synchronous:          features.DisableBatching,
		runCtx:               context.Background(),
		newBatchID:           utils.NewUUIDGenerator().Generate,
		logger:               log,
	}
	if b.batchSize < 1 {
		b.batchSize = 1
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SubscribeClient replaces the topic set of client. A topic is an event
// type, a record id or "*".
func (b *Broker) SubscribeClient(client Client, topics []string) error {
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		if t == "" {
			return ErrInvalidTopic
		}
		set[t] = struct{}{}
	}

	b.mu.Lock()
	b.subscribers[client.ID()] = &subscriber{client: client, topics: set}
	b.mu.Unlock()

	return nil
}

func (b *Broker) UnsubscribeClient(connectionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.subscribers[connectionID]
	delete(b.subscribers, connectionID)
	return ok
}

// Topics returns the sorted topic set of a subscriber.
func (b *Broker) Topics(connectionID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subscribers[connectionID]
	if !ok {
		return nil
	}
	topics := make([]string, 0, len(sub.topics))
	for t := range sub.topics {
		topics = append(topics, t)
	}
	slices.Sort(topics)
	return topics
}

// PublishEvent buffers event. It flushes synchronously when the buffer
// reaches the batch size or batching is disabled; the returned error is the
// error of that flush.
func (b *Broker) PublishEvent(ctx context.Context, event models.SyncEvent) error {
	return b.PublishBulkEvents(ctx, []models.SyncEvent{event})
}

// PublishBulkEvents buffers events as one unit.
func (b *Broker) PublishBulkEvents(ctx context.Context, events []models.SyncEvent) error {
	for _, e := range events {
		if e.RecordID == "" || !e.EventType.Valid() {
			return fmt.Errorf("%w: record %q type %q", ErrInvalidEvent, e.RecordID, e.EventType)
		}
	}
	if len(events) == 0 {
		return nil
	}

	b.mu.Lock()
	b.buffer = append(b.buffer, events...)
	b.stats.Published += len(events)
	flushNow := b.synchronous || len(b.buffer) >= b.batchSize
	if !flushNow && b.timer == nil {
		b.timer = time.AfterFunc(b.batchTimeout, b.onTimer)
	}
	b.mu.Unlock()

	if flushNow {
		return b.Flush(ctx)
	}
	return nil
}

func (b *Broker) onTimer() {
	b.mu.Lock()
	ctx := b.runCtx
	b.mu.Unlock()

	if err := b.Flush(ctx); err != nil {
		b.logger.Err(err).Str("func", "Broker.onTimer").Msg("timed flush failed")
	}
}

// Flush delivers everything buffered now and cancels the pending timer.
//
// Delivery failures are isolated per client and unsubscribe the failing
// client. Flush returns a BroadcastFailed error only when no targeted client
// received its payload.
func (b *Broker) Flush(ctx context.Context) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	pending := b.buffer
	b.buffer = nil
	subs := make([]*subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	started := time.Now()
	deduped := DeduplicateEvents(pending)

	deliveries := make([]delivery, 0, len(subs))
	for _, s := range subs {
		var matched []models.SyncEvent
		for _, e := range deduped {
			if s.matches(e) {
				matched = append(matched, e)
			}
		}
		if len(matched) > 0 {
			deliveries = append(deliveries, delivery{client: s.client, events: matched})
		}
	}

	failed := b.deliver(ctx, deliveries)
	for _, id := range failed {
		b.UnsubscribeClient(id)
	}

	b.mu.Lock()
	b.stats.Flushes++
	b.stats.Deduplicated += len(pending) - len(deduped)
	b.stats.Delivered += len(deliveries) - len(failed)
	b.stats.DeliveryFailures += len(failed)
	b.stats.LastFlushDuration = time.Since(started)
	b.mu.Unlock()

	if len(failed) > 0 {
		b.logger.Warn().
			Str("func", "Broker.Flush").
			Strs("failed_clients", failed).
			Int("targeted", len(deliveries)).
			Msg("unsubscribed clients after failed delivery")
	}
	if len(deliveries) > 0 && len(failed) == len(deliveries) {
		return syncerr.New(syncerr.KindBroadcastFailed, "Broker.Flush", "",
			fmt.Errorf("%w (%d clients)", ErrAllDeliveriesFailed, len(failed)))
	}
	return nil
}

type delivery struct {
	client Client
	events []models.SyncEvent
}

// deliver sends every payload concurrently and returns the ids of the
// clients that could not be served.
func (b *Broker) deliver(ctx context.Context, deliveries []delivery) []string {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed []string
	)
	g.SetLimit(b.concurrency)

	for _, d := range deliveries {
		g.Go(func() error {
			payload, err := b.encode(d.events)
			if err == nil {
				err = d.client.Send(ctx, payload)
			}
			if err != nil {
				b.logger.Debug().Err(err).
					Str("func", "Broker.deliver").
					Str("connection_id", d.client.ID()).
					Msg("delivery failed")
				mu.Lock()
				failed = append(failed, d.client.ID())
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(failed)
	return failed
}

// encode shapes events for one client: a single event is a point message,
// two or more are a batch.
func (b *Broker) encode(events []models.SyncEvent) ([]byte, error) {
	if len(events) == 1 {
		return json.Marshal(models.NewSyncEventMessage(events[0]))
	}
	return json.Marshal(models.NewSyncBatchMessage(b.newBatchID(), events, b.compressionThreshold))
}

// DeduplicateEvents keeps one event per "record_id:event_type" key: the one
// with the higher version, or the later timestamp on equal versions. Kept
// events stay in their original relative order.
func DeduplicateEvents(events []models.SyncEvent) []models.SyncEvent {
	type kept struct {
		idx   int
		event models.SyncEvent
	}
	byKey := make(map[string]kept, len(events))
	for i, e := range events {
		k := e.DedupKey()
		if cur, ok := byKey[k]; !ok || e.Supersedes(cur.event) {
			byKey[k] = kept{idx: i, event: e}
		}
	}

	out := make([]kept, 0, len(byKey))
	for _, k := range byKey {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b kept) int { return a.idx - b.idx })

	result := make([]models.SyncEvent, len(out))
	for i, k := range out {
		result[i] = k.event
	}
	return result
}

// batchTier is the batch configuration for a connection count range.
type batchTier struct {
	maxConns int
	size     int
	timeout  time.Duration
}

var batchTiers = []batchTier{
	{maxConns: 5, size: 10, timeout: 50 * time.Millisecond},
	{maxConns: 20, size: 25, timeout: 100 * time.Millisecond},
	{maxConns: -1, size: 50, timeout: 200 * time.Millisecond},
}

func tierFor(connections int) batchTier {
	for _, t := range batchTiers {
		if t.maxConns < 0 || connections <= t.maxConns {
			return t
		}
	}
	return batchTiers[len(batchTiers)-1]
}

// OptimizeBatchSettings adapts batch size and timeout to the number of live
// connections. It only recomputes when the count changed and reports whether
// it did. Settings applied by ApplySettings take precedence.
func (b *Broker) OptimizeBatchSettings(connectionCount int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if connectionCount == b.lastConns {
		return false
	}
	b.lastConns = connectionCount
	if b.override {
		return false
	}

	t := tierFor(connectionCount)
	b.batchSize, b.batchTimeout = t.size, t.timeout
	return true
}

// ApplySettings pins batch size and timeout, for example while the service
// is degraded, until ResetSettings is called.
func (b *Broker) ApplySettings(size int, timeout time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if size < 1 {
		size = 1
	}
	b.batchSize, b.batchTimeout = size, timeout
	b.override = true
}

// ResetSettings drops pinned settings and returns to connection-count tiers.
func (b *Broker) ResetSettings() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.override = false
	if b.lastConns >= 0 {
		t := tierFor(b.lastConns)
		b.batchSize, b.batchTimeout = t.size, t.timeout
	}
}

func (b *Broker) Stats() models.BrokerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := b.stats
	stats.Subscribers = len(b.subscribers)
	stats.Buffered = len(b.buffer)
	stats.BatchSize = b.batchSize
	stats.BatchTimeout = b.batchTimeout
	return stats
}

// Run binds timed flushes to ctx and, once ctx is done, stops the pending
// timer and flushes what is left.
func (b *Broker) Run(ctx context.Context) error {
	b.mu.Lock()
	b.runCtx = ctx
	b.mu.Unlock()

	<-ctx.Done()

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	b.mu.Lock()
	b.runCtx = flushCtx
	b.mu.Unlock()

	if err := b.Flush(flushCtx); err != nil {
		b.logger.Err(err).Str("func", "Broker.Run").Msg("final flush failed")
	}
	return nil
}
