package service

import (
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/report-sync/models"
)

// offlineBuffer is the backlog of one connection id that went away.
type offlineBuffer struct {
	userID  string
	topics  []string
	since   time.Time
	events  []models.SyncEvent
	dropped int
}

// offlineBuffers keeps a bounded backlog per offline connection id. When a
// backlog is full the oldest event is dropped.
type offlineBuffers struct {
	mu      sync.Mutex
	buffers map[string]*offlineBuffer
	limit   int
	ttl     time.Duration
}

func newOfflineBuffers(limit int, ttl time.Duration) *offlineBuffers {
	return &offlineBuffers{
		buffers: make(map[string]*offlineBuffer),
		limit:   max(limit, 1),
		ttl:     ttl,
	}
}

// markOffline starts buffering for connID. An existing backlog is kept.
func (b *offlineBuffers) markOffline(connID, userID string, topics []string, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.buffers[connID]; ok {
		return
	}
	b.buffers[connID] = &offlineBuffer{userID: userID, topics: slices.Clone(topics), since: at}
}

// add appends events to every backlog.
func (b *offlineBuffers) add(events ...models.SyncEvent) {
	if len(events) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, buf := range b.buffers {
		buf.events = append(buf.events, events...)
		if over := len(buf.events) - b.limit; over > 0 {
			buf.events = slices.Delete(buf.events, 0, over)
			buf.dropped += over
		}
	}
}

// take removes and returns the backlog of connID.
func (b *offlineBuffers) take(connID string) (*offlineBuffer, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, ok := b.buffers[connID]
	delete(b.buffers, connID)
	return buf, ok
}

// restore puts undelivered events back in front of whatever was buffered
// for connID in the meantime.
func (b *offlineBuffers) restore(connID string, buf *offlineBuffer, undelivered []models.SyncEvent) {
	if len(undelivered) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.buffers[connID]
	if !ok {
		current = &offlineBuffer{userID: buf.userID, topics: buf.topics, since: buf.since}
		b.buffers[connID] = current
	}
	current.events = append(slices.Clone(undelivered), current.events...)
	if over := len(current.events) - b.limit; over > 0 {
		current.events = slices.Delete(current.events, 0, over)
		current.dropped += over
	}
}

// sweep drops backlogs that have been offline longer than the TTL.
func (b *offlineBuffers) sweep(now time.Time) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var dropped []string
	for id, buf := range b.buffers {
		if b.ttl > 0 && now.Sub(buf.since) > b.ttl {
			delete(b.buffers, id)
			dropped = append(dropped, id)
		}
	}
	slices.Sort(dropped)
	return dropped
}

func (b *offlineBuffers) stats() (clients, events int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, buf := range b.buffers {
		events += len(buf.events)
	}
	return len(b.buffers), events
}
