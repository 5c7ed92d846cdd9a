package resilience

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/report-sync/models"
)

// Snapshots is a bounded store of operation snapshots. The oldest snapshot
// is evicted when the store is full; snapshots older than the TTL are never
// returned.
type Snapshots struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	order []string
	byID  map[string]models.OperationSnapshot
}

func NewSnapshots(capacity int, ttl time.Duration, now func() time.Time) *Snapshots {
	if capacity < 1 {
		capacity = 1
	}
	if now == nil {
		now = time.Now
	}
	return &Snapshots{
		capacity: capacity,
		ttl:      ttl,
		now:      now,
		byID:     make(map[string]models.OperationSnapshot),
	}
}

// Put stores snap under its operation id and returns the id of an evicted
// snapshot, if any.
func (s *Snapshots) Put(snap models.OperationSnapshot) (evicted string) {
	snap.AffectedRecords = slices.Clone(snap.AffectedRecords)
	snap.OriginalData = maps.Clone(snap.OriginalData)
	snap.VersionInfo = maps.Clone(snap.VersionInfo)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[snap.OperationID]; ok {
		s.byID[snap.OperationID] = snap
		return ""
	}
	if len(s.order) >= s.capacity {
		evicted = s.order[0]
		s.order = s.order[1:]
		delete(s.byID, evicted)
	}
	s.order = append(s.order, snap.OperationID)
	s.byID[snap.OperationID] = snap
	return evicted
}

func (s *Snapshots) Get(id string) (models.OperationSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.byID[id]
	if !ok || s.expired(snap) {
		return models.OperationSnapshot{}, false
	}
	return snap, true
}

func (s *Snapshots) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
}

// Sweep removes expired snapshots and returns how many were removed.
func (s *Snapshots) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	removed := 0
	for _, id := range s.order {
		if s.expired(s.byID[id]) {
			delete(s.byID, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

func (s *Snapshots) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Snapshots) expired(snap models.OperationSnapshot) bool {
	return s.ttl > 0 && s.now().Sub(snap.Timestamp) > s.ttl
}
