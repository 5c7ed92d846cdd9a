package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/report-sync/models"
)

// MemoryRecordStore is a [RecordStore] kept in process memory. It is used
// when no database is configured and in tests.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]models.Record
	now     func() time.Time
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string]models.Record), now: time.Now}
}

// WithClock replaces time.Now for timestamps the store assigns.
func (s *MemoryRecordStore) WithClock(now func() time.Time) *MemoryRecordStore {
	s.now = now
	return s
}

func (s *MemoryRecordStore) Get(_ context.Context, id string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return models.Record{}, ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryRecordStore) Upsert(_ context.Context, rec models.Record) (models.Record, error) {
	rec, err := s.prepare(rec)
	if err != nil {
		return models.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.records[rec.ID]; ok {
		rec.CreatedAt = prev.CreatedAt
	}
	s.records[rec.ID] = rec
	return cloneRecord(rec), nil
}

func (s *MemoryRecordStore) SaveVersioned(_ context.Context, rec models.Record, expected int64) (models.Record, error) {
	rec.Version = expected + 1
	rec, err := s.prepare(rec)
	if err != nil {
		return models.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.records[rec.ID]; ok {
		if prev.Version != expected {
			return models.Record{}, fmt.Errorf("%w: stored version %d, expected %d", ErrVersionConflict, prev.Version, expected)
		}
		rec.CreatedAt = prev.CreatedAt
		if rec.PairingKey == "" {
			rec.PairingKey = prev.PairingKey
		}
	}
	s.records[rec.ID] = rec
	return cloneRecord(rec), nil
}

func (s *MemoryRecordStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryRecordStore) ListByPairingKey(_ context.Context, pairingKey string) ([]models.Record, error) {
	return s.filter(func(r models.Record) bool { return r.PairingKey == pairingKey }, func(a, b models.Record) int {
		return strings.Compare(a.ID, b.ID)
	}), nil
}

func (s *MemoryRecordStore) ListModifiedSince(_ context.Context, since time.Time) ([]models.Record, error) {
	return s.filter(func(r models.Record) bool { return r.UpdatedAt.After(since) }, func(a, b models.Record) int {
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	}), nil
}

func (s *MemoryRecordStore) filter(keep func(models.Record) bool, cmp func(a, b models.Record) int) []models.Record {
	s.mu.RLock()
	out := make([]models.Record, 0)
	for _, r := range s.records {
		if keep(r) {
			out = append(out, cloneRecord(r))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, cmp)
	return out
}

func (s *MemoryRecordStore) prepare(rec models.Record) (models.Record, error) {
	if rec.ID == "" {
		return models.Record{}, ErrInvalidRecord
	}
	rec = cloneRecord(rec)
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}
	sum, err := Checksum(rec.Data)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrEncodingData, err)
	}
	rec.Checksum = sum

	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now().UTC()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	return rec, nil
}

// cloneRecord copies the top level of Data so callers cannot mutate stored
// state through the map.
func cloneRecord(r models.Record) models.Record {
	r.Data = maps.Clone(r.Data)
	return r
}
