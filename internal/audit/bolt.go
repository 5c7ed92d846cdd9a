package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/MKhiriev/report-sync/models"
)

var auditBucket = []byte("audit_events")

// ErrSinkClosed is returned by BoltSink after Close.
var ErrSinkClosed = errors.New("audit sink closed")

// BoltSink appends audit events to a bbolt file. Keys are ULIDs so a cursor
// walks events in time order.
type BoltSink struct {
	db *bolt.DB
}

func NewBoltSink(path string) (*BoltSink, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open audit db %q: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(auditBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create audit bucket: %w", err)
	}

	return &BoltSink{db: db}, nil
}

func (s *BoltSink) LogEvent(_ context.Context, event models.AuditEvent) error {
	if s.db == nil {
		return ErrSinkClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	id := ulid.MustNew(ulid.Timestamp(ts), ulid.DefaultEntropy())

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(auditBucket).Put(id[:], payload)
	})
}

// Events returns up to limit stored events, oldest first. limit <= 0 means all.
func (s *BoltSink) Events(limit int) ([]models.AuditEvent, error) {
	if s.db == nil {
		return nil, ErrSinkClosed
	}

	var out []models.AuditEvent
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(auditBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e models.AuditEvent
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode audit event %x: %w", k, err)
			}
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (s *BoltSink) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
