package models

import "time"

// LockState is the lifecycle state of a [RecordLock].
type LockState string

const (
	LockAcquired LockState = "acquired"
	LockReleased LockState = "released"
	LockExpired  LockState = "expired"
)

// RecordLock is an optimistic lock on a single record.
//
// Version is the record version the holder expects to be current; writers
// whose expected version differs are rejected while the lock is alive.
type RecordLock struct {
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	Version    int64     `json:"version"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	State      LockState `json:"state"`
}

// Expired reports whether the lock is no longer valid at now.
func (l RecordLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
