package models

import "time"

// ConflictType classifies why an operation was rejected.
type ConflictType string

const (
	ConflictSimultaneousEdit ConflictType = "simultaneous_edit"
	ConflictVersionMismatch  ConflictType = "version_mismatch"
	ConflictLock             ConflictType = "lock_conflict"
	ConflictStaleUpdate      ConflictType = "stale_update"
)

// ConflictNotification tells a user that their operation lost to another
// user's. It is delivered as a "conflict" message and then discarded.
type ConflictNotification struct {
	RecordID        string       `json:"record_id"`
	ConflictType    ConflictType `json:"conflict_type"`
	Message         string       `json:"message"`
	ConflictingUser string       `json:"conflicting_user"`
	Timestamp       time.Time    `json:"timestamp"`
}
