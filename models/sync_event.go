package models

import (
	"maps"
	"time"
)

// EventType identifies the kind of change a [SyncEvent] describes.
type EventType string

const (
	EventRecordUpdated  EventType = "record_updated"
	EventRecordAdded    EventType = "record_added"
	EventRecordDeleted  EventType = "record_deleted"
	EventRecordLocked   EventType = "record_locked"
	EventRecordUnlocked EventType = "record_unlocked"
	EventBulkUpdate     EventType = "bulk_update"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventRecordUpdated, EventRecordAdded, EventRecordDeleted,
		EventRecordLocked, EventRecordUnlocked, EventBulkUpdate:
		return true
	}
	return false
}

// SyncEvent is an immutable fact about an accepted mutation of one record.
//
// Events are created by the sync service, held by the event broker and the
// per-connection offline buffers, and are never modified after creation.
// Use [NewSyncEvent] so that Data is detached from the caller's map.
type SyncEvent struct {
	EventType EventType      `json:"event_type"`
	RecordID  string         `json:"record_id"`
	Data      map[string]any `json:"data"`
	Version   int64          `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	UserID    string         `json:"user_id"`
}

// NewSyncEvent builds a SyncEvent with a private copy of data.
func NewSyncEvent(eventType EventType, recordID string, data map[string]any, version int64, userID string, ts time.Time) SyncEvent {
	payload := make(map[string]any, len(data))
	maps.Copy(payload, data)

	return SyncEvent{
		EventType: eventType,
		RecordID:  recordID,
		Data:      payload,
		Version:   version,
		Timestamp: ts,
		UserID:    userID,
	}
}

// DedupKey returns the "record_id:event_type" key used to collapse
// redundant events for the same record.
func (e SyncEvent) DedupKey() string {
	return e.RecordID + ":" + string(e.EventType)
}

// Supersedes reports whether e should be kept instead of other when both
// share a dedup key: the higher version wins, a later timestamp breaks ties.
func (e SyncEvent) Supersedes(other SyncEvent) bool {
	if e.Version != other.Version {
		return e.Version > other.Version
	}
	return e.Timestamp.After(other.Timestamp)
}
