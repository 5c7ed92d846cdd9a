package models

import "time"

// Record is a pseudonymized report record as held by the record store.
//
// PairingKey groups the records that form one review pair. Checksum is a
// content hash of Data maintained by the store and used to detect changes
// made outside the sync path.
type Record struct {
	ID         string         `json:"record_id"`
	PairingKey string         `json:"pairing_key,omitempty"`
	Data       map[string]any `json:"data"`
	Version    int64          `json:"version"`
	Checksum   string         `json:"checksum,omitempty"`
	UpdatedBy  string         `json:"updated_by,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// RecordUpdate is a single requested mutation. Version is the record
// version the requesting user expects to be current.
type RecordUpdate struct {
	RecordID string         `json:"record_id"`
	Data     map[string]any `json:"data"`
	Version  int64          `json:"version"`
}

// UpdateResult describes an accepted record update.
type UpdateResult struct {
	Event       SyncEvent `json:"event"`
	OperationID string    `json:"operation_id"`
}

// SkippedUpdate is an update from a bulk request that was not applied.
type SkippedUpdate struct {
	RecordID     string       `json:"record_id"`
	Reason       string       `json:"reason"`
	ConflictType ConflictType `json:"conflict_type,omitempty"`
}

// BulkResult summarizes a bulk update. Processed always equals the number
// of submitted updates, and Processed == Accepted + len(Skipped).
type BulkResult struct {
	Processed int             `json:"processed"`
	Accepted  int             `json:"accepted"`
	Conflicts int             `json:"conflicts"`
	Failed    int             `json:"failed"`
	Skipped   []SkippedUpdate `json:"skipped,omitempty"`
	Events    []SyncEvent     `json:"events,omitempty"`
	Duration  time.Duration   `json:"duration"`
}
