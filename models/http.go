package models

import "time"

// UpdateRecordRequest is the body of POST /api/records/{recordID}.
type UpdateRecordRequest struct {
	Data map[string]any `json:"data"`
	// Version is the version the caller expects to be current.
	Version int64 `json:"version"`
}

// BulkUpdateRequest is the body of POST /api/records/bulk.
type BulkUpdateRequest struct {
	Updates []RecordUpdate `json:"updates"`
}

// LockRequest is the body of POST /api/records/{recordID}/lock. A zero
// TTLSeconds selects the configured default.
type LockRequest struct {
	Version    int64 `json:"version"`
	TTLSeconds int   `json:"ttl_seconds,omitempty"`
}

// UnlockResponse tells whether a lock was released.
type UnlockResponse struct {
	RecordID string `json:"record_id"`
	Released bool   `json:"released"`
}

// ClientSyncRequest is the body of POST /api/sync/clients/{connectionID}.
type ClientSyncRequest struct {
	LastSyncTimestamp *time.Time `json:"last_sync_timestamp,omitempty"`
}

// ClientSyncResponse reports how many backlog events were delivered.
type ClientSyncResponse struct {
	ConnectionID string `json:"connection_id"`
	Delivered    int    `json:"delivered"`
}

// PairingResponse lists the records that share one pairing key.
type PairingResponse struct {
	PairingKey string   `json:"pairing_key"`
	Records    []Record `json:"records"`
	Length     int      `json:"length"`
}

// ExternalChangesResponse lists the events broadcast by a detection run.
type ExternalChangesResponse struct {
	Changes []SyncEvent `json:"changes"`
	Length  int         `json:"length"`
}

// ErrorResponse is the JSON error body of the HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// VersionResponse is the body of GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}
