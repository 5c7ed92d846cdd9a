package models

import "time"

// OperationSnapshot captures the state of the records touched by a risky
// mutation so that it can be rolled back.
type OperationSnapshot struct {
	OperationID     string            `json:"operation_id"`
	Timestamp       time.Time         `json:"timestamp"`
	OperationType   string            `json:"operation_type"`
	AffectedRecords []string          `json:"affected_records"`
	OriginalData    map[string]Record `json:"original_data"`
	UserID          string            `json:"user_id"`
	VersionInfo     map[string]int64  `json:"version_info"`
}
