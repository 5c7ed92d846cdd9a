package models

import "time"

// AuditSeverity ranks audit facts.
type AuditSeverity string

const (
	SeverityInfo     AuditSeverity = "info"
	SeverityWarning  AuditSeverity = "warning"
	SeverityError    AuditSeverity = "error"
	SeverityCritical AuditSeverity = "critical"
)

// Audit event kinds emitted by the sync core.
const (
	AuditLockAcquired      = "lock_acquired"
	AuditLockRefreshed     = "lock_refreshed"
	AuditLockRejected      = "lock_rejected"
	AuditLockReleased      = "lock_released"
	AuditLockExpired       = "lock_expired"
	AuditConflictDetected  = "conflict_detected"
	AuditConnectionOpened  = "connection_opened"
	AuditConnectionClosed  = "connection_closed"
	AuditConnectionRefused = "connection_refused"
	AuditRecordUpdated     = "record_updated"
	AuditBulkUpdate        = "bulk_update"
	AuditRecoveryEscalated = "recovery_escalated"
	AuditRollback          = "rollback"
	AuditDegradationChange = "degradation_changed"
	AuditExternalChange    = "external_change"
)

// AuditEvent is a structured fact handed to the audit sink. The sync core
// writes these and never reads them back.
type AuditEvent struct {
	Kind      string         `json:"kind"`
	Severity  AuditSeverity  `json:"severity"`
	Actor     string         `json:"actor"`
	Subject   string         `json:"subject"`
	Details   map[string]any `json:"details,omitempty"`
	Success   bool           `json:"success"`
	Before    map[string]any `json:"before,omitempty"`
	After     map[string]any `json:"after,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
