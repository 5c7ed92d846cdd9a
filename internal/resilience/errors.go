package resilience

import "errors"

var (
	ErrSnapshotNotFound = errors.New("snapshot not found or expired")
	ErrNoRollback       = errors.New("operation has no rollback")
	ErrNoCompensation   = errors.New("operation has no compensation")
	ErrNoRetry          = errors.New("operation cannot be retried")
)
