package locks

import "errors"

var (
	// ErrLockHeld is wrapped into the LockAcquisitionFailed error returned
	// when another user holds a live lock on the record.
	ErrLockHeld = errors.New("record is locked by another user")
	// ErrEmptyIdentifier is returned for an empty record or user id.
	ErrEmptyIdentifier = errors.New("record id and user id are required")
)
