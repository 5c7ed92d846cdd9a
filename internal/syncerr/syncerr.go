// Package syncerr defines the closed error taxonomy of the synchronization
// core.
//
// Every failure that crosses a component boundary is an [*Error] carrying a
// [Kind]. Recovery policy is looked up by kind (see package resilience), and
// callers match kinds with [errors.Is] against the per-kind sentinels:
//
//	if errors.Is(err, syncerr.ErrVersionConflict) { ... }
package syncerr

import (
	"errors"
	"fmt"
)

// Kind is the category of a synchronization failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindVersionConflict is a business-rule rejection; it is never retried.
	KindVersionConflict
	// KindLockAcquisitionFailed means the record is locked by someone else;
	// the caller should back off and retry at a higher level.
	KindLockAcquisitionFailed
	// KindBroadcastFailed is a transient delivery failure.
	KindBroadcastFailed
	// KindConnection is a transient transport failure.
	KindConnection
	// KindDataIntegrity is a structural problem with the payload.
	KindDataIntegrity
	// KindServiceUnavailable is returned while dependencies are unhealthy or
	// the system is shedding load.
	KindServiceUnavailable
)

var kindNames = map[Kind]string{
	KindUnknown:               "unknown",
	KindVersionConflict:       "version_conflict",
	KindLockAcquisitionFailed: "lock_acquisition_failed",
	KindBroadcastFailed:       "broadcast_failed",
	KindConnection:            "connection_error",
	KindDataIntegrity:         "data_integrity_error",
	KindServiceUnavailable:    "service_unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Fallback returns the kind whose recovery policy applies when no policy is
// registered for k. Transient transport-like kinds fall back to
// KindConnection; everything else has no fallback (KindUnknown).
func (k Kind) Fallback() Kind {
	switch k {
	case KindBroadcastFailed:
		return KindConnection
	case KindLockAcquisitionFailed:
		return KindServiceUnavailable
	default:
		return KindUnknown
	}
}

// Retryable reports whether failures of this kind are transient.
func (k Kind) Retryable() bool {
	return k == KindBroadcastFailed || k == KindConnection
}

// Error is a classified failure.
type Error struct {
	Kind     Kind
	Op       string
	RecordID string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.RecordID != "" {
		msg += " (record " + e.RecordID + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package sentinels work with
// errors.Is regardless of Op, RecordID and the wrapped cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is matching.
var (
	ErrVersionConflict       = &Error{Kind: KindVersionConflict}
	ErrLockAcquisitionFailed = &Error{Kind: KindLockAcquisitionFailed}
	ErrBroadcastFailed       = &Error{Kind: KindBroadcastFailed}
	ErrConnection            = &Error{Kind: KindConnection}
	ErrDataIntegrity         = &Error{Kind: KindDataIntegrity}
	ErrServiceUnavailable    = &Error{Kind: KindServiceUnavailable}
)

// New builds a classified error.
func New(kind Kind, op, recordID string, err error) *Error {
	return &Error{Kind: kind, Op: op, RecordID: recordID, Err: err}
}

// KindOf extracts the kind of err, or KindUnknown if err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
