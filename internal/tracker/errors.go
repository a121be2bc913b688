package tracker

import (
	"errors"
	"fmt"
)

// SyncErrorCode categorizes sync adapter failures.
type SyncErrorCode string

const (
	// ErrCodeParse indicates the fetched ledger bytes could not be
	// decoded in any known dialect.
	ErrCodeParse SyncErrorCode = "PARSE_FAILED"

	// ErrCodeSchema indicates the merged ledger failed schema validation.
	ErrCodeSchema SyncErrorCode = "SCHEMA_INVALID"

	// ErrCodeTransient indicates the remote store stayed unreachable
	// after bounded retries; the adapter degraded to the local cache.
	ErrCodeTransient SyncErrorCode = "TRANSIENT_EXHAUSTED"

	// ErrCodeConflict indicates a concurrent remote write defeated the
	// re-fetch/re-merge retry; the batch went to the pending queue.
	ErrCodeConflict SyncErrorCode = "VERSION_CONFLICT"

	// ErrCodeFatal indicates a non-retryable remote rejection (bad
	// credentials, missing repository).
	ErrCodeFatal SyncErrorCode = "REMOTE_FATAL"
)

// SyncError is a categorized sync failure. It wraps the underlying cause
// and names the remote path involved.
type SyncError struct {
	Code    SyncErrorCode
	Message string
	Path    string
	Err     error
}

func (e *SyncError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SyncError) Unwrap() error { return e.Err }

// IsConflict reports whether err is a version-conflict sync failure.
func IsConflict(err error) bool { return hasCode(err, ErrCodeConflict) }

// IsTransient reports whether err is an exhausted-retries sync failure.
func IsTransient(err error) bool { return hasCode(err, ErrCodeTransient) }

// IsFatal reports whether err is a non-retryable remote rejection.
func IsFatal(err error) bool { return hasCode(err, ErrCodeFatal) }

func hasCode(err error, code SyncErrorCode) bool {
	var se *SyncError
	return errors.As(err, &se) && se.Code == code
}
