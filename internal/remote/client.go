// Package remote talks to the Git-hosted blob store the ledger is mirrored
// to. The core only relies on a narrow contract: get-by-path returning
// content plus a version token (with conditional reads), and put-by-path
// with an optimistic-concurrency precondition that fails on a stale token.
package remote

import (
	"context"
	"errors"
	"fmt"
)

// Content is a fetched blob. SHA is the store's version token for writes;
// ETag is the cheaper token for conditional reads.
type Content struct {
	Bytes []byte
	SHA   string
	ETag  string
}

// Sentinel results of the storage contract.
var (
	// ErrNotModified: conditional read matched the supplied ETag; the
	// caller's cached copy is current.
	ErrNotModified = errors.New("remote: not modified")

	// ErrNotFound: no blob at the path. On first-ever run this is the
	// legitimate empty-ledger case and must stay distinguishable from
	// transport failures.
	ErrNotFound = errors.New("remote: not found")

	// ErrConflict: the write's expected version token was stale; someone
	// else wrote concurrently. The store must never silently overwrite.
	ErrConflict = errors.New("remote: version conflict")
)

// Client is the storage contract the sync adapter depends on.
type Client interface {
	// Get fetches the blob at path. A non-empty etag makes the read
	// conditional: ErrNotModified signals the cached copy is current.
	Get(ctx context.Context, path, etag string) (*Content, error)

	// Put writes content at path. A non-empty expectedSHA is the
	// optimistic-concurrency precondition; ErrConflict reports staleness.
	// Returns the new version token.
	Put(ctx context.Context, path string, content []byte, message, expectedSHA string) (string, error)
}

// APIError is a transport-level failure with the provider's status code
// attached, so callers can separate transient from fatal failures.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote: %s: unexpected status %d", e.Op, e.Status)
}

// Transient reports whether the failure is worth retrying: rate limiting
// and server-side errors. Auth failures and bad requests are not.
func (e *APIError) Transient() bool {
	return e.Status == 429 || e.Status >= 500
}

// IsTransient reports whether err is a retryable transport failure.
func IsTransient(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Transient()
}

// IsFatal reports whether err is a non-retryable provider rejection
// (bad credentials, bad request, missing repository).
func IsFatal(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && !ae.Transient()
}
