// Package apperr defines the error kinds callers branch on with errors.Is.
package apperr

import "errors"

var (
	// ErrStoreUnavailable marks open or transaction failures (file locked
	// beyond the wait budget, disk I/O). Fatal for the invoking call and
	// never retried internally.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrIndexDegraded marks a store whose text-index feature failed to
	// initialize. Non-fatal: text search reports unavailable instead.
	ErrIndexDegraded = errors.New("text index degraded")

	// ErrNotFound marks a lookup that matched nothing.
	ErrNotFound = errors.New("not found")
)

// Unavailable tags err as a store-availability failure while keeping the
// backend error chain intact.
func Unavailable(err error) error {
	return errors.Join(ErrStoreUnavailable, err)
}
