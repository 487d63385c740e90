// Package fault defines the error taxonomy shared across GhostHub.
package fault

import "errors"

var (
	// ErrInvalidInput marks a malformed or empty required field. Caller
	// error; never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCapabilityUnavailable marks an unusable generation capability.
	// Callers degrade features instead of crashing.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrCapabilityTimeout marks a generation call that stalled past its
	// deadline. No partial record is persisted from a timed-out call.
	ErrCapabilityTimeout = errors.New("capability timeout")

	// ErrCapability marks a failure returned by the generation capability
	// mid-call. Isolated per item in batch operations.
	ErrCapability = errors.New("capability error")

	// ErrStorageUnavailable marks a persistence-layer failure. Propagated
	// to the caller; a failed write is not-committed.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound marks a lookup for a record id that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks an illegal draft status change. The
	// stored record is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")
)
