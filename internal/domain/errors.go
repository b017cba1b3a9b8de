package domain

import "errors"

var (
	// ErrInvalidObservation marks a malformed score, distribution or key. The
	// rollup is left untouched.
	ErrInvalidObservation = errors.New("invalid observation")
	// ErrClassificationUnavailable is returned when the external classifier
	// fails. No observation is created.
	ErrClassificationUnavailable = errors.New("classification unavailable")
	// ErrConcurrentUpdateConflict is returned when the stored rollup changed
	// between read and write. The caller must retry the fold.
	ErrConcurrentUpdateConflict = errors.New("concurrent update conflict")
	// ErrStorageUnavailable wraps any persistence failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrRollupNotFound     = errors.New("rollup not found")

	// ErrInvalidQuery marks a read request with a bad user, feature or window.
	ErrInvalidQuery = errors.New("invalid query")
)
