package store

import "errors"

// Error kinds reported by engine operations. Callers classify failures with
// errors.Is and surface the wrapped message directly.
var (
	// ErrNotFound means an entity id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness or single-assignment rule was violated:
	// duplicate plate number, truck already attached, collector already on
	// another truck, or a concurrent update won the race.
	ErrConflict = errors.New("conflict")

	// ErrForbidden means a status update was attempted by a collector not
	// currently assigned to the bin.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput means a required field is missing or a value is outside
	// its recognized set.
	ErrInvalidInput = errors.New("invalid input")
)
