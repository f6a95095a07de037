/*
errors.go - Shared sentinel errors

PURPOSE:
  Errors that any store or domain package may return. Domain packages wrap
  these with context (which employee, which shift) and keep them reachable
  through errors.Is.

ERROR CATEGORIES:
  1. Input errors - Malformed months, periods, payloads
  2. Store errors - Missing rows, duplicate idempotency keys, outages

USAGE:
    if errors.Is(err, generic.ErrNotFound) {
        // 404
    }

SEE ALSO:
  - attendance/errors.go: Domain errors built on these
  - api/handlers.go: Maps errors to HTTP statuses
*/
package generic

import (
	"errors"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdempotencyKey is returned when a record with the same
	// idempotency key already exists. Expected for device retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidMonth is returned for month keys that are not YYYY-MM.
	ErrInvalidMonth = errors.New("invalid month: expected YYYY-MM")

	// ErrValidation is returned when a payload fails structural validation.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable is returned when a backing store cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
