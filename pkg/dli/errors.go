package dli

import (
	"errors"
	"fmt"
)

// Errors returned by outlet resolution and the outlet operations. They are
// usually wrapped with extra context, so callers should match them with
// errors.Is().
var (
	// ErrNoOutlets means the outlet registry is still empty after a reload.
	ErrNoOutlets = errors.New("no outlets found")

	// ErrOutletNotFound means a name matched no registered outlet.
	ErrOutletNotFound = errors.New("no matching outlet")

	// ErrAmbiguousOutlet means a fuzzy name matched more than one outlet.
	ErrAmbiguousOutlet = errors.New("multiple outlet matches")

	// ErrFuzzyTooShort means the query is too short for fuzzy matching.
	ErrFuzzyTooShort = errors.New("at least two characters are required for fuzzy matching")

	// ErrNoOutletsSpecified means an operation was given zero outlets.
	ErrNoOutletsSpecified = errors.New("no outlets specified")
)

// StatusError is returned when the switch replies with a non-2xx status code.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d from switch", e.StatusCode)
}
