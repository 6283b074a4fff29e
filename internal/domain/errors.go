package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoObservation is returned by series lookups that land before the
	// first observation, or by lag reads past the start of the series.
	ErrNoObservation = errors.New("no observation at or before requested hour")

	// ErrNoResultForSpot is returned by adapter result sets when a fetch
	// produced no entry for a requested spot. It signals a data/config
	// mismatch (e.g. an unregistered station) and aborts assembly.
	ErrNoResultForSpot = errors.New("no result for spot")

	// ErrOutsideDaylight is returned by the daylight guard when a snapshot
	// run is attempted between sunset and sunrise.
	ErrOutsideDaylight = errors.New("cannot take snapshots outside daylight hours")

	// ErrModelNotFound is returned when no trained model exists for a spot.
	ErrModelNotFound = errors.New("no trained model for spot")

	// ErrAssessmentExists is returned when a snapshot already has a score.
	ErrAssessmentExists = errors.New("snapshot already assessed")

	// ErrRunInProgress is returned when an assembly run is requested while
	// another one holds the run lock.
	ErrRunInProgress = errors.New("snapshot assembly already in progress")
)

// FetchError wraps a provider failure with the source that produced it.
// Adapter errors are never swallowed; they abort the enclosing assembly run.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError tags err with the originating source name.
func NewFetchError(source string, err error) *FetchError {
	return &FetchError{Source: source, Err: err}
}
