package domain

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// TimeSeries is a sparse measurement series over one day.
// X holds fractional hours of day (14.5 = 14:30) in ascending order,
// Y the measured values, Unit the physical unit reported by the provider.
//
// Serializing and deserializing a TimeSeries reproduces identical arrays:
// values stay float64 end to end and JSON encoding of float64 is exact.
type TimeSeries struct {
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
	Unit string    `json:"unit"`
}

// Validate checks the structural invariants: matched array lengths and
// monotonically non-decreasing x values.
func (s TimeSeries) Validate() error {
	if len(s.X) != len(s.Y) {
		return fmt.Errorf("series arrays differ in length: %d x vs %d y", len(s.X), len(s.Y))
	}
	for i := 1; i < len(s.X); i++ {
		if s.X[i] < s.X[i-1] {
			return fmt.Errorf("series x values decrease at index %d: %g < %g", i, s.X[i], s.X[i-1])
		}
	}
	return nil
}

// Empty reports whether the series has no observations.
func (s TimeSeries) Empty() bool { return len(s.X) == 0 }

// LatestX returns the hour of the most recent observation.
func (s TimeSeries) LatestX() (float64, error) {
	if s.Empty() {
		return 0, ErrNoObservation
	}
	return s.X[len(s.X)-1], nil
}

// ValueAtOrBefore returns the y of the last entry whose x <= hour.
// Querying before the first observation fails with ErrNoObservation.
func (s TimeSeries) ValueAtOrBefore(hour float64) (float64, error) {
	for i := len(s.X) - 1; i >= 0; i-- {
		if s.X[i] <= hour {
			return s.Y[i], nil
		}
	}
	return 0, fmt.Errorf("%w: hour %.2f precedes series start", ErrNoObservation, hour)
}

// ValueWithLag returns the reading hoursLag hours before the most recent
// sample. ValueWithLag(0) is the series' final value. A lag reaching past
// the series start fails with ErrNoObservation.
func (s TimeSeries) ValueWithLag(hoursLag float64) (float64, error) {
	latest, err := s.LatestX()
	if err != nil {
		return 0, err
	}
	return s.ValueAtOrBefore(latest - hoursLag)
}

// StdDevOverWindow returns the standard deviation of all y values whose x
// falls within [latestX - hours, latestX]. Windows with fewer than two
// points yield 0 rather than NaN so sparse series stay usable as features.
func (s TimeSeries) StdDevOverWindow(hours float64) float64 {
	if s.Empty() {
		return 0
	}
	latest := s.X[len(s.X)-1]
	lo := latest - hours
	var window []float64
	for i, x := range s.X {
		if x >= lo && x <= latest {
			window = append(window, s.Y[i])
		}
	}
	if len(window) < 2 {
		return 0
	}
	return stat.StdDev(window, nil)
}
