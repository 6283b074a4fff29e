package domain

import (
	"fmt"
	"math"
	"time"
)

// StationID identifies a buoy station in the regional hydrological network.
// The catalog is closed: registrations must use one of the known stations.
type StationID string

const (
	StationGorgona     StationID = "boa-gorgona"
	StationGiannutri   StationID = "boa-giannutri"
	StationGombo       StationID = "gombo"
	StationCastiglione StationID = "castiglione-della-pescaia"
)

// KnownStations lists the full station catalog.
var KnownStations = []StationID{
	StationGorgona,
	StationGiannutri,
	StationGombo,
	StationCastiglione,
}

// Valid reports whether the station is part of the catalog.
func (s StationID) Valid() bool {
	for _, known := range KnownStations {
		if s == known {
			return true
		}
	}
	return false
}

// GraphType selects one of the three buoy graphs a station publishes.
type GraphType string

const (
	GraphSignificantWaveHeight GraphType = "significant_wave_height"
	GraphPeakPeriod            GraphType = "peak_period"
	GraphPeakDirection         GraphType = "peak_direction"
)

// BuoyGraphs lists the graphs fetched for every station snapshot.
var BuoyGraphs = []GraphType{
	GraphSignificantWaveHeight,
	GraphPeakPeriod,
	GraphPeakDirection,
}

// RequestCode returns the provider's query parameter for the graph.
func (g GraphType) RequestCode() string {
	switch g {
	case GraphSignificantWaveHeight:
		return "hm0"
	case GraphPeakPeriod:
		return "tp"
	case GraphPeakDirection:
		return "dm"
	default:
		return ""
	}
}

// FeatureName names one of the buoy signals for lag lookups.
type FeatureName string

const (
	FeatureWaveHeight FeatureName = "wave_height"
	FeaturePeriod     FeatureName = "period"
	FeatureDirection  FeatureName = "direction"
)

// BuoySnapshot wraps the three buoy series for one station at one capture
// instant. AsOf is the capture instant, not the last observation time: the
// upstream feed typically lags the wall clock by tens of minutes.
type BuoySnapshot struct {
	Station    StationID
	AsOf       time.Time
	WaveHeight TimeSeries
	Period     TimeSeries
	Direction  TimeSeries
}

// Series returns the named signal.
func (b BuoySnapshot) Series(name FeatureName) (TimeSeries, error) {
	switch name {
	case FeatureWaveHeight:
		return b.WaveHeight, nil
	case FeaturePeriod:
		return b.Period, nil
	case FeatureDirection:
		return b.Direction, nil
	default:
		return TimeSeries{}, fmt.Errorf("unknown buoy feature %q", name)
	}
}

// FeatureWithLag returns the named signal's reading hoursLag hours before
// its most recent sample.
func (b BuoySnapshot) FeatureWithLag(name FeatureName, hoursLag float64) (float64, error) {
	series, err := b.Series(name)
	if err != nil {
		return 0, err
	}
	return series.ValueWithLag(hoursLag)
}

// DataDelay returns how stale the upstream feed was at capture time: the
// elapsed time between AsOf and the instant implied by the last wave-height
// point's hour of day. The fractional hour decomposes into hour and minute
// with seconds zeroed, and the result truncates to whole seconds.
func (b BuoySnapshot) DataDelay() (time.Duration, error) {
	latest, err := b.WaveHeight.LatestX()
	if err != nil {
		return 0, err
	}
	hour := int(latest)
	minute := int(math.Round((latest - float64(hour)) * 60))
	lastPoint := time.Date(
		b.AsOf.Year(), b.AsOf.Month(), b.AsOf.Day(),
		hour, minute, 0, 0, b.AsOf.Location(),
	)
	return b.AsOf.Sub(lastPoint).Truncate(time.Second), nil
}

// BuoySummary is a flat projection of the latest readings for display on
// the assessment screen. It is never used for training.
type BuoySummary struct {
	Station        StationID `json:"station"`
	AsOf           time.Time `json:"as_of"`
	WaveHeight     float64   `json:"wave_height"`
	WaveHeightUnit string    `json:"wave_height_unit"`
	Period         float64   `json:"period"`
	PeriodUnit     string    `json:"period_unit"`
	Direction      float64   `json:"direction"`
	DirectionUnit  string    `json:"direction_unit"`
	DelayHours     float64   `json:"delay_hours"`
}

// SummaryView flattens the snapshot's latest readings. Signals without data
// report zero values; the delay is rounded to two decimals.
func (b BuoySnapshot) SummaryView() BuoySummary {
	summary := BuoySummary{
		Station:        b.Station,
		AsOf:           b.AsOf,
		WaveHeightUnit: b.WaveHeight.Unit,
		PeriodUnit:     b.Period.Unit,
		DirectionUnit:  b.Direction.Unit,
	}
	if v, err := b.WaveHeight.ValueWithLag(0); err == nil {
		summary.WaveHeight = v
	}
	if v, err := b.Period.ValueWithLag(0); err == nil {
		summary.Period = v
	}
	if v, err := b.Direction.ValueWithLag(0); err == nil {
		summary.Direction = v
	}
	if delay, err := b.DataDelay(); err == nil {
		summary.DelayHours = math.Round(delay.Hours()*100) / 100
	}
	return summary
}
