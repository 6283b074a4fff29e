package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuoySnapshot(asOf time.Time) BuoySnapshot {
	return BuoySnapshot{
		Station: StationGorgona,
		AsOf:    asOf,
		WaveHeight: TimeSeries{
			X: []float64{0, 1, 2}, Y: []float64{10, 11, 12}, Unit: "m",
		},
		Period: TimeSeries{
			X: []float64{0, 1, 2}, Y: []float64{7, 8, 9}, Unit: "s",
		},
		Direction: TimeSeries{
			X: []float64{0, 1, 2}, Y: []float64{270, 280, 290}, Unit: "deg",
		},
	}
}

func TestBuoySnapshot_FeatureWithLag(t *testing.T) {
	asOf := time.Date(2024, 3, 10, 2, 20, 0, 0, time.UTC)
	snapshot := testBuoySnapshot(asOf)

	tests := []struct {
		name     string
		feature  FeatureName
		lag      float64
		expected float64
	}{
		{"wave height lag 0", FeatureWaveHeight, 0, 12},
		{"wave height lag 1", FeatureWaveHeight, 1, 11},
		{"wave height lag 2", FeatureWaveHeight, 2, 10},
		{"period lag 1", FeaturePeriod, 1, 8},
		{"direction lag 2", FeatureDirection, 2, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := snapshot.FeatureWithLag(tt.feature, tt.lag)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("unknown feature", func(t *testing.T) {
		_, err := snapshot.FeatureWithLag("swell", 0)
		require.Error(t, err)
	})

	t.Run("lag past series start", func(t *testing.T) {
		_, err := snapshot.FeatureWithLag(FeatureWaveHeight, 3)
		require.ErrorIs(t, err, ErrNoObservation)
	})
}

func TestBuoySnapshot_DataDelay(t *testing.T) {
	t.Run("forty minutes stale", func(t *testing.T) {
		// Last wave height point at 14.5 (14:30), captured at 15:10.
		snapshot := BuoySnapshot{
			Station:    StationGombo,
			AsOf:       time.Date(2024, 3, 10, 15, 10, 0, 0, time.UTC),
			WaveHeight: TimeSeries{X: []float64{12.0, 14.5}, Y: []float64{1.0, 1.2}, Unit: "m"},
		}
		delay, err := snapshot.DataDelay()
		require.NoError(t, err)
		assert.Equal(t, 40*time.Minute, delay)
	})

	t.Run("truncates to whole seconds", func(t *testing.T) {
		snapshot := BuoySnapshot{
			AsOf:       time.Date(2024, 3, 10, 15, 0, 30, 900e6, time.UTC),
			WaveHeight: TimeSeries{X: []float64{15.0}, Y: []float64{1.0}},
		}
		delay, err := snapshot.DataDelay()
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, delay)
	})

	t.Run("empty series", func(t *testing.T) {
		snapshot := BuoySnapshot{AsOf: time.Now()}
		_, err := snapshot.DataDelay()
		require.ErrorIs(t, err, ErrNoObservation)
	})
}

func TestBuoySnapshot_SummaryView(t *testing.T) {
	asOf := time.Date(2024, 3, 10, 2, 30, 0, 0, time.UTC)
	summary := testBuoySnapshot(asOf).SummaryView()

	assert.Equal(t, StationGorgona, summary.Station)
	assert.Equal(t, asOf, summary.AsOf)
	assert.Equal(t, 12.0, summary.WaveHeight)
	assert.Equal(t, "m", summary.WaveHeightUnit)
	assert.Equal(t, 9.0, summary.Period)
	assert.Equal(t, "s", summary.PeriodUnit)
	assert.Equal(t, 290.0, summary.Direction)
	assert.Equal(t, "deg", summary.DirectionUnit)
	// Last point 02:00, captured 02:30.
	assert.Equal(t, 0.5, summary.DelayHours)
}

func TestStationID_Valid(t *testing.T) {
	for _, station := range KnownStations {
		assert.True(t, station.Valid(), station)
	}
	assert.False(t, StationID("ligurian-drifter").Valid())
	assert.False(t, StationID("").Valid())
}

func TestGraphType_RequestCode(t *testing.T) {
	assert.Equal(t, "hm0", GraphSignificantWaveHeight.RequestCode())
	assert.Equal(t, "tp", GraphPeakPeriod.RequestCode())
	assert.Equal(t, "dm", GraphPeakDirection.RequestCode())
	assert.Equal(t, "", GraphType("spectral").RequestCode())
}
