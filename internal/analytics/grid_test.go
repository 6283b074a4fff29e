package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidelab/surfcast/internal/domain"
)

func gridRowAt(t *testing.T, grid []GridRow, hour float64) GridRow {
	t.Helper()
	for _, row := range grid {
		if row.Hour == hour {
			return row
		}
	}
	t.Fatalf("no grid row at hour %v", hour)
	return GridRow{}
}

func TestJoinGrid_SignalAlignment(t *testing.T) {
	row := FeatureRow{
		Buoy: domain.BuoySnapshot{
			WaveHeight: domain.TimeSeries{X: []float64{9.0, 9.5, 10.0}, Y: []float64{1.0, 1.1, 1.2}, Unit: "m"},
			Period:     domain.TimeSeries{X: []float64{9.0, 9.5, 10.0}, Y: []float64{7.0, 7.2, 7.4}, Unit: "s"},
			Direction:  domain.TimeSeries{X: []float64{9.0, 9.5, 10.0}, Y: []float64{270, 272, 274}, Unit: "deg"},
		},
	}

	grid := JoinGrid([]FeatureRow{row}, nil, 2)
	require.Len(t, grid, 49)

	at9 := gridRowAt(t, grid, 9.0)
	require.NotNil(t, at9.WaveHeight)
	assert.InDelta(t, 1.0, *at9.WaveHeight, 1e-12)
	require.NotNil(t, at9.Period)
	assert.InDelta(t, 7.0, *at9.Period, 1e-12)
	require.NotNil(t, at9.Direction)
	assert.InDelta(t, 270.0, *at9.Direction, 1e-12)

	// Slots with no observation nearby stay null.
	at0 := gridRowAt(t, grid, 0.0)
	assert.Nil(t, at0.WaveHeight)
	assert.Nil(t, at0.PredictedScore)
}

func TestJoinGrid_ToleranceJoin(t *testing.T) {
	row := FeatureRow{
		Buoy: domain.BuoySnapshot{
			// 9.2 joins the 9.0 slot (0.2 <= tolerance); 9.9 joins 10.0.
			WaveHeight: domain.TimeSeries{X: []float64{9.2, 9.9}, Y: []float64{1.0, 2.0}, Unit: "m"},
		},
	}

	grid := JoinGrid([]FeatureRow{row}, nil, 0)

	at9 := gridRowAt(t, grid, 9.0)
	require.NotNil(t, at9.WaveHeight)
	assert.InDelta(t, 1.0, *at9.WaveHeight, 1e-12)

	at10 := gridRowAt(t, grid, 10.0)
	require.NotNil(t, at10.WaveHeight)
	assert.InDelta(t, 2.0, *at10.WaveHeight, 1e-12)

	at85 := gridRowAt(t, grid, 8.5)
	assert.Nil(t, at85.WaveHeight, "0.7 away is outside the join tolerance")
}

func TestJoinGrid_PredictionLeadTime(t *testing.T) {
	row := FeatureRow{
		Buoy: domain.BuoySnapshot{
			WaveHeight: domain.TimeSeries{X: []float64{9.5, 10.0}, Y: []float64{1.0, 1.2}, Unit: "m"},
		},
	}
	predictions := []Prediction{{Row: row, Score: 4.5}}

	grid := JoinGrid([]FeatureRow{row}, predictions, 2)

	// Anchored at 10.0, shifted two half-hour slots to 11.0.
	at11 := gridRowAt(t, grid, 11.0)
	require.NotNil(t, at11.PredictedScore)
	assert.InDelta(t, 4.5, *at11.PredictedScore, 1e-12)

	at10 := gridRowAt(t, grid, 10.0)
	assert.Nil(t, at10.PredictedScore)
}

func TestJoinGrid_PastGridEndDropped(t *testing.T) {
	row := FeatureRow{
		Buoy: domain.BuoySnapshot{
			WaveHeight: domain.TimeSeries{X: []float64{23.5, 24.0}, Y: []float64{1.0, 1.2}, Unit: "m"},
		},
	}
	predictions := []Prediction{{Row: row, Score: 3.0}}

	grid := JoinGrid([]FeatureRow{row}, predictions, 2)
	for _, slot := range grid {
		assert.Nil(t, slot.PredictedScore, "shifted slot falls past the grid end")
	}
}

func TestJoinGrid_EmptyInputs(t *testing.T) {
	grid := JoinGrid(nil, nil, 2)
	require.Len(t, grid, 49)
	for _, slot := range grid {
		assert.Nil(t, slot.WaveHeight)
		assert.Nil(t, slot.Period)
		assert.Nil(t, slot.Direction)
		assert.Nil(t, slot.PredictedScore)
	}
	assert.Equal(t, 0.0, grid[0].Hour)
	assert.Equal(t, 24.0, grid[48].Hour)
}
