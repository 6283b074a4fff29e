package analytics

import (
	"math"

	"github.com/tidelab/surfcast/internal/domain"
)

// Half-hour grid the public timeseries is aligned to.
const (
	gridStart     = 0.0
	gridEnd       = 24.0
	gridStep      = 0.5
	gridTolerance = 0.25
)

// GridRow is one half-hour slot of the public timeseries. Nil fields
// render as JSON null when no observation or prediction lands in the slot.
type GridRow struct {
	Hour           float64  `json:"hour"`
	PredictedScore *float64 `json:"predicted_score"`
	WaveHeight     *float64 `json:"wave_height"`
	Direction      *float64 `json:"direction"`
	Period         *float64 `json:"period"`
}

// JoinGrid aligns the latest buoy series and the per-row predictions onto
// the fixed half-hour grid. Series points join to the nearest slot within
// the tolerance; each prediction anchors at its row's latest wave-height
// hour and lands shift slots later to express its lead time. predictions
// may be nil when no model exists yet; the signal columns still populate.
func JoinGrid(rows []FeatureRow, predictions []Prediction, shift int) []GridRow {
	slots := int((gridEnd-gridStart)/gridStep) + 1
	grid := make([]GridRow, slots)
	for i := range grid {
		grid[i] = GridRow{Hour: gridStart + float64(i)*gridStep}
	}

	if len(rows) > 0 {
		// Rows ascend by creation time, so the last one carries the
		// freshest series.
		buoy := rows[len(rows)-1].Buoy
		for i := range grid {
			grid[i].WaveHeight = nearestValue(buoy.WaveHeight, grid[i].Hour)
			grid[i].Direction = nearestValue(buoy.Direction, grid[i].Hour)
			grid[i].Period = nearestValue(buoy.Period, grid[i].Hour)
		}
	}

	for _, prediction := range predictions {
		anchor, err := prediction.Row.Buoy.WaveHeight.LatestX()
		if err != nil {
			continue
		}
		idx, ok := slotIndex(anchor)
		if !ok {
			continue
		}
		idx += shift
		if idx >= len(grid) {
			continue
		}
		score := prediction.Score
		grid[idx].PredictedScore = &score
	}

	return grid
}

// nearestValue returns the series y whose x is closest to hour, or nil
// when nothing falls within the join tolerance.
func nearestValue(series domain.TimeSeries, hour float64) *float64 {
	best := -1
	bestDist := gridTolerance
	for i, x := range series.X {
		if dist := math.Abs(x - hour); dist <= bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return nil
	}
	y := series.Y[best]
	return &y
}

// slotIndex maps an hour-of-day to its grid slot, rejecting hours that
// fall outside the tolerance of every slot.
func slotIndex(hour float64) (int, bool) {
	idx := int(math.Round((hour - gridStart) / gridStep))
	if idx < 0 || idx >= int((gridEnd-gridStart)/gridStep)+1 {
		return 0, false
	}
	if math.Abs(gridStart+float64(idx)*gridStep-hour) > gridTolerance {
		return 0, false
	}
	return idx, true
}
