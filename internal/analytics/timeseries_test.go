package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidelab/surfcast/internal/domain"
	"github.com/tidelab/surfcast/internal/observability"
)

type stubLoader struct {
	snapshots []domain.SpotSnapshot
	err       error
}

func (s stubLoader) SnapshotsForSpot(_ context.Context, _ int64, _ time.Time) ([]domain.SpotSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshots, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

var testSpot = domain.Spot{ID: 1, UID: "abc", Name: "Pontile Tonfano"}

// syntheticSnapshot produces a snapshot with uneven but deterministic
// series so feature columns stay linearly independent across a batch.
func syntheticSnapshot(i int, score *float64) domain.SpotSnapshot {
	const hour = 12.0
	xs := []float64{hour - 2.5, hour - 2, hour - 1.5, hour - 1, hour - 0.5, hour}

	wave := domain.TimeSeries{X: xs, Unit: "m"}
	period := domain.TimeSeries{X: xs, Unit: "s"}
	direction := domain.TimeSeries{X: xs, Unit: "deg"}
	for j := range xs {
		wave.Y = append(wave.Y, 1.0+0.4*math.Sin(float64(i*7+j)))
		period.Y = append(period.Y, 7.0+1.5*math.Cos(float64(i*3+j*2)))
		direction.Y = append(direction.Y, 240+25*math.Sin(float64(i*5+j*3)))
	}

	created := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
	snapshot := domain.SpotSnapshot{
		ID:      int64(i + 1),
		Spot:    testSpot,
		Created: created,
		Buoy: domain.BuoyRecord{
			ID:      int64(i + 1),
			Created: created,
			BuoySnapshot: domain.BuoySnapshot{
				Station:    domain.StationGorgona,
				AsOf:       created,
				WaveHeight: wave,
				Period:     period,
				Direction:  direction,
			},
		},
		Weather: domain.WeatherRecord{
			WindDirection: fmt.Sprintf("%.1f", 170+10*math.Sin(float64(i))),
			WindSpeed:     fmt.Sprintf("%.1f", 8+3*math.Cos(float64(i*2))),
		},
	}
	if score != nil {
		snapshot.Assessment = &domain.Assessment{
			SnapshotID:    snapshot.ID,
			WaveSizeScore: decimal.NewFromFloat(*score),
		}
	}
	return snapshot
}

func newTestBuilder(loader SnapshotLoader) *Builder {
	return NewBuilder(loader, discardLogger(), observability.NewMetricsForTesting())
}

func TestBuildForSpot_LabeledAndUnlabeledRows(t *testing.T) {
	score := 4.0
	loader := stubLoader{snapshots: []domain.SpotSnapshot{
		syntheticSnapshot(0, &score),
		syntheticSnapshot(1, nil),
	}}

	rows, err := newTestBuilder(loader).BuildForSpot(context.Background(), testSpot, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].Score)
	assert.InDelta(t, 4.0, *rows[0].Score, 1e-9)
	assert.Nil(t, rows[1].Score)
}

func TestBuildForSpot_FeatureValues(t *testing.T) {
	snapshot := syntheticSnapshot(3, nil)
	loader := stubLoader{snapshots: []domain.SpotSnapshot{snapshot}}

	rows, err := newTestBuilder(loader).BuildForSpot(context.Background(), testSpot, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]

	buoy := snapshot.Buoy.BuoySnapshot
	wh0, err := buoy.FeatureWithLag(domain.FeatureWaveHeight, 0)
	require.NoError(t, err)
	wh1, err := buoy.FeatureWithLag(domain.FeatureWaveHeight, 1)
	require.NoError(t, err)
	p1, err := buoy.FeatureWithLag(domain.FeaturePeriod, 1)
	require.NoError(t, err)

	assert.InDelta(t, wh0, row.WaveHeightLag0, 1e-12)
	assert.InDelta(t, wh1, row.WaveHeightLag1, 1e-12)
	assert.InDelta(t, wh1*p1, row.HeightPeriodLag1, 1e-12)
	assert.InDelta(t, buoy.WaveHeight.StdDevOverWindow(2), row.WaveHeightStdDev, 1e-12)
	assert.Equal(t, snapshot.ID, row.SnapshotID)
	assert.Equal(t, snapshot.Created, row.Created)
}

func TestBuildForSpot_SkipsShortSeries(t *testing.T) {
	short := syntheticSnapshot(0, nil)
	// A single point cannot satisfy the 2h lag lookup.
	short.Buoy.WaveHeight = domain.TimeSeries{X: []float64{12}, Y: []float64{1.0}, Unit: "m"}

	loader := stubLoader{snapshots: []domain.SpotSnapshot{
		short,
		syntheticSnapshot(1, nil),
	}}

	rows, err := newTestBuilder(loader).BuildForSpot(context.Background(), testSpot, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1, "short-series snapshot is skipped, not zero-filled")
	assert.Equal(t, int64(2), rows[0].SnapshotID)
}

func TestBuildForSpot_SkipsUnparsableWind(t *testing.T) {
	bad := syntheticSnapshot(0, nil)
	bad.Weather.WindSpeed = "n/a"

	loader := stubLoader{snapshots: []domain.SpotSnapshot{bad, syntheticSnapshot(1, nil)}}

	rows, err := newTestBuilder(loader).BuildForSpot(context.Background(), testSpot, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].SnapshotID)
}

func TestBuildForSpot_AscendingByCreation(t *testing.T) {
	loader := stubLoader{snapshots: []domain.SpotSnapshot{
		syntheticSnapshot(0, nil),
		syntheticSnapshot(1, nil),
		syntheticSnapshot(2, nil),
	}}

	rows, err := newTestBuilder(loader).BuildForSpot(context.Background(), testSpot, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i].Created.After(rows[i-1].Created))
	}
}

func TestFeatures_MatchesLayout(t *testing.T) {
	snapshot := syntheticSnapshot(5, nil)
	loader := stubLoader{snapshots: []domain.SpotSnapshot{snapshot}}

	rows, err := newTestBuilder(loader).BuildForSpot(context.Background(), testSpot, time.Time{})
	require.NoError(t, err)

	features := rows[0].Features()
	require.Len(t, features, len(featureNames))
	assert.InDelta(t, rows[0].WaveHeightLag0, features[0], 1e-12)
	assert.InDelta(t, rows[0].WindSpeed, features[len(features)-1], 1e-12)
}
