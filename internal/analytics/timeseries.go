package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tidelab/surfcast/internal/domain"
	"github.com/tidelab/surfcast/internal/observability"
)

// rollingWindowHours is the lookback for the per-signal volatility features.
const rollingWindowHours = 2.0

// FeatureRow is one training/prediction sample derived from a snapshot.
// Score is nil while the snapshot is unlabeled.
type FeatureRow struct {
	SnapshotID int64
	Created    time.Time

	WaveHeightLag0 float64
	WaveHeightLag1 float64
	WaveHeightLag2 float64
	PeriodLag0     float64
	PeriodLag1     float64
	PeriodLag2     float64
	DirectionLag0  float64
	DirectionLag1  float64
	DirectionLag2  float64

	WaveHeightStdDev float64
	PeriodStdDev     float64
	DirectionStdDev  float64

	// Wave height x period at matching lags. Swell power proxy.
	HeightPeriodLag0 float64
	HeightPeriodLag1 float64
	HeightPeriodLag2 float64

	WindDirection float64
	WindSpeed     float64

	// Buoy keeps the raw series around so callers can look up hours and
	// units after prediction. Never fed to the model.
	Buoy domain.BuoySnapshot

	Score *float64
}

// featureNames is the model input layout. Features must line up with the
// slice Features returns; persisted models record this list so a layout
// change invalidates old model files instead of silently misreading them.
var featureNames = []string{
	"wave_height_lag0", "wave_height_lag1", "wave_height_lag2",
	"period_lag0", "period_lag1", "period_lag2",
	"direction_lag0", "direction_lag1", "direction_lag2",
	"wave_height_stddev_2h", "period_stddev_2h", "direction_stddev_2h",
	"height_period_lag0", "height_period_lag1", "height_period_lag2",
	"wind_direction", "wind_speed",
}

// Features returns the model input vector in featureNames order.
func (r FeatureRow) Features() []float64 {
	return []float64{
		r.WaveHeightLag0, r.WaveHeightLag1, r.WaveHeightLag2,
		r.PeriodLag0, r.PeriodLag1, r.PeriodLag2,
		r.DirectionLag0, r.DirectionLag1, r.DirectionLag2,
		r.WaveHeightStdDev, r.PeriodStdDev, r.DirectionStdDev,
		r.HeightPeriodLag0, r.HeightPeriodLag1, r.HeightPeriodLag2,
		r.WindDirection, r.WindSpeed,
	}
}

// SnapshotLoader loads persisted snapshots for feature building.
// Satisfied by *store.Store.
type SnapshotLoader interface {
	SnapshotsForSpot(ctx context.Context, spotID int64, from time.Time) ([]domain.SpotSnapshot, error)
}

// Builder turns stored snapshots into feature rows.
type Builder struct {
	loader  SnapshotLoader
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBuilder creates a feature builder over the given snapshot source.
func NewBuilder(loader SnapshotLoader, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	return &Builder{loader: loader, logger: logger, metrics: metrics}
}

// BuildForSpot returns one feature row per usable snapshot created at or
// after from, ascending by snapshot creation time. Snapshots whose series
// are too short for a lag or whose wind fields do not parse are skipped,
// never zero-filled: fabricated values would poison training.
func (b *Builder) BuildForSpot(ctx context.Context, spot domain.Spot, from time.Time) ([]FeatureRow, error) {
	snapshots, err := b.loader.SnapshotsForSpot(ctx, spot.ID, from)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots for %q: %w", spot.Name, err)
	}

	rows := make([]FeatureRow, 0, len(snapshots))
	for _, snapshot := range snapshots {
		row, err := buildRow(snapshot)
		if err != nil {
			if errors.Is(err, domain.ErrNoObservation) {
				b.metrics.RowsSkippedShortSeries.Inc()
				b.logger.Debug("skipping snapshot with short series",
					"snapshot_id", snapshot.ID, "error", err)
				continue
			}
			b.metrics.RowsSkippedShortSeries.Inc()
			b.logger.Warn("skipping unusable snapshot",
				"snapshot_id", snapshot.ID, "error", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func buildRow(snapshot domain.SpotSnapshot) (FeatureRow, error) {
	buoy := snapshot.Buoy.BuoySnapshot

	row := FeatureRow{
		SnapshotID: snapshot.ID,
		Created:    snapshot.Created,
		Buoy:       buoy,
	}

	lags := []struct {
		name   domain.FeatureName
		lag    float64
		target *float64
	}{
		{domain.FeatureWaveHeight, 0, &row.WaveHeightLag0},
		{domain.FeatureWaveHeight, 1, &row.WaveHeightLag1},
		{domain.FeatureWaveHeight, 2, &row.WaveHeightLag2},
		{domain.FeaturePeriod, 0, &row.PeriodLag0},
		{domain.FeaturePeriod, 1, &row.PeriodLag1},
		{domain.FeaturePeriod, 2, &row.PeriodLag2},
		{domain.FeatureDirection, 0, &row.DirectionLag0},
		{domain.FeatureDirection, 1, &row.DirectionLag1},
		{domain.FeatureDirection, 2, &row.DirectionLag2},
	}
	for _, l := range lags {
		v, err := buoy.FeatureWithLag(l.name, l.lag)
		if err != nil {
			return FeatureRow{}, fmt.Errorf("%s lag %.0fh: %w", l.name, l.lag, err)
		}
		*l.target = v
	}

	row.WaveHeightStdDev = buoy.WaveHeight.StdDevOverWindow(rollingWindowHours)
	row.PeriodStdDev = buoy.Period.StdDevOverWindow(rollingWindowHours)
	row.DirectionStdDev = buoy.Direction.StdDevOverWindow(rollingWindowHours)

	row.HeightPeriodLag0 = row.WaveHeightLag0 * row.PeriodLag0
	row.HeightPeriodLag1 = row.WaveHeightLag1 * row.PeriodLag1
	row.HeightPeriodLag2 = row.WaveHeightLag2 * row.PeriodLag2

	var err error
	row.WindDirection, err = strconv.ParseFloat(snapshot.Weather.WindDirection, 64)
	if err != nil {
		return FeatureRow{}, fmt.Errorf("parsing wind direction %q: %w", snapshot.Weather.WindDirection, err)
	}
	row.WindSpeed, err = strconv.ParseFloat(snapshot.Weather.WindSpeed, 64)
	if err != nil {
		return FeatureRow{}, fmt.Errorf("parsing wind speed %q: %w", snapshot.Weather.WindSpeed, err)
	}

	if snapshot.Assessment != nil {
		score := snapshot.Assessment.WaveSizeScore.InexactFloat64()
		row.Score = &score
	}

	return row, nil
}
