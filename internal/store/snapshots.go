package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/tidelab/surfcast/internal/domain"
)

// ErrSnapshotNotFound is returned when a snapshot lookup matches nothing.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// CreateSnapshots persists one snapshot per input in a single transaction:
// either every snapshot and all its source records commit, or none do.
// Records are written in deterministic order (snapshot, buoy, weather,
// windy, ipcam, per input in batch order) so repeated runs are diagnosable
// from row ordering.
func (s *Store) CreateSnapshots(ctx context.Context, batch []domain.SnapshotData) ([]domain.SpotSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	snapshots := make([]domain.SpotSnapshot, 0, len(batch))
	for _, data := range batch {
		snapshot, err := s.createSnapshot(ctx, tx, data)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot tx: %w", err)
	}
	return snapshots, nil
}

func (s *Store) createSnapshot(ctx context.Context, tx *sql.Tx, data domain.SnapshotData) (domain.SpotSnapshot, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO spot_snapshots (spot_id, created) VALUES (?, ?)",
		data.Spot.ID, formatTime(data.Taken))
	if err != nil {
		return domain.SpotSnapshot{}, fmt.Errorf("inserting snapshot for %q: %w", data.Spot.Name, err)
	}
	snapshotID, err := res.LastInsertId()
	if err != nil {
		return domain.SpotSnapshot{}, fmt.Errorf("snapshot insert id: %w", err)
	}

	buoy, err := s.insertBuoyRecord(ctx, tx, snapshotID, data)
	if err != nil {
		return domain.SpotSnapshot{}, err
	}
	weather, err := s.insertWeatherRecord(ctx, tx, snapshotID, data)
	if err != nil {
		return domain.SpotSnapshot{}, err
	}
	// A zero Provider means the spot has no webcam registered with that
	// provider; no row is written.
	var windyCapture, ipcamCapture domain.WebcamCapture
	if data.Windy.Provider != "" {
		windyCapture, err = s.insertWebcamRecord(ctx, tx, snapshotID, data.Windy)
		if err != nil {
			return domain.SpotSnapshot{}, err
		}
	}
	if data.IPCam.Provider != "" {
		ipcamCapture, err = s.insertWebcamRecord(ctx, tx, snapshotID, data.IPCam)
		if err != nil {
			return domain.SpotSnapshot{}, err
		}
	}

	return domain.SpotSnapshot{
		ID:      snapshotID,
		Spot:    data.Spot,
		Created: data.Taken,
		Buoy:    buoy,
		Weather: weather,
		Windy:   windyCapture,
		IPCam:   ipcamCapture,
	}, nil
}

func (s *Store) insertBuoyRecord(ctx context.Context, tx *sql.Tx, snapshotID int64, data domain.SnapshotData) (domain.BuoyRecord, error) {
	series := make([]string, 0, 3)
	for _, ts := range []domain.TimeSeries{data.Buoy.WaveHeight, data.Buoy.Period, data.Buoy.Direction} {
		encoded, err := json.Marshal(ts)
		if err != nil {
			return domain.BuoyRecord{}, fmt.Errorf("encoding buoy series: %w", err)
		}
		series = append(series, string(encoded))
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO buoy_records (snapshot_id, station, as_of, wave_height, period, direction, created)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snapshotID, string(data.Buoy.Station), formatTime(data.Buoy.AsOf),
		series[0], series[1], series[2], formatTime(data.Taken))
	if err != nil {
		return domain.BuoyRecord{}, fmt.Errorf("inserting buoy record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.BuoyRecord{}, fmt.Errorf("buoy record insert id: %w", err)
	}
	return domain.BuoyRecord{ID: id, Created: data.Taken, BuoySnapshot: data.Buoy}, nil
}

func (s *Store) insertWeatherRecord(ctx context.Context, tx *sql.Tx, snapshotID int64, data domain.SnapshotData) (domain.WeatherRecord, error) {
	w := data.Weather
	res, err := tx.ExecContext(ctx, `
		INSERT INTO weather_records (snapshot_id, lat, lon, temperature, rh, dew_point,
			daily_rain, pressure, wind_direction, wind_cardinal, wind_speed, distance,
			tmin, tmed, tmax, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshotID, w.Lat, w.Lon, w.Temperature, w.RH, w.DewPoint,
		w.DailyRain, w.Pressure, w.WindDirection, w.WindCardinal, w.WindSpeed, w.Distance,
		w.TMin, w.TMed, w.TMax, formatTime(data.Taken))
	if err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("inserting weather record: %w", err)
	}
	w.ID, err = res.LastInsertId()
	if err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("weather record insert id: %w", err)
	}
	w.Created = data.Taken
	return w, nil
}

func (s *Store) insertWebcamRecord(ctx context.Context, tx *sql.Tx, snapshotID int64, capture domain.WebcamCapture) (domain.WebcamCapture, error) {
	if len(capture.Preview) > 0 && s.imageDir != "" {
		capture.PreviewPath = fmt.Sprintf("%s-%d.jpg", capture.Provider, snapshotID)
		if err := os.WriteFile(filepath.Join(s.imageDir, capture.PreviewPath), capture.Preview, 0o644); err != nil {
			return domain.WebcamCapture{}, fmt.Errorf("writing %s preview: %w", capture.Provider, err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO webcam_records (snapshot_id, provider, webcam_ref, title, view_count,
			status, last_updated_on, preview_path, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshotID, capture.Provider, capture.WebcamRef, capture.Title, capture.ViewCount,
		capture.Status, capture.LastUpdatedOn, capture.PreviewPath, formatTime(capture.Created))
	if err != nil {
		return domain.WebcamCapture{}, fmt.Errorf("inserting %s record: %w", capture.Provider, err)
	}
	capture.ID, err = res.LastInsertId()
	if err != nil {
		return domain.WebcamCapture{}, fmt.Errorf("webcam record insert id: %w", err)
	}
	return capture, nil
}

// DiscardSnapshot soft-discards a snapshot, excluding it from training
// without deleting anything.
func (s *Store) DiscardSnapshot(ctx context.Context, snapshotID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE spot_snapshots SET discarded = 1 WHERE id = ?", snapshotID)
	if err != nil {
		return fmt.Errorf("discarding snapshot %d: %w", snapshotID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

// CreateAssessment attaches a wave-size score to a snapshot. At most one
// assessment exists per snapshot; a second attempt fails with
// domain.ErrAssessmentExists.
func (s *Store) CreateAssessment(ctx context.Context, snapshotID int64, score decimal.Decimal) (domain.Assessment, error) {
	if err := domain.ValidateScore(score); err != nil {
		return domain.Assessment{}, err
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM assessments WHERE snapshot_id = ?", snapshotID).Scan(&exists)
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("checking assessment: %w", err)
	}
	if exists > 0 {
		return domain.Assessment{}, domain.ErrAssessmentExists
	}

	created := domain.Now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO assessments (snapshot_id, wave_size_score, created) VALUES (?, ?, ?)",
		snapshotID, score.String(), formatTime(created))
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("inserting assessment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("assessment insert id: %w", err)
	}
	return domain.Assessment{ID: id, SnapshotID: snapshotID, Created: created, WaveSizeScore: score}, nil
}
