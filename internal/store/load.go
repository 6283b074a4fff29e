package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tidelab/surfcast/internal/domain"
)

// SnapshotsForSpot loads all non-discarded snapshots for a spot created at
// or after from, ascending by creation time, with buoy and weather records
// and the optional assessment hydrated. Webcam records are not loaded here;
// they serve the assessment view, not training.
func (s *Store) SnapshotsForSpot(ctx context.Context, spotID int64, from time.Time) ([]domain.SpotSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, spot_id, created
		FROM spot_snapshots
		WHERE spot_id = ? AND discarded = 0 AND created >= ?
		ORDER BY created, id`,
		spotID, formatTime(from))
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.SpotSnapshot
	for rows.Next() {
		var (
			snapshot domain.SpotSnapshot
			created  string
		)
		if err := rows.Scan(&snapshot.ID, &snapshot.Spot.ID, &created); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if snapshot.Created, err = parseTime(created); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range snapshots {
		if err := s.hydrateSnapshot(ctx, &snapshots[i]); err != nil {
			return nil, err
		}
	}
	return snapshots, nil
}

// GetSnapshot loads one snapshot with every source record, including
// webcams, for the assessment view.
func (s *Store) GetSnapshot(ctx context.Context, snapshotID int64) (domain.SpotSnapshot, error) {
	var (
		snapshot  domain.SpotSnapshot
		created   string
		discarded int
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, spot_id, created, discarded FROM spot_snapshots WHERE id = ?",
		snapshotID).Scan(&snapshot.ID, &snapshot.Spot.ID, &created, &discarded)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SpotSnapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return domain.SpotSnapshot{}, fmt.Errorf("querying snapshot %d: %w", snapshotID, err)
	}
	snapshot.Discarded = discarded != 0
	if snapshot.Created, err = parseTime(created); err != nil {
		return domain.SpotSnapshot{}, err
	}

	if err := s.hydrateSnapshot(ctx, &snapshot); err != nil {
		return domain.SpotSnapshot{}, err
	}
	if err := s.hydrateWebcams(ctx, &snapshot); err != nil {
		return domain.SpotSnapshot{}, err
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+spotColumns+" FROM spots WHERE id = ?", snapshot.Spot.ID)
	if snapshot.Spot, err = scanSpot(row); err != nil {
		return domain.SpotSnapshot{}, err
	}
	return snapshot, nil
}

func (s *Store) hydrateSnapshot(ctx context.Context, snapshot *domain.SpotSnapshot) error {
	if err := s.loadBuoyRecord(ctx, snapshot); err != nil {
		return err
	}
	if err := s.loadWeatherRecord(ctx, snapshot); err != nil {
		return err
	}
	return s.loadAssessment(ctx, snapshot)
}

func (s *Store) loadBuoyRecord(ctx context.Context, snapshot *domain.SpotSnapshot) error {
	var (
		record                        domain.BuoyRecord
		station, asOf, created        string
		waveHeight, period, direction string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, station, as_of, wave_height, period, direction, created
		FROM buoy_records WHERE snapshot_id = ?`, snapshot.ID).
		Scan(&record.ID, &station, &asOf, &waveHeight, &period, &direction, &created)
	if err != nil {
		return fmt.Errorf("loading buoy record for snapshot %d: %w", snapshot.ID, err)
	}

	record.Station = domain.StationID(station)
	if record.AsOf, err = parseTime(asOf); err != nil {
		return err
	}
	if record.Created, err = parseTime(created); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(waveHeight), &record.WaveHeight); err != nil {
		return fmt.Errorf("decoding wave height series: %w", err)
	}
	if err := json.Unmarshal([]byte(period), &record.Period); err != nil {
		return fmt.Errorf("decoding period series: %w", err)
	}
	if err := json.Unmarshal([]byte(direction), &record.Direction); err != nil {
		return fmt.Errorf("decoding direction series: %w", err)
	}
	snapshot.Buoy = record
	return nil
}

func (s *Store) loadWeatherRecord(ctx context.Context, snapshot *domain.SpotSnapshot) error {
	var (
		w       domain.WeatherRecord
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, lat, lon, temperature, rh, dew_point, daily_rain, pressure,
			wind_direction, wind_cardinal, wind_speed, distance, tmin, tmed, tmax, created
		FROM weather_records WHERE snapshot_id = ?`, snapshot.ID).
		Scan(&w.ID, &w.Lat, &w.Lon, &w.Temperature, &w.RH, &w.DewPoint, &w.DailyRain,
			&w.Pressure, &w.WindDirection, &w.WindCardinal, &w.WindSpeed, &w.Distance,
			&w.TMin, &w.TMed, &w.TMax, &created)
	if err != nil {
		return fmt.Errorf("loading weather record for snapshot %d: %w", snapshot.ID, err)
	}
	if w.Created, err = parseTime(created); err != nil {
		return err
	}
	snapshot.Weather = w
	return nil
}

func (s *Store) hydrateWebcams(ctx context.Context, snapshot *domain.SpotSnapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, webcam_ref, title, view_count, status, last_updated_on, preview_path, created
		FROM webcam_records WHERE snapshot_id = ? ORDER BY provider`, snapshot.ID)
	if err != nil {
		return fmt.Errorf("loading webcam records for snapshot %d: %w", snapshot.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			capture domain.WebcamCapture
			created string
		)
		if err := rows.Scan(&capture.ID, &capture.Provider, &capture.WebcamRef,
			&capture.Title, &capture.ViewCount, &capture.Status,
			&capture.LastUpdatedOn, &capture.PreviewPath, &created); err != nil {
			return fmt.Errorf("scanning webcam record: %w", err)
		}
		if capture.Created, err = parseTime(created); err != nil {
			return err
		}
		switch capture.Provider {
		case domain.WebcamProviderWindy:
			snapshot.Windy = capture
		case domain.WebcamProviderIPCam:
			snapshot.IPCam = capture
		}
	}
	return rows.Err()
}

func (s *Store) loadAssessment(ctx context.Context, snapshot *domain.SpotSnapshot) error {
	var (
		assessment domain.Assessment
		score      string
		created    string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, snapshot_id, wave_size_score, created FROM assessments WHERE snapshot_id = ?",
		snapshot.ID).Scan(&assessment.ID, &assessment.SnapshotID, &score, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil // unlabeled is an expected state, not an error
	}
	if err != nil {
		return fmt.Errorf("loading assessment for snapshot %d: %w", snapshot.ID, err)
	}
	if assessment.WaveSizeScore, err = decimal.NewFromString(score); err != nil {
		return fmt.Errorf("parsing stored score %q: %w", score, err)
	}
	if assessment.Created, err = parseTime(created); err != nil {
		return err
	}
	snapshot.Assessment = &assessment
	return nil
}
