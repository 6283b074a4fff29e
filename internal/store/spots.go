package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tidelab/surfcast/internal/domain"
)

// ErrSpotNotFound is returned when a spot lookup matches nothing.
var ErrSpotNotFound = errors.New("spot not found")

const spotColumns = "id, uid, name, lat, lon, buoy_station, windy_webcam_id, ipcam_alias, created"

// CreateSpot inserts a spot, assigning a UID and creation time. The name
// must be unique.
func (s *Store) CreateSpot(ctx context.Context, spot domain.Spot) (domain.Spot, error) {
	spot.UID = uuid.NewString()
	spot.Created = domain.Now()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO spots (uid, name, lat, lon, buoy_station, windy_webcam_id, ipcam_alias, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		spot.UID, spot.Name, spot.Lat, spot.Lon,
		string(spot.BuoyStation), spot.WindyWebcamID, spot.IPCamAlias,
		formatTime(spot.Created),
	)
	if err != nil {
		return domain.Spot{}, fmt.Errorf("inserting spot %q: %w", spot.Name, err)
	}
	spot.ID, err = res.LastInsertId()
	if err != nil {
		return domain.Spot{}, fmt.Errorf("spot insert id: %w", err)
	}
	return spot, nil
}

// GetSpotByUID returns the spot with the given UID.
func (s *Store) GetSpotByUID(ctx context.Context, uid string) (domain.Spot, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+spotColumns+" FROM spots WHERE uid = ?", uid)
	return scanSpot(row)
}

// GetSpotByName returns the spot with the given name.
func (s *Store) GetSpotByName(ctx context.Context, name string) (domain.Spot, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+spotColumns+" FROM spots WHERE name = ?", name)
	return scanSpot(row)
}

// ListSpots returns all spots ordered by creation time.
func (s *Store) ListSpots(ctx context.Context) (domain.SpotSet, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+spotColumns+" FROM spots ORDER BY created, id")
	if err != nil {
		return nil, fmt.Errorf("listing spots: %w", err)
	}
	defer rows.Close()

	var spots domain.SpotSet
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		spots = append(spots, spot)
	}
	return spots, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpot(row rowScanner) (domain.Spot, error) {
	var (
		spot    domain.Spot
		station string
		created string
	)
	err := row.Scan(&spot.ID, &spot.UID, &spot.Name, &spot.Lat, &spot.Lon,
		&station, &spot.WindyWebcamID, &spot.IPCamAlias, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Spot{}, ErrSpotNotFound
	}
	if err != nil {
		return domain.Spot{}, fmt.Errorf("scanning spot: %w", err)
	}
	spot.BuoyStation = domain.StationID(station)
	spot.Created, err = parseTime(created)
	return spot, err
}
