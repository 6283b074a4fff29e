package buoy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidelab/surfcast/internal/domain"
)

// StationClient fetches a full station snapshot. Satisfied by *Client.
type StationClient interface {
	StationSnapshot(ctx context.Context, station domain.StationID, asOf time.Time) (domain.BuoySnapshot, error)
}

// Adapter batches station fetches for a spot set. Stations shared by
// several spots are fetched once.
type Adapter struct {
	client StationClient
	logger *slog.Logger
}

// NewAdapter creates a buoy adapter over the given client.
func NewAdapter(client StationClient, logger *slog.Logger) *Adapter {
	return &Adapter{client: client, logger: logger}
}

// FetchCurrent fetches one snapshot per distinct registered station. Any
// station failure aborts the whole fetch: assembly needs full coverage.
func (a *Adapter) FetchCurrent(ctx context.Context, spots domain.SpotSet, asOf time.Time) (*ResultSet, error) {
	stations := spots.Stations()
	snapshots := make([]domain.BuoySnapshot, 0, len(stations))

	for _, station := range stations {
		if !station.Valid() {
			return nil, domain.NewFetchError("buoy", fmt.Errorf("unknown station %q", station))
		}
		snapshot, err := a.client.StationSnapshot(ctx, station, asOf)
		if err != nil {
			return nil, domain.NewFetchError("buoy", err)
		}
		a.logger.Debug("buoy station fetched",
			"station", station,
			"points", len(snapshot.WaveHeight.X),
		)
		snapshots = append(snapshots, snapshot)
	}

	return &ResultSet{snapshots: snapshots}, nil
}

// ResultSet indexes fetched station snapshots by spot registration.
type ResultSet struct {
	snapshots []domain.BuoySnapshot
}

// ForSpot returns the first snapshot matching the spot's registered
// station. Station-to-spot is many-to-many, so several spots can resolve
// to the same snapshot.
func (rs *ResultSet) ForSpot(spot domain.Spot) (domain.BuoySnapshot, error) {
	for _, snapshot := range rs.snapshots {
		if snapshot.Station == spot.BuoyStation {
			return snapshot, nil
		}
	}
	return domain.BuoySnapshot{}, fmt.Errorf("buoy: %w: %s", domain.ErrNoResultForSpot, spot.Name)
}
