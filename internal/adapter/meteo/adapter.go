package meteo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidelab/surfcast/internal/domain"
)

// WeatherClient fetches one interpolated reading. Satisfied by *Client.
type WeatherClient interface {
	InterpolatedRealTime(ctx context.Context, lat, lon string, asOf time.Time) (domain.WeatherRecord, error)
}

// Adapter fetches one weather reading per spot.
type Adapter struct {
	client WeatherClient
	logger *slog.Logger
}

// NewAdapter creates a weather adapter over the given client.
func NewAdapter(client WeatherClient, logger *slog.Logger) *Adapter {
	return &Adapter{client: client, logger: logger}
}

// FetchCurrent issues one interpolation query per spot. Any failure aborts
// the whole fetch.
func (a *Adapter) FetchCurrent(ctx context.Context, spots domain.SpotSet, asOf time.Time) (*ResultSet, error) {
	results := make([]spotRecord, 0, len(spots))
	for _, spot := range spots {
		record, err := a.client.InterpolatedRealTime(ctx, spot.Lat, spot.Lon, asOf)
		if err != nil {
			return nil, domain.NewFetchError("weather", err)
		}
		results = append(results, spotRecord{spotID: spot.ID, record: record})
	}
	return &ResultSet{results: results}, nil
}

type spotRecord struct {
	spotID int64
	record domain.WeatherRecord
}

// ResultSet indexes weather records by the spot they were fetched for.
type ResultSet struct {
	results []spotRecord
}

// ForSpot returns the record fetched for the spot.
func (rs *ResultSet) ForSpot(spot domain.Spot) (domain.WeatherRecord, error) {
	for _, r := range rs.results {
		if r.spotID == spot.ID {
			return r.record, nil
		}
	}
	return domain.WeatherRecord{}, fmt.Errorf("weather: %w: %s", domain.ErrNoResultForSpot, spot.Name)
}
