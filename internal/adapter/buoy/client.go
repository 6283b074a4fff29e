// Package buoy fetches wave graphs from the regional buoy network and
// assembles per-station snapshots for a batch of spots.
package buoy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidelab/surfcast/internal/domain"
)

// DefaultBaseURL points at the public graph endpoint of the regional
// hydrological service.
const DefaultBaseURL = "https://www.cfr.toscana.it/monitoraggio/grafici"

// Client issues graph queries against the buoy data service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a buoy graph client with the given request timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    DefaultBaseURL,
		logger:     logger,
	}
}

// SetBaseURL overrides the endpoint, used by tests against httptest servers.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// GraphData fetches one graph for a station: the series of observations for
// the given date up to the given hour of day (0-23).
func (c *Client) GraphData(ctx context.Context, station domain.StationID, graph domain.GraphType, date time.Time, hours int) (domain.TimeSeries, error) {
	params := url.Values{
		"station": {string(station)},
		"graph":   {graph.RequestCode()},
		"date":    {date.Format("02/01/2006")},
		"hours":   {fmt.Sprintf("%d", hours)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.TimeSeries{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.TimeSeries{}, fmt.Errorf("graph request %s/%s: %w", station, graph, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.TimeSeries{}, fmt.Errorf("buoy API error: status %d: %s", resp.StatusCode, body)
	}

	var series domain.TimeSeries
	if err := json.NewDecoder(resp.Body).Decode(&series); err != nil {
		return domain.TimeSeries{}, fmt.Errorf("decode graph response: %w", err)
	}
	if err := series.Validate(); err != nil {
		return domain.TimeSeries{}, fmt.Errorf("graph %s/%s: %w", station, graph, err)
	}
	return series, nil
}

// StationSnapshot fetches all three graphs for a station as of the capture
// instant, querying the day's data up to the current hour.
func (c *Client) StationSnapshot(ctx context.Context, station domain.StationID, asOf time.Time) (domain.BuoySnapshot, error) {
	snapshot := domain.BuoySnapshot{Station: station, AsOf: asOf}
	hours := asOf.Hour()

	for _, graph := range domain.BuoyGraphs {
		series, err := c.GraphData(ctx, station, graph, asOf, hours)
		if err != nil {
			return domain.BuoySnapshot{}, err
		}
		switch graph {
		case domain.GraphSignificantWaveHeight:
			snapshot.WaveHeight = series
		case domain.GraphPeakPeriod:
			snapshot.Period = series
		case domain.GraphPeakDirection:
			snapshot.Direction = series
		}
	}
	return snapshot, nil
}
