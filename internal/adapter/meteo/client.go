// Package meteo fetches interpolated real-time weather readings for spot
// coordinates from the station-network interpolation service.
package meteo

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

// DefaultBaseURL is the interpolated real-time endpoint.
const DefaultBaseURL = "https://api.meteonetwork.it/v3/data-realtime/interpolated"

// Client queries the weather-interpolation provider.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a weather client authenticated with a bearer token.
func NewClient(token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    DefaultBaseURL,
		logger:     logger,
	}
}

// SetBaseURL overrides the endpoint, used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// irtResponse mirrors the provider's payload. Every numeric field is a
// decimal string; nullable fields are pointers.
type irtResponse struct {
	Lat           string  `json:"lat"`
	Lon           string  `json:"lon"`
	Temperature   string  `json:"temperature"`
	RH            string  `json:"rh"`
	DewPoint      string  `json:"dew_point"`
	DailyRain     *string `json:"daily_rain"`
	SMLP          string  `json:"smlp"`
	WindDirection string  `json:"wind_direction"`
	WindCardinal  string  `json:"wind_direction_cardinal"`
	WindSpeed     string  `json:"wind_speed"`
	Distance      string  `json:"distance"`
	CurrentTMin   *string `json:"current_tmin"`
	CurrentTMed   *string `json:"current_tmed"`
	CurrentTMax   *string `json:"current_tmax"`
}

// InterpolatedRealTime fetches the current interpolated reading for a
// coordinate pair. The returned record carries the requested lat/lon, not
// the provider's low-precision echo, so stored coordinates always match
// the spot registration.
func (c *Client) InterpolatedRealTime(ctx context.Context, lat, lon string, asOf time.Time) (domain.WeatherRecord, error) {
	params := url.Values{"lat": {lat}, "lon": {lon}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("interpolated realtime request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.WeatherRecord{}, fmt.Errorf("weather API error: status %d: %s", resp.StatusCode, body)
	}

	var payload irtResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("decode weather response: %w", err)
	}

	return domain.WeatherRecord{
		Created:       asOf,
		Lat:           lat,
		Lon:           lon,
		Temperature:   payload.Temperature,
		RH:            payload.RH,
		DewPoint:      payload.DewPoint,
		DailyRain:     payload.DailyRain,
		Pressure:      payload.SMLP,
		WindDirection: payload.WindDirection,
		WindCardinal:  payload.WindCardinal,
		WindSpeed:     payload.WindSpeed,
		Distance:      payload.Distance,
		TMin:          payload.CurrentTMin,
		TMed:          payload.CurrentTMed,
		TMax:          payload.CurrentTMax,
	}, nil
}
