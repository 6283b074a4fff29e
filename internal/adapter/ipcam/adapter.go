// Package ipcam fetches webcam preview frames by camera alias. The provider
// serves the snapshot image directly at a fixed URL pattern, so a capture
// is a single request with no metadata step.
package ipcam

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidelab/surfcast/internal/domain"
)

// DefaultBaseURL is the snapshot endpoint; the alias goes in the query.
const DefaultBaseURL = "https://ipcamlive.com/player/snapshot.php"

// Client fetches preview frames by alias.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an ipcamlive client with the given request timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    DefaultBaseURL,
		logger:     logger,
	}
}

// SetBaseURL overrides the endpoint, used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Preview fetches the current frame for an alias.
func (c *Client) Preview(ctx context.Context, alias string) ([]byte, error) {
	params := url.Values{"alias": {alias}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request %s: %w", alias, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipcam API error: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// PreviewClient fetches one frame. Satisfied by *Client.
type PreviewClient interface {
	Preview(ctx context.Context, alias string) ([]byte, error)
}

// Adapter fetches one frame per registered alias.
type Adapter struct {
	client PreviewClient
	logger *slog.Logger
}

// NewAdapter creates an ipcam adapter over the given client.
func NewAdapter(client PreviewClient, logger *slog.Logger) *Adapter {
	return &Adapter{client: client, logger: logger}
}

// FetchCurrent fetches the current frame for every registered alias. Any
// failure aborts the whole fetch.
func (a *Adapter) FetchCurrent(ctx context.Context, spots domain.SpotSet, asOf time.Time) (*ResultSet, error) {
	captures := make([]spotCapture, 0, len(spots))
	for _, spot := range spots {
		if spot.IPCamAlias == "" {
			continue
		}
		preview, err := a.client.Preview(ctx, spot.IPCamAlias)
		if err != nil {
			return nil, domain.NewFetchError("ipcam", err)
		}
		captures = append(captures, spotCapture{
			spotID: spot.ID,
			capture: domain.WebcamCapture{
				Created:   asOf,
				Provider:  domain.WebcamProviderIPCam,
				WebcamRef: spot.IPCamAlias,
				Preview:   preview,
			},
		})
	}
	return &ResultSet{captures: captures}, nil
}

type spotCapture struct {
	spotID  int64
	capture domain.WebcamCapture
}

// ResultSet indexes ipcam captures by spot.
type ResultSet struct {
	captures []spotCapture
}

// ForSpot returns the capture fetched for the spot.
func (rs *ResultSet) ForSpot(spot domain.Spot) (domain.WebcamCapture, error) {
	for _, c := range rs.captures {
		if c.spotID == spot.ID {
			return c.capture, nil
		}
	}
	return domain.WebcamCapture{}, fmt.Errorf("ipcam: %w: %s", domain.ErrNoResultForSpot, spot.Name)
}
