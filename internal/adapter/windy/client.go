// Package windy fetches webcam metadata and preview images from the Windy
// webcams API. The API returns a preview URL, not image bytes, so every
// capture costs two requests.
package windy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the v3 webcams endpoint.
const DefaultBaseURL = "https://api.windy.com/webcams/api/v3/webcams"

// WebcamInfo is the provider metadata for one webcam, with its preview URL.
type WebcamInfo struct {
	WebcamID      int64  `json:"webcamId"`
	Title         string `json:"title"`
	ViewCount     int    `json:"viewCount"`
	Status        string `json:"status"`
	LastUpdatedOn string `json:"lastUpdatedOn"`
	Images        struct {
		Current struct {
			Preview string `json:"preview"`
		} `json:"current"`
	} `json:"images"`
}

// Client queries the Windy webcams API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Windy client authenticated with an API key.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    DefaultBaseURL,
		logger:     logger,
	}
}

// SetBaseURL overrides the endpoint, used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Webcams fetches metadata for the given webcam ids, requesting the images
// feature so preview URLs are included.
func (c *Client) Webcams(ctx context.Context, webcamIDs []string) ([]WebcamInfo, error) {
	params := url.Values{
		"webcamIds": {strings.Join(webcamIDs, ",")},
		"include":   {"images"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-windy-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webcams request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("windy API error: status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Webcams []WebcamInfo `json:"webcams"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode webcams response: %w", err)
	}
	return payload.Webcams, nil
}

// FetchPreview resolves a preview URL to image bytes.
func (c *Client) FetchPreview(ctx context.Context, previewURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create preview request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("preview request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("preview fetch error: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
