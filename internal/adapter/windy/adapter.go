package windy

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tidelab/surfcast/internal/domain"
)

// WebcamClient is the two-step Windy flow. Satisfied by *Client.
type WebcamClient interface {
	Webcams(ctx context.Context, webcamIDs []string) ([]WebcamInfo, error)
	FetchPreview(ctx context.Context, previewURL string) ([]byte, error)
}

// Adapter fetches Windy webcam captures for a spot set in one batched
// metadata query, then resolves each preview URL to bytes.
type Adapter struct {
	client WebcamClient
	logger *slog.Logger
}

// NewAdapter creates a Windy webcam adapter over the given client.
func NewAdapter(client WebcamClient, logger *slog.Logger) *Adapter {
	return &Adapter{client: client, logger: logger}
}

// FetchCurrent batches all registered webcam ids into a single metadata
// query. A missing webcam in the response, or any preview fetch failure,
// aborts the whole fetch.
func (a *Adapter) FetchCurrent(ctx context.Context, spots domain.SpotSet, asOf time.Time) (*ResultSet, error) {
	var ids []string
	for _, spot := range spots {
		if spot.WindyWebcamID != "" {
			ids = append(ids, spot.WindyWebcamID)
		}
	}
	if len(ids) == 0 {
		return &ResultSet{}, nil
	}

	infos, err := a.client.Webcams(ctx, ids)
	if err != nil {
		return nil, domain.NewFetchError("windy", err)
	}

	byID := make(map[string]WebcamInfo, len(infos))
	for _, info := range infos {
		byID[strconv.FormatInt(info.WebcamID, 10)] = info
	}

	captures := make([]spotCapture, 0, len(ids))
	for _, spot := range spots {
		if spot.WindyWebcamID == "" {
			continue
		}
		info, ok := byID[spot.WindyWebcamID]
		if !ok {
			return nil, domain.NewFetchError("windy",
				fmt.Errorf("webcam %s missing from response", spot.WindyWebcamID))
		}
		preview, err := a.client.FetchPreview(ctx, info.Images.Current.Preview)
		if err != nil {
			return nil, domain.NewFetchError("windy", err)
		}
		captures = append(captures, spotCapture{
			spotID: spot.ID,
			capture: domain.WebcamCapture{
				Created:       asOf,
				Provider:      domain.WebcamProviderWindy,
				WebcamRef:     spot.WindyWebcamID,
				Title:         info.Title,
				ViewCount:     info.ViewCount,
				Status:        info.Status,
				LastUpdatedOn: info.LastUpdatedOn,
				Preview:       preview,
			},
		})
	}

	return &ResultSet{captures: captures}, nil
}

type spotCapture struct {
	spotID  int64
	capture domain.WebcamCapture
}

// ResultSet indexes Windy captures by spot.
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
	return domain.WebcamCapture{}, fmt.Errorf("windy: %w: %s", domain.ErrNoResultForSpot, spot.Name)
}
