package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tidelab/surfcast/internal/domain"
	"github.com/tidelab/surfcast/internal/observability"
)

// BuoyResults resolves a fetched buoy batch to a per-spot snapshot.
type BuoyResults interface {
	ForSpot(spot domain.Spot) (domain.BuoySnapshot, error)
}

// WeatherResults resolves a fetched weather batch to a per-spot record.
type WeatherResults interface {
	ForSpot(spot domain.Spot) (domain.WeatherRecord, error)
}

// WebcamResults resolves a fetched webcam batch to a per-spot capture.
type WebcamResults interface {
	ForSpot(spot domain.Spot) (domain.WebcamCapture, error)
}

// BuoySource fetches current buoy data for every station in the spot set.
type BuoySource interface {
	FetchCurrent(ctx context.Context, spots domain.SpotSet, asOf time.Time) (BuoyResults, error)
}

// WeatherSource fetches current weather for every spot in the set.
type WeatherSource interface {
	FetchCurrent(ctx context.Context, spots domain.SpotSet, asOf time.Time) (WeatherResults, error)
}

// WebcamSource fetches current webcam captures for the spots registered
// with one provider.
type WebcamSource interface {
	FetchCurrent(ctx context.Context, spots domain.SpotSet, asOf time.Time) (WebcamResults, error)
}

// SnapshotWriter persists a batch of snapshots in a single transaction.
// Satisfied by *store.Store.
type SnapshotWriter interface {
	CreateSnapshots(ctx context.Context, batch []domain.SnapshotData) ([]domain.SpotSnapshot, error)
}

// EventPublisher announces committed snapshots downstream. Best effort;
// publish failures never fail the run.
type EventPublisher interface {
	PublishSnapshots(ctx context.Context, snapshots []domain.SpotSnapshot) error
}

// Sources bundles the four providers an assembly run fans out to.
type Sources struct {
	Buoy    BuoySource
	Weather WeatherSource
	Windy   WebcamSource
	IPCam   WebcamSource
}

// Assembler orchestrates one snapshot run: fetch all sources concurrently,
// join per spot, persist the whole batch atomically.
type Assembler struct {
	sources   Sources
	writer    SnapshotWriter
	publisher EventPublisher
	daylight  domain.DaylightGuard
	logger    *slog.Logger
	metrics   *observability.Metrics

	running sync.Mutex
}

// New creates an Assembler. publisher may be nil when event publishing
// is disabled.
func New(sources Sources, writer SnapshotWriter, publisher EventPublisher, daylight domain.DaylightGuard, logger *slog.Logger, metrics *observability.Metrics) *Assembler {
	return &Assembler{
		sources:   sources,
		writer:    writer,
		publisher: publisher,
		daylight:  daylight,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes one assembly for the given spots. force bypasses the
// daylight guard. Exactly one run may be in flight at a time; a second
// caller gets ErrRunInProgress instead of queueing.
//
// The run is all-or-nothing for required sources: a buoy or weather
// failure for any spot aborts the whole batch and nothing is written.
// Webcam sources are optional per spot.
func (a *Assembler) Run(ctx context.Context, spots domain.SpotSet, force bool) ([]domain.SpotSnapshot, error) {
	if !a.running.TryLock() {
		return nil, domain.ErrRunInProgress
	}
	defer a.running.Unlock()

	asOf := domain.Now()

	if !force {
		if err := a.daylight.Check(asOf); err != nil {
			return nil, err
		}
	}

	if len(spots) == 0 {
		a.logger.Info("no spots registered, nothing to assemble")
		return nil, nil
	}

	start := time.Now()

	fetched, err := a.fetchAll(ctx, spots, asOf)
	if err != nil {
		a.metrics.AssemblyFailures.Inc()
		return nil, err
	}

	batch := make([]domain.SnapshotData, 0, len(spots))
	for _, spot := range spots {
		data, err := a.joinSpot(spot, asOf, fetched)
		if err != nil {
			a.metrics.AssemblyFailures.Inc()
			return nil, err
		}
		batch = append(batch, data)
	}

	snapshots, err := a.writer.CreateSnapshots(ctx, batch)
	if err != nil {
		a.metrics.AssemblyFailures.Inc()
		return nil, fmt.Errorf("persisting snapshot batch: %w", err)
	}

	a.metrics.SnapshotsTaken.Add(float64(len(snapshots)))
	a.metrics.AssemblyDuration.Observe(time.Since(start).Seconds())
	a.logger.Info("assembly run complete", "spots", len(spots), "snapshots", len(snapshots))

	if a.publisher != nil {
		if err := a.publisher.PublishSnapshots(ctx, snapshots); err != nil {
			a.logger.Warn("snapshot event publish failed", "error", err)
		}
	}

	return snapshots, nil
}

// fetchedResults holds the per-source result sets of one fan-out.
type fetchedResults struct {
	buoy    BuoyResults
	weather WeatherResults
	windy   WebcamResults
	ipcam   WebcamResults
}

// fetchAll queries the four sources concurrently. The first failure
// cancels the rest.
func (a *Assembler) fetchAll(ctx context.Context, spots domain.SpotSet, asOf time.Time) (*fetchedResults, error) {
	var fetched fetchedResults

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		res, err := a.sources.Buoy.FetchCurrent(gctx, spots, asOf)
		a.observeFetch("buoy", start, err)
		if err != nil {
			return err
		}
		fetched.buoy = res
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		res, err := a.sources.Weather.FetchCurrent(gctx, spots, asOf)
		a.observeFetch("weather", start, err)
		if err != nil {
			return err
		}
		fetched.weather = res
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		res, err := a.sources.Windy.FetchCurrent(gctx, spots, asOf)
		a.observeFetch("windy", start, err)
		if err != nil {
			return err
		}
		fetched.windy = res
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		res, err := a.sources.IPCam.FetchCurrent(gctx, spots, asOf)
		a.observeFetch("ipcam", start, err)
		if err != nil {
			return err
		}
		fetched.ipcam = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &fetched, nil
}

func (a *Assembler) observeFetch(source string, start time.Time, err error) {
	a.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		a.metrics.FetchErrors.WithLabelValues(source).Inc()
		a.logger.Error("source fetch failed", "source", source, "error", err)
	}
}

// joinSpot assembles one spot's SnapshotData from the fetched batches.
// Buoy and weather are required; a missing webcam capture leaves the
// field zero and the store writes no row for it.
func (a *Assembler) joinSpot(spot domain.Spot, asOf time.Time, fetched *fetchedResults) (domain.SnapshotData, error) {
	buoy, err := fetched.buoy.ForSpot(spot)
	if err != nil {
		return domain.SnapshotData{}, fmt.Errorf("joining buoy data for %q: %w", spot.Name, err)
	}
	weather, err := fetched.weather.ForSpot(spot)
	if err != nil {
		return domain.SnapshotData{}, fmt.Errorf("joining weather data for %q: %w", spot.Name, err)
	}

	data := domain.SnapshotData{
		Spot:    spot,
		Taken:   asOf,
		Buoy:    buoy,
		Weather: weather,
	}

	if spot.WindyWebcamID != "" {
		capture, err := fetched.windy.ForSpot(spot)
		if err != nil {
			return domain.SnapshotData{}, fmt.Errorf("joining windy capture for %q: %w", spot.Name, err)
		}
		data.Windy = capture
	}
	if spot.IPCamAlias != "" {
		capture, err := fetched.ipcam.ForSpot(spot)
		if err != nil {
			return domain.SnapshotData{}, fmt.Errorf("joining ipcam capture for %q: %w", spot.Name, err)
		}
		data.IPCam = capture
	}

	return data, nil
}
