package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tidelab/surfcast/internal/adapter/buoy"
	"github.com/tidelab/surfcast/internal/adapter/httpapi"
	"github.com/tidelab/surfcast/internal/adapter/ipcam"
	kafkaadapter "github.com/tidelab/surfcast/internal/adapter/kafka"
	"github.com/tidelab/surfcast/internal/adapter/meteo"
	"github.com/tidelab/surfcast/internal/adapter/windy"
	"github.com/tidelab/surfcast/internal/analytics"
	"github.com/tidelab/surfcast/internal/assembler"
	"github.com/tidelab/surfcast/internal/config"
	"github.com/tidelab/surfcast/internal/domain"
	"github.com/tidelab/surfcast/internal/observability"
	"github.com/tidelab/surfcast/internal/store"
)

const usage = `usage: surfcast <command> [flags]

commands:
  serve            run the HTTP API
  take-snapshots   run one snapshot assembly for all spots [--force]
  train            train the score model for a spot: --spot <uid> [--store] [--from RFC3339]
  create-dev-spot  create the development fixture spot (idempotent)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	switch os.Args[1] {
	case "serve":
		err = runServe(cfg, logger, metrics)
	case "take-snapshots":
		err = runTakeSnapshots(cfg, logger, metrics, os.Args[2:])
	case "train":
		err = runTrain(cfg, logger, metrics, os.Args[2:])
	case "create-dev-spot":
		err = runCreateDevSpot(cfg, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runServe(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	st, err := store.Open(cfg.DatabasePath, cfg.ImageDir, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	builder := analytics.NewBuilder(st, logger, metrics)
	predictor := analytics.NewPredictor(builder, cfg.ModelDir, cfg.TargetShift, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, st, st, builder, predictor, cfg.TargetShift, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// The assembler consumes its sources through narrow interfaces; these
// wrappers adapt each concrete adapter's result set to them.
type buoySource struct{ adapter *buoy.Adapter }

func (s buoySource) FetchCurrent(ctx context.Context, spots domain.SpotSet, asOf time.Time) (assembler.BuoyResults, error) {
	return s.adapter.FetchCurrent(ctx, spots, asOf)
}

type weatherSource struct{ adapter *meteo.Adapter }

func (s weatherSource) FetchCurrent(ctx context.Context, spots domain.SpotSet, asOf time.Time) (assembler.WeatherResults, error) {
	return s.adapter.FetchCurrent(ctx, spots, asOf)
}

type windySource struct{ adapter *windy.Adapter }

func (s windySource) FetchCurrent(ctx context.Context, spots domain.SpotSet, asOf time.Time) (assembler.WebcamResults, error) {
	return s.adapter.FetchCurrent(ctx, spots, asOf)
}

type ipcamSource struct{ adapter *ipcam.Adapter }

func (s ipcamSource) FetchCurrent(ctx context.Context, spots domain.SpotSet, asOf time.Time) (assembler.WebcamResults, error) {
	return s.adapter.FetchCurrent(ctx, spots, asOf)
}

func runTakeSnapshots(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, args []string) error {
	flags := flag.NewFlagSet("take-snapshots", flag.ExitOnError)
	force := flags.Bool("force", false, "bypass the daylight guard")
	if err := flags.Parse(args); err != nil {
		return err
	}

	st, err := store.Open(cfg.DatabasePath, cfg.ImageDir, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	spots, err := st.ListSpots(ctx)
	if err != nil {
		return err
	}

	sources := assembler.Sources{
		Buoy:    buoySource{buoy.NewAdapter(buoy.NewClient(cfg.FetchTimeout, logger), logger)},
		Weather: weatherSource{meteo.NewAdapter(meteo.NewClient(cfg.MeteoToken, cfg.FetchTimeout, logger), logger)},
		Windy:   windySource{windy.NewAdapter(windy.NewClient(cfg.WindyAPIKey, cfg.FetchTimeout, logger), logger)},
		IPCam:   ipcamSource{ipcam.NewAdapter(ipcam.NewClient(cfg.FetchTimeout, logger), logger)},
	}

	var publisher assembler.EventPublisher
	if cfg.KafkaEnabled {
		p := kafkaadapter.NewPublisher(cfg, logger)
		defer p.Close()
		publisher = p
		logger.Info("snapshot event publishing enabled", "topic", cfg.KafkaSnapshotTopic)
	}

	guard := domain.DaylightGuard{Lat: cfg.DaylightLat, Lon: cfg.DaylightLon}
	asm := assembler.New(sources, st, publisher, guard, logger, metrics)

	snapshots, err := asm.Run(ctx, spots, *force)
	if err != nil {
		return err
	}
	for _, snapshot := range snapshots {
		fmt.Printf("snapshot %d created for %s\n", snapshot.ID, snapshot.Spot.Name)
	}
	return nil
}

func runTrain(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, args []string) error {
	flags := flag.NewFlagSet("train", flag.ExitOnError)
	spotUID := flags.String("spot", "", "spot uid to train for (required)")
	storeModel := flags.Bool("store", false, "persist the trained model")
	fromStr := flags.String("from", "", "only use snapshots created at/after this RFC3339 time")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *spotUID == "" {
		return errors.New("--spot is required")
	}
	var from time.Time
	if *fromStr != "" {
		var err error
		from, err = time.Parse(time.RFC3339, *fromStr)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}

	st, err := store.Open(cfg.DatabasePath, cfg.ImageDir, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	spot, err := st.GetSpotByUID(ctx, *spotUID)
	if err != nil {
		return err
	}

	builder := analytics.NewBuilder(st, logger, metrics)
	predictor := analytics.NewPredictor(builder, cfg.ModelDir, cfg.TargetShift, logger, metrics)

	result, err := predictor.Train(ctx, spot, from, *storeModel)
	if err != nil {
		return err
	}

	fmt.Printf("trained on %d samples, rmse %.4f\n", result.Samples, result.RMSE)
	if result.Stored {
		fmt.Printf("model stored at %s\n", result.Filename)
	}
	return nil
}

// Development fixture: a real spot on the Versilia coast wired to the
// Gorgona buoy and both webcam providers.
func runCreateDevSpot(cfg *config.Config, logger *slog.Logger) error {
	st, err := store.Open(cfg.DatabasePath, cfg.ImageDir, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	const name = "Pontile Marina di Pietrasanta"
	if existing, err := st.GetSpotByName(ctx, name); err == nil {
		fmt.Printf("spot %q already exists (uid %s)\n", existing.Name, existing.UID)
		return nil
	} else if !errors.Is(err, store.ErrSpotNotFound) {
		return err
	}

	spot, err := st.CreateSpot(ctx, domain.Spot{
		Name:          name,
		Lat:           "43.9257971",
		Lon:           "10.1960908",
		BuoyStation:   domain.StationGorgona,
		WindyWebcamID: "1655061161",
		IPCamAlias:    "6241bbf538321",
	})
	if err != nil {
		return err
	}

	fmt.Printf("spot %q created (uid %s)\n", spot.Name, spot.UID)
	return nil
}
