package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/tidelab/surfcast/internal/analytics"
	"github.com/tidelab/surfcast/internal/domain"
	"github.com/tidelab/surfcast/internal/store"
)

// SpotStore reads registered spots. Satisfied by *store.Store.
type SpotStore interface {
	ListSpots(ctx context.Context) (domain.SpotSet, error)
	GetSpotByUID(ctx context.Context, uid string) (domain.Spot, error)
}

// SnapshotStore reads snapshots and attaches assessments.
// Satisfied by *store.Store.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, snapshotID int64) (domain.SpotSnapshot, error)
	CreateAssessment(ctx context.Context, snapshotID int64, score decimal.Decimal) (domain.Assessment, error)
	DiscardSnapshot(ctx context.Context, snapshotID int64) error
}

// FeatureSource builds feature rows for the timeseries surface.
// Satisfied by *analytics.Builder.
type FeatureSource interface {
	BuildForSpot(ctx context.Context, spot domain.Spot, from time.Time) ([]analytics.FeatureRow, error)
}

// ScorePredictor scores feature rows with a spot's persisted model.
// Satisfied by *analytics.Predictor.
type ScorePredictor interface {
	PredictForSpot(spot domain.Spot, rows []analytics.FeatureRow) ([]analytics.Prediction, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the public query surface plus health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer  *http.Server
	spots       SpotStore
	snapshots   SnapshotStore
	features    FeatureSource
	predictor   ScorePredictor
	targetShift int
	logger      *slog.Logger
}

// NewServer wires all routes.
func NewServer(addr string, spots SpotStore, snapshots SnapshotStore, features FeatureSource, predictor ScorePredictor, targetShift int, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		spots:       spots,
		snapshots:   snapshots,
		features:    features,
		predictor:   predictor,
		targetShift: targetShift,
		logger:      logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/spots", s.handleListSpots)
	mux.HandleFunc("GET /api/spots/{uid}/timeseries", s.handleTimeseries)
	mux.HandleFunc("GET /api/snapshots/{id}", s.handleGetSnapshot)
	mux.HandleFunc("POST /api/snapshots/{id}/assessment", s.handleCreateAssessment)
	mux.HandleFunc("POST /api/snapshots/{id}/discard", s.handleDiscardSnapshot)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type spotView struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	Lat  string `json:"lat"`
	Lon  string `json:"lon"`
}

func (s *Server) handleListSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := s.spots.ListSpots(r.Context())
	if err != nil {
		s.serverError(w, "listing spots", err)
		return
	}
	views := make([]spotView, len(spots))
	for i, spot := range spots {
		views[i] = spotView{UID: spot.UID, Name: spot.Name, Lat: spot.Lat, Lon: spot.Lon}
	}
	writeJSON(w, http.StatusOK, views)
}

// handleTimeseries returns the half-hour grid for a spot. When no model
// exists yet the predicted scores are null rather than an error: labeling
// starts before the first training run.
func (s *Server) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	spot, err := s.spots.GetSpotByUID(r.Context(), r.PathValue("uid"))
	if err != nil {
		if errors.Is(err, store.ErrSpotNotFound) {
			writeError(w, http.StatusNotFound, "spot not found")
			return
		}
		s.serverError(w, "loading spot", err)
		return
	}

	from := domain.Now().Add(-24 * time.Hour)
	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be RFC3339")
			return
		}
	}

	rows, err := s.features.BuildForSpot(r.Context(), spot, from)
	if err != nil {
		s.serverError(w, "building features", err)
		return
	}

	predictions, err := s.predictor.PredictForSpot(spot, rows)
	if err != nil && !errors.Is(err, domain.ErrModelNotFound) {
		s.serverError(w, "predicting", err)
		return
	}

	writeJSON(w, http.StatusOK, analytics.JoinGrid(rows, predictions, s.targetShift))
}

type weatherView struct {
	Temperature   string  `json:"temperature"`
	RH            string  `json:"rh"`
	DewPoint      string  `json:"dew_point"`
	DailyRain     *string `json:"daily_rain"`
	Pressure      string  `json:"pressure"`
	WindDirection string  `json:"wind_direction"`
	WindCardinal  string  `json:"wind_cardinal"`
	WindSpeed     string  `json:"wind_speed"`
}

type webcamView struct {
	Provider      string `json:"provider"`
	Title         string `json:"title,omitempty"`
	Status        string `json:"status,omitempty"`
	ViewCount     int    `json:"view_count,omitempty"`
	LastUpdatedOn string `json:"last_updated_on,omitempty"`
	PreviewPath   string `json:"preview_path"`
}

type snapshotView struct {
	ID            int64              `json:"id"`
	SpotUID       string             `json:"spot_uid"`
	SpotName      string             `json:"spot_name"`
	Taken         time.Time          `json:"taken"`
	Discarded     bool               `json:"discarded"`
	Buoy          domain.BuoySummary `json:"buoy"`
	Weather       weatherView        `json:"weather"`
	Webcams       []webcamView       `json:"webcams"`
	WaveSizeScore *string            `json:"wave_size_score"`
}

// handleGetSnapshot serves the flat projection the labeling screen works
// from: latest buoy readings with delay, weather essentials, and webcam
// previews.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}

	view := snapshotView{
		ID:        snapshot.ID,
		SpotUID:   snapshot.Spot.UID,
		SpotName:  snapshot.Spot.Name,
		Taken:     snapshot.Created,
		Discarded: snapshot.Discarded,
		Buoy:      snapshot.Buoy.SummaryView(),
		Weather: weatherView{
			Temperature:   snapshot.Weather.Temperature,
			RH:            snapshot.Weather.RH,
			DewPoint:      snapshot.Weather.DewPoint,
			DailyRain:     snapshot.Weather.DailyRain,
			Pressure:      snapshot.Weather.Pressure,
			WindDirection: snapshot.Weather.WindDirection,
			WindCardinal:  snapshot.Weather.WindCardinal,
			WindSpeed:     snapshot.Weather.WindSpeed,
		},
	}
	for _, capture := range []domain.WebcamCapture{snapshot.Windy, snapshot.IPCam} {
		if capture.Provider == "" {
			continue
		}
		view.Webcams = append(view.Webcams, webcamView{
			Provider:      capture.Provider,
			Title:         capture.Title,
			Status:        capture.Status,
			ViewCount:     capture.ViewCount,
			LastUpdatedOn: capture.LastUpdatedOn,
			PreviewPath:   capture.PreviewPath,
		})
	}
	if snapshot.Assessment != nil {
		score := snapshot.Assessment.WaveSizeScore.String()
		view.WaveSizeScore = &score
	}

	writeJSON(w, http.StatusOK, view)
}

type assessmentRequest struct {
	WaveSizeScore string `json:"wave_size_score"`
}

type assessmentView struct {
	ID            int64     `json:"id"`
	SnapshotID    int64     `json:"snapshot_id"`
	WaveSizeScore string    `json:"wave_size_score"`
	Created       time.Time `json:"created"`
}

func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}

	var req assessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	score, err := decimal.NewFromString(req.WaveSizeScore)
	if err != nil {
		writeError(w, http.StatusBadRequest, "wave_size_score must be a decimal string")
		return
	}
	if err := domain.ValidateScore(score); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assessment, err := s.snapshots.CreateAssessment(r.Context(), snapshot.ID, score)
	if err != nil {
		if errors.Is(err, domain.ErrAssessmentExists) {
			writeError(w, http.StatusConflict, "snapshot already assessed")
			return
		}
		s.serverError(w, "creating assessment", err)
		return
	}

	writeJSON(w, http.StatusCreated, assessmentView{
		ID:            assessment.ID,
		SnapshotID:    assessment.SnapshotID,
		WaveSizeScore: assessment.WaveSizeScore.String(),
		Created:       assessment.Created,
	})
}

// handleDiscardSnapshot soft-discards a snapshot so it no longer feeds
// training. The snapshot itself stays readable.
func (s *Server) handleDiscardSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "snapshot id must be an integer")
		return
	}

	if err := s.snapshots.DiscardSnapshot(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrSnapshotNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found")
			return
		}
		s.serverError(w, "discarding snapshot", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "discarded": true})
}

func (s *Server) loadSnapshot(w http.ResponseWriter, r *http.Request) (domain.SpotSnapshot, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "snapshot id must be an integer")
		return domain.SpotSnapshot{}, false
	}
	snapshot, err := s.snapshots.GetSnapshot(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrSnapshotNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found")
			return domain.SpotSnapshot{}, false
		}
		s.serverError(w, "loading snapshot", err)
		return domain.SpotSnapshot{}, false
	}
	return snapshot, true
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
