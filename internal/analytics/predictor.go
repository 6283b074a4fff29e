package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/tidelab/surfcast/internal/domain"
	"github.com/tidelab/surfcast/internal/observability"
)

// splitSeed fixes the train/test shuffle so repeated runs on the same data
// produce the same RMSE.
const splitSeed = 42

// ErrNotEnoughSamples is returned when the labeled dataset is too small to
// fit and evaluate a model.
var ErrNotEnoughSamples = errors.New("not enough labeled samples to train")

// Model is an ordinary-least-squares fit over the FeatureRow layout.
// The persisted form records the layout so a stale file is rejected
// instead of misread after a feature change.
type Model struct {
	SpotUID      string    `json:"spot_uid"`
	TrainedAt    time.Time `json:"trained_at"`
	FeatureNames []string  `json:"feature_names"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	RMSE         float64   `json:"rmse"`
}

// Predict evaluates the model on one row.
func (m *Model) Predict(row FeatureRow) float64 {
	score := m.Intercept
	for i, f := range row.Features() {
		score += m.Coefficients[i] * f
	}
	return score
}

// TrainResult reports one training run.
type TrainResult struct {
	RMSE     float64
	Samples  int
	Stored   bool
	Filename string
}

// Prediction pairs a predicted score with the row that produced it, so
// callers can recover the row's hours and units.
type Prediction struct {
	Row   FeatureRow
	Score float64
}

// Predictor trains and applies per-spot regression models. Model files
// live under modelDir, one JSON file per spot UID.
type Predictor struct {
	builder     *Builder
	modelDir    string
	targetShift int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewPredictor creates a Predictor. targetShift is how many samples ahead
// the training target looks.
func NewPredictor(builder *Builder, modelDir string, targetShift int, logger *slog.Logger, metrics *observability.Metrics) *Predictor {
	return &Predictor{
		builder:     builder,
		modelDir:    modelDir,
		targetShift: targetShift,
		logger:      logger,
		metrics:     metrics,
	}
}

// Train fits a model for the spot from its labeled snapshots since from,
// reports RMSE on a held-out 20% split, and persists the model when store
// is set.
func (p *Predictor) Train(ctx context.Context, spot domain.Spot, from time.Time, store bool) (TrainResult, error) {
	rows, err := p.builder.BuildForSpot(ctx, spot, from)
	if err != nil {
		return TrainResult{}, err
	}

	features, targets := shiftedSamples(rows, p.targetShift)

	// OLS needs more equations than unknowns on the training split.
	minSamples := (len(featureNames) + 2) * 5 / 4
	if len(features) < minSamples {
		return TrainResult{}, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughSamples, len(features), minSamples)
	}

	trainX, trainY, testX, testY := split(features, targets)

	model, err := fitOLS(trainX, trainY)
	if err != nil {
		return TrainResult{}, fmt.Errorf("fitting model for %q: %w", spot.Name, err)
	}
	model.SpotUID = spot.UID
	model.TrainedAt = domain.Now()
	model.FeatureNames = featureNames
	model.RMSE = rmse(model, testX, testY)

	p.metrics.TrainingRMSE.WithLabelValues(spot.UID).Set(model.RMSE)
	p.logger.Info("model trained",
		"spot", spot.UID, "samples", len(features), "rmse", model.RMSE)

	result := TrainResult{RMSE: model.RMSE, Samples: len(features)}
	if store {
		filename, err := p.save(model)
		if err != nil {
			return TrainResult{}, err
		}
		result.Stored = true
		result.Filename = filename
	}
	return result, nil
}

// PredictForSpot loads the spot's persisted model and scores every row.
func (p *Predictor) PredictForSpot(spot domain.Spot, rows []FeatureRow) ([]Prediction, error) {
	model, err := p.Load(spot.UID)
	if err != nil {
		return nil, err
	}

	predictions := make([]Prediction, len(rows))
	for i, row := range rows {
		predictions[i] = Prediction{Row: row, Score: model.Predict(row)}
	}
	p.metrics.PredictionsServed.Add(float64(len(predictions)))
	return predictions, nil
}

// Load reads the persisted model for a spot UID. Returns ErrModelNotFound
// when no model has been stored yet.
func (p *Predictor) Load(spotUID string) (*Model, error) {
	data, err := os.ReadFile(p.modelPath(spotUID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, spotUID)
		}
		return nil, fmt.Errorf("reading model for %s: %w", spotUID, err)
	}
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("decoding model for %s: %w", spotUID, err)
	}
	if len(model.FeatureNames) != len(featureNames) {
		return nil, fmt.Errorf("model for %s has stale feature layout, retrain it", spotUID)
	}
	for i, name := range model.FeatureNames {
		if name != featureNames[i] {
			return nil, fmt.Errorf("model for %s has stale feature layout, retrain it", spotUID)
		}
	}
	return &model, nil
}

func (p *Predictor) save(model *Model) (string, error) {
	if err := os.MkdirAll(p.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("creating model dir: %w", err)
	}
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding model: %w", err)
	}
	path := p.modelPath(model.SpotUID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing model: %w", err)
	}
	return path, nil
}

func (p *Predictor) modelPath(spotUID string) string {
	return filepath.Join(p.modelDir, spotUID+".json")
}

// shiftedSamples pairs each labeled row's features with the score observed
// targetShift labeled samples later, producing a look-ahead target.
func shiftedSamples(rows []FeatureRow, targetShift int) ([][]float64, []float64) {
	var labeled []FeatureRow
	for _, row := range rows {
		if row.Score != nil {
			labeled = append(labeled, row)
		}
	}

	n := len(labeled) - targetShift
	if n <= 0 {
		return nil, nil
	}
	features := make([][]float64, n)
	targets := make([]float64, n)
	for i := 0; i < n; i++ {
		features[i] = labeled[i].Features()
		targets[i] = *labeled[i+targetShift].Score
	}
	return features, targets
}

// split shuffles with a fixed seed and carves off 20% as the held-out set.
func split(features [][]float64, targets []float64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	n := len(features)
	perm := rand.New(rand.NewSource(splitSeed)).Perm(n)

	testCount := n / 5
	if testCount == 0 {
		testCount = 1
	}

	for i, idx := range perm {
		if i < n-testCount {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, targets[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, targets[idx])
		}
	}
	return trainX, trainY, testX, testY
}

// fitOLS solves the least-squares system with an intercept column via QR.
func fitOLS(trainX [][]float64, trainY []float64) (*Model, error) {
	rows := len(trainX)
	cols := len(featureNames) + 1

	x := mat.NewDense(rows, cols, nil)
	for i, features := range trainX {
		x.Set(i, 0, 1)
		for j, f := range features {
			x.Set(i, j+1, f)
		}
	}
	y := mat.NewVecDense(rows, trainY)

	var qr mat.QR
	qr.Factorize(x)

	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, y); err != nil {
		return nil, err
	}

	model := &Model{
		Intercept:    coef.AtVec(0),
		Coefficients: make([]float64, len(featureNames)),
	}
	for j := range model.Coefficients {
		model.Coefficients[j] = coef.AtVec(j + 1)
	}
	return model, nil
}

func rmse(model *Model, testX [][]float64, testY []float64) float64 {
	if len(testX) == 0 {
		return 0
	}
	var sum float64
	for i, features := range testX {
		predicted := model.Intercept
		for j, f := range features {
			predicted += model.Coefficients[j] * f
		}
		diff := predicted - testY[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(testX)))
}
