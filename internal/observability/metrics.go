package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for
// snapshot assembly and prediction.
type Metrics struct {
	SnapshotsTaken   prometheus.Counter
	AssemblyFailures prometheus.Counter
	AssemblyDuration prometheus.Histogram

	// Per-source fetch metrics.
	FetchDuration *prometheus.HistogramVec // label: source={buoy,weather,windy,ipcam}
	FetchErrors   *prometheus.CounterVec   // label: source

	// Analytics metrics.
	RowsSkippedShortSeries prometheus.Counter
	TrainingRMSE           *prometheus.GaugeVec // label: spot
	PredictionsServed      prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SnapshotsTaken: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "surfcast",
			Name:      "snapshots_taken_total",
			Help:      "Total spot snapshots committed.",
		}),
		AssemblyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "surfcast",
			Name:      "assembly_failures_total",
			Help:      "Total assembly runs aborted before commit.",
		}),
		AssemblyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "surfcast",
			Name:      "assembly_duration_seconds",
			Help:      "Duration of a complete fetch-join-persist assembly run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "surfcast",
			Name:      "fetch_duration_seconds",
			Help:      "External provider fetch duration by source.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surfcast",
			Name:      "fetch_errors_total",
			Help:      "External provider fetch failures by source.",
		}, []string{"source"}),
		RowsSkippedShortSeries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "surfcast",
			Name:      "feature_rows_skipped_total",
			Help:      "Feature rows dropped because a lag window had no data.",
		}),
		TrainingRMSE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "surfcast",
			Name:      "training_rmse",
			Help:      "RMSE of the last training run per spot.",
		}, []string{"spot"}),
		PredictionsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "surfcast",
			Name:      "predictions_served_total",
			Help:      "Predictions returned by the query surface.",
		}),
	}

	prometheus.MustRegister(
		m.SnapshotsTaken,
		m.AssemblyFailures,
		m.AssemblyDuration,
		m.FetchDuration,
		m.FetchErrors,
		m.RowsSkippedShortSeries,
		m.TrainingRMSE,
		m.PredictionsServed,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SnapshotsTaken:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "surfcast", Name: "snapshots_taken_total"}),
		AssemblyFailures:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "surfcast", Name: "assembly_failures_total"}),
		AssemblyDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "surfcast", Name: "assembly_duration_seconds"}),
		FetchDuration:          prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "surfcast", Name: "fetch_duration_seconds"}, []string{"source"}),
		FetchErrors:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "surfcast", Name: "fetch_errors_total"}, []string{"source"}),
		RowsSkippedShortSeries: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "surfcast", Name: "feature_rows_skipped_total"}),
		TrainingRMSE:           prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "surfcast", Name: "training_rmse"}, []string{"spot"}),
		PredictionsServed:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "surfcast", Name: "predictions_served_total"}),
	}
}
