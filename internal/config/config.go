package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabasePath string
	ImageDir     string
	ModelDir     string
	HTTPAddr     string
	LogLevel     string
	LogFormat    string

	ShutdownTimeout time.Duration
	FetchTimeout    time.Duration

	// Provider credentials.
	MeteoToken  string
	WindyAPIKey string

	// Daylight guard reference point.
	DaylightLat float64
	DaylightLon float64

	// TargetShift is how many half-hour grid steps ahead the predictor
	// targets when joining features against assessed scores.
	TargetShift int

	// Kafka snapshot publishing (enabled when KAFKA_BROKERS is set).
	KafkaBrokers       []string
	KafkaSnapshotTopic string
	KafkaEnabled       bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	daylightLat, err := parseFloat("DAYLIGHT_LAT", "43.9257971")
	if err != nil {
		return nil, err
	}
	daylightLon, err := parseFloat("DAYLIGHT_LON", "10.1960908")
	if err != nil {
		return nil, err
	}

	targetShift, err := parseInt("TARGET_SHIFT", "2")
	if err != nil {
		return nil, err
	}
	if targetShift < 0 {
		return nil, errors.New("TARGET_SHIFT must not be negative")
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))

	cfg := &Config{
		DatabasePath: envOrDefault("DATABASE_PATH", "surfcast.db"),
		ImageDir:     envOrDefault("IMAGE_DIR", "images"),
		ModelDir:     envOrDefault("MODEL_DIR", "models"),
		HTTPAddr:     envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		LogFormat:    envOrDefault("LOG_FORMAT", "json"),

		ShutdownTimeout: shutdownTimeout,
		FetchTimeout:    fetchTimeout,

		MeteoToken:  os.Getenv("METEO_TOKEN"),
		WindyAPIKey: os.Getenv("WINDY_API_KEY"),

		DaylightLat: daylightLat,
		DaylightLon: daylightLon,
		TargetShift: targetShift,

		KafkaBrokers:       brokers,
		KafkaSnapshotTopic: envOrDefault("KAFKA_SNAPSHOT_TOPIC", "surfcast-snapshots"),
		KafkaEnabled:       len(brokers) > 0,
	}

	if cfg.DatabasePath == "" {
		return nil, errors.New("DATABASE_PATH is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_SNAPSHOT_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseFloat(key, fallback string) (float64, error) {
	f, err := strconv.ParseFloat(envOrDefault(key, fallback), 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return f, nil
}

func parseInt(key, fallback string) (int, error) {
	n, err := strconv.Atoi(envOrDefault(key, fallback))
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
