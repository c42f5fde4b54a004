// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DWD open-data endpoints. Empty values mean the public server.
	BaseURL          string
	ForecastIndexURL string
	FetchTimeout     time.Duration

	// DataDir is the dataset root; WorkDir holds downloaded archives
	// between extraction and parsing.
	DataDir string
	WorkDir string

	// The observation series to sync.
	Resolution string
	Parameter  string

	// ForecastStations narrows the forecast sync to these MOSMIX ids.
	// Empty means every station in the bundled lookup.
	ForecastStations []string

	// Optional measurement window, [DateStart, DateEnd). Zero values mean
	// unbounded.
	DateStart time.Time
	DateEnd   time.Time

	SyncInterval time.Duration

	// Optional Kafka publishing of normalized measurements.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	syncInterval, err := parseDuration("SYNC_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}

	dateStart, err := parseDay("DATE_START")
	if err != nil {
		return nil, err
	}
	dateEnd, err := parseDay("DATE_END")
	if err != nil {
		return nil, err
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		BaseURL:          os.Getenv("DWD_BASE_URL"),
		ForecastIndexURL: os.Getenv("DWD_FORECAST_INDEX_URL"),
		FetchTimeout:     fetchTimeout,

		DataDir: envOrDefault("DATA_DIR", "./data"),
		WorkDir: envOrDefault("WORK_DIR", os.TempDir()),

		Resolution: envOrDefault("RESOLUTION", "10_minutes"),
		Parameter:  envOrDefault("PARAMETER", "air_temperature"),

		ForecastStations: parseList(os.Getenv("FORECAST_STATIONS")),

		DateStart: dateStart,
		DateEnd:   dateEnd,

		SyncInterval: syncInterval,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: parseList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "dwd-measurements"),
	}

	if cfg.Resolution == "" {
		return nil, errors.New("RESOLUTION is required")
	}
	if cfg.Parameter == "" {
		return nil, errors.New("PARAMETER is required")
	}
	if !cfg.DateStart.IsZero() && !cfg.DateEnd.IsZero() && !cfg.DateEnd.After(cfg.DateStart) {
		return nil, errors.New("DATE_END must be after DATE_START")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is not set")
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
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseDay reads an optional YYYYMMDD environment variable.
func parseDay(key string) (time.Time, error) {
	s := os.Getenv(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := domain.ParseDayUTC(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t, nil
}

// parseList splits a comma-separated value, dropping empty entries.
func parseList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
