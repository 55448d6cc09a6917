// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default upstream endpoints. All overridable for tests and mirrors.
const (
	defaultMetarURL     = "https://aviationweather.gov/data/cache/metars.cache.csv.gz"
	defaultSynopBaseURL = "https://tgftp.nws.noaa.gov/data/observations/synoptic"
	defaultHistoryURL   = "https://www.ncei.noaa.gov/pub/data/noaa/isd-history.txt"
	defaultECBaseURL    = "https://weather.gc.ca/past_conditions/index_e.html"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	CacheDir string

	// Per-source fetch budget; a source that exceeds it contributes nothing.
	SourceTimeout time.Duration

	MetarURL      string
	MetarTimeout  time.Duration
	MetarCacheTTL time.Duration

	SynopBaseURL    string
	SynopTimeout    time.Duration
	SynopCacheTTL   time.Duration
	SynopBatchSize  int
	SynopBatchPause time.Duration

	HistoryURL      string
	HistoryTimeout  time.Duration
	HistoryCacheTTL time.Duration
	StationTableTTL time.Duration

	ECBaseURL string
	ECTimeout time.Duration

	// Kafka export; disabled unless brokers are configured.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is merged in first for local
// development; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:  envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
		CacheDir:  envOrDefault("CACHE_DIR", ".cache"),

		MetarURL:     envOrDefault("METAR_URL", defaultMetarURL),
		SynopBaseURL: envOrDefault("SYNOP_BASE_URL", defaultSynopBaseURL),
		HistoryURL:   envOrDefault("ISD_HISTORY_URL", defaultHistoryURL),
		ECBaseURL:    envOrDefault("EC_BASE_URL", defaultECBaseURL),

		KafkaTopic: envOrDefault("KAFKA_TOPIC", "coldwatch-observations"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = parseBrokers(brokers)
	}
	cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	durations := []struct {
		dst  *time.Duration
		name string
		def  string
	}{
		{&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT", "30s"},
		{&cfg.SourceTimeout, "SOURCE_TIMEOUT", "90s"},
		{&cfg.MetarTimeout, "METAR_TIMEOUT", "30s"},
		{&cfg.MetarCacheTTL, "METAR_CACHE_TTL", "1h"},
		{&cfg.SynopTimeout, "SYNOP_TIMEOUT", "15s"},
		{&cfg.SynopCacheTTL, "SYNOP_CACHE_TTL", "3h"},
		{&cfg.SynopBatchPause, "SYNOP_BATCH_PAUSE", "500ms"},
		{&cfg.HistoryTimeout, "ISD_HISTORY_TIMEOUT", "60s"},
		{&cfg.HistoryCacheTTL, "ISD_HISTORY_CACHE_TTL", "24h"},
		{&cfg.StationTableTTL, "STATION_TABLE_TTL", "24h"},
		{&cfg.ECTimeout, "EC_TIMEOUT", "15s"},
	}
	for _, d := range durations {
		v, err := parseDuration(d.name, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	batchSize, err := parsePositiveInt("SYNOP_BATCH_SIZE", 10)
	if err != nil {
		return nil, err
	}
	cfg.SynopBatchSize = batchSize

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	v, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
