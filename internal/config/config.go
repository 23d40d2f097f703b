package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream service endpoints.
	USGSBaseURL string
	NWSBaseURL  string
	NWPSBaseURL string
	UserAgent   string

	// Upstream call discipline.
	UpstreamTimeout time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	GaugeLookback   time.Duration

	// Cache and rate gate.
	CacheTTL               time.Duration
	WeatherRateInterval    time.Duration
	GaugeRateInterval      time.Duration
	PredictionRateInterval time.Duration

	// Assessment fan-out.
	MaxConcurrentRivers int

	// Kafka assessment publishing (optional).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	retryDelay, err := parseDuration("RETRY_DELAY", "2s")
	if err != nil {
		return nil, err
	}
	lookback, err := parseDuration("GAUGE_LOOKBACK", "24h")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	weatherInterval, err := parseDuration("WEATHER_RATE_INTERVAL", "10s")
	if err != nil {
		return nil, err
	}
	gaugeInterval, err := parseDuration("GAUGE_RATE_INTERVAL", "5s")
	if err != nil {
		return nil, err
	}
	predictionInterval, err := parseDuration("PREDICTION_RATE_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}

	retryAttempts, err := parseInt("RETRY_ATTEMPTS", 3, 1, 10)
	if err != nil {
		return nil, err
	}
	maxRivers, err := parseInt("MAX_CONCURRENT_RIVERS", 4, 1, 32)
	if err != nil {
		return nil, err
	}

	kafkaBrokers := parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092"))
	kafkaEnabled := envOrDefault("KAFKA_ENABLED", "false") == "true"

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		USGSBaseURL: envOrDefault("USGS_BASE_URL", "https://waterservices.usgs.gov/nwis/iv"),
		NWSBaseURL:  envOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		NWPSBaseURL: envOrDefault("NWPS_BASE_URL", "https://api.water.noaa.gov/nwps/v1"),
		UserAgent:   envOrDefault("HTTP_USER_AGENT", "flood-risk-engine/1.0"),

		UpstreamTimeout: upstreamTimeout,
		RetryAttempts:   retryAttempts,
		RetryDelay:      retryDelay,
		GaugeLookback:   lookback,

		CacheTTL:               cacheTTL,
		WeatherRateInterval:    weatherInterval,
		GaugeRateInterval:      gaugeInterval,
		PredictionRateInterval: predictionInterval,

		MaxConcurrentRivers: maxRivers,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "flood-risk-assessments"),
	}

	if cfg.USGSBaseURL == "" {
		return nil, fmt.Errorf("USGS_BASE_URL is required")
	}
	if cfg.NWSBaseURL == "" {
		return nil, fmt.Errorf("NWS_BASE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, fmt.Errorf("KAFKA_ENABLED is true but KAFKA_TOPIC is not set")
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
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, fallback, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("invalid %s: %q (want %d-%d)", key, s, min, max)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
