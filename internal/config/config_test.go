package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "https://waterservices.usgs.gov/nwis/iv", cfg.USGSBaseURL)
	assert.Equal(t, "https://api.weather.gov", cfg.NWSBaseURL)
	assert.Equal(t, "https://api.water.noaa.gov/nwps/v1", cfg.NWPSBaseURL)

	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, 24*time.Hour, cfg.GaugeLookback)

	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.WeatherRateInterval)
	assert.Equal(t, 5*time.Second, cfg.GaugeRateInterval)
	assert.Equal(t, time.Second, cfg.PredictionRateInterval)

	assert.Equal(t, 4, cfg.MaxConcurrentRivers)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "flood-risk-assessments", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("USGS_BASE_URL", "http://localhost:7001")
	t.Setenv("NWS_BASE_URL", "http://localhost:7002")
	t.Setenv("NWPS_BASE_URL", "http://localhost:7003")
	t.Setenv("UPSTREAM_TIMEOUT", "8s")
	t.Setenv("RETRY_ATTEMPTS", "5")
	t.Setenv("RETRY_DELAY", "500ms")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("MAX_CONCURRENT_RIVERS", "8")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-assessments")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:7001", cfg.USGSBaseURL)
	assert.Equal(t, "http://localhost:7002", cfg.NWSBaseURL)
	assert.Equal(t, "http://localhost:7003", cfg.NWPSBaseURL)
	assert.Equal(t, 8*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.MaxConcurrentRivers)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-assessments", cfg.KafkaTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeUpstreamTimeout(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPSTREAM_TIMEOUT")
}

func TestLoad_InvalidRetryAttempts(t *testing.T) {
	t.Setenv("RETRY_ATTEMPTS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETRY_ATTEMPTS")
}

func TestLoad_TooManyConcurrentRivers(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_RIVERS", "999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_CONCURRENT_RIVERS")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
