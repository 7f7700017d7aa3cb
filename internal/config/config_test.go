package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWAQIToken = "test-waqi-token"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WAQI_TOKEN", testWAQIToken)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://api.waqi.info", cfg.WAQIBaseURL)
	assert.Equal(t, testWAQIToken, cfg.WAQIToken)
	assert.Equal(t, 10*time.Second, cfg.WAQITimeout)
	assert.Equal(t, float64(1), cfg.WAQIRateRPS)
	assert.Equal(t, "http://localhost:8000", cfg.AQAPIBaseURL)
	assert.Equal(t, 4, cfg.ForecastDays)
	assert.False(t, cfg.MapboxEnabled)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, 2*time.Hour, cfg.PollInterval)
	assert.Equal(t, 24*time.Hour, cfg.AlertCooldown)
	assert.Equal(t, 2.0, cfg.CalibrationEpsilon)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("WAQI_TOKEN", testWAQIToken)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("WAQI_BASE_URL", "http://waqi.local")
	t.Setenv("WAQI_RATE_RPS", "0.5")
	t.Setenv("AQAPI_BASE_URL", "http://backend.local")
	t.Setenv("FORECAST_DAYS", "7")
	t.Setenv("MAPBOX_TOKEN", "pk.test")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_ALERT_TOPIC", "alerts")
	t.Setenv("POLL_INTERVAL", "1h")
	t.Setenv("ALERT_COOLDOWN", "12h")
	t.Setenv("CALIBRATION_EPSILON", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://waqi.local", cfg.WAQIBaseURL)
	assert.Equal(t, 0.5, cfg.WAQIRateRPS)
	assert.Equal(t, "http://backend.local", cfg.AQAPIBaseURL)
	assert.Equal(t, 7, cfg.ForecastDays)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "alerts", cfg.KafkaAlertTopic)
	assert.Equal(t, time.Hour, cfg.PollInterval)
	assert.Equal(t, 12*time.Hour, cfg.AlertCooldown)
	assert.Equal(t, 5.0, cfg.CalibrationEpsilon)
}

func TestLoad_MissingWAQIToken(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WAQI_TOKEN")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("WAQI_TOKEN", testWAQIToken)
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POLL_INTERVAL")
}

func TestLoad_NegativeCooldown(t *testing.T) {
	t.Setenv("WAQI_TOKEN", testWAQIToken)
	t.Setenv("ALERT_COOLDOWN", "-1h")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALERT_COOLDOWN")
}

func TestLoad_ForecastDaysOutOfRange(t *testing.T) {
	t.Setenv("WAQI_TOKEN", testWAQIToken)
	t.Setenv("FORECAST_DAYS", "9")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORECAST_DAYS")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("WAQI_TOKEN", testWAQIToken)
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("WAQI_TOKEN", testWAQIToken)
	t.Setenv("MAPBOX_TOKEN", "pk.test")
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}
