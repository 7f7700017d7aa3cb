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

// Config holds all service settings, populated from environment variables.
// API tokens and base URLs are configuration, never literals in the core.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Ground-truth AQI feed (WAQI).
	WAQIBaseURL string
	WAQIToken   string
	WAQITimeout time.Duration
	WAQIRateRPS float64

	// Forecast/pollutant/health backend.
	AQAPIBaseURL string
	AQAPITimeout time.Duration
	ForecastDays int

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Persistent store. Empty RedisAddr selects the in-memory store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Alert notification sinks.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaAlertTopic string

	// Alert monitor timing and calibration.
	PollInterval       time.Duration
	AlertCooldown      time.Duration
	CalibrationEpsilon float64

	DefaultLocation string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	waqiTimeout, err := envDuration("WAQI_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	aqapiTimeout, err := envDuration("AQAPI_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := envDuration("MAPBOX_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	pollInterval, err := envDuration("POLL_INTERVAL", 2*time.Hour)
	if err != nil {
		return nil, err
	}
	cooldown, err := envDuration("ALERT_COOLDOWN", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WAQIBaseURL: envOrDefault("WAQI_BASE_URL", "https://api.waqi.info"),
		WAQIToken:   os.Getenv("WAQI_TOKEN"),
		WAQITimeout: waqiTimeout,
		WAQIRateRPS: envFloat("WAQI_RATE_RPS", 1),

		AQAPIBaseURL: envOrDefault("AQAPI_BASE_URL", "http://localhost:8000"),
		AQAPITimeout: aqapiTimeout,
		ForecastDays: envInt("FORECAST_DAYS", 4),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: envInt("MAPBOX_CACHE_SIZE", 1000),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		SMTPHost:     envOrDefault("SMTP_HOST", "localhost"),
		SMTPPort:     envInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     envOrDefault("SMTP_FROM", "air-monitor@example.com"),

		KafkaEnabled:    os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:    splitBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "air-quality-alerts"),

		PollInterval:       pollInterval,
		AlertCooldown:      cooldown,
		CalibrationEpsilon: envFloat("CALIBRATION_EPSILON", 2),

		DefaultLocation: os.Getenv("DEFAULT_LOCATION"),
	}

	if cfg.WAQIToken == "" {
		return nil, errors.New("WAQI_TOKEN is required")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("POLL_INTERVAL must be positive")
	}
	if cfg.AlertCooldown <= 0 {
		return nil, errors.New("ALERT_COOLDOWN must be positive")
	}
	if cfg.CalibrationEpsilon < 0 {
		return nil, errors.New("CALIBRATION_EPSILON must not be negative")
	}
	if cfg.ForecastDays < 1 || cfg.ForecastDays > 7 {
		return nil, errors.New("FORECAST_DAYS must be between 1 and 7")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
