package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/air-quality-monitor/internal/adapter/aqapi"
	httpadapter "github.com/couchcryptid/air-quality-monitor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/air-quality-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/air-quality-monitor/internal/adapter/mapbox"
	"github.com/couchcryptid/air-quality-monitor/internal/adapter/waqi"
	"github.com/couchcryptid/air-quality-monitor/internal/config"
	"github.com/couchcryptid/air-quality-monitor/internal/dashboard"
	"github.com/couchcryptid/air-quality-monitor/internal/domain"
	"github.com/couchcryptid/air-quality-monitor/internal/monitor"
	"github.com/couchcryptid/air-quality-monitor/internal/notify"
	"github.com/couchcryptid/air-quality-monitor/internal/observability"
	"github.com/couchcryptid/air-quality-monitor/internal/session"
	"github.com/couchcryptid/air-quality-monitor/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Alert state store; redis keeps cooldowns across restarts.
	var alertStore store.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		alertStore = store.NewRedis(client)
		logger.Info("using redis store", "addr", cfg.RedisAddr)
	} else {
		alertStore = store.NewMemory()
		logger.Info("using in-memory store, alert state will not survive restarts")
	}

	sess := session.New(cfg.DefaultLocation)

	// Upstream clients.
	aqiProvider := waqi.NewLimited(waqi.NewClient(waqi.Options{
		BaseURL: cfg.WAQIBaseURL,
		Token:   cfg.WAQIToken,
		Timeout: cfg.WAQITimeout,
		Logger:  logger,
		Metrics: metrics,
	}), cfg.WAQIRateRPS, 1)

	backend := aqapi.NewClient(aqapi.Options{
		BaseURL: cfg.AQAPIBaseURL,
		Timeout: cfg.AQAPITimeout,
		Logger:  logger,
		Metrics: metrics,
	})

	// Geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Notification sinks.
	sinks := []domain.Notifier{notify.NewEmail(notify.EmailOptions{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Logger:   logger,
	})}
	var alertPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		alertPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		sinks = append(sinks, alertPublisher)
		logger.Info("kafka alert publishing enabled", "topic", cfg.KafkaAlertTopic)
	}
	notifier := notify.NewMulti(logger, sinks...)

	dash := dashboard.New(dashboard.Options{
		AQI:          aqiProvider,
		Forecast:     backend,
		Pollutants:   backend,
		Health:       backend,
		Session:      sess,
		Logger:       logger,
		Metrics:      metrics,
		ForecastDays: cfg.ForecastDays,
		Epsilon:      cfg.CalibrationEpsilon,
	})

	mon := monitor.New(monitor.Options{
		Provider:     aqiProvider,
		Notifier:     notifier,
		Store:        alertStore,
		Session:      sess,
		Logger:       logger,
		Metrics:      metrics,
		PollInterval: cfg.PollInterval,
		Cooldown:     cfg.AlertCooldown,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Session:   sess,
		Dashboard: dash,
		Monitor:   mon,
		Geocoder:  geocoder,
		Ready:     dash,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resume monitoring for a subscription persisted by a previous run.
	if sub, found, err := store.GetSubscription(ctx, alertStore); err != nil {
		logger.Error("read persisted subscription", "error", err)
	} else if found {
		if err := mon.Start(ctx, sub); err != nil {
			logger.Error("resume alert monitoring", "error", err)
		} else {
			logger.Info("alert monitoring resumed", "email", sub.Email)
		}
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start dashboard refresher.
	go func() {
		if err := dash.Run(ctx); err != nil {
			logger.Error("dashboard refresher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	mon.Stop()
	if alertPublisher != nil {
		if err := alertPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
