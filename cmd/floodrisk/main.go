package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/flood-risk-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-risk-engine/internal/adapter/kafka"
	"github.com/couchcryptid/flood-risk-engine/internal/adapter/nwps"
	"github.com/couchcryptid/flood-risk-engine/internal/adapter/nws"
	"github.com/couchcryptid/flood-risk-engine/internal/adapter/usgs"
	"github.com/couchcryptid/flood-risk-engine/internal/cache"
	"github.com/couchcryptid/flood-risk-engine/internal/config"
	"github.com/couchcryptid/flood-risk-engine/internal/domain"
	"github.com/couchcryptid/flood-risk-engine/internal/engine"
	"github.com/couchcryptid/flood-risk-engine/internal/observability"
	"github.com/couchcryptid/flood-risk-engine/internal/retry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	clock := clockwork.NewRealClock()
	policy := retry.Policy{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay}

	gate := cache.NewRateGate(clock, map[string]time.Duration{
		usgs.RateClass:             cfg.GaugeRateInterval,
		nws.RateClass:              cfg.WeatherRateInterval,
		engine.PredictionRateClass: cfg.PredictionRateInterval,
	})

	gauges := usgs.NewCachedGaugeService(
		usgs.NewClient(cfg.USGSBaseURL, cfg.UserAgent, cfg.UpstreamTimeout, policy, metrics, logger),
		cache.NewTTLCache[domain.GaugeSite](clock),
		cache.NewTTLCache[[]domain.GaugeSite](clock),
		gate, cfg.CacheTTL, metrics,
	)
	weather := nws.NewCachedWeatherService(
		nws.NewClient(cfg.NWSBaseURL, cfg.UserAgent, cfg.UpstreamTimeout, policy, metrics, logger),
		cache.NewTTLCache[[]domain.ForecastPeriod](clock),
		cache.NewTTLCache[domain.Observation](clock),
		gate, cfg.CacheTTL, metrics,
	)
	floodStages := nwps.NewClient(cfg.NWPSBaseURL, cfg.UserAgent, cfg.UpstreamTimeout, policy, metrics, logger)

	// Kafka publishing is feature-flagged via KAFKA_ENABLED.
	var publisher engine.AssessmentPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	eng := engine.New(gauges, weather, floodStages, publisher, gate,
		cfg.GaugeLookback, cfg.MaxConcurrentRivers, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, eng, eng, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	metrics.ServiceUp.Set(1)

	<-ctx.Done()
	logger.Info("shutting down")
	metrics.ServiceUp.Set(0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
