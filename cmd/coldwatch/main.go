package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/arcticlab/coldwatch/internal/adapter/cache"
	"github.com/arcticlab/coldwatch/internal/adapter/envcanada"
	httpadapter "github.com/arcticlab/coldwatch/internal/adapter/http"
	kafkaadapter "github.com/arcticlab/coldwatch/internal/adapter/kafka"
	"github.com/arcticlab/coldwatch/internal/adapter/noaa"
	"github.com/arcticlab/coldwatch/internal/config"
	"github.com/arcticlab/coldwatch/internal/isd"
	"github.com/arcticlab/coldwatch/internal/observability"
	"github.com/arcticlab/coldwatch/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	fileCache, err := cache.New(cfg.CacheDir, nil)
	if err != nil {
		logger.Error("failed to create cache dir", "error", err)
		os.Exit(1)
	}

	historyFetcher := noaa.NewHistoryFetcher(
		cfg.HistoryURL, cfg.HistoryTimeout, cfg.HistoryCacheTTL, fileCache, logger, metrics)
	resolver := isd.NewResolver(historyFetcher, cfg.StationTableTTL, logger, metrics, nil)

	synopFetcher := noaa.NewSynopFetcher(noaa.SynopConfig{
		BaseURL:    cfg.SynopBaseURL,
		Timeout:    cfg.SynopTimeout,
		CacheTTL:   cfg.SynopCacheTTL,
		BatchSize:  cfg.SynopBatchSize,
		BatchPause: cfg.SynopBatchPause,
	}, logger, metrics, nil)

	sources := []pipeline.ObservationSource{
		// Priority order: reconciliation prefers earlier sources.
		pipeline.NewSynopSource(synopFetcher, resolver, logger),
		noaa.NewMetarFetcher(
			cfg.MetarURL, cfg.MetarTimeout, cfg.MetarCacheTTL, fileCache, logger, metrics),
		envcanada.NewScraper(cfg.ECBaseURL, &http.Client{Timeout: cfg.ECTimeout}, logger),
	}

	// Kafka export is feature-flagged; without brokers the service just serves HTTP.
	var publisher pipeline.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = kafkaPublisher
		logger.Info("kafka export enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka export disabled")
	}

	service := pipeline.NewService(sources, publisher, logger, metrics, cfg.SourceTimeout)

	srv := httpadapter.NewServer(cfg.HTTPAddr, service, service, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the caches and the readiness flag so the first request does not
	// pay the full fan-out.
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, 2*cfg.SourceTimeout)
		defer cancel()
		if _, err := service.ColdestReport(warmCtx); err != nil {
			logger.Warn("initial ranking failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

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
