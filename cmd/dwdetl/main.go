// Command dwdetl runs the DWD open-data sync service: it periodically
// discovers, downloads, and parses observation archives and MOSMIX
// forecast bundles, and persists the normalized records as partitioned
// Parquet datasets.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/climatehub/dwd-cdc-etl/internal/adapter/cdc"
	"github.com/climatehub/dwd-cdc-etl/internal/adapter/httpserver"
	kafkaadapter "github.com/climatehub/dwd-cdc-etl/internal/adapter/kafka"
	"github.com/climatehub/dwd-cdc-etl/internal/adapter/parquetsink"
	"github.com/climatehub/dwd-cdc-etl/internal/config"
	"github.com/climatehub/dwd-cdc-etl/internal/domain"
	"github.com/climatehub/dwd-cdc-etl/internal/lookup"
	"github.com/climatehub/dwd-cdc-etl/internal/observability"
	"github.com/climatehub/dwd-cdc-etl/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	client := cdc.NewClient(cfg.BaseURL, cfg.ForecastIndexURL, cfg.FetchTimeout, logger)
	sink := parquetsink.NewWriter(cfg.DataDir, clock, logger)
	stations := lookup.Default()

	// Kafka publishing is feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.Publisher
	var kafkaPub *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = kafkaPub
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	forecastIDs := stations.ForecastIDs()
	if len(cfg.ForecastStations) > 0 {
		if err := domain.ValidateStationFilter(cfg.ForecastStations, stations.HasForecastID); err != nil {
			logger.Error("invalid forecast station filter", "error", err)
			os.Exit(1)
		}
		forecastIDs = cfg.ForecastStations
	}

	request := domain.FetchRequest{
		Resolution: cfg.Resolution,
		Parameter:  cfg.Parameter,
		Start:      cfg.DateStart,
		End:        cfg.DateEnd,
	}
	obsJob := pipeline.NewObservationJob(client, sink, publisher, request, cfg.WorkDir, clock, logger, metrics)
	fcJob := pipeline.NewForecastJob(client, sink, domain.ForecastOptions{
		StationIDs: forecastIDs,
	}, logger, metrics)

	p := pipeline.New(obsJob, fcJob, cfg.SyncInterval, clock, logger, metrics)

	srv := httpserver.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start sync loop.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
