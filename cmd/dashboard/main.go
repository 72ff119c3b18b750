package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-dashboard/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/storm-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/storm-dashboard/internal/adapter/mapbox"
	"github.com/couchcryptid/storm-dashboard/internal/adapter/stormapi"
	"github.com/couchcryptid/storm-dashboard/internal/config"
	"github.com/couchcryptid/storm-dashboard/internal/dashboard"
	"github.com/couchcryptid/storm-dashboard/internal/domain"
	"github.com/couchcryptid/storm-dashboard/internal/maplayer"
	"github.com/couchcryptid/storm-dashboard/internal/observability"
	"github.com/couchcryptid/storm-dashboard/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := stormapi.NewClient(cfg.APIBaseURL, cfg.FetchTimeout, cfg.BreakerFailures, logger)

	// Snapshot publishing is feature-flagged via KAFKA_BROKERS.
	var (
		writer *kafkaadapter.Writer
		opts   []dashboard.Option
	)
	if cfg.SnapshotPublishingEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, dashboard.WithPublisher(writer))
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaSnapshotTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	ctrl := dashboard.NewController(client, domain.NewNormalizer(cfg.APIBaseURL), dashboard.NewStore(), logger, metrics, opts...)

	surface := mapbox.NewSurface(cfg.MapStyleURL, cfg.FetchTimeout, logger)
	layers := maplayer.NewManager(surface, logger, metrics)
	surface.OnLoad(func() {
		if err := layers.MarkReady(); err != nil {
			logger.Error("apply rain layer", "error", err)
		}
	})

	p := pipeline.New(
		pipeline.NewGridExtractor(client, cfg.RainGridSize, cfg.RainDensity),
		pipeline.NewTransformer(logger),
		pipeline.NewLayerLoader(layers),
		logger,
		metrics,
		cfg.RainRefreshInterval,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.AllReady(p, layers), httpadapter.Routes{
		Dashboard:       ctrl,
		Rain:            layers,
		Style:           surface,
		DefaultLanguage: cfg.DefaultLanguage,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Load the map style; the rain layer is applied when it fires OnLoad.
	g.Go(func() error {
		if err := surface.Load(gctx); err != nil {
			logger.Warn("map style load failed, using blank style", "url", cfg.MapStyleURL, "error", err)
			surface.LoadBlank()
		}
		return nil
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	code := 0
	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
		code = 1
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return code
}
