package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/quake-region-analytics/internal/adapter/http"
	"github.com/couchcryptid/quake-region-analytics/internal/adapter/usgs"
	"github.com/couchcryptid/quake-region-analytics/internal/config"
	"github.com/couchcryptid/quake-region-analytics/internal/domain"
	"github.com/couchcryptid/quake-region-analytics/internal/observability"
	"github.com/couchcryptid/quake-region-analytics/internal/pipeline"
	"github.com/couchcryptid/quake-region-analytics/internal/region"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	index, err := region.LoadIndex(cfg.RegionsPath)
	if err != nil {
		logger.Error("failed to load region definitions", "path", cfg.RegionsPath, "error", err)
		os.Exit(1)
	}
	metrics.RegionsLoaded.Set(float64(index.Len()))
	logger.Info("region index loaded", "path", cfg.RegionsPath, "regions", index.Len())

	strategy, err := region.ParseStrategy(cfg.RegionStrategy)
	if err != nil {
		logger.Error("invalid region strategy", "error", err)
		os.Exit(1)
	}
	resolvers := map[region.Strategy]region.Resolver{
		region.StrategyBoundingBox: region.NewBoundingBoxResolver(index),
		region.StrategyPolygon:     region.NewPolygonResolver(index),
	}

	client := usgs.NewClient(cfg.FeedURL, cfg.FeedTimeout, logger)
	cache := usgs.NewFeedCache(client, cfg.FeedTTL, clockwork.NewRealClock(), cfg.FeedStaleFallback, logger, metrics)
	logger.Info("live feed configured",
		"url", cfg.FeedURL,
		"timeout", cfg.FeedTimeout,
		"ttl", cfg.FeedTTL,
		"stale_fallback", cfg.FeedStaleFallback,
	)

	weights := domain.RiskWeights{
		Count:        cfg.RiskCountWeight,
		AvgMagnitude: cfg.RiskAvgWeight,
		MaxMagnitude: cfg.RiskMaxWeight,
	}

	coordinator := pipeline.NewCoordinator(resolvers, strategy, cache, weights, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, coordinator, coordinator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
