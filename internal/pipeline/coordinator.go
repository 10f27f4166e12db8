// Package pipeline composes the region resolvers, the aggregation engine,
// and the live feed cache behind the single query surface the rendering
// layer talks to.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-region-analytics/internal/domain"
	"github.com/couchcryptid/quake-region-analytics/internal/observability"
	"github.com/couchcryptid/quake-region-analytics/internal/region"
)

// LiveSource serves live events, normally the USGS feed cache.
type LiveSource interface {
	LiveEvents(ctx context.Context, minMagnitude float64, window time.Duration) ([]domain.Event, domain.FetchMetadata, error)
	ForceRefresh()
}

// Coordinator wires resolvers, aggregation, and the live source into the
// two query modes callers use.
type Coordinator struct {
	resolvers       map[region.Strategy]region.Resolver
	defaultStrategy region.Strategy
	live            LiveSource
	weights         domain.RiskWeights
	logger          *slog.Logger
	metrics         *observability.Metrics
	clock           func() time.Time
}

// NewCoordinator creates a Coordinator. The resolvers map must contain an
// entry for the default strategy.
func NewCoordinator(
	resolvers map[region.Strategy]region.Resolver,
	defaultStrategy region.Strategy,
	live LiveSource,
	weights domain.RiskWeights,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Coordinator {
	return &Coordinator{
		resolvers:       resolvers,
		defaultStrategy: defaultStrategy,
		live:            live,
		weights:         weights,
		logger:          logger,
		metrics:         metrics,
		clock:           time.Now,
	}
}

// HistoricalRegionStats resolves every event with the chosen strategy and
// aggregates per region. Pass an empty strategy to use the configured
// default. Events with invalid coordinates are recovered per event: counted,
// logged, and treated as unresolved rather than failing the batch.
func (c *Coordinator) HistoricalRegionStats(ctx context.Context, events []domain.Event, strategy region.Strategy, filters domain.Filters) ([]domain.RegionStats, error) {
	if strategy == "" {
		strategy = c.defaultStrategy
	}
	resolver, ok := c.resolvers[strategy]
	if !ok {
		return nil, errors.New("no resolver configured for strategy " + string(strategy))
	}

	start := c.clock()
	attributed := make([]domain.AttributedEvent, 0, len(events))
	invalid := 0

	for _, ev := range events {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		reg, err := resolver.Resolve(ev)
		if err != nil {
			invalid++
			c.metrics.EventsResolved.WithLabelValues(string(strategy), "invalid").Inc()
			continue
		}
		if reg == nil {
			c.metrics.EventsResolved.WithLabelValues(string(strategy), "unresolved").Inc()
		} else {
			c.metrics.EventsResolved.WithLabelValues(string(strategy), "resolved").Inc()
		}
		attributed = append(attributed, domain.AttributedEvent{Event: ev, Region: reg})
	}

	if invalid > 0 {
		c.logger.Warn("skipped events with invalid coordinates",
			"strategy", strategy,
			"invalid", invalid,
			"total", len(events),
		)
	}

	stats := domain.AggregateByRegion(attributed, filters, c.weights)
	c.metrics.AggregationDuration.Observe(c.clock().Sub(start).Seconds())
	return stats, nil
}

// LiveSnapshot returns the current live events for (minMagnitude, window)
// through the feed cache. The live path intentionally skips region
// attribution; callers wanting attributed live data re-invoke the resolver
// on the returned events.
func (c *Coordinator) LiveSnapshot(ctx context.Context, minMagnitude float64, window time.Duration) ([]domain.Event, domain.FetchMetadata, error) {
	return c.live.LiveEvents(ctx, minMagnitude, window)
}

// ForceRefresh evicts all cached live entries ahead of the next snapshot.
func (c *Coordinator) ForceRefresh() {
	c.live.ForceRefresh()
}

// CheckReadiness returns nil once a resolver for the default strategy is
// wired, or an error describing why the service cannot serve queries.
func (c *Coordinator) CheckReadiness(_ context.Context) error {
	if _, ok := c.resolvers[c.defaultStrategy]; !ok {
		return errors.New("default region resolver not configured")
	}
	return nil
}
