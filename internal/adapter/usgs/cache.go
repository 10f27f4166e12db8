package usgs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-region-analytics/internal/domain"
	"github.com/couchcryptid/quake-region-analytics/internal/observability"
)

// Fetcher performs one blocking live-feed fetch.
type Fetcher interface {
	FetchEvents(ctx context.Context, minMagnitude float64, window time.Duration) ([]domain.Event, domain.FetchMetadata, error)
}

// Key identifies one cached fetch result.
type Key struct {
	MinMagnitude float64
	Window       time.Duration
}

type cacheEntry struct {
	fetchedAt time.Time
	events    []domain.Event
	meta      domain.FetchMetadata
}

// FeedCache wraps a Fetcher with a per-key TTL cache. Staleness is checked
// lazily on access; there is no background refresh. Entries are replaced
// whole under the mutex, so readers never observe a half-written entry, and
// when two refreshes race the last completed fetch wins.
//
// On fetch failure the default is to surface the error even when a stale
// entry exists. Construct with staleFallback=true to opt into returning the
// stale payload flagged Stale instead.
type FeedCache struct {
	inner         Fetcher
	ttl           time.Duration
	clock         clockwork.Clock
	staleFallback bool
	logger        *slog.Logger
	metrics       *observability.Metrics

	mu      sync.Mutex
	entries map[Key]*cacheEntry
}

// NewFeedCache creates a TTL cache decorator around a feed fetcher.
func NewFeedCache(inner Fetcher, ttl time.Duration, clock clockwork.Clock, staleFallback bool, logger *slog.Logger, metrics *observability.Metrics) *FeedCache {
	return &FeedCache{
		inner:         inner,
		ttl:           ttl,
		clock:         clock,
		staleFallback: staleFallback,
		logger:        logger,
		metrics:       metrics,
		entries:       make(map[Key]*cacheEntry),
	}
}

// LiveEvents returns the cached payload for (minMagnitude, window) when its
// age is within the TTL, otherwise fetches, replaces the entry, and returns
// the fresh payload. The fetch itself runs outside the lock.
func (c *FeedCache) LiveEvents(ctx context.Context, minMagnitude float64, window time.Duration) ([]domain.Event, domain.FetchMetadata, error) {
	key := Key{MinMagnitude: minMagnitude, Window: window}
	now := c.clock.Now()

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if ok && now.Sub(entry.fetchedAt) <= c.ttl {
		c.metrics.FeedCache.WithLabelValues("hit").Inc()
		meta := entry.meta
		meta.Stale = false
		return entry.events, meta, nil
	}
	c.metrics.FeedCache.WithLabelValues("miss").Inc()

	start := c.clock.Now()
	events, meta, err := c.inner.FetchEvents(ctx, minMagnitude, window)
	c.metrics.FeedFetchDuration.Observe(c.clock.Since(start).Seconds())

	if err != nil {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		if ok && c.staleFallback {
			c.logger.Warn("feed fetch failed, serving stale cache entry",
				"min_magnitude", minMagnitude,
				"window", window,
				"age", now.Sub(entry.fetchedAt),
				"error", err,
			)
			c.metrics.FeedCache.WithLabelValues("stale").Inc()
			meta := entry.meta
			meta.Stale = true
			return entry.events, meta, nil
		}
		// The stale entry stays in the map until a fetch succeeds or a
		// forced refresh evicts it.
		return nil, domain.FetchMetadata{}, err
	}

	if len(events) == 0 {
		c.metrics.FeedFetches.WithLabelValues("empty").Inc()
	} else {
		c.metrics.FeedFetches.WithLabelValues("success").Inc()
	}

	fetchedAt := c.clock.Now()
	if meta.FetchedAt.IsZero() {
		meta.FetchedAt = fetchedAt
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry{fetchedAt: fetchedAt, events: events, meta: meta}
	c.mu.Unlock()

	return events, meta, nil
}

// ForceRefresh evicts every cached entry, so the next LiveEvents call for
// any key fetches regardless of TTL.
func (c *FeedCache) ForceRefresh() {
	c.mu.Lock()
	c.entries = make(map[Key]*cacheEntry)
	c.mu.Unlock()
}

// ForceRefreshKey evicts the entry for one key.
func (c *FeedCache) ForceRefreshKey(minMagnitude float64, window time.Duration) {
	c.mu.Lock()
	delete(c.entries, Key{MinMagnitude: minMagnitude, Window: window})
	c.mu.Unlock()
}
