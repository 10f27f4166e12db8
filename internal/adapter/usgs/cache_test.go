package usgs

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-region-analytics/internal/domain"
	"github.com/couchcryptid/quake-region-analytics/internal/observability"
)

// countingFetcher counts fetches and serves a canned result or error.
type countingFetcher struct {
	calls  int
	events []domain.Event
	err    error
}

func (f *countingFetcher) FetchEvents(_ context.Context, _ float64, _ time.Duration) ([]domain.Event, domain.FetchMetadata, error) {
	f.calls++
	if f.err != nil {
		return nil, domain.FetchMetadata{}, f.err
	}
	return f.events, domain.FetchMetadata{Count: len(f.events)}, nil
}

func newTestCache(inner Fetcher, ttl time.Duration, staleFallback bool) (*FeedCache, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC))
	cache := NewFeedCache(inner, ttl, clock, staleFallback, discardLogger(), observability.NewMetricsForTesting())
	return cache, clock
}

func TestFeedCache_HitWithinTTL(t *testing.T) {
	inner := &countingFetcher{events: []domain.Event{{Lat: 35, Lon: 135, Magnitude: 5.0}}}
	cache, clock := newTestCache(inner, 300*time.Second, false)

	events, _, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, inner.calls)

	clock.Advance(299 * time.Second)

	events, meta, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, inner.calls, "second call within TTL must not fetch")
	assert.False(t, meta.Stale)
}

func TestFeedCache_RefetchAfterTTL(t *testing.T) {
	inner := &countingFetcher{}
	cache, clock := newTestCache(inner, 300*time.Second, false)

	_, _, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	clock.Advance(301 * time.Second)

	_, _, err = cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "stale entry triggers exactly one fetch")

	_, _, err = cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "fresh entry serves from cache again")
}

func TestFeedCache_DistinctKeys(t *testing.T) {
	inner := &countingFetcher{}
	cache, _ := newTestCache(inner, 300*time.Second, false)

	_, _, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	_, _, err = cache.LiveEvents(context.Background(), 4.0, 24*time.Hour)
	require.NoError(t, err)
	_, _, err = cache.LiveEvents(context.Background(), 2.5, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls, "each (min magnitude, window) pair is its own entry")
}

func TestFeedCache_ForceRefresh(t *testing.T) {
	inner := &countingFetcher{}
	cache, _ := newTestCache(inner, 300*time.Second, false)

	_, _, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	cache.ForceRefresh()

	_, _, err = cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "force refresh ignores TTL")
}

func TestFeedCache_ForceRefreshKey(t *testing.T) {
	inner := &countingFetcher{}
	cache, _ := newTestCache(inner, 300*time.Second, false)

	_, _, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	_, _, err = cache.LiveEvents(context.Background(), 4.0, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)

	cache.ForceRefreshKey(2.5, 24*time.Hour)

	_, _, err = cache.LiveEvents(context.Background(), 4.0, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "other keys keep their entries")

	_, _, err = cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestFeedCache_FetchFailureSurfacesByDefault(t *testing.T) {
	inner := &countingFetcher{events: []domain.Event{{Magnitude: 5.0}}}
	cache, clock := newTestCache(inner, 300*time.Second, false)

	_, _, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)

	clock.Advance(301 * time.Second)
	inner.err = &domain.FetchError{Endpoint: "https://example.org", Err: assert.AnError}

	_, _, err = cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.Error(t, err, "stale data must not be served silently")

	var fe *domain.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestFeedCache_StaleFallback(t *testing.T) {
	inner := &countingFetcher{events: []domain.Event{{Magnitude: 5.0}}}
	cache, clock := newTestCache(inner, 300*time.Second, true)

	_, _, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)

	clock.Advance(301 * time.Second)
	inner.err = &domain.FetchError{Endpoint: "https://example.org", Err: assert.AnError}

	events, meta, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, meta.Stale, "fallback payload must be flagged stale")
}

func TestFeedCache_StaleFallbackWithoutEntryStillFails(t *testing.T) {
	inner := &countingFetcher{err: &domain.FetchError{Endpoint: "https://example.org", Err: assert.AnError}}
	cache, _ := newTestCache(inner, 300*time.Second, true)

	_, _, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.Error(t, err, "nothing to fall back to")
}

func TestFeedCache_FailureKeepsOldEntry(t *testing.T) {
	inner := &countingFetcher{events: []domain.Event{{Magnitude: 5.0}}}
	cache, clock := newTestCache(inner, 300*time.Second, false)

	_, _, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)

	clock.Advance(301 * time.Second)
	inner.err = assert.AnError
	_, _, err = cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.Error(t, err)

	// Recovery replaces the entry with a fresh payload.
	inner.err = nil
	events, meta, err := cache.LiveEvents(context.Background(), 2.5, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, meta.Stale)
	assert.Equal(t, 3, inner.calls)
}

func TestFeedCache_EmptyResultIsCached(t *testing.T) {
	inner := &countingFetcher{}
	cache, _ := newTestCache(inner, 300*time.Second, false)

	events, _, err := cache.LiveEvents(context.Background(), 8.0, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, _, err = cache.LiveEvents(context.Background(), 8.0, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "a valid empty payload is cacheable")
}
