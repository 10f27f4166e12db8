package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analytics service.
type Metrics struct {
	EventsResolved *prometheus.CounterVec // labels: strategy={bbox,polygon}, outcome={resolved,unresolved,invalid}

	// Live feed metrics.
	FeedFetches       *prometheus.CounterVec // labels: outcome={success,error,empty}
	FeedCache         *prometheus.CounterVec // labels: result={hit,miss,stale}
	FeedFetchDuration prometheus.Histogram

	AggregationDuration prometheus.Histogram
	RegionsLoaded       prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		EventsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_analytics",
			Name:      "events_resolved_total",
			Help:      "Region resolution attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_analytics",
			Name:      "feed_fetches_total",
			Help:      "Live feed fetches against the upstream source by outcome.",
		}, []string{"outcome"}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_analytics",
			Name:      "feed_cache_total",
			Help:      "Live feed cache lookups by result.",
		}, []string{"result"}),
		FeedFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_analytics",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Upstream feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_analytics",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of a complete resolve-and-aggregate pass.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		RegionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_analytics",
			Name:      "regions_loaded",
			Help:      "Number of regions in the loaded definition set.",
		}),
	}

	prometheus.MustRegister(
		m.EventsResolved,
		m.FeedFetches,
		m.FeedCache,
		m.FeedFetchDuration,
		m.AggregationDuration,
		m.RegionsLoaded,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		EventsResolved:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_analytics", Name: "events_resolved_total"}, []string{"strategy", "outcome"}),
		FeedFetches:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_analytics", Name: "feed_fetches_total"}, []string{"outcome"}),
		FeedCache:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_analytics", Name: "feed_cache_total"}, []string{"result"}),
		FeedFetchDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_analytics", Name: "feed_fetch_duration_seconds"}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_analytics", Name: "aggregation_duration_seconds"}),
		RegionsLoaded:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_analytics", Name: "regions_loaded"}),
	}
}
