// ABOUTME: Prometheus metrics for searches and the embedding cache.
// ABOUTME: A nil *Metrics is valid and records nothing, so callers never need to check.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache results recorded by RecordCache.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
	CacheSkip = "skip"
)

// Metrics holds memento's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	degraded       prometheus.Counter
	fallbacks      prometheus.Counter
	cache          *prometheus.CounterVec
	cacheWriteErrs prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memento",
			Name:      "searches_total",
			Help:      "Searches completed, by strategy",
		},
		[]string{"strategy"},
	)

	m.searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "memento",
			Name:      "search_duration_seconds",
			Help:      "Search latency in seconds, by strategy",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"strategy"},
	)

	m.degraded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "memento",
		Name:      "search_degraded_total",
		Help:      "Semantic searches that fell back to the unranked list because embeddings failed",
	})

	m.fallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "memento",
		Name:      "search_fallback_total",
		Help:      "Semantic searches where no score cleared the threshold and the top-K fallback was used",
	})

	m.cache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memento",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups, by result (hit, miss, skip)",
		},
		[]string{"result"},
	)

	m.cacheWriteErrs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "memento",
		Name:      "embedding_cache_write_failures_total",
		Help:      "Computed embeddings that could not be persisted",
	})

	m.registry.MustRegister(
		m.searches,
		m.searchDuration,
		m.degraded,
		m.fallbacks,
		m.cache,
		m.cacheWriteErrs,
	)
	return m
}

// RecordSearch records one finished search.
func (m *Metrics) RecordSearch(strategy string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(strategy).Inc()
	m.searchDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// RecordDegraded counts a semantic search that could not rank.
func (m *Metrics) RecordDegraded() {
	if m == nil {
		return
	}
	m.degraded.Inc()
}

// RecordFallback counts a ranking that used the top-K fallback.
func (m *Metrics) RecordFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

// RecordCache counts one cache lookup outcome.
func (m *Metrics) RecordCache(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}

// RecordCacheWriteFailure counts an embedding that was computed but not stored.
func (m *Metrics) RecordCacheWriteFailure() {
	if m == nil {
		return
	}
	m.cacheWriteErrs.Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
