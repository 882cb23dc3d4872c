package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's Prometheus instruments on a private
// registry, so tests can construct as many instances as they need without
// colliding on the default registry.
type Metrics struct {
	registry *prometheus.Registry

	fetchOutcomes   *prometheus.CounterVec
	cacheDecisions  *prometheus.CounterVec
	refreshDuration prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		fetchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "charts",
			Name:      "provider_fetch_total",
			Help:      "Provider fetch outcomes per platform.",
		}, []string{"platform", "outcome"}),
		cacheDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "charts",
			Name:      "cache_decisions_total",
			Help:      "Per-request staleness decisions (hit, forced, quick_retry, schema, stale, miss).",
		}, []string{"decision"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "charts",
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of a full provider fan-out refresh.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		m.fetchOutcomes,
		m.cacheDecisions,
		m.refreshDuration,
	)
	return m
}

// Handler exposes the registry for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveFetch(platform, outcome string) {
	if m == nil {
		return
	}
	m.fetchOutcomes.WithLabelValues(platform, outcome).Inc()
}

func (m *Metrics) ObserveCacheDecision(decision string) {
	if m == nil {
		return
	}
	m.cacheDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) ObserveRefreshDuration(seconds float64) {
	if m == nil {
		return
	}
	m.refreshDuration.Observe(seconds)
}
