package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector exposes engine metrics to Prometheus.
type MetricsCollector struct {
	recommendationRequests *prometheus.CounterVec
	recommendationLatency  prometheus.Histogram
	recommendationsServed  *prometheus.CounterVec
	interactionsRecorded   *prometheus.CounterVec
	productsIndexed        prometheus.Gauge
	userProfiles           prometheus.Gauge
	embedCacheHits         prometheus.Counter
	embedCacheMisses       prometheus.Counter
}

// NewMetricsCollector registers the engine metrics on reg. A nil reg uses the
// default registry.
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MetricsCollector{
		recommendationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total recommendation requests by serving algorithm",
		}, []string{"algorithm"}),

		recommendationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_latency_seconds",
			Help:    "Recommendation request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),

		recommendationsServed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total recommendation items served by algorithm",
		}, []string{"algorithm"}),

		interactionsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "interactions_recorded_total",
			Help: "Total user interactions recorded by type",
		}, []string{"type"}),

		productsIndexed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products_indexed",
			Help: "Number of products currently indexed",
		}),

		userProfiles: factory.NewGauge(prometheus.GaugeOpts{
			Name: "user_profiles_active",
			Help: "Number of user profiles currently held in memory",
		}),

		embedCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Embedding cache hits",
		}),

		embedCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "embedding_cache_misses_total",
			Help: "Embedding cache misses",
		}),
	}
}

func (mc *MetricsCollector) RecordRequest(algorithm string, served int, duration time.Duration) {
	mc.recommendationRequests.WithLabelValues(algorithm).Inc()
	mc.recommendationsServed.WithLabelValues(algorithm).Add(float64(served))
	mc.recommendationLatency.Observe(duration.Seconds())
}

func (mc *MetricsCollector) RecordInteraction(interactionType string) {
	mc.interactionsRecorded.WithLabelValues(interactionType).Inc()
}

func (mc *MetricsCollector) SetProductCount(n int) {
	mc.productsIndexed.Set(float64(n))
}

func (mc *MetricsCollector) SetProfileCount(n int) {
	mc.userProfiles.Set(float64(n))
}

func (mc *MetricsCollector) RecordEmbedCacheHit()  { mc.embedCacheHits.Inc() }
func (mc *MetricsCollector) RecordEmbedCacheMiss() { mc.embedCacheMisses.Inc() }
