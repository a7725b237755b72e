package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics contains all Prometheus metrics related to the prediction
// result cache.
type CacheMetrics struct {
	HitsTotal    *prometheus.CounterVec
	MissesTotal  *prometheus.CounterVec
	StoresTotal  *prometheus.CounterVec
	FlushesTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewCacheMetrics creates a new instance of CacheMetrics.
// It requires a Prometheus registry to register the metrics.
// It returns an error if metric registration fails.
func NewCacheMetrics(registry *prometheus.Registry) (*CacheMetrics, error) {
	m := &CacheMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize cache metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register cache metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for CacheMetrics.
func (m *CacheMetrics) initMetrics() error {
	m.HitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_cache_hits_total",
			Help: "Total number of prediction cache hits partitioned by domain.",
		},
		[]string{"domain"},
	)
	m.MissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_cache_misses_total",
			Help: "Total number of prediction cache misses partitioned by domain.",
		},
		[]string{"domain"},
	)
	m.StoresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_cache_stores_total",
			Help: "Total number of prediction results stored in the cache partitioned by domain.",
		},
		[]string{"domain"},
	)
	m.FlushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_cache_flushes_total",
			Help: "Total number of cache flushes partitioned by domain.",
		},
		[]string{"domain"},
	)
	return nil
}

// RecordHit increments the cache hit counter for a domain.
func (m *CacheMetrics) RecordHit(domain string) {
	m.HitsTotal.WithLabelValues(domain).Inc()
}

// RecordMiss increments the cache miss counter for a domain.
func (m *CacheMetrics) RecordMiss(domain string) {
	m.MissesTotal.WithLabelValues(domain).Inc()
}

// RecordStore increments the cache store counter for a domain.
func (m *CacheMetrics) RecordStore(domain string) {
	m.StoresTotal.WithLabelValues(domain).Inc()
}

// RecordFlush increments the cache flush counter for a domain.
func (m *CacheMetrics) RecordFlush(domain string) {
	m.FlushesTotal.WithLabelValues(domain).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *CacheMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.HitsTotal.Describe(ch)
	m.MissesTotal.Describe(ch)
	m.StoresTotal.Describe(ch)
	m.FlushesTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *CacheMetrics) Collect(ch chan<- prometheus.Metric) {
	m.HitsTotal.Collect(ch)
	m.MissesTotal.Collect(ch)
	m.StoresTotal.Collect(ch)
	m.FlushesTotal.Collect(ch)
}
