package forecast

import (
	"sync"

	"github.com/mgarzon/floracast-go/internal/observability/metrics"
)

// Global metrics instances, wired by the observability package at startup.
var (
	metricsMutex       sync.RWMutex
	globalMetrics      *metrics.ForecastMetrics
	globalCacheMetrics *metrics.CacheMetrics
	metricsOnce        sync.Once
	cacheMetricsOnce   sync.Once
)

// SetMetrics sets the prediction metrics instance. Thread-safe and
// idempotent, the first caller wins for the process lifetime.
func SetMetrics(m *metrics.ForecastMetrics) {
	metricsOnce.Do(func() {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()
		globalMetrics = m
	})
}

func getMetrics() *metrics.ForecastMetrics {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return globalMetrics
}

// SetCacheMetrics sets the result cache metrics instance, same contract as
// SetMetrics.
func SetCacheMetrics(m *metrics.CacheMetrics) {
	cacheMetricsOnce.Do(func() {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()
		globalCacheMetrics = m
	})
}

func getCacheMetrics() *metrics.CacheMetrics {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return globalCacheMetrics
}
