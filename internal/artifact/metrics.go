// metrics.go observability integration for artifact operations
package artifact

import (
	"sync"

	"github.com/mgarzon/floracast-go/internal/observability/metrics"
)

var (
	globalMetrics *metrics.ArtifactMetrics
	metricsMutex  sync.RWMutex
	metricsOnce   sync.Once
)

// SetMetrics sets the artifact metrics instance. Only the first call
// takes effect, later calls are ignored.
func SetMetrics(m *metrics.ArtifactMetrics) {
	metricsOnce.Do(func() {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()
		globalMetrics = m
	})
}

// getMetrics returns the configured metrics instance, nil when
// observability is not wired up.
func getMetrics() *metrics.ArtifactMetrics {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return globalMetrics
}
