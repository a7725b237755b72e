// Package observability provides metrics and monitoring capabilities for the FloraCast-Go application.
// Sentry-related monitoring and error telemetry are handled in the telemetry package.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mgarzon/floracast-go/internal/artifact"
	"github.com/mgarzon/floracast-go/internal/forecast"
	"github.com/mgarzon/floracast-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Forecast *metrics.ForecastMetrics
	Cache    *metrics.CacheMetrics
	Artifact *metrics.ArtifactMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors
// and handing them to the packages that record into them.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	forecastMetrics, err := metrics.NewForecastMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create forecast metrics: %w", err)
	}

	cacheMetrics, err := metrics.NewCacheMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache metrics: %w", err)
	}

	artifactMetrics, err := metrics.NewArtifactMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact metrics: %w", err)
	}

	m := &Metrics{
		registry: registry,
		Forecast: forecastMetrics,
		Cache:    cacheMetrics,
		Artifact: artifactMetrics,
	}

	forecast.SetMetrics(forecastMetrics)
	forecast.SetCacheMetrics(cacheMetrics)
	artifact.SetMetrics(artifactMetrics)

	return m, nil
}

// RegisterHandlers registers the metrics endpoint with the provided http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
}

// metricsHandler is the HTTP handler for the /metrics endpoint.
func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(log.Handler(), slog.LevelError),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	h.ServeHTTP(w, r)
}
