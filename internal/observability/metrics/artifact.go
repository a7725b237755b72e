package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ArtifactMetrics contains all Prometheus metrics related to model
// artifact loading, reloading and syncing.
type ArtifactMetrics struct {
	LoadTotal    *prometheus.CounterVec
	LoadErrors   *prometheus.CounterVec
	LoadDuration *prometheus.HistogramVec
	ReloadTotal  *prometheus.CounterVec
	SyncTotal    *prometheus.CounterVec
	LoadedGauge  *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewArtifactMetrics creates a new instance of ArtifactMetrics.
// It requires a Prometheus registry to register the metrics.
// It returns an error if metric registration fails.
func NewArtifactMetrics(registry *prometheus.Registry) (*ArtifactMetrics, error) {
	m := &ArtifactMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize artifact metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register artifact metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for ArtifactMetrics.
func (m *ArtifactMetrics) initMetrics() error {
	m.LoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_artifact_load_total",
			Help: "Total number of artifact load attempts partitioned by domain and status.",
		},
		[]string{"domain", "status"},
	)
	m.LoadErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_artifact_load_errors_total",
			Help: "Total number of artifact load errors partitioned by domain and error type.",
		},
		[]string{"domain", "error_type"},
	)
	m.LoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floracast_artifact_load_duration_seconds",
			Help:    "Time taken to load an artifact set from disk",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		},
		[]string{"domain"},
	)
	m.ReloadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_artifact_reload_total",
			Help: "Total number of artifact reload attempts partitioned by domain and status.",
		},
		[]string{"domain", "status"},
	)
	m.SyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_artifact_sync_total",
			Help: "Total number of artifact sync runs partitioned by domain and outcome.",
		},
		[]string{"domain", "status"},
	)
	m.LoadedGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "floracast_artifact_loaded",
			Help: "Whether a model artifact set is currently loaded (1) or not (0) per domain.",
		},
		[]string{"domain"},
	)
	return nil
}

// RecordLoad records metrics for an artifact load attempt.
func (m *ArtifactMetrics) RecordLoad(domain string, durationSeconds float64, err error) {
	if err != nil {
		m.LoadTotal.WithLabelValues(domain, "error").Inc()
		m.LoadErrors.WithLabelValues(domain, errorLabel(err)).Inc()
		m.LoadedGauge.WithLabelValues(domain).Set(0)
		return
	}
	m.LoadTotal.WithLabelValues(domain, "success").Inc()
	m.LoadDuration.WithLabelValues(domain).Observe(durationSeconds)
	m.LoadedGauge.WithLabelValues(domain).Set(1)
}

// RecordReload records metrics for an artifact reload attempt.
func (m *ArtifactMetrics) RecordReload(domain string, err error) {
	if err != nil {
		m.ReloadTotal.WithLabelValues(domain, "error").Inc()
		return
	}
	m.ReloadTotal.WithLabelValues(domain, "success").Inc()
}

// RecordSync records the outcome of one artifact sync run. Status is
// "changed", "unchanged" or "error".
func (m *ArtifactMetrics) RecordSync(domain, status string) {
	m.SyncTotal.WithLabelValues(domain, status).Inc()
}

// errorLabel returns the metric label for an error. Typed errors carry
// their own category, anything else is unknown.
func errorLabel(err error) string {
	if err == nil {
		return "none"
	}
	var categorized interface{ GetCategory() string }
	if errors.As(err, &categorized) {
		return categorized.GetCategory()
	}
	return "unknown"
}

// Describe implements the prometheus.Collector interface.
func (m *ArtifactMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.LoadTotal.Describe(ch)
	m.LoadErrors.Describe(ch)
	m.LoadDuration.Describe(ch)
	m.ReloadTotal.Describe(ch)
	m.SyncTotal.Describe(ch)
	m.LoadedGauge.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *ArtifactMetrics) Collect(ch chan<- prometheus.Metric) {
	m.LoadTotal.Collect(ch)
	m.LoadErrors.Collect(ch)
	m.LoadDuration.Collect(ch)
	m.ReloadTotal.Collect(ch)
	m.SyncTotal.Collect(ch)
	m.LoadedGauge.Collect(ch)
}
