// Package metrics provides custom Prometheus metrics for the FloraCast-Go application.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ForecastMetrics contains all Prometheus metrics related to prediction
// operations, partitioned by prediction domain and stage.
type ForecastMetrics struct {
	PredictionTotal    *prometheus.CounterVec
	PredictionErrors   *prometheus.CounterVec
	PredictionDuration *prometheus.HistogramVec
	ConfidenceGauge    *prometheus.GaugeVec
	NewCategoriesTotal *prometheus.CounterVec
	ValidationTotal    *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewForecastMetrics creates a new instance of ForecastMetrics.
// It requires a Prometheus registry to register the metrics.
// It returns an error if metric registration fails.
func NewForecastMetrics(registry *prometheus.Registry) (*ForecastMetrics, error) {
	m := &ForecastMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize forecast metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register forecast metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for ForecastMetrics.
func (m *ForecastMetrics) initMetrics() error {
	m.PredictionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_predictions_total",
			Help: "Total number of prediction requests partitioned by domain, stage and status.",
		},
		[]string{"domain", "stage", "status"},
	)

	m.PredictionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_prediction_errors_total",
			Help: "Total number of failed predictions partitioned by domain, stage and error code.",
		},
		[]string{"domain", "stage", "code"},
	)

	m.PredictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floracast_prediction_duration_seconds",
			Help:    "Time taken to compute a prediction",
			Buckets: prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount10),
		},
		[]string{"domain", "stage"},
	)

	m.ConfidenceGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "floracast_prediction_confidence",
			Help: "Confidence of the most recent successful prediction per domain and stage.",
		},
		[]string{"domain", "stage"},
	)

	m.NewCategoriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_new_categories_total",
			Help: "Total number of out-of-vocabulary category values seen in refined predictions.",
		},
		[]string{"domain"},
	)

	m.ValidationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floracast_validations_total",
			Help: "Total number of validated predictions partitioned by domain and quality label.",
		},
		[]string{"domain", "quality"},
	)

	return nil
}

// RecordPrediction increments the prediction counter for a domain, stage
// and outcome status.
func (m *ForecastMetrics) RecordPrediction(domain, stage, status string) {
	m.PredictionTotal.WithLabelValues(domain, stage, status).Inc()
}

// RecordError increments the error counter for a domain, stage and wire
// error code.
func (m *ForecastMetrics) RecordError(domain, stage, code string) {
	m.PredictionErrors.WithLabelValues(domain, stage, code).Inc()
}

// RecordDuration records the wall time of one prediction.
func (m *ForecastMetrics) RecordDuration(domain, stage string, durationSeconds float64) {
	m.PredictionDuration.WithLabelValues(domain, stage).Observe(durationSeconds)
}

// RecordConfidence records the confidence of a successful prediction.
func (m *ForecastMetrics) RecordConfidence(domain, stage string, confidence float64) {
	m.ConfidenceGauge.WithLabelValues(domain, stage).Set(confidence)
}

// RecordNewCategories adds the out-of-vocabulary category count of one
// refined prediction.
func (m *ForecastMetrics) RecordNewCategories(domain string, count int) {
	if count > 0 {
		m.NewCategoriesTotal.WithLabelValues(domain).Add(float64(count))
	}
}

// RecordValidation increments the validation counter for a domain and
// quality label.
func (m *ForecastMetrics) RecordValidation(domain, quality string) {
	m.ValidationTotal.WithLabelValues(domain, quality).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *ForecastMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.PredictionTotal.Describe(ch)
	m.PredictionErrors.Describe(ch)
	m.PredictionDuration.Describe(ch)
	m.ConfidenceGauge.Describe(ch)
	m.NewCategoriesTotal.Describe(ch)
	m.ValidationTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *ForecastMetrics) Collect(ch chan<- prometheus.Metric) {
	m.PredictionTotal.Collect(ch)
	m.PredictionErrors.Collect(ch)
	m.PredictionDuration.Collect(ch)
	m.ConfidenceGauge.Collect(ch)
	m.NewCategoriesTotal.Collect(ch)
	m.ValidationTotal.Collect(ch)
}
