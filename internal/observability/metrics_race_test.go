package observability

import (
	"sync"
	"testing"

	dto "github.com/prometheus/client_model/go"
)

// TestNewMetricsConcurrency verifies that NewMetrics can be called concurrently
// without causing race conditions
func TestNewMetricsConcurrency(t *testing.T) {
	// Number of concurrent goroutines to test with
	const numGoroutines = 50

	var wg sync.WaitGroup

	// Start multiple goroutines that all try to create metrics concurrently
	for range numGoroutines {
		wg.Go(func() {
			metrics, err := NewMetrics()
			if err != nil {
				t.Errorf("NewMetrics failed: %v", err)
				return
			}
			if metrics == nil {
				t.Error("NewMetrics returned nil")
				return
			}

			// Verify all metric fields are initialized
			if metrics.registry == nil {
				t.Error("metrics.registry is nil")
			}
			if metrics.Forecast == nil {
				t.Error("metrics.Forecast is nil")
			}
			if metrics.Cache == nil {
				t.Error("metrics.Cache is nil")
			}
			if metrics.Artifact == nil {
				t.Error("metrics.Artifact is nil")
			}
		})
	}

	wg.Wait()
}

// TestMetricsGather verifies that recorded samples show up in the registry
// with the expected names, labels and values.
func TestMetricsGather(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	m.Forecast.RecordPrediction("polinizacion", "inicial", "success")
	m.Forecast.RecordPrediction("polinizacion", "inicial", "success")
	m.Forecast.RecordPrediction("polinizacion", "refinada", "error")
	m.Forecast.RecordConfidence("polinizacion", "refinada", 80)
	m.Forecast.RecordValidation("polinizacion", "Excelente")
	m.Forecast.RecordError("polinizacion", "refinada", "artifact_missing")
	m.Forecast.RecordNewCategories("polinizacion", 3)
	m.Forecast.RecordNewCategories("polinizacion", 0)
	m.Cache.RecordHit("polinizacion")
	m.Cache.RecordMiss("germinacion")
	m.Artifact.RecordLoad("polinizacion", 0.02, nil)

	families, err := m.registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	pred := byName["floracast_predictions_total"]
	if pred == nil {
		t.Fatal("floracast_predictions_total not gathered")
	}
	got := counterValue(t, pred, map[string]string{
		"domain": "polinizacion", "stage": "inicial", "status": "success",
	})
	if got != 2 {
		t.Errorf("predictions counter = %v, want 2", got)
	}

	errs := byName["floracast_prediction_errors_total"]
	if errs == nil {
		t.Fatal("floracast_prediction_errors_total not gathered")
	}
	got = counterValue(t, errs, map[string]string{
		"domain": "polinizacion", "stage": "refinada", "code": "artifact_missing",
	})
	if got != 1 {
		t.Errorf("prediction errors counter = %v, want 1", got)
	}

	newCats := byName["floracast_new_categories_total"]
	if newCats == nil {
		t.Fatal("floracast_new_categories_total not gathered")
	}
	if got := counterValue(t, newCats, map[string]string{"domain": "polinizacion"}); got != 3 {
		t.Errorf("new categories counter = %v, want 3", got)
	}

	hits := byName["floracast_cache_hits_total"]
	if hits == nil {
		t.Fatal("floracast_cache_hits_total not gathered")
	}
	if got := counterValue(t, hits, map[string]string{"domain": "polinizacion"}); got != 1 {
		t.Errorf("cache hits counter = %v, want 1", got)
	}

	loaded := byName["floracast_artifact_loaded"]
	if loaded == nil {
		t.Fatal("floracast_artifact_loaded not gathered")
	}
	if got := gaugeValue(t, loaded, map[string]string{"domain": "polinizacion"}); got != 1 {
		t.Errorf("artifact loaded gauge = %v, want 1", got)
	}
}

// counterValue returns the counter sample carrying the given labels.
func counterValue(t *testing.T, mf *dto.MetricFamily, labels map[string]string) float64 {
	t.Helper()
	for _, metric := range mf.GetMetric() {
		if labelsMatch(metric, labels) {
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("no sample with labels %v in %s", labels, mf.GetName())
	return 0
}

// gaugeValue returns the gauge sample carrying the given labels.
func gaugeValue(t *testing.T, mf *dto.MetricFamily, labels map[string]string) float64 {
	t.Helper()
	for _, metric := range mf.GetMetric() {
		if labelsMatch(metric, labels) {
			return metric.GetGauge().GetValue()
		}
	}
	t.Fatalf("no sample with labels %v in %s", labels, mf.GetName())
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	got := make(map[string]string, len(metric.GetLabel()))
	for _, lp := range metric.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}
