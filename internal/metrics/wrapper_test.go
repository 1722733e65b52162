package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestWrapper() (*Metrics, *MetricsWrapper) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	return metrics, NewWrapper(metrics)
}

func TestNewWrapper(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestMetricsWrapper_Predictions(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	wrapper.MLPredictionsInc("ON")
	wrapper.MLPredictionsInc("ON")
	wrapper.MLPredictionsInc("OFF")

	if v := testutil.ToFloat64(metrics.MLPredictions.WithLabelValues("ON")); v != 2 {
		t.Errorf("Expected 2 ON predictions, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.MLPredictions.WithLabelValues("OFF")); v != 1 {
		t.Errorf("Expected 1 OFF prediction, got %f", v)
	}
}

func TestMetricsWrapper_Counters(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	wrapper.MLFailuresInc()
	wrapper.MLUnavailableInc()
	wrapper.MLUnavailableInc()
	wrapper.ValidationFailuresInc()
	wrapper.AuditLogErrorsInc()

	if v := testutil.ToFloat64(metrics.MLFailures); v != 1 {
		t.Errorf("Expected 1 ML failure, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.MLUnavailable); v != 2 {
		t.Errorf("Expected 2 unavailable rejections, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.ValidationFailures); v != 1 {
		t.Errorf("Expected 1 validation failure, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.AuditLogErrors); v != 1 {
		t.Errorf("Expected 1 audit log error, got %f", v)
	}
}

func TestMetricsWrapper_Gauges(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	wrapper.MLModelLoadedSet(true)
	if v := testutil.ToFloat64(metrics.MLModelLoaded); v != 1 {
		t.Errorf("Expected model loaded gauge 1, got %f", v)
	}

	wrapper.MLModelLoadedSet(false)
	if v := testutil.ToFloat64(metrics.MLModelLoaded); v != 0 {
		t.Errorf("Expected model loaded gauge 0, got %f", v)
	}

	wrapper.MLModelAgeSet(3600.0)
	if v := testutil.ToFloat64(metrics.MLModelAge); v != 3600.0 {
		t.Errorf("Expected model age 3600.0, got %f", v)
	}
}

func TestMetricsWrapper_Histograms(t *testing.T) {
	metrics, wrapper := newTestWrapper()

	for _, v := range []float64{0.001, 0.005, 0.01} {
		wrapper.MLLatencyObserve(v)
	}
	if n := testutil.CollectAndCount(metrics.MLLatency); n != 1 {
		t.Errorf("Expected 1 latency series, got %d", n)
	}

	wrapper.RequestObserve("/predict", 200, 0.002)
	wrapper.RequestObserve("/predict", 422, 0.001)
	wrapper.RequestObserve("/health", 200, 0.0005)

	if v := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("/predict", "200")); v != 1 {
		t.Errorf("Expected 1 request for /predict 200, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("/predict", "422")); v != 1 {
		t.Errorf("Expected 1 request for /predict 422, got %f", v)
	}
	if n := testutil.CollectAndCount(metrics.RequestDuration); n != 2 {
		t.Errorf("Expected 2 duration series, got %d", n)
	}
}

func TestMetricsWrapper_NilSafe(t *testing.T) {
	var wrapper *MetricsWrapper

	// None of these should panic
	wrapper.MLPredictionsInc("ON")
	wrapper.MLFailuresInc()
	wrapper.MLUnavailableInc()
	wrapper.MLLatencyObserve(0.1)
	wrapper.MLModelLoadedSet(true)
	wrapper.MLModelAgeSet(1)
	wrapper.ValidationFailuresInc()
	wrapper.AuditLogErrorsInc()
	wrapper.RequestObserve("/predict", 200, 0.1)

	NewWrapper(nil).MLFailuresInc()
}

func TestNewWithRegistry_Isolated(t *testing.T) {
	// Two registries must not collide on metric names
	NewWithRegistry(prometheus.NewRegistry())
	NewWithRegistry(prometheus.NewRegistry())
}
