// Package metrics provides Prometheus metrics collection for the irrigation
// prediction service. It defines the request, inference and model-state
// metrics exposed via the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "irrigation"

// Metrics holds all Prometheus metrics for the prediction service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec   // Requests by route and status code
	RequestDuration *prometheus.HistogramVec // Request handling time by route

	// Validation metrics
	ValidationFailures prometheus.Counter // Rejected payloads (400 and 422)

	// ML and prediction metrics
	MLPredictions  *prometheus.CounterVec // Successful predictions by label
	MLFailures     prometheus.Counter     // Inference errors
	MLUnavailable  prometheus.Counter     // Predictions rejected while degraded
	MLLatency      prometheus.Histogram   // Classifier latency in seconds
	MLModelLoaded  prometheus.Gauge       // 1 when the model is loaded, 0 when degraded
	MLModelAge     prometheus.Gauge       // Age of the model artifact in seconds
	AuditLogErrors prometheus.Counter     // Failed writes to the prediction audit log
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request handling time in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Total number of rejected prediction payloads",
		}),
		MLPredictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ml_predictions_total",
			Help:      "Total number of successful predictions by label",
		}, []string{"label"}),
		MLFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ml_failures_total",
			Help:      "Total number of inference failures",
		}),
		MLUnavailable: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ml_unavailable_total",
			Help:      "Total number of predictions rejected because no model is loaded",
		}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ml_latency_seconds",
			Help:      "Classifier latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0},
		}),
		MLModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ml_model_loaded",
			Help:      "Whether the model artifact is loaded (1) or the service is degraded (0)",
		}),
		MLModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ml_model_age_seconds",
			Help:      "Age of the model artifact in seconds at load time",
		}),
		AuditLogErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_log_errors_total",
			Help:      "Total number of failed prediction audit log writes",
		}),
	}
}
