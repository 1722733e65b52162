package metrics

import "strconv"

// MetricsWrapper adapts Metrics to the narrow interfaces used by the gateway
// and the HTTP server. A nil wrapper is a no-op.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) enabled() bool {
	return w != nil && w.m != nil
}

func (w *MetricsWrapper) MLPredictionsInc(label string) {
	if w.enabled() {
		w.m.MLPredictions.WithLabelValues(label).Inc()
	}
}

func (w *MetricsWrapper) MLFailuresInc() {
	if w.enabled() {
		w.m.MLFailures.Inc()
	}
}

func (w *MetricsWrapper) MLUnavailableInc() {
	if w.enabled() {
		w.m.MLUnavailable.Inc()
	}
}

func (w *MetricsWrapper) MLLatencyObserve(v float64) {
	if w.enabled() {
		w.m.MLLatency.Observe(v)
	}
}

func (w *MetricsWrapper) MLModelLoadedSet(loaded bool) {
	if !w.enabled() {
		return
	}
	if loaded {
		w.m.MLModelLoaded.Set(1)
	} else {
		w.m.MLModelLoaded.Set(0)
	}
}

func (w *MetricsWrapper) MLModelAgeSet(v float64) {
	if w.enabled() {
		w.m.MLModelAge.Set(v)
	}
}

func (w *MetricsWrapper) ValidationFailuresInc() {
	if w.enabled() {
		w.m.ValidationFailures.Inc()
	}
}

func (w *MetricsWrapper) AuditLogErrorsInc() {
	if w.enabled() {
		w.m.AuditLogErrors.Inc()
	}
}

// RequestObserve records one handled HTTP request.
func (w *MetricsWrapper) RequestObserve(route string, code int, seconds float64) {
	if !w.enabled() {
		return
	}
	w.m.RequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	w.m.RequestDuration.WithLabelValues(route).Observe(seconds)
}
