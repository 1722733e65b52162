package ml

import (
	"sync"
	"sync/atomic"

	"irrigation-predictor/internal/features"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu           sync.Mutex
	predictions  map[string]int
	failures     int
	unavailable  int
	latencySum   float64
	latencyCount int
	modelLoaded  bool
	modelAge     float64
}

func (m *MockMetrics) MLPredictionsInc(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.predictions == nil {
		m.predictions = make(map[string]int)
	}
	m.predictions[label]++
}

func (m *MockMetrics) MLFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLUnavailableInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable++
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
	m.latencyCount++
}

func (m *MockMetrics) MLModelLoadedSet(loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelLoaded = loaded
}

func (m *MockMetrics) MLModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

// Predictions returns how many successful predictions were recorded for label.
func (m *MockMetrics) Predictions(label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions[label]
}

// Failures returns the number of recorded inference failures.
func (m *MockMetrics) Failures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

// Unavailable returns the number of predictions rejected while degraded.
func (m *MockMetrics) Unavailable() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unavailable
}

// LatencyCount returns the number of latency observations.
func (m *MockMetrics) LatencyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latencyCount
}

// ModelLoaded returns the last reported model state.
func (m *MockMetrics) ModelLoaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelLoaded
}

// ModelAge returns the last reported model age in seconds.
func (m *MockMetrics) ModelAge() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelAge
}

// CountingClassifier returns a fixed label and counts invocations.
type CountingClassifier struct {
	Label Label
	Err   error
	calls atomic.Int64
}

func (c *CountingClassifier) Predict(features.FeatureVector) (Label, error) {
	c.calls.Add(1)
	if c.Err != nil {
		return Label{}, c.Err
	}
	return c.Label, nil
}

// Calls returns the number of Predict invocations.
func (c *CountingClassifier) Calls() int64 {
	return c.calls.Load()
}
