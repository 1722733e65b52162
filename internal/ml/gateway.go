package ml

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"irrigation-predictor/internal/features"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the gateway
type MetricsInterface interface {
	MLPredictionsInc(label string)
	MLFailuresInc()
	MLUnavailableInc()
	MLLatencyObserve(float64)
	MLModelLoadedSet(bool)
	MLModelAgeSet(float64)
}

// State is the lifecycle state of a Gateway. Both states are terminal.
type State int

const (
	StateDegraded State = iota
	StateReady
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PredictionResult is the outcome of one successful prediction.
type PredictionResult struct {
	Label   Label
	Success bool
	Latency time.Duration
}

// Gateway owns the loaded classifier, or its absence. It is built once at
// startup and never mutated afterwards.
type Gateway struct {
	classifier Classifier
	state      State
	loadErr    error
	metadata   ModelMetadata
	metrics    MetricsInterface

	serialize bool
	mu        sync.Mutex // held around inference when serialize is set
}

// Option configures a Gateway and the artifact loaders.
type Option func(*options)

type options struct {
	metrics          MetricsInterface
	serialize        bool
	pythonPath       string
	inferenceTimeout time.Duration
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m MetricsInterface) Option {
	return func(o *options) { o.metrics = m }
}

// WithSerializedInference makes the gateway run one prediction at a time, for
// classifiers that are not safe for concurrent use.
func WithSerializedInference() Option {
	return func(o *options) { o.serialize = true }
}

// WithPythonPath sets the interpreter used for pickled artifacts.
func WithPythonPath(path string) Option {
	return func(o *options) { o.pythonPath = path }
}

// WithInferenceTimeout bounds a single out-of-process prediction.
func WithInferenceTimeout(d time.Duration) Option {
	return func(o *options) { o.inferenceTimeout = d }
}

func buildOptions(opts []Option) options {
	o := options{inferenceTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load reads the artifact at path and returns a Ready gateway, or a Degraded
// one carrying the reason when the artifact is missing, corrupt or
// incompatible. It never fails and never panics.
func Load(path string, opts ...Option) *Gateway {
	o := buildOptions(opts)

	c, meta, err := safeLoad(path, o)
	if err != nil {
		log.Error().
			Err(err).
			Str("model_path", path).
			Msg("Failed to load model, serving in degraded mode")
		return newGateway(nil, ModelMetadata{Path: path}, err, o)
	}

	log.Info().
		Str("model_path", path).
		Str("format", meta.Format).
		Str("version", meta.Version).
		Int("classes", len(meta.Classes)).
		Msg("Model loaded successfully")
	return newGateway(c, meta, nil, o)
}

// NewReady wraps an already constructed classifier.
func NewReady(c Classifier, meta ModelMetadata, opts ...Option) *Gateway {
	if c == nil {
		return NewDegraded(errors.New("nil classifier"), opts...)
	}
	return newGateway(c, meta, nil, buildOptions(opts))
}

// NewDegraded returns a gateway that rejects every prediction with reason.
func NewDegraded(reason error, opts ...Option) *Gateway {
	if reason == nil {
		reason = errors.New("no model loaded")
	}
	return newGateway(nil, ModelMetadata{}, reason, buildOptions(opts))
}

func newGateway(c Classifier, meta ModelMetadata, loadErr error, o options) *Gateway {
	g := &Gateway{
		classifier: c,
		state:      StateDegraded,
		loadErr:    loadErr,
		metadata:   meta,
		metrics:    o.metrics,
		serialize:  o.serialize,
	}
	if c != nil && loadErr == nil {
		g.state = StateReady
		if g.metadata.LoadedAt.IsZero() {
			g.metadata.LoadedAt = time.Now()
		}
	}

	if g.metrics != nil {
		g.metrics.MLModelLoadedSet(g.state == StateReady)
		if g.state == StateReady && !meta.ModifiedAt.IsZero() {
			g.metrics.MLModelAgeSet(time.Since(meta.ModifiedAt).Seconds())
		}
	}
	return g
}

func safeLoad(path string, o options) (c Classifier, meta ModelMetadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = fmt.Errorf("model loader panicked: %v", r)
		}
	}()
	return loadClassifier(path, o)
}

// Predict runs the classifier on v. A degraded gateway fails with
// *ModelUnavailableError without touching any classifier; a classifier
// failure is reported as *InferenceError.
func (g *Gateway) Predict(v features.FeatureVector) (PredictionResult, error) {
	if !g.IsReady() {
		var reason error
		if g != nil {
			reason = g.loadErr
			if g.metrics != nil {
				g.metrics.MLUnavailableInc()
			}
		}
		return PredictionResult{}, &ModelUnavailableError{Reason: reason}
	}

	start := time.Now()
	label, err := g.invoke(v)
	latency := time.Since(start)

	if g.metrics != nil {
		g.metrics.MLLatencyObserve(latency.Seconds())
	}

	if err == nil && label.IsZero() {
		err = errors.New("classifier returned an empty label")
	}
	if err != nil {
		if g.metrics != nil {
			g.metrics.MLFailuresInc()
		}
		log.Error().
			Err(err).
			Floats64("features", v.Slice()).
			Dur("latency", latency).
			Msg("Inference failed")

		var ierr *InferenceError
		if errors.As(err, &ierr) {
			return PredictionResult{}, ierr
		}
		return PredictionResult{}, &InferenceError{Cause: err}
	}

	if g.metrics != nil {
		g.metrics.MLPredictionsInc(label.String())
	}

	log.Debug().
		Floats64("features", v.Slice()).
		Str("label", label.String()).
		Dur("latency", latency).
		Msg("Prediction successful")

	return PredictionResult{Label: label, Success: true, Latency: latency}, nil
}

func (g *Gateway) invoke(v features.FeatureVector) (label Label, err error) {
	if g.serialize {
		g.mu.Lock()
		defer g.mu.Unlock()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panicked: %v", r)
		}
	}()
	return g.classifier.Predict(v)
}

// IsReady reports whether a classifier is loaded.
func (g *Gateway) IsReady() bool {
	return g != nil && g.state == StateReady
}

// State returns the lifecycle state.
func (g *Gateway) State() State {
	if g == nil {
		return StateDegraded
	}
	return g.state
}

// LoadError returns why the gateway is degraded, or nil when ready.
func (g *Gateway) LoadError() error {
	if g == nil {
		return errors.New("nil gateway")
	}
	return g.loadErr
}

// Metadata describes the loaded artifact.
func (g *Gateway) Metadata() ModelMetadata {
	if g == nil {
		return ModelMetadata{}
	}
	return g.metadata
}

// Close releases resources held by the classifier, if any.
func (g *Gateway) Close() error {
	if g == nil || g.classifier == nil {
		return nil
	}
	if closer, ok := g.classifier.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
