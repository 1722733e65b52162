// Package ml owns the trained irrigation classifier. It loads the model
// artifact once at startup, exposes it behind the single-method Classifier
// interface, and wraps it in a Gateway that keeps serving in a degraded state
// when the artifact could not be loaded.
//
// Two artifact formats are supported: a JSON decision tree evaluated in
// process, and a pickled scikit-learn estimator evaluated by a Python
// interpreter over stdin/stdout.
package ml

import "irrigation-predictor/internal/features"

// Classifier is the inference contract of a trained model.
// Implementations must be safe for concurrent use unless the Gateway is
// created with WithSerializedInference.
type Classifier interface {
	// Predict returns the class label for a single feature vector.
	Predict(v features.FeatureVector) (Label, error)
}

// ClassifierFunc adapts an ordinary function to the Classifier interface.
type ClassifierFunc func(v features.FeatureVector) (Label, error)

// Predict calls f(v).
func (f ClassifierFunc) Predict(v features.FeatureVector) (Label, error) {
	return f(v)
}
