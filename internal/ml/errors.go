package ml

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable matches every ModelUnavailableError.
var ErrModelUnavailable = errors.New("model unavailable")

// ModelUnavailableError is returned by Predict when the gateway is degraded.
// Reason is the error recorded when loading the artifact failed.
type ModelUnavailableError struct {
	Reason error
}

func (e *ModelUnavailableError) Error() string {
	if e.Reason == nil {
		return ErrModelUnavailable.Error()
	}
	return fmt.Sprintf("%s: %v", ErrModelUnavailable, e.Reason)
}

func (e *ModelUnavailableError) Is(target error) bool {
	return target == ErrModelUnavailable
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Reason
}

// InferenceError reports a failure inside the classifier on a structurally
// valid vector.
type InferenceError struct {
	Cause error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Cause)
}

func (e *InferenceError) Unwrap() error {
	return e.Cause
}
