package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"irrigation-predictor/internal/ml"
	"irrigation-predictor/internal/reading"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorResponse_StatusMapping(t *testing.T) {
	verr := &reading.ValidationError{Fields: []reading.FieldError{{Field: "pressure", Message: "must be between 80 and 120", Min: 80, Max: 120}}}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"malformed body", fmt.Errorf("%w: unexpected EOF", reading.ErrMalformedBody), http.StatusBadRequest},
		{"validation", verr, http.StatusUnprocessableEntity},
		{"wrapped validation", fmt.Errorf("decode: %w", verr), http.StatusUnprocessableEntity},
		{"model unavailable", &ml.ModelUnavailableError{Reason: errors.New("missing")}, http.StatusServiceUnavailable},
		{"inference", &ml.InferenceError{Cause: errors.New("nan")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := NewErrorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, body.Detail)
		})
	}
}

func TestNewErrorResponse_ValidationCarriesFields(t *testing.T) {
	verr := &reading.ValidationError{Fields: []reading.FieldError{{Field: "pressure", Message: "must be between 80 and 120", Min: 80, Max: 120}}}

	_, body := NewErrorResponse(verr)

	assert.Len(t, body.Errors, 1)
	assert.Equal(t, "pressure", body.Errors[0].Field)
}

func TestNewPredictionResponse(t *testing.T) {
	resp := NewPredictionResponse(ml.PredictionResult{Label: ml.StringLabel("ON"), Success: true})

	assert.True(t, resp.Success)
	assert.Equal(t, "ON", resp.Status.String())
}
