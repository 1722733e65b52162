package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"irrigation-predictor/internal/ml"
	"irrigation-predictor/internal/reading"

	"github.com/rs/zerolog/log"
)

// PredictionResponse is the success envelope for POST /predict.
type PredictionResponse struct {
	Status  ml.Label `json:"status"`
	Success bool     `json:"success"`
}

// ErrorResponse is the failure envelope shared by every route.
type ErrorResponse struct {
	Detail string               `json:"detail"`
	Errors []reading.FieldError `json:"errors,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelError  string `json:"model_error,omitempty"`
}

// RootResponse is returned by GET /.
type RootResponse struct {
	Message     string `json:"message"`
	DocsURL     string `json:"docs_url"`
	HealthCheck string `json:"health_check"`
}

// NewPredictionResponse wraps a successful prediction.
func NewPredictionResponse(res ml.PredictionResult) PredictionResponse {
	return PredictionResponse{Status: res.Label, Success: true}
}

// NewErrorResponse maps err to a status code and a failure envelope.
func NewErrorResponse(err error) (int, ErrorResponse) {
	var (
		verr *reading.ValidationError
		uerr *ml.ModelUnavailableError
		ierr *ml.InferenceError
	)

	switch {
	case errors.Is(err, reading.ErrMalformedBody):
		return http.StatusBadRequest, ErrorResponse{Detail: err.Error()}
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, ErrorResponse{Detail: verr.Error(), Errors: verr.Fields}
	case errors.As(err, &uerr):
		return http.StatusServiceUnavailable, ErrorResponse{Detail: uerr.Error()}
	case errors.As(err, &ierr):
		return http.StatusInternalServerError, ErrorResponse{Detail: ierr.Error()}
	case err == nil:
		return http.StatusInternalServerError, ErrorResponse{Detail: "unknown error"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Detail: err.Error()}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) int {
	status, body := NewErrorResponse(err)
	writeJSON(w, status, body)
	return status
}
