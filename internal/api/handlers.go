package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"irrigation-predictor/internal/common"
	"irrigation-predictor/internal/features"
	"irrigation-predictor/internal/ml"
	"irrigation-predictor/internal/reading"
	"irrigation-predictor/internal/storage"

	"github.com/rs/zerolog/log"
)

// DocsResponse describes the predict endpoint for GET /docs.
type DocsResponse struct {
	Service string          `json:"service"`
	Predict EndpointDoc     `json:"predict"`
	Routes  []RouteDoc      `json:"routes"`
	Fields  []reading.Field `json:"fields"`
}

// EndpointDoc documents one request/response pair.
type EndpointDoc struct {
	Method      string         `json:"method"`
	Path        string         `json:"path"`
	ContentType string         `json:"content_type"`
	Example     map[string]any `json:"example"`
	Responses   map[int]string `json:"responses"`
}

// RouteDoc is a one-line summary of a route.
type RouteDoc struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Summary string `json:"summary"`
}

// ModelInfoResponse is returned by GET /model/info.
type ModelInfoResponse struct {
	State string `json:"state"`
	ml.ModelMetadata
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, common.MaxRequestBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.validationFailed()
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Detail: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		s.validationFailed()
		writeError(w, fmt.Errorf("%w: %v", reading.ErrMalformedBody, err))
		return
	}

	rd, err := reading.Decode(body)
	if err != nil {
		s.validationFailed()
		log.Debug().Err(err).Msg("rejected prediction request")
		writeError(w, err)
		return
	}

	res, err := s.gateway.Predict(features.Assemble(rd))
	if err != nil {
		writeError(w, err)
		return
	}

	s.recordPrediction(rd, res)
	writeJSON(w, http.StatusOK, NewPredictionResponse(res))
}

func (s *Server) validationFailed() {
	if s.metrics != nil {
		s.metrics.ValidationFailuresInc()
	}
}

// recordPrediction appends to the audit log. Failures never change the response.
func (s *Server) recordPrediction(rd reading.Reading, res ml.PredictionResult) {
	if s.audit == nil {
		return
	}
	rec := storage.PredictionRecord{
		Timestamp:    time.Now(),
		Reading:      rd,
		Label:        res.Label,
		ModelVersion: s.gateway.Metadata().Version,
		LatencyMs:    float64(res.Latency.Microseconds()) / 1000,
	}
	if err := s.audit.StorePrediction(rec); err != nil {
		log.Warn().Err(err).Msg("failed to write prediction audit record")
		if s.metrics != nil {
			s.metrics.AuditLogErrorsInc()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "OK",
		ModelLoaded: s.gateway.IsReady(),
	}
	if !resp.ModelLoaded {
		if err := s.gateway.LoadError(); err != nil {
			resp.ModelError = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message:     common.WelcomeMessage,
		DocsURL:     common.RouteDocs,
		HealthCheck: common.RouteHealth,
	})
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	example := make(map[string]any, len(reading.Fields))
	for _, f := range reading.Fields {
		example[f.Name] = (f.Min + f.Max) / 2
	}

	routes := []RouteDoc{
		{Method: http.MethodPost, Path: common.RoutePredict, Summary: "Predict the irrigation decision for one reading"},
		{Method: http.MethodGet, Path: common.RouteHealth, Summary: "Service liveness and model state"},
		{Method: http.MethodGet, Path: common.RouteRoot, Summary: "Welcome message"},
		{Method: http.MethodGet, Path: common.RouteDocs, Summary: "This document"},
		{Method: http.MethodGet, Path: common.RouteModelInfo, Summary: "Loaded model metadata"},
	}
	if s.gatherer != nil {
		routes = append(routes, RouteDoc{Method: http.MethodGet, Path: common.RouteMetrics, Summary: "Prometheus metrics"})
	}

	writeJSON(w, http.StatusOK, DocsResponse{
		Service: common.ServiceName,
		Predict: EndpointDoc{
			Method:      http.MethodPost,
			Path:        common.RoutePredict,
			ContentType: "application/json",
			Example:     example,
			Responses: map[int]string{
				http.StatusOK:                    `{"status": <label>, "success": true}`,
				http.StatusBadRequest:            "body is not a JSON object",
				http.StatusRequestEntityTooLarge: "body too large",
				http.StatusUnprocessableEntity:   "a field is missing, not a number or out of range",
				http.StatusServiceUnavailable:    "no model loaded",
				http.StatusInternalServerError:   "inference failed",
			},
		},
		Routes: routes,
		Fields: reading.Fields,
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if !s.gateway.IsReady() {
		writeError(w, &ml.ModelUnavailableError{Reason: s.gateway.LoadError()})
		return
	}
	writeJSON(w, http.StatusOK, ModelInfoResponse{
		State:         s.gateway.State().String(),
		ModelMetadata: s.gateway.Metadata(),
	})
}
