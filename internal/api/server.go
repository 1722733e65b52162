// Package api exposes the prediction service over HTTP: request decoding,
// the predict lifecycle, health and informational routes, and the
// Prometheus scrape endpoint.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"irrigation-predictor/internal/common"
	"irrigation-predictor/internal/ml"
	"irrigation-predictor/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the HTTP layer
type MetricsInterface interface {
	RequestObserve(route string, code int, seconds float64)
	ValidationFailuresInc()
	AuditLogErrorsInc()
}

// AuditLog persists served predictions.
type AuditLog interface {
	StorePrediction(rec storage.PredictionRecord) error
}

// Config holds the listener settings.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Server serves the prediction API.
type Server struct {
	cfg      Config
	gateway  *ml.Gateway
	audit    AuditLog
	metrics  MetricsInterface
	gatherer prometheus.Gatherer
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithAuditLog records every successful prediction in a.
func WithAuditLog(a AuditLog) Option {
	return func(s *Server) { s.audit = a }
}

// WithMetrics records request metrics in m.
func WithMetrics(m MetricsInterface) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMetricsEndpoint serves g on GET /metrics.
func WithMetricsEndpoint(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewServer builds the router around an already loaded gateway.
func NewServer(cfg Config, gateway *ml.Gateway, opts ...Option) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = common.DefaultShutdownTimeout
	}
	s := &Server{cfg: cfg, gateway: gateway}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = Chain(cors, requestLogger(s.metrics), recoverer)(mux)
	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST "+common.RoutePredict, s.handlePredict)
	mux.HandleFunc("GET "+common.RouteHealth, s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET "+common.RouteDocs, s.handleDocs)
	mux.HandleFunc("GET "+common.RouteModelInfo, s.handleModelInfo)
	if s.gatherer != nil {
		mux.Handle("GET "+common.RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns the fully wrapped router (for tests).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("starting prediction server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Dur("timeout", s.cfg.ShutdownTimeout).Msg("shutting down prediction server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
