// Package client is a small HTTP client for the prediction service, used by
// the irrigation-cli tool.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"irrigation-predictor/internal/api"
	"irrigation-predictor/internal/common"
	"irrigation-predictor/internal/ml"
	"irrigation-predictor/internal/reading"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// ErrModelNotLoaded is returned by WaitReady when the service answers but
// reports no model.
var ErrModelNotLoaded = errors.New("service is up but no model is loaded")

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Detail     string
	Errors     []reading.FieldError
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("prediction service: status %d", e.StatusCode)
	}
	return fmt.Sprintf("prediction service: status %d: %s", e.StatusCode, e.Detail)
}

// Client talks to one prediction service instance.
type Client struct {
	base string
	rest *resty.Client
}

// New creates a client for the service at base (for example http://localhost:8000).
func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second)
	}
	r.SetHeader("Accept", "application/json")
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

// Predict posts payload to /predict and returns the label. payload may be a
// reading.Reading, a map, or raw JSON bytes; validation happens server side.
func (c *Client) Predict(ctx context.Context, payload any) (ml.Label, error) {
	var (
		out    api.PredictionResponse
		errOut api.ErrorResponse
	)
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&out).
		SetError(&errOut).
		Post(c.base + common.RoutePredict)
	if err != nil {
		return ml.Label{}, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return ml.Label{}, &APIError{StatusCode: resp.StatusCode(), Detail: errOut.Detail, Errors: errOut.Errors}
	}
	if !out.Success || out.Status.IsZero() {
		return ml.Label{}, fmt.Errorf("unexpected response: %s", resp.String())
	}
	return out.Status, nil
}

// Health fetches /health.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.get(ctx, common.RouteHealth, &out); err != nil {
		return api.HealthResponse{}, err
	}
	return out, nil
}

// ModelInfo fetches /model/info.
func (c *Client) ModelInfo(ctx context.Context) (api.ModelInfoResponse, error) {
	var out api.ModelInfoResponse
	if err := c.get(ctx, common.RouteModelInfo, &out); err != nil {
		return api.ModelInfoResponse{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, route string, out any) error {
	var errOut api.ErrorResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&errOut).
		Get(c.base + route)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Detail: errOut.Detail}
	}
	return nil
}

// WaitReady polls /health with exponential backoff until the service reports
// a loaded model, ctx is done, or maxWait elapses.
func (c *Client) WaitReady(ctx context.Context, maxWait time.Duration) (api.HealthResponse, error) {
	var last api.HealthResponse

	operation := func() error {
		h, err := c.Health(ctx)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			log.Debug().Err(err).Msg("service not reachable yet")
			return err
		}
		last = h
		if !h.ModelLoaded {
			return ErrModelNotLoaded
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = maxWait

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return last, err
	}
	return last, nil
}
