// Package upstream is the HTTP client for the external recommendation and
// ingestion services. Calls go through a circuit breaker and their responses
// are checked against a JSON Schema before decoding.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/jonathan/job-recommender/internal/config"
	"github.com/jonathan/job-recommender/internal/observability"
	"github.com/jonathan/job-recommender/internal/schemas"
)

// ErrUnavailable matches every error returned by Client, so callers can detect
// an upstream failure with errors.Is regardless of its cause.
var ErrUnavailable = errors.New("upstream unavailable")

// Error describes a failed call to an external service.
type Error struct {
	Service   string
	Operation string
	Status    int
	Cause     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: HTTP status %d: %v", e.Service, e.Operation, e.Status, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Operation, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports true for ErrUnavailable.
func (e *Error) Is(target error) bool { return target == ErrUnavailable }

// statusError marks a non-2xx response.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, observability.Truncate(e.body, 200))
}

// Options configures a Client.
type Options struct {
	Name    string
	BaseURL string
	Timeout time.Duration
	Breaker config.BreakerConfig
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Client calls one external service.
type Client struct {
	name    string
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New creates a Client for the service at opts.BaseURL.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("service", opts.Name))

	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		name:    opts.Name,
		http:    httpClient,
		breaker: newBreaker(opts.Name, opts.Breaker, logger),
		logger:  logger,
		metrics: opts.Metrics,
	}
}

func newBreaker(name string, cfg config.BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[*resty.Response] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		// 4xx answers mean the service is up; only transport errors and 5xx trip the breaker.
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.status < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return gobreaker.NewCircuitBreaker[*resty.Response](settings)
}

// Name returns the service name used in logs and metrics.
func (c *Client) Name() string { return c.name }

// PostJSON sends body as JSON to path, validates the response against schema
// and decodes it into out.
func (c *Client) PostJSON(ctx context.Context, operation, path string, body any, schema schemas.Name, out any) error {
	return c.call(ctx, operation, schema, out, func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post(path)
	})
}

// PostFile uploads content as a multipart form file named field.
func (c *Client) PostFile(ctx context.Context, operation, path, field, filename string, content []byte, schema schemas.Name, out any) error {
	return c.call(ctx, operation, schema, out, func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetFileReader(field, filename, bytes.NewReader(content)).
			Post(path)
	})
}

func (c *Client) call(ctx context.Context, operation string, schema schemas.Name, out any, send func() (*resty.Response, error)) error {
	start := time.Now()

	resp, err := c.execute(func() (*resty.Response, error) {
		resp, err := send()
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return resp, &statusError{status: resp.StatusCode(), body: resp.String()}
		}
		return resp, nil
	})
	if err == nil && schema != "" {
		err = schemas.Validate(schema, resp.Body())
	}
	if err == nil && out != nil {
		if uerr := json.Unmarshal(resp.Body(), out); uerr != nil {
			err = fmt.Errorf("failed to decode response: %w", uerr)
		}
	}

	if err != nil {
		c.metrics.RecordUpstreamFailure(c.name, operation)
		status := 0
		if resp != nil {
			status = resp.StatusCode()
		}
		c.logger.Warn("upstream call failed",
			zap.String("operation", operation),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.Bool("canceled", ctx.Err() != nil),
			zap.Error(err))
		return &Error{Service: c.name, Operation: operation, Status: status, Cause: err}
	}

	c.logger.Debug("upstream call",
		zap.String("operation", operation),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Client) execute(fn func() (*resty.Response, error)) (*resty.Response, error) {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.Execute(fn)
}
