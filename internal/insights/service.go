// Package insights proxies company and application insight lookups to the
// scraping-backed insight tools of the recommendation service.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-recommender/internal/types"
)

// ErrMissingCompanyName is returned when a lookup names no company.
var ErrMissingCompanyName = errors.New("missing company name")

// DefaultCallTimeout bounds each lookup of a comprehensive request.
const DefaultCallTimeout = 8 * time.Second

// Fetcher performs the individual lookups. *recs.Client satisfies it.
type Fetcher interface {
	CompanyReviews(ctx context.Context, company string) (json.RawMessage, error)
	JobEssays(ctx context.Context, company, position string) (json.RawMessage, error)
	JobTips(ctx context.Context, company, position string) (json.RawMessage, error)
}

// Result wraps one lookup for clients.
type Result struct {
	Success     bool      `json:"success"`
	CompanyName string    `json:"company_name"`
	JobPosition string    `json:"job_position,omitempty"`
	Data        any       `json:"data"`
	Timestamp   time.Time `json:"timestamp"`
}

// Bundle holds the three lookups of a comprehensive request. A failed
// lookup is null.
type Bundle struct {
	CompanyInfo json.RawMessage `json:"company_info"`
	JobEssays   json.RawMessage `json:"job_essays"`
	JobTips     json.RawMessage `json:"job_tips"`
}

// Service runs insight lookups.
type Service struct {
	fetcher     Fetcher
	callTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a Service. A non-positive callTimeout uses DefaultCallTimeout.
func NewService(fetcher Fetcher, callTimeout time.Duration, logger *zap.Logger) *Service {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fetcher: fetcher, callTimeout: callTimeout, logger: logger, now: time.Now}
}

// CompanyInfo returns the company review document.
func (s *Service) CompanyInfo(ctx context.Context, req *types.InsightRequest) (*Result, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	data, err := s.fetcher.CompanyReviews(ctx, req.CompanyName)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, CompanyName: req.CompanyName, Data: data, Timestamp: s.now().UTC()}, nil
}

// JobEssays returns accepted cover letters for the company and position.
func (s *Service) JobEssays(ctx context.Context, req *types.InsightRequest) (*Result, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	data, err := s.fetcher.JobEssays(ctx, req.CompanyName, req.JobPosition)
	if err != nil {
		return nil, err
	}
	return s.positioned(req, data), nil
}

// JobTips returns application tips for the company and position.
func (s *Service) JobTips(ctx context.Context, req *types.InsightRequest) (*Result, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	data, err := s.fetcher.JobTips(ctx, req.CompanyName, req.JobPosition)
	if err != nil {
		return nil, err
	}
	return s.positioned(req, data), nil
}

// Comprehensive runs all three lookups concurrently. Individual failures are
// logged and reported as null; the request itself only fails on bad input.
func (s *Service) Comprehensive(ctx context.Context, req *types.InsightRequest) (*Result, error) {
	if err := check(req); err != nil {
		return nil, err
	}

	var (
		bundle Bundle
		g      errgroup.Group
	)
	lookups := []struct {
		name string
		dst  *json.RawMessage
		call func(context.Context) (json.RawMessage, error)
	}{
		{"company_info", &bundle.CompanyInfo, func(ctx context.Context) (json.RawMessage, error) {
			return s.fetcher.CompanyReviews(ctx, req.CompanyName)
		}},
		{"job_essays", &bundle.JobEssays, func(ctx context.Context) (json.RawMessage, error) {
			return s.fetcher.JobEssays(ctx, req.CompanyName, req.JobPosition)
		}},
		{"job_tips", &bundle.JobTips, func(ctx context.Context) (json.RawMessage, error) {
			return s.fetcher.JobTips(ctx, req.CompanyName, req.JobPosition)
		}},
	}

	for _, l := range lookups {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
			defer cancel()

			data, err := l.call(callCtx)
			if err != nil {
				s.logger.Warn("insight lookup failed",
					zap.String("lookup", l.name),
					zap.String("company", req.CompanyName),
					zap.Error(err))
				return nil
			}
			*l.dst = data
			return nil
		})
	}
	_ = g.Wait()

	return s.positioned(req, bundle), nil
}

func (s *Service) positioned(req *types.InsightRequest, data any) *Result {
	return &Result{
		Success:     true,
		CompanyName: req.CompanyName,
		JobPosition: req.PositionOrAll(),
		Data:        data,
		Timestamp:   s.now().UTC(),
	}
}

func check(req *types.InsightRequest) error {
	if req == nil || req.CompanyName == "" {
		return ErrMissingCompanyName
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrBadInput, err)
	}
	return nil
}
