package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/job-recommender/internal/insights"
	"github.com/jonathan/job-recommender/internal/types"
)

type insightLookup func(ctx context.Context, req *types.InsightRequest) (*insights.Result, error)

// serveInsight decodes an insight request and runs lookup on it. Failures
// that are not the caller's fault are reported as 500 with failureCode.
func (s *Server) serveInsight(w http.ResponseWriter, r *http.Request, failureCode string, lookup insightLookup) {
	if s.insights == nil {
		s.codeResponse(w, http.StatusServiceUnavailable, "INSIGHTS_UNAVAILABLE", "company insights are not configured")
		return
	}

	var req types.InsightRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	result, err := lookup(r.Context(), &req)
	if err != nil {
		if status, _, ok := classify(err); ok && status < http.StatusInternalServerError {
			s.errorResponse(w, err)
			return
		}
		s.logger.Error("insight lookup failed", zap.String("code", failureCode), zap.Error(err))
		s.codeResponse(w, http.StatusInternalServerError, failureCode, "insight lookup failed")
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleCompanyInfo(w http.ResponseWriter, r *http.Request) {
	s.serveInsight(w, r, "COMPANY_INFO_FAILED", s.insights.CompanyInfo)
}

func (s *Server) handleJobEssays(w http.ResponseWriter, r *http.Request) {
	s.serveInsight(w, r, "JOB_ESSAYS_FAILED", s.insights.JobEssays)
}

func (s *Server) handleJobTips(w http.ResponseWriter, r *http.Request) {
	s.serveInsight(w, r, "JOB_TIPS_FAILED", s.insights.JobTips)
}

func (s *Server) handleComprehensiveJobInfo(w http.ResponseWriter, r *http.Request) {
	s.serveInsight(w, r, "COMPREHENSIVE_INFO_FAILED", s.insights.Comprehensive)
}
