package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-recommender/internal/insights"
	"github.com/jonathan/job-recommender/internal/upstream"
)

type fakeFetcher struct {
	reviews json.RawMessage
	essays  json.RawMessage
	tips    json.RawMessage
	err     error
}

func (f *fakeFetcher) CompanyReviews(context.Context, string) (json.RawMessage, error) {
	if f.reviews == nil {
		return nil, f.err
	}
	return f.reviews, nil
}

func (f *fakeFetcher) JobEssays(context.Context, string, string) (json.RawMessage, error) {
	if f.essays == nil {
		return nil, f.err
	}
	return f.essays, nil
}

func (f *fakeFetcher) JobTips(context.Context, string, string) (json.RawMessage, error) {
	if f.tips == nil {
		return nil, f.err
	}
	return f.tips, nil
}

func withInsights(f insights.Fetcher) func(*Options) {
	return func(o *Options) { o.Insights = insights.NewService(f, 0, nil) }
}

func TestInsights_NotConfigured(t *testing.T) {
	ts := newTestServer(t)

	w := ts.postJSON(t, "/api/company-info", map[string]string{"company_name": "카카오"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "INSIGHTS_UNAVAILABLE", errorCode(t, w))
}

func TestInsights_CompanyInfo(t *testing.T) {
	ts := newTestServer(t, withInsights(&fakeFetcher{reviews: json.RawMessage(`{"rating":4.1}`)}))

	w := ts.postJSON(t, "/api/company-info", map[string]string{"company_name": "카카오"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "카카오", body["company_name"])
	assert.Equal(t, map[string]any{"rating": 4.1}, body["data"])
	assert.NotContains(t, body, "job_position")
}

func TestInsights_PositionDefaultsToAll(t *testing.T) {
	ts := newTestServer(t, withInsights(&fakeFetcher{essays: json.RawMessage(`[]`)}))

	w := ts.postJSON(t, "/api/job-essays", map[string]string{"company_name": "카카오"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "All positions", decodeBody(t, w)["job_position"])
}

func TestInsights_Comprehensive(t *testing.T) {
	f := &fakeFetcher{
		reviews: json.RawMessage(`{"rating":3.9}`),
		tips:    json.RawMessage(`["포트폴리오 준비"]`),
		err:     errors.New("essay source down"),
	}
	ts := newTestServer(t, withInsights(f))

	w := ts.postJSON(t, "/api/comprehensive-job-info", map[string]string{
		"company_name": "네이버", "job_position": "백엔드",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "백엔드", body["job_position"])
	data := body["data"].(map[string]any)
	assert.Equal(t, map[string]any{"rating": 3.9}, data["company_info"])
	assert.Nil(t, data["job_essays"])
	assert.Equal(t, []any{"포트폴리오 준비"}, data["job_tips"])
}

func TestInsights_Errors(t *testing.T) {
	down := &upstream.Error{Service: "recs", Operation: "job_tips", Cause: errors.New("connection refused")}
	ts := newTestServer(t, withInsights(&fakeFetcher{err: down}))

	tests := []struct {
		name   string
		path   string
		body   map[string]string
		status int
		code   string
	}{
		{"missing company", "/api/company-info", map[string]string{}, http.StatusBadRequest, "MISSING_COMPANY_NAME"},
		{"company name too long", "/api/job-tips", map[string]string{"company_name": strings.Repeat("가", 201)}, http.StatusBadRequest, "BAD_INPUT"},
		{"company lookup fails", "/api/company-info", map[string]string{"company_name": "카카오"}, http.StatusInternalServerError, "COMPANY_INFO_FAILED"},
		{"essays lookup fails", "/api/job-essays", map[string]string{"company_name": "카카오"}, http.StatusInternalServerError, "JOB_ESSAYS_FAILED"},
		{"tips lookup fails", "/api/job-tips", map[string]string{"company_name": "카카오"}, http.StatusInternalServerError, "JOB_TIPS_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.postJSON(t, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}
