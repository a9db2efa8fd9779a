package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	for _, tt := range []struct{ json, debug bool }{{false, false}, {true, false}, {true, true}} {
		logger, err := NewLogger(tt.json, tt.debug)
		require.NoError(t, err)
		assert.Equal(t, tt.debug, logger.Core().Enabled(-1))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("  abc  ", 5))
	assert.Equal(t, "백엔드...", Truncate("백엔드 개발자", 3))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordRecommendation("local")
	m.RecordRecommendation("local")
	m.RecordRecommendation("remote")
	m.RecordFeedback("save")
	m.RecordIngest("file", "job")
	m.RecordUpstreamFailure("recs", "rerank_jobs")
	m.SetActiveSessions(3)
	m.ObserveRequest(http.MethodGet, "GET /health", http.StatusOK, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.recommendations.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendations.WithLabelValues("remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.feedback.WithLabelValues("save")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingested.WithLabelValues("file", "job")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamFailures.WithLabelValues("recs", "rerank_jobs")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /health", "200")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordFeedback("hide")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `job_recommender_feedback_events_total{type="hide"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFeedback("like")
		m.RecordRecommendation("local")
		m.ObserveRequest("GET", "/", 200, time.Second)
		m.SetActiveSessions(1)
	})
}
