package recs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-recommender/internal/config"
	"github.com/jonathan/job-recommender/internal/types"
	"github.com/jonathan/job-recommender/internal/upstream"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(upstream.New(upstream.Options{
		Name:    "recs",
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Breaker: config.BreakerConfig{},
	}))
}

func TestClient_Rerank(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tools/rerank_jobs", r.URL.Path)

		var body rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "s1", body.SessionID)
		assert.Equal(t, 5, body.TopK)
		assert.Equal(t, []string{"Go"}, body.User.Skills)
		assert.Len(t, body.Candidates, 1)

		_, _ = w.Write([]byte(`{"ranked":[{"job_id":"a","finalScore":0.81,"reason":"스킬: Go"}]}`))
	})

	ranked, err := client.Rerank(context.Background(), "s1",
		&types.UserProfile{Skills: []string{"Go"}},
		[]types.CandidateScore{{JobID: "a", ScoreV1: 0.5}}, 5)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, types.RankedCandidate{JobID: "a", FinalScore: 0.81, Reason: "스킬: Go"}, ranked[0])
}

func TestClient_RerankUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Rerank(context.Background(), "s1", &types.UserProfile{}, nil, 5)
	assert.ErrorIs(t, err, upstream.ErrUnavailable)
}

func TestClient_Feedback(t *testing.T) {
	var got feedbackRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tools/feedback", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	err := client.Feedback(context.Background(), "s1", types.FeedbackLike, &types.FeedbackTarget{Skill: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, types.FeedbackLike, got.Type)
	assert.Equal(t, "Go", got.Target.Skill)
}

func TestClient_GenerateInterview(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tools/gpt_generate_interview", r.URL.Path)

		var body InterviewRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 8, body.InterviewConfig.QuestionCount)
		assert.Equal(t, "naver_1", body.JobDetails.JobID)

		_, _ = w.Write([]byte(`{"interview":{"questions":[{"category":"tech","q":"Go 채널을 설명해주세요.","why":"기본기"}],"strategy":{"focus":"Go"}}}`))
	})

	iv, err := client.GenerateInterview(context.Background(), &InterviewRequest{
		SessionID:       "s1",
		JobDetails:      &types.JobPosting{JobID: "naver_1"},
		InterviewConfig: InterviewConfig{QuestionCount: 8, Difficulty: "mixed"},
	})
	require.NoError(t, err)
	require.Len(t, iv.Questions, 1)
	assert.Equal(t, "tech", iv.Questions[0].Category)
	assert.Equal(t, map[string]any{"focus": "Go"}, iv.Strategy)
	assert.Nil(t, iv.JobMatchAnalysis)
}

func TestClient_GenerateInterviewEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"interview":{"questions":[]}}`))
	})

	_, err := client.GenerateInterview(context.Background(), &InterviewRequest{SessionID: "s1"})
	assert.ErrorIs(t, err, upstream.ErrUnavailable)
}

func TestClient_Insights(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "네이버", body["company_name"])

		switch r.URL.Path {
		case "/tools/get_company_reviews":
			_, _ = w.Write([]byte(`{"success":true,"data":{"rating":4.1}}`))
		case "/tools/get_job_essays":
			assert.Equal(t, "백엔드", body["job_position"])
			_, _ = w.Write([]byte(`{"success":false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	raw, err := client.CompanyReviews(context.Background(), "네이버")
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"rating":4.1}}`, string(raw))

	_, err = client.JobEssays(context.Background(), "네이버", "백엔드")
	assert.ErrorIs(t, err, ErrInsightFailed)
}
