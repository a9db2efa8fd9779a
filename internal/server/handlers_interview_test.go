package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-recommender/internal/interview"
	"github.com/jonathan/job-recommender/internal/types"
)

type stubGenerator struct {
	name string
	iv   *types.Interview
	err  error
}

func (g *stubGenerator) Name() string { return g.name }

func (g *stubGenerator) Generate(context.Context, *interview.Input) (*types.Interview, error) {
	return g.iv, g.err
}

func TestInterview_Template(t *testing.T) {
	ts := newTestServer(t)
	sid := ts.seedSession(t)
	require.NoError(t, ts.sessions.AppendCompany(sid, types.Company{CompanyID: "kakao", Name: "카카오"}))

	w := ts.get("/session/interview?sessionId=" + sid + "&jobId=kakao_1")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp InterviewResponse
	decodeInto(t, w, &resp)

	assert.True(t, resp.Success)
	assert.Equal(t, "template", resp.GenerationMethod)
	assert.Equal(t, JobInfo{JobID: "kakao_1", Title: "백엔드 개발자", Company: "kakao", Skills: []string{"Go", "Kafka"}}, resp.JobInfo)
	assert.True(t, fixedNow.Equal(resp.GeneratedAt))
	require.Len(t, resp.Questions, 5)
	assert.Contains(t, resp.Questions[2].Question, "Go, Kafka")
	assert.Equal(t, "카카오의 제품/서비스 중 개선하고 싶은 점은 무엇인가요?", resp.Questions[4].Question)
}

func TestInterview_QuestionCount(t *testing.T) {
	ts := newTestServer(t)
	sid := ts.seedSession(t)

	w := ts.get("/session/interview?sessionId=" + sid + "&jobId=toss_1&questionCount=2&difficulty=hard")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp InterviewResponse
	decodeInto(t, w, &resp)
	assert.Len(t, resp.Questions, 2)
}

func TestInterview_UsesFirstWorkingGenerator(t *testing.T) {
	failing := &stubGenerator{name: "remote", err: errors.New("timeout")}
	working := &stubGenerator{name: "gemini", iv: &types.Interview{
		Questions: []types.InterviewQuestion{{Category: interview.CategoryTech, Question: "Kafka 파티션 설계는?", Why: "분산 메시징 이해"}},
		Strategy:  map[string]any{"focus": "system design"},
	}}
	ts := newTestServer(t, func(o *Options) { o.Interviews = interview.NewChain(nil, failing, working) })
	sid := ts.seedSession(t)

	w := ts.get("/session/interview?sessionId=" + sid + "&jobId=kakao_1")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "gemini", body["generation_method"])
	assert.Equal(t, map[string]any{"focus": "system design"}, body["interview_strategy"])
	assert.Len(t, body["questions"], 1)
}

func TestInterview_Errors(t *testing.T) {
	ts := newTestServer(t)
	sid := ts.seedSession(t)
	bare := ts.startSession(t)

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"no session", "sessionId=missing&jobId=kakao_1", http.StatusBadRequest, "NO_SESSION"},
		{"no profile", "sessionId=" + bare + "&jobId=kakao_1", http.StatusBadRequest, "NO_USER_PROFILE"},
		{"unknown job", "sessionId=" + sid + "&jobId=nope", http.StatusNotFound, "JOB_NOT_FOUND"},
		{"bad difficulty", "sessionId=" + sid + "&jobId=kakao_1&difficulty=brutal", http.StatusBadRequest, "BAD_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.get("/session/interview?" + tt.query)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}
