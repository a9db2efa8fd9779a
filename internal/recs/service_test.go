package recs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-recommender/internal/feedback"
	"github.com/jonathan/job-recommender/internal/observability"
	"github.com/jonathan/job-recommender/internal/types"
)

type fakeReranker struct {
	ranked  []types.RankedCandidate
	err     error
	gotTopK int
	gotN    int
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, _ *types.UserProfile, candidates []types.CandidateScore, topK int) ([]types.RankedCandidate, error) {
	f.gotTopK = topK
	f.gotN = len(candidates)
	return f.ranked, f.err
}

func sampleJobs() []types.JobPosting {
	return []types.JobPosting{
		{JobID: "naver_1", CompanyID: "naver", Title: "백엔드", Skills: []string{"Go", "Kafka"}, Region: "서울"},
		{JobID: "kakao_1", CompanyID: "kakao", Title: "데이터", Skills: []string{"Python", "SQL", "Spark"}},
	}
}

func sampleUser() *types.UserProfile {
	return &types.UserProfile{Skills: []string{"Python", "SQL"}, Region: "서울"}
}

func TestRecommend_NoProfile(t *testing.T) {
	svc := NewService(Options{})
	_, err := svc.Recommend(context.Background(), "s1", nil, sampleJobs(), 20)
	assert.ErrorIs(t, err, ErrNoUserProfile)
}

func TestRecommend_NoJobs(t *testing.T) {
	svc := NewService(Options{})
	res, err := svc.Recommend(context.Background(), "s1", sampleUser(), nil, 20)
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}

func TestRecommend_Local(t *testing.T) {
	store := feedback.NewStore()
	_, err := store.Apply("s1", types.FeedbackLike, &types.FeedbackTarget{Company: "naver"})
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	svc := NewService(Options{Boosts: store, Metrics: metrics})

	res, err := svc.Recommend(context.Background(), "s1", sampleUser(), sampleJobs(), 20)
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, res.Source)
	require.Len(t, res.Items, 2)

	// kakao: 0.4*1 + 0.175 + 0.075 + 0.05 = 0.7; naver: 0 + 0.175 + 0.075 + 0.1 = 0.35 (+0.05 boost)
	assert.Equal(t, "kakao_1", res.Items[0].JobID)
	assert.Equal(t, 0.7, res.Items[0].FinalScore)
	assert.Equal(t, "naver_1", res.Items[1].JobID)
	assert.Equal(t, 0.4, res.Items[1].FinalScore)
	assert.Equal(t, 0.35, res.Items[1].ScoreV1)
	assert.Equal(t, "개인화 보정 +0.05 · 스킬: Go, Kafka · 지역: 서울", res.Items[1].Reason)
}

func TestRecommend_Remote(t *testing.T) {
	remote := &fakeReranker{ranked: []types.RankedCandidate{
		{JobID: "naver_1", FinalScore: 0.9, Reason: "remote"},
		{JobID: "ghost", FinalScore: 0.1},
	}}
	svc := NewService(Options{Remote: remote})

	res, err := svc.Recommend(context.Background(), "s1", sampleUser(), sampleJobs(), 100)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, res.Source)
	assert.Equal(t, 50, remote.gotTopK)
	assert.Equal(t, 2, remote.gotN)

	require.Len(t, res.Items, 2)
	assert.Equal(t, "백엔드", res.Items[0].Title)
	assert.Equal(t, 0.9, res.Items[0].FinalScore)
	assert.Equal(t, "ghost", res.Items[1].JobID)
	assert.Empty(t, res.Items[1].Title)
}

func TestRecommend_RemoteListIsCappedAtTop(t *testing.T) {
	remote := &fakeReranker{ranked: []types.RankedCandidate{
		{JobID: "naver_1", FinalScore: 0.9},
		{JobID: "kakao_1", FinalScore: 0.8},
		{JobID: "toss_1", FinalScore: 0.7},
	}}
	svc := NewService(Options{Remote: remote})

	res, err := svc.Recommend(context.Background(), "s1", sampleUser(), sampleJobs(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, remote.gotTopK)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "naver_1", res.Items[0].JobID)
}

func TestRecommend_RemoteFailureFallsBack(t *testing.T) {
	svc := NewService(Options{Remote: &fakeReranker{err: errors.New("connection refused")}})

	res, err := svc.Recommend(context.Background(), "s1", sampleUser(), sampleJobs(), 1)
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, res.Source)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "kakao_1", res.Items[0].JobID)
}

func TestRecommend_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewService(Options{Remote: &fakeReranker{err: context.Canceled}})

	_, err := svc.Recommend(ctx, "s1", sampleUser(), sampleJobs(), 20)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecommend_CandidateLimit(t *testing.T) {
	jobs := make([]types.JobPosting, 0, 120)
	for i := range 120 {
		jobs = append(jobs, types.JobPosting{JobID: fmt.Sprintf("job_%d", i), CompanyID: "c"})
	}
	remote := &fakeReranker{}
	svc := NewService(Options{Remote: remote})

	_, err := svc.Recommend(context.Background(), "s1", sampleUser(), jobs, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, remote.gotN)
	assert.Equal(t, 20, remote.gotTopK)
}

func TestTopK(t *testing.T) {
	svc := NewService(Options{})
	assert.Equal(t, 20, svc.TopK(0))
	assert.Equal(t, 20, svc.TopK(-3))
	assert.Equal(t, 7, svc.TopK(7))
	assert.Equal(t, 50, svc.TopK(80))
}
