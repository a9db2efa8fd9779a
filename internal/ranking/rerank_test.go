package ranking

import (
	"encoding/json"
	"testing"

	"github.com/jonathan/job-recommender/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticBoosts serves fixed boosts for a single session.
type staticBoosts struct {
	sessionID string
	boosts    types.Boosts
}

func (s staticBoosts) Boosts(sessionID string) (types.Boosts, bool) {
	if sessionID != s.sessionID {
		return types.Boosts{}, false
	}
	return s.boosts, true
}

func sampleCandidates() []types.CandidateScore {
	return []types.CandidateScore{
		{JobID: "naver_1", CompanyID: "naver", Skills: []string{"Go", "Kafka"}, Region: "서울", ScoreV1: 0.6},
		{JobID: "kakao_1", CompanyID: "kakao", Skills: []string{"Python", "SQL", "Spark", "Airflow"}, ScoreV1: 0.55},
		{JobID: "toss_1", CompanyID: "toss", Skills: nil, ScoreV1: 0.6},
	}
}

func TestRerank_NoCandidates(t *testing.T) {
	_, err := Rerank(nil, "s1", 10, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = Rerank([]types.CandidateScore{}, "s1", 10, staticBoosts{})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestRerank_UnknownSessionGetsZeroBoost(t *testing.T) {
	source := staticBoosts{sessionID: "known", boosts: types.Boosts{
		Skills: map[string]float64{"go": 0.5},
	}}

	ranked, err := Rerank(sampleCandidates(), "unknown", 10, source)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	for _, r := range ranked {
		assert.NotContains(t, r.Reason, "개인화 보정")
	}
	assert.Equal(t, "naver_1", ranked[0].JobID)
	assert.Equal(t, 0.6, ranked[0].FinalScore)
	// tie with naver_1 keeps input order
	assert.Equal(t, "toss_1", ranked[1].JobID)
	assert.Equal(t, "kakao_1", ranked[2].JobID)
}

func TestRerank_AppliesCompanyAndBestSkillBoost(t *testing.T) {
	source := staticBoosts{sessionID: "s1", boosts: types.Boosts{
		Skills:    map[string]float64{"python": 0.1, "sql": 0.2, "spark": 0.05},
		Companies: map[string]float64{"kakao": 0.05, "naver": -0.1},
	}}

	ranked, err := Rerank(sampleCandidates(), "s1", 10, source)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	// kakao: 0.55 + 0.05 + max(0.1, 0.2, 0.05) = 0.8
	assert.Equal(t, "kakao_1", ranked[0].JobID)
	assert.Equal(t, 0.8, ranked[0].FinalScore)
	assert.Equal(t, "개인화 보정 +0.25 · 스킬: Python, SQL, Spark", ranked[0].Reason)

	assert.Equal(t, "toss_1", ranked[1].JobID)
	assert.Equal(t, "", ranked[1].Reason)

	// naver: negative boost lowers the score and is not annotated
	assert.Equal(t, "naver_1", ranked[2].JobID)
	assert.Equal(t, 0.5, ranked[2].FinalScore)
	assert.Equal(t, "스킬: Go, Kafka · 지역: 서울", ranked[2].Reason)
}

func TestRerank_TruncatesToTopK(t *testing.T) {
	ranked, err := Rerank(sampleCandidates(), "", 2, nil)
	require.NoError(t, err)
	assert.Len(t, ranked, 2)

	ranked, err = Rerank(sampleCandidates(), "", 50, nil)
	require.NoError(t, err)
	assert.Len(t, ranked, 3)
}

func TestRerank_NonPositiveTopKIsEmpty(t *testing.T) {
	for _, topK := range []int{0, -3} {
		ranked, err := Rerank(sampleCandidates(), "", topK, nil)
		require.NoError(t, err)
		assert.Empty(t, ranked)
	}
}

func TestRerank_Idempotent(t *testing.T) {
	source := staticBoosts{sessionID: "s1", boosts: types.Boosts{
		Skills: map[string]float64{"go": 0.05},
	}}

	first, err := Rerank(sampleCandidates(), "s1", 10, source)
	require.NoError(t, err)
	second, err := Rerank(sampleCandidates(), "s1", 10, source)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMerge_FirstCandidateWins(t *testing.T) {
	candidates := []types.CandidateScore{
		{JobID: "dup", Title: "first", ScoreV1: 0.4},
		{JobID: "dup", Title: "second", ScoreV1: 0.3},
	}
	ranked := []types.RankedCandidate{
		{JobID: "dup", FinalScore: 0.4},
		{JobID: "missing", FinalScore: 0.1, Reason: "x"},
	}

	items := Merge(candidates, ranked)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Title)
	assert.Equal(t, 0.4, items[0].FinalScore)
	assert.Equal(t, "missing", items[1].JobID)
	assert.Equal(t, "x", items[1].Reason)
}
