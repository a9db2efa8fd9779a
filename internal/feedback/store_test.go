package feedback

import (
	"sync"
	"testing"

	"github.com/jonathan/job-recommender/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_MissingFields(t *testing.T) {
	s := NewStore()

	_, err := s.Apply("", types.FeedbackSave, &types.FeedbackTarget{Skill: "Go"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = s.Apply("s1", "", &types.FeedbackTarget{Skill: "Go"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = s.Apply("s1", types.FeedbackSave, nil)
	assert.ErrorIs(t, err, ErrMissingFields)

	_, ok := s.Boosts("s1")
	assert.False(t, ok, "rejected events must not create a profile")
}

func TestApply_UnknownType(t *testing.T) {
	s := NewStore()
	_, err := s.Apply("s1", "star", &types.FeedbackTarget{Skill: "Go"})
	assert.ErrorIs(t, err, types.ErrBadInput)
}

func TestApply_SaveLowercasesSkill(t *testing.T) {
	s := NewStore()

	boosts, err := s.Apply("s1", types.FeedbackSave, &types.FeedbackTarget{Skill: "Python"})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, boosts.Skills["python"], 1e-9)
	assert.NotContains(t, boosts.Skills, "Python")
	assert.InDelta(t, 0.05, s.SkillBoost("s1", "PYTHON"), 1e-9)
}

func TestApply_SaveSaturatesAtCeiling(t *testing.T) {
	s := NewStore()

	var boosts types.Boosts
	var err error
	for i := 0; i < 20; i++ {
		boosts, err = s.Apply("s1", types.FeedbackSave, &types.FeedbackTarget{Skill: "Python"})
		require.NoError(t, err)
		assert.LessOrEqual(t, boosts.Skills["python"], Ceiling)
	}

	assert.Equal(t, 0.5, boosts.Skills["python"])
}

func TestApply_HideSaturatesAtFloor(t *testing.T) {
	s := NewStore()

	var boosts types.Boosts
	var err error
	for i := 0; i < 25; i++ {
		boosts, err = s.Apply("s1", types.FeedbackHide, &types.FeedbackTarget{Company: "naver"})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, boosts.Companies["naver"], Floor)
	}

	assert.Equal(t, -0.5, boosts.Companies["naver"])
}

func TestApply_CompanyKeysAreCaseSensitive(t *testing.T) {
	s := NewStore()

	_, err := s.Apply("s1", types.FeedbackHide, &types.FeedbackTarget{Company: "Naver"})
	require.NoError(t, err)

	assert.InDelta(t, -0.05, s.CompanyBoost("s1", "Naver"), 1e-9)
	assert.Equal(t, 0.0, s.CompanyBoost("s1", "naver"))
}

func TestApply_HideIgnoresSkill(t *testing.T) {
	s := NewStore()

	boosts, err := s.Apply("s1", types.FeedbackHide, &types.FeedbackTarget{Skill: "Go"})
	require.NoError(t, err)
	assert.Empty(t, boosts.Skills)
	assert.Empty(t, boosts.Companies)
}

func TestApply_LikeRaisesSkillAndCompany(t *testing.T) {
	s := NewStore()

	boosts, err := s.Apply("s1", types.FeedbackLike, &types.FeedbackTarget{Skill: "Go", Company: "kakao"})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, boosts.Skills["go"], 1e-9)
	assert.InDelta(t, 0.05, boosts.Companies["kakao"], 1e-9)
}

func TestApply_EmptyTargetCreatesProfile(t *testing.T) {
	s := NewStore()

	boosts, err := s.Apply("s1", types.FeedbackSave, &types.FeedbackTarget{})
	require.NoError(t, err)
	assert.Empty(t, boosts.Skills)

	_, ok := s.Boosts("s1")
	assert.True(t, ok)
}

func TestBoosts_SessionsAreIsolated(t *testing.T) {
	s := NewStore()
	_, err := s.Apply("s1", types.FeedbackSave, &types.FeedbackTarget{Skill: "Go"})
	require.NoError(t, err)

	other, ok := s.Boosts("s2")
	assert.False(t, ok)
	assert.Empty(t, other.Skills)
	assert.NotNil(t, other.Companies)
}

func TestBoosts_ReturnsCopy(t *testing.T) {
	s := NewStore()
	_, err := s.Apply("s1", types.FeedbackSave, &types.FeedbackTarget{Skill: "Go"})
	require.NoError(t, err)

	boosts, _ := s.Boosts("s1")
	boosts.Skills["go"] = 10

	assert.InDelta(t, 0.05, s.SkillBoost("s1", "go"), 1e-9)
}

func TestApply_ConcurrentStaysWithinBounds(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Apply("s1", types.FeedbackHide, &types.FeedbackTarget{Company: "naver"})
		}()
	}
	wg.Wait()

	v := s.CompanyBoost("s1", "naver")
	assert.GreaterOrEqual(t, v, Floor)
	assert.Less(t, v, 0.0)
}
