package session

import (
	"sync"
	"testing"
	"time"

	"github.com/jonathan/job-recommender/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry(Config{})
	defer r.Stop()

	id := r.Create()
	require.NotEmpty(t, id)
	assert.NotEqual(t, id, r.Create())

	state, err := r.Get(id)
	require.NoError(t, err)
	assert.Nil(t, state.User)
	assert.Empty(t, state.Jobs)
	assert.Empty(t, state.Companies)
}

func TestRegistry_UnknownSession(t *testing.T) {
	r := NewRegistry(Config{})

	_, err := r.Get("")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrNoSession)

	assert.ErrorIs(t, r.SetUserProfile("missing", &types.UserProfile{}), ErrNoSession)
	assert.ErrorIs(t, r.AppendJob("missing", types.JobPosting{}), ErrNoSession)
	assert.ErrorIs(t, r.AppendCompany("", types.Company{}), ErrNoSession)

	_, _, err = r.Counts("missing")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRegistry_SetUserProfileReplacesWholesale(t *testing.T) {
	r := NewRegistry(Config{})
	id := r.Create()

	years := 3.0
	require.NoError(t, r.SetUserProfile(id, &types.UserProfile{
		Skills: []string{"Go"},
		Years:  &years,
		Region: "서울",
	}))
	require.NoError(t, r.SetUserProfile(id, &types.UserProfile{Skills: []string{"Java"}}))

	state, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Java"}, state.User.Skills)
	assert.Nil(t, state.User.Years)
	assert.Empty(t, state.User.Region)
}

func TestRegistry_AppendKeepsDuplicatesInOrder(t *testing.T) {
	r := NewRegistry(Config{})
	id := r.Create()

	require.NoError(t, r.AppendJob(id, types.JobPosting{JobID: "a", Title: "first"}))
	require.NoError(t, r.AppendJob(id, types.JobPosting{JobID: "a", Title: "second"}))
	require.NoError(t, r.AppendCompany(id, types.Company{CompanyID: "naver"}))

	state, err := r.Get(id)
	require.NoError(t, err)
	require.Len(t, state.Jobs, 2)
	assert.Equal(t, "first", state.Jobs[0].Title)
	assert.Equal(t, "second", state.Jobs[1].Title)

	job, ok := state.FindJob("a")
	require.True(t, ok)
	assert.Equal(t, "first", job.Title)

	_, ok = state.FindCompany("naver")
	assert.True(t, ok)
	_, ok = state.FindCompany("kakao")
	assert.False(t, ok)

	jobs, companies, err := r.Counts(id)
	require.NoError(t, err)
	assert.Equal(t, 2, jobs)
	assert.Equal(t, 1, companies)
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := NewRegistry(Config{})
	id := r.Create()
	require.NoError(t, r.AppendJob(id, types.JobPosting{JobID: "a"}))

	state, err := r.Get(id)
	require.NoError(t, err)
	state.Jobs[0].JobID = "changed"

	again, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Jobs[0].JobID)
}

func TestRegistry_NoEvictionByDefault(t *testing.T) {
	r := NewRegistry(Config{})
	r.Create()
	assert.Equal(t, 0, r.evictIdle())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_EvictIdle(t *testing.T) {
	r := NewRegistry(Config{IdleTTL: time.Hour, SweepInterval: time.Hour})
	defer r.Stop()

	now := time.Now()
	r.now = func() time.Time { return now }

	idle := r.Create()
	now = now.Add(30 * time.Minute)
	active := r.Create()
	now = now.Add(45 * time.Minute)

	assert.Equal(t, 1, r.evictIdle())

	_, err := r.Get(idle)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = r.Get(active)
	assert.NoError(t, err)
}

func TestRegistry_StopWhileSweeping(t *testing.T) {
	for range 200 {
		r := NewRegistry(Config{IdleTTL: time.Hour, SweepInterval: time.Microsecond})
		r.Create()
		time.Sleep(50 * time.Microsecond)
		r.Stop()
		r.Stop()
	}
}

func TestRegistry_StopWithoutSweep(t *testing.T) {
	r := NewRegistry(Config{})
	r.Stop()
	r.Stop()
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ConcurrentAppends(t *testing.T) {
	r := NewRegistry(Config{})
	id := r.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.AppendJob(id, types.JobPosting{JobID: "x"})
		}()
	}
	wg.Wait()

	jobs, _, err := r.Counts(id)
	require.NoError(t, err)
	assert.Equal(t, 50, jobs)
}
