// Package session holds the per-session mutable state of the recommender:
// the submitted profile and the postings and companies ingested so far.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-recommender/internal/types"
)

// ErrNoSession is returned when a session id is empty or unknown.
var ErrNoSession = errors.New("no session")

// State is a copy of one session's contents.
type State struct {
	User      *types.UserProfile
	Jobs      []types.JobPosting
	Companies []types.Company
}

// FindJob returns the first job with the given id.
func (s *State) FindJob(jobID string) (*types.JobPosting, bool) {
	for i := range s.Jobs {
		if s.Jobs[i].JobID == jobID {
			return &s.Jobs[i], true
		}
	}
	return nil, false
}

// FindCompany returns the first company with the given id.
func (s *State) FindCompany(companyID string) (*types.Company, bool) {
	for i := range s.Companies {
		if s.Companies[i].CompanyID == companyID {
			return &s.Companies[i], true
		}
	}
	return nil, false
}

type entry struct {
	state      State
	lastAccess time.Time
}

// Config controls session lifetime.
type Config struct {
	// IdleTTL evicts sessions not touched for this long. Zero keeps sessions
	// for the lifetime of the process.
	IdleTTL time.Duration
	// SweepInterval is how often idle sessions are looked for.
	SweepInterval time.Duration
}

// Registry owns every session of the process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	config   Config
	now      func() time.Time

	sweepTicker *time.Ticker
	sweepStop   chan struct{}
	stopOnce    sync.Once
}

// NewRegistry creates an empty registry. When cfg.IdleTTL is set, a background
// sweep removes idle sessions until Stop is called.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{
		sessions: make(map[string]*entry),
		config:   cfg,
		now:      time.Now,
	}

	if cfg.IdleTTL > 0 {
		interval := cfg.SweepInterval
		if interval <= 0 {
			interval = cfg.IdleTTL
		}
		r.sweepTicker = time.NewTicker(interval)
		r.sweepStop = make(chan struct{})
		go r.sweep(r.sweepTicker, r.sweepStop)
	}

	return r
}

// Create starts a new, empty session and returns its id.
func (r *Registry) Create() string {
	id := uuid.NewString()

	r.mu.Lock()
	r.sessions[id] = &entry{
		state: State{
			Jobs:      []types.JobPosting{},
			Companies: []types.Company{},
		},
		lastAccess: r.now(),
	}
	r.mu.Unlock()

	return id
}

// Get returns a copy of the session state.
func (r *Registry) Get(id string) (*State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	return &State{
		User:      e.state.User,
		Jobs:      append([]types.JobPosting(nil), e.state.Jobs...),
		Companies: append([]types.Company(nil), e.state.Companies...),
	}, nil
}

// SetUserProfile replaces the session's profile. Fields missing from the new
// profile are not carried over from the old one.
func (r *Registry) SetUserProfile(id string, profile *types.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.state.User = profile
	return nil
}

// AppendJob adds a posting. Duplicate job ids are kept.
func (r *Registry) AppendJob(id string, job types.JobPosting) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.state.Jobs = append(e.state.Jobs, job)
	return nil
}

// AppendCompany adds a company document.
func (r *Registry) AppendCompany(id string, company types.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.state.Companies = append(e.state.Companies, company)
	return nil
}

// Counts returns how many jobs and companies the session holds.
func (r *Registry) Counts(id string) (jobs, companies int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(id)
	if err != nil {
		return 0, 0, err
	}
	return len(e.state.Jobs), len(e.state.Companies), nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// lookup must be called with r.mu held for writing; it refreshes the access time.
func (r *Registry) lookup(id string) (*entry, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	e.lastAccess = r.now()
	return e, nil
}

func (r *Registry) sweep(ticker *time.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-stop:
			return
		}
	}
}

// evictIdle drops sessions idle for longer than the configured TTL.
func (r *Registry) evictIdle() int {
	if r.config.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.config.IdleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, e := range r.sessions {
		if e.lastAccess.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Stop ends the background sweep, if any. It is safe to call more than once.
func (r *Registry) Stop() {
	if r.sweepTicker == nil {
		return
	}
	r.stopOnce.Do(func() {
		r.sweepTicker.Stop()
		close(r.sweepStop)
	})
}
