// Package feedback accumulates per-session personalization boosts from
// explicit save, like and hide events.
package feedback

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/jonathan/job-recommender/internal/types"
)

// ErrMissingFields is returned when a feedback event lacks a session, type or target.
var ErrMissingFields = errors.New("missing fields")

// Boost bounds and step.
const (
	Step    = 0.05
	Ceiling = 0.5
	Floor   = -0.5
)

type profile struct {
	skills    map[string]float64
	companies map[string]float64
}

// Store holds boosts per session for the life of the process. It is keyed by
// session id but does not consult the session registry: boosts outlive the
// session they were recorded for.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*profile
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{profiles: make(map[string]*profile)}
}

// Apply records one feedback event and returns the session's boosts afterwards.
//
// save and like raise the target skill and company; hide lowers the target
// company. Skills are keyed lowercase, companies as given.
//
// The current value is read and the new value written under separate lock
// acquisitions, so two concurrent events on the same key can lose an update.
func (s *Store) Apply(sessionID string, kind types.FeedbackType, target *types.FeedbackTarget) (types.Boosts, error) {
	if sessionID == "" || kind == "" || target == nil {
		return types.Boosts{}, ErrMissingFields
	}
	if !kind.Valid() {
		return types.Boosts{}, fmt.Errorf("%w: unknown feedback type %q", types.ErrBadInput, kind)
	}

	p := s.ensure(sessionID)

	switch kind {
	case types.FeedbackSave, types.FeedbackLike:
		if target.Skill != "" {
			key := strings.ToLower(target.Skill)
			s.set(p.skills, key, min(s.get(p.skills, key)+Step, Ceiling))
		}
		if target.Company != "" {
			s.set(p.companies, target.Company, min(s.get(p.companies, target.Company)+Step, Ceiling))
		}
	case types.FeedbackHide:
		if target.Company != "" {
			s.set(p.companies, target.Company, max(s.get(p.companies, target.Company)-Step, Floor))
		}
	}

	return s.snapshot(p), nil
}

// Boosts returns a copy of the session's boosts. ok is false when the session
// never sent feedback.
func (s *Store) Boosts(sessionID string) (types.Boosts, bool) {
	s.mu.RLock()
	p, ok := s.profiles[sessionID]
	s.mu.RUnlock()
	if !ok {
		return types.Boosts{Skills: map[string]float64{}, Companies: map[string]float64{}}, false
	}
	return s.snapshot(p), true
}

// SkillBoost returns the boost of one skill, matched case-insensitively.
func (s *Store) SkillBoost(sessionID, skill string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[sessionID]; ok {
		return p.skills[strings.ToLower(skill)]
	}
	return 0
}

// CompanyBoost returns the boost of one company id, matched exactly.
func (s *Store) CompanyBoost(sessionID, companyID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[sessionID]; ok {
		return p.companies[companyID]
	}
	return 0
}

// ensure returns the session's profile, creating it on first use.
func (s *Store) ensure(sessionID string) *profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[sessionID]
	if !ok {
		p = &profile{
			skills:    make(map[string]float64),
			companies: make(map[string]float64),
		}
		s.profiles[sessionID] = p
	}
	return p
}

func (s *Store) get(m map[string]float64, key string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return m[key]
}

func (s *Store) set(m map[string]float64, key string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m[key] = v
}

func (s *Store) snapshot(p *profile) types.Boosts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Boosts{
		Skills:    maps.Clone(p.skills),
		Companies: maps.Clone(p.companies),
	}
}
