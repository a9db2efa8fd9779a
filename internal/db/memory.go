package db

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-recommender/internal/types"
)

// MemoryStore is a UserStore that lives in process memory. It backs the
// server when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*types.User
	bySocial map[string]uuid.UUID
	profiles map[uuid.UUID]*types.UserProfile
	now      func() time.Time
}

var _ UserStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]*types.User),
		bySocial: make(map[string]uuid.UUID),
		profiles: make(map[uuid.UUID]*types.UserProfile),
		now:      time.Now,
	}
}

// UpsertUser implements UserStore.
func (m *MemoryStore) UpsertUser(_ context.Context, identity *types.SocialIdentity) (*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	key := identity.Provider + ":" + identity.Subject
	if id, ok := m.bySocial[key]; ok {
		u := m.users[id]
		u.Email, u.Name, u.Picture = identity.Email, identity.Name, identity.Picture
		u.UpdatedAt = now
		out := *u
		return &out, nil
	}

	u := &types.User{
		ID:        uuid.New(),
		Provider:  identity.Provider,
		Subject:   identity.Subject,
		Email:     identity.Email,
		Name:      identity.Name,
		Picture:   identity.Picture,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.users[u.ID] = u
	m.bySocial[key] = u.ID
	out := *u
	return &out, nil
}

// GetUser implements UserStore.
func (m *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (*types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

// SaveProfile implements UserStore.
func (m *MemoryStore) SaveProfile(_ context.Context, userID uuid.UUID, profile *types.UserProfile) error {
	p := &types.UserProfile{
		Skills:     slices.Clone(nonNilSkills(profile.Skills)),
		Years:      profile.Years,
		Region:     profile.Region,
		Role:       profile.Role,
		ResumeText: profile.ResumeText,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = p
	return nil
}

// GetProfile implements UserStore.
func (m *MemoryStore) GetProfile(_ context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	out := *p
	out.Skills = slices.Clone(p.Skills)
	return &out, nil
}

// Close implements UserStore.
func (m *MemoryStore) Close() {}
