package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/job-recommender/internal/db"
	"github.com/jonathan/job-recommender/internal/types"
)

// UserService provides business logic for signed-in users.
type UserService struct {
	store db.UserStore
}

// NewUserService creates a new UserService with the given store.
func NewUserService(store db.UserStore) *UserService {
	return &UserService{store: store}
}

// SignIn records a social login and returns the matching user, creating it
// on first sign-in.
func (s *UserService) SignIn(ctx context.Context, identity *types.SocialIdentity) (*types.User, error) {
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid identity: %v", types.ErrBadInput, err)
	}

	user, err := s.store.UpsertUser(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// Get returns a user, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &ErrUserNotFound{UserID: id}
	}
	return user, nil
}

// SaveProfile persists a user's latest profile.
func (s *UserService) SaveProfile(ctx context.Context, userID uuid.UUID, profile *types.UserProfile) error {
	if err := s.store.SaveProfile(ctx, userID, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Profile returns the user's saved profile, or nil when none was saved.
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}
