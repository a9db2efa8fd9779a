package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-recommender/internal/types"
)

// UpsertUser finds the account of a social identity, creating it on first
// sign-in. Email, name and picture are refreshed on every sign-in.
func (db *DB) UpsertUser(ctx context.Context, identity *types.SocialIdentity) (*types.User, error) {
	var u types.User
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (id, provider, subject, email, name, picture)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (provider, subject) DO UPDATE SET
		   email = EXCLUDED.email, name = EXCLUDED.name, picture = EXCLUDED.picture, updated_at = NOW()
		 RETURNING id, provider, subject, email, name, picture, created_at, updated_at`,
		uuid.New(), identity.Provider, identity.Subject, identity.Email, identity.Name, identity.Picture,
	).Scan(&u.ID, &u.Provider, &u.Subject, &u.Email, &u.Name, &u.Picture, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &u, nil
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var u types.User
	err := db.pool.QueryRow(ctx,
		`SELECT id, provider, subject, email, name, picture, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Provider, &u.Subject, &u.Email, &u.Name, &u.Picture, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// SaveProfile replaces the saved profile of a user.
func (db *DB) SaveProfile(ctx context.Context, userID uuid.UUID, profile *types.UserProfile) error {
	skills, err := json.Marshal(nonNilSkills(profile.Skills))
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, skills, years, region, role, resume_text)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
		   skills = $2, years = $3, region = $4, role = $5, resume_text = $6, updated_at = NOW()`,
		userID, skills, profile.Years, profile.Region, profile.Role, profile.ResumeText,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetProfile retrieves the saved profile of a user.
func (db *DB) GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	var (
		p      types.UserProfile
		skills []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT skills, years, region, role, resume_text
		 FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&skills, &p.Years, &p.Region, &p.Role, &p.ResumeText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if err := json.Unmarshal(skills, &p.Skills); err != nil {
		return nil, fmt.Errorf("failed to decode skills: %w", err)
	}
	p.Skills = nonNilSkills(p.Skills)
	return &p, nil
}

func nonNilSkills(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
