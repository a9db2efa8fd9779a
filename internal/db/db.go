// Package db persists signed-in users and their saved profiles.
package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/job-recommender/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// UserStore is what the HTTP layer needs from persistence. Lookups return
// nil and no error when nothing matches.
type UserStore interface {
	UpsertUser(ctx context.Context, identity *types.SocialIdentity) (*types.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)
	SaveProfile(ctx context.Context, userID uuid.UUID, profile *types.UserProfile) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	Close()
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

var _ UserStore = (*DB)(nil)

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Migrate creates the tables when they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
