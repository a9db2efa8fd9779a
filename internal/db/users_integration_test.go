package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-recommender/internal/types"
)

// setupTestDB connects to the database named by DATABASE_URL and applies the
// schema. The test is skipped when no database is reachable.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(db.Close)
	return db
}

func TestUserAndProfile(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	subject := "it-" + uuid.NewString()
	u, err := db.UpsertUser(ctx, &types.SocialIdentity{Provider: "google", Subject: subject, Email: "a@example.com"})
	require.NoError(t, err)

	again, err := db.UpsertUser(ctx, &types.SocialIdentity{Provider: "google", Subject: subject, Email: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "b@example.com", again.Email)

	got, err := db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	missing, err := db.GetUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	years := 2.5
	require.NoError(t, db.SaveProfile(ctx, u.ID, &types.UserProfile{Skills: []string{"Go", "SQL"}, Years: &years, Region: "부산"}))
	p, err := db.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []string{"Go", "SQL"}, p.Skills)
	assert.Equal(t, 2.5, *p.Years)
	assert.Equal(t, "부산", p.Region)
}
