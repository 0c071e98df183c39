//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"fitness-tracker/internal/database"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
)

const storeTimeout = 5 * time.Second

// newPostgres connects to TEST_DATABASE_URL and applies migrations.
func newPostgres(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, url, 4, 0)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	return db
}

// newMongo opens a throwaway database on TEST_MONGO_URI and drops it afterwards.
func newMongo(t *testing.T) *database.Mongo {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	mdb, err := database.NewMongo(ctx, uri, "fittrack_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mdb.Database.Drop(context.Background())
		_ = mdb.Close(context.Background())
	})
	return mdb
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	client, err := database.NewRedis(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// seedUser stores a credential so owner foreign keys resolve.
func seedUser(t *testing.T, users *repository.UserRepository) string {
	t.Helper()

	email := "it-" + uuid.NewString()[:8] + "@x.com"
	require.NoError(t, users.Create(context.Background(), model.Credential{
		Email:        email,
		PasswordHash: "$2a$04$placeholder",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}))
	return email
}
