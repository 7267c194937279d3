package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMongoOrderRepository runs against a real MongoDB and is skipped unless
// MONGO_URI is set.
func TestMongoOrderRepository(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" || testing.Short() {
		t.Skip("skipping MongoDB integration test: MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := ConnectMongoDB(ctx, uri, "checkout_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = db.Client().Disconnect(context.Background())
	})

	repo := NewMongoOrderRepository(db, 100)
	require.NoError(t, repo.CreateIndexes(ctx))

	first, created, err := repo.Create(ctx, newOrder("u-1", "mongo-key"))
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.Create(ctx, newOrder("u-1", "mongo-key"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	// A fresh repository has an empty filter, so the unique index decides.
	fresh := NewMongoOrderRepository(db, 100)
	raced, created, err := fresh.Create(ctx, newOrder("u-1", "mongo-key"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, raced.ID)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got.TotalAmount)

	orders, err := repo.ListByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
