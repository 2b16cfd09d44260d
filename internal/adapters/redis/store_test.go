package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril/internal/adapters/redis"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newTestClient(t)

	store := redis.NewFromClient(client)
	ports.RunThreadStoreContract(t, store)
}

func TestRedisStore_RoundTripFields(t *testing.T) {
	_, client := newTestClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	rec := domain.NewThreadRecord("t-1", "research")
	rec.Touch("first prompt")
	rec.Touch("second prompt")
	require.NoError(t, store.Save(ctx, "t-1", rec))

	loaded, err := store.Load(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "t-1", loaded.ID)
	assert.Equal(t, "research", loaded.Graph)
	assert.Equal(t, 2, loaded.Turns)
	assert.Equal(t, "second prompt", loaded.LastPrompt)
	assert.WithinDuration(t, rec.CreatedAt, loaded.CreatedAt, time.Millisecond)
	assert.WithinDuration(t, rec.UpdatedAt, loaded.UpdatedAt, time.Millisecond)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	mr, client := newTestClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	rec := domain.NewThreadRecord("ephemeral", "graph")
	require.NoError(t, store.Save(ctx, "ephemeral", rec))

	_, err := store.Load(ctx, "ephemeral")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "ephemeral")
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)
}
