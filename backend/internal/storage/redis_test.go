package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobboard/backend/internal/models"
	"jobboard/backend/internal/storage"
)

func newRedis(t *testing.T) (*storage.RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := storage.NewRedisClient(mr.Addr(), "", 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisClient_JSONCache(t *testing.T) {
	client, mr := newRedis(t)
	ctx := context.Background()

	var items []models.CatalogItem
	assert.ErrorIs(t, client.GetJSON(ctx, "catalog:skills", &items), storage.ErrCacheMiss)

	want := []models.CatalogItem{{ID: 1, Name: "Go"}}
	require.NoError(t, client.SetJSON(ctx, "catalog:skills", want, time.Minute))
	require.NoError(t, client.GetJSON(ctx, "catalog:skills", &items))
	assert.Equal(t, want, items)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, client.GetJSON(ctx, "catalog:skills", &items), storage.ErrCacheMiss)
}

func TestRedisClient_DeletePrefix(t *testing.T) {
	client, mr := newRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetJSON(ctx, "catalog:skills", []int{1}, time.Minute))
	require.NoError(t, client.SetJSON(ctx, "catalog:skills:prefix:go", []int{1}, time.Minute))
	require.NoError(t, client.SetJSON(ctx, "other", []int{1}, time.Minute))

	require.NoError(t, client.DeletePrefix(ctx, "catalog:"))
	assert.False(t, mr.Exists("catalog:skills"))
	assert.False(t, mr.Exists("catalog:skills:prefix:go"))
	assert.True(t, mr.Exists("other"))
}

func TestRedisClient_RateLimit(t *testing.T) {
	client, mr := newRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, _, err := client.RateLimit(ctx, "rl:user", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, remaining, reset, err := client.RateLimit(ctx, "rl:user", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.Greater(t, reset, time.Duration(0))

	mr.FastForward(time.Minute + time.Second)
	allowed, _, _, err = client.RateLimit(ctx, "rl:user", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}
