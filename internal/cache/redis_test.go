package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func TestWalletBalance_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, mr.Set(walletKey("sess1"), "2500.5"))

	balance, err := cache.WalletBalance(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, 2500.5, balance)
}

func TestWalletBalance_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := cache.WalletBalance(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestWalletBalance_CorruptValue(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(walletKey("sess1"), "not-a-number"))

	_, err := cache.WalletBalance(context.Background(), "sess1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSetWalletBalance_RoundTrip(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.SetWalletBalance(ctx, "sess1", 700))

	balance, err := cache.WalletBalance(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, 700.0, balance)
}

func TestDeleteWalletBalance(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.SetWalletBalance(ctx, "sess1", 700))
	require.NoError(t, cache.DeleteWalletBalance(ctx, "sess1"))

	_, err := cache.WalletBalance(ctx, "sess1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCartCount_RoundTrip(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.SetCartCount(ctx, "sess1", 3))

	count, err := cache.CartCount(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, cache.DeleteCartCount(ctx, "sess1"))
	_, err = cache.CartCount(ctx, "sess1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestKeysAreScopedPerSession(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.SetCartCount(ctx, "sess1", 3))
	require.NoError(t, cache.SetCartCount(ctx, "sess2", 9))

	count, err := cache.CartCount(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
