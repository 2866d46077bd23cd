package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
)

func newTestCache(t *testing.T) (*CacheRepo, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache, err := NewCacheRepo(client, "test:")
	require.NoError(t, err)
	return cache, mr
}

func TestNewCacheRepo_NilClient(t *testing.T) {
	_, err := NewCacheRepo(nil, "")
	assert.Error(t, err)
}

func TestCacheRepo_SetGetDelete(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	assert.True(t, mr.Exists("test:k"), "ключ должен храниться с префиксом")

	val, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	require.NoError(t, cache.Delete(ctx, "k"))
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCacheRepo_JSONRoundTripAndMiss(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		ID    string `json:"id"`
		Index int    `json:"index"`
	}
	require.NoError(t, cache.SetJSON(ctx, "view", payload{ID: "c1", Index: 3}, time.Minute))

	var got payload
	require.NoError(t, cache.GetJSON(ctx, "view", &got))
	assert.Equal(t, payload{ID: "c1", Index: 3}, got)

	assert.ErrorIs(t, cache.GetJSON(ctx, "absent", &got), apperrors.ErrNotFound)
}

func TestCacheRepo_SetNXAndExpire(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := cache.SetNX(ctx, "lock", "a", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "lock", "b", time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "повторный SetNX не должен перезаписывать ключ")

	mr.FastForward(2 * time.Second)
	exists, err := cache.Exists(ctx, "lock")
	require.NoError(t, err)
	assert.False(t, exists, "ключ должен истечь по TTL")

	n, err := cache.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, cache.Expire(ctx, "counter", time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("test:counter"))
}
