package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/interview-api/internal/config"
)

func TestNewUniversalRedisClient_Single(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewUniversalRedisClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})

	require.NoError(t, err)
	defer client.Close()
	_, isSimple := client.(*redis.Client)
	assert.True(t, isSimple)
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewUniversalRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewUniversalRedisClient(context.Background(), config.RedisConfig{Addr: addr})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode: single")
}

func TestRedisOptions(t *testing.T) {
	mode, opts, err := redisOptions(config.RedisConfig{
		Addr:            "localhost:6379",
		DB:              2,
		MaxRetries:      3,
		MinRetryBackoff: 10,
		MaxRetryBackoff: 200,
	})

	require.NoError(t, err)
	assert.Equal(t, RedisModeSingle, mode)
	assert.Equal(t, []string{"localhost:6379"}, opts.Addrs)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, opts.MinRetryBackoff)
	assert.Equal(t, 200*time.Millisecond, opts.MaxRetryBackoff)

	// Addrs важнее Addr
	mode, opts, err = redisOptions(config.RedisConfig{
		Mode:       RedisModeSentinel,
		Addr:       "ignored:1",
		Addrs:      []string{"s1:26379", "s2:26379"},
		MasterName: "mymaster",
	})
	require.NoError(t, err)
	assert.Equal(t, RedisModeSentinel, mode)
	assert.Equal(t, []string{"s1:26379", "s2:26379"}, opts.Addrs)
	assert.Equal(t, "mymaster", opts.MasterName)
}

func TestRedisOptions_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RedisConfig
	}{
		{"нет адресов", config.RedisConfig{}},
		{"sentinel без master", config.RedisConfig{Addr: "localhost:26379", Mode: RedisModeSentinel}},
		{"неизвестный режим", config.RedisConfig{Addr: "localhost:6379", Mode: "ring"}},
		{"single с несколькими адресами", config.RedisConfig{Addrs: []string{"a:1", "b:1"}}},
		{"cluster с db", config.RedisConfig{Addr: "localhost:7000", Mode: RedisModeCluster, DB: 1}},
		{"min backoff больше max", config.RedisConfig{Addr: "localhost:6379", MinRetryBackoff: 500, MaxRetryBackoff: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUniversalRedisClient(context.Background(), tt.cfg)
			assert.Error(t, err)
		})
	}
}
