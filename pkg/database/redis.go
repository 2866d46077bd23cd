package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/interview-api/internal/config"
	"github.com/yourusername/interview-api/internal/pkg/logger"
)

// Режимы подключения к Redis
const (
	RedisModeSingle   = "single"
	RedisModeSentinel = "sentinel"
	RedisModeCluster  = "cluster"
)

// redisPingTimeout ограничивает проверку подключения при старте
const redisPingTimeout = 5 * time.Second

// NewUniversalRedisClient подключается к Redis в режиме из конфигурации
// и проверяет соединение. Режим задается явно: один адрес в режиме cluster
// все равно дает кластерный клиент.
func NewUniversalRedisClient(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	mode, opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	switch mode {
	case RedisModeSentinel:
		client = redis.NewFailoverClient(opts.Failover())
	case RedisModeCluster:
		client = redis.NewClusterClient(opts.Cluster())
	default:
		client = redis.NewClient(opts.Simple())
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (mode: %s, addrs: %v): %w", mode, opts.Addrs, err)
	}

	log := logger.Component("redis")
	log.Info().
		Str("mode", mode).
		Strs("addrs", opts.Addrs).
		Int("db", opts.DB).
		Int("max_retries", opts.MaxRetries).
		Msg("Подключение к Redis установлено")
	return client, nil
}

// redisOptions проверяет конфигурацию и возвращает итоговый режим и опции клиента
func redisOptions(cfg config.RedisConfig) (string, *redis.UniversalOptions, error) {
	addrs := cfg.Addrs
	if len(addrs) == 0 && cfg.Addr != "" {
		addrs = []string{cfg.Addr}
	}
	if len(addrs) == 0 {
		return "", nil, errors.New("redis configuration error: Addrs or Addr must be provided")
	}

	mode := cfg.Mode
	if mode == "" {
		mode = RedisModeSingle
	}

	opts := &redis.UniversalOptions{
		Addrs:           addrs,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoff) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoff) * time.Millisecond,
	}
	if opts.MinRetryBackoff > 0 && opts.MaxRetryBackoff > 0 && opts.MinRetryBackoff > opts.MaxRetryBackoff {
		return "", nil, fmt.Errorf("redis min_retry_backoff (%s) exceeds max_retry_backoff (%s)",
			opts.MinRetryBackoff, opts.MaxRetryBackoff)
	}

	switch mode {
	case RedisModeSingle:
		if len(addrs) > 1 {
			return "", nil, fmt.Errorf("redis single mode accepts one address, got %d", len(addrs))
		}
	case RedisModeSentinel:
		if cfg.MasterName == "" {
			return "", nil, errors.New("redis sentinel mode requires MasterName")
		}
		opts.MasterName = cfg.MasterName
	case RedisModeCluster:
		// Кластер не поддерживает выбор базы
		if cfg.DB != 0 {
			return "", nil, errors.New("redis cluster mode supports only db 0")
		}
	default:
		return "", nil, fmt.Errorf("unsupported redis mode: %s", mode)
	}
	return mode, opts, nil
}
