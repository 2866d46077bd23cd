package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yourusername/interview-api/internal/domain/repository"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
	"github.com/yourusername/interview-api/internal/pkg/logger"
)

// Locker выдает эксклюзивную блокировку по ключу.
// unlock нужно вызвать ровно один раз.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func candidateLockKey(candidateID string) string {
	return "lock:candidate:" + candidateID
}

// LocalLocker - блокировки в памяти процесса
type LocalLocker struct {
	locks sync.Map // key -> chan struct{}
}

// NewLocalLocker создает LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

// Lock ждет освобождения ключа или отмены контекста
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	v, _ := l.locks.LoadOrStore(key, make(chan struct{}, 1))
	slot := v.(chan struct{})

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedisLocker - распределенная блокировка на SET NX с TTL.
// TTL ограничивает время жизни блокировки упавшего процесса.
type RedisLocker struct {
	cache         repository.CacheRepository
	ttl           time.Duration
	retryInterval time.Duration
	log           zerolog.Logger
}

// NewRedisLocker создает RedisLocker
func NewRedisLocker(cache repository.CacheRepository, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		cache:         cache,
		ttl:           ttl,
		retryInterval: 25 * time.Millisecond,
		log:           logger.Component("locker"),
	}
}

// Lock пытается захватить ключ, пока не истечет контекст
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.cache.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			var once sync.Once
			return func() { once.Do(func() { l.release(key, token) }) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// release удаляет ключ, только если блокировка все еще наша.
// Между Get и Delete есть окно, но TTL много больше времени мутации.
func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	current, err := l.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			l.log.Warn().Err(err).Str("key", key).Msg("Не удалось проверить владельца блокировки")
		}
		return
	}
	if current != token {
		return
	}
	if err := l.cache.Delete(ctx, key); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("Не удалось снять блокировку")
	}
}
