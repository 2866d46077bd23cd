package redis

import (
	"context"
	"time"

	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
)

// NoOpCache - заглушка кеша для запуска без Redis.
// Любое чтение - промах, запись игнорируется.
type NoOpCache struct{}

func (NoOpCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (NoOpCache) Get(context.Context, string) (string, error) { return "", apperrors.ErrNotFound }

func (NoOpCache) Delete(context.Context, ...string) error { return nil }

func (NoOpCache) Increment(context.Context, string) (int64, error) { return 0, nil }

func (NoOpCache) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }

func (NoOpCache) GetJSON(context.Context, string, interface{}) error { return apperrors.ErrNotFound }

func (NoOpCache) Exists(context.Context, string) (bool, error) { return false, nil }

func (NoOpCache) Expire(context.Context, string, time.Duration) error { return nil }

// SetNX всегда успешен: без общего хранилища блокировка остается локальной
func (NoOpCache) SetNX(context.Context, string, interface{}, time.Duration) (bool, error) {
	return true, nil
}
