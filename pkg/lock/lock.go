package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// SessionLock — распределенная блокировка с владельцем.
// TryAcquire не ждет: если ключ занят, вызывающая сторона сразу получает
// ok == false и сама решает, когда повторить попытку.
type SessionLock interface {
	TryAcquire(ctx context.Context, key string, lease time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// releaseScript удаляет ключ только если токен совпадает, чтобы устаревший
// держатель не снял блокировку, уже перехваченную другим после истечения lease.
const releaseScript = `if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end`

type redisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) SessionLock {
	return &redisLock{client: client}
}

func (l *redisLock) TryAcquire(ctx context.Context, key string, lease time.Duration) (string, bool, error) {
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, lease).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return "", false, nil
	}

	return token, true, nil
}

func (l *redisLock) Release(ctx context.Context, key, token string) error {
	if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
