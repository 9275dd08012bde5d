package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RedisTaskLock evita que varias instancias ejecuten la misma tarea de mantenimiento a la vez.
type RedisTaskLock struct {
	locker *redislock.Client
}

// NewRedisTaskLock construye el lock sobre el cliente de Redis.
func NewRedisTaskLock(client *redis.Client) *RedisTaskLock {
	return &RedisTaskLock{locker: redislock.New(client)}
}

// TryLock intenta tomar el lock sin esperar. ok=false si otra instancia lo tiene.
func (l *RedisTaskLock) TryLock(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	lock, err := l.locker.Obtain(ctx, "lock:maintenance:"+name, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("obtener lock %s: %w", name, err)
	}
	return func() { _ = lock.Release(context.WithoutCancel(ctx)) }, true, nil
}

// LocalTaskLock para una sola instancia: siempre concede el lock.
type LocalTaskLock struct{}

func (LocalTaskLock) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}
