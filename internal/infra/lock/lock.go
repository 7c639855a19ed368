package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained блокировку держит кто-то другой.
var ErrNotObtained = errors.New("lock not obtained")

type Locker interface {
	// Obtain возвращает функцию освобождения.
	Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Noop для одиночного инстанса без redis.
type Noop struct{}

func (Noop) Obtain(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

type Redis struct {
	client *redislock.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{client: redislock.New(rdb)}
}

func (r *Redis) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l, err := r.client.Obtain(ctx, "lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return l.Release, nil
}

// Connect открывает клиента и проверяет доступность.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
