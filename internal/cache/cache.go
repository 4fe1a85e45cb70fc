package cache

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// Invalidator is called synchronously after every mutating operation so
// an external cache never serves a stale day or owner view. The store
// remains the source of truth; implementations only drop keys.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

func KeyForDay(date string) string {
	return "appointments:day:" + date
}

func KeyForOwner(ownerID string) string {
	return "appointments:owner:" + ownerID
}

// Noop is the default when no cache layer is deployed.
type Noop struct{}

func (Noop) Invalidate(ctx context.Context, keys ...string) error {
	return nil
}

type Redis struct {
	client *redis.Client
}

func NewRedis(addr string) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (r *Redis) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
