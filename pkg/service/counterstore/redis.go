package counterstore

import (
	"context"

	"github.com/go-redis/redis"
)

// NewRedisAdapter creates a Redis client that supports incrementing and
// reading counters.
func NewRedisAdapter(c *redis.Client) *RedisAdapter {
	if c == nil {
		panic("nil redis client")
	}
	return &RedisAdapter{c: c}
}

// Ensure RedisAdapter implements the Counter interface.
var _ Counter = (*RedisAdapter)(nil)

// RedisAdapter adapts a Redis client to support the Counter interface.
//
// Each counter is a hash with the fields "name" and "count".
type RedisAdapter struct {
	c *redis.Client
}

func redisKey(name string) string {
	return CollectionName + ":" + name
}

// IncrementAndGet increments the counter with the given name.
//
// If the counter does not exist, it will be initialized to 0 and incremented.
func (r *RedisAdapter) IncrementAndGet(ctx context.Context, name string) (int64, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	client := r.c.WithContext(ctx)
	key := redisKey(name)

	var incr *redis.IntCmd
	_, err := client.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.HSetNX(key, "name", name)
		incr = pipe.HIncrBy(key, "count", 1)
		return nil
	})
	if err != nil {
		return 0, unavailable(err, "failed to increment counter %q in Redis", name)
	}
	return incr.Val(), nil
}

// Get gets the current value of a counter.
func (r *RedisAdapter) Get(ctx context.Context, name string) (int64, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	client := r.c.WithContext(ctx)
	v, err := client.HGet(redisKey(name), "count").Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, unavailable(err, "failed to get counter %q from Redis", name)
	}
	return v, nil
}

// Close closes the Redis client.
func (r *RedisAdapter) Close(_ context.Context) error {
	return unavailable(r.c.Close(), "failed to close Redis client")
}
