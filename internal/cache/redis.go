package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Redis is a ReportCache backed by a Redis instance, values stored as JSON.
type Redis[T any] struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects a Redis-backed cache.
func NewRedis[T any](addr, password string, db int, ttl time.Duration) *Redis[T] {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis[T]{client: client, ttl: ttl}
}

func (c *Redis[T]) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis[T]) Close() error {
	return c.client.Close()
}

func (c *Redis[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	var value T
	if err := json.Unmarshal([]byte(val), &value); err != nil {
		return zero, false, err
	}
	return value, true, nil
}

func (c *Redis[T]) Set(ctx context.Context, key string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}
