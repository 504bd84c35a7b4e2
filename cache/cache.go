package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

const keyPrefix = "bluewhale:"

func GlobalTopKey(page, limit int) string {
	return fmt.Sprintf("%sfeed:global-top:%d:%d", keyPrefix, page, limit)
}

func GlobalTopPrefix() string {
	return keyPrefix + "feed:global-top:"
}

func UnreadCountKey(userID uint) string {
	return fmt.Sprintf("%snotifications:unread:%d", keyPrefix, userID)
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.WithContext(ctx).Get(key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.WithContext(ctx).Set(key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.WithContext(ctx).Del(keys...).Err()
}

// DeletePrefix removes every key under prefix using SCAN, never KEYS.
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	client := c.client.WithContext(ctx)
	var cursor uint64
	for {
		keys, next, err := client.Scan(cursor, prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", prefix, err)
		}
		if len(keys) > 0 {
			if err := client.Del(keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop is used when Redis is not configured; every Get misses.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, ...string) error { return nil }
func (Nop) DeletePrefix(context.Context, string) error { return nil }
