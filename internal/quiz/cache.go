package quiz

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// DocumentCache stores raw quiz documents keyed by source.
type DocumentCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, doc []byte) error
}

// RedisCache keeps fetched documents in Redis so restarts and slow remote
// sources do not block startup.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ DocumentCache = (*RedisCache)(nil)

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(sourceKey string) string {
	return "quiz:doc:" + sourceKey
}

// Get returns nil, nil on a cache miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, doc []byte) error {
	return c.client.Set(ctx, c.key(key), doc, c.ttl).Err()
}
