package store

import (
	"context"
	"time"

	"github.com/akolanti/GoRAG/internal/data/redisStore"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

type RedisVectorCache struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logger_i.Logger
}

func NewRedisVectorCache(s *redisStore.Store, ttl time.Duration) *RedisVectorCache {
	return &RedisVectorCache{
		store:  s,
		ttl:    ttl,
		logger: logger_i.NewLogger("vector_cache"),
	}
}

func (c *RedisVectorCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	val, err := c.store.GetBytesTouch(ctx, key, c.ttl)
	if c.store.IsNil(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	v, err := decodeVector(val)
	if err != nil {
		c.logger.Warn("Dropping unreadable cache entry", "key", key, "error", err)
		_ = c.store.Del(ctx, key)
		return nil, false, nil
	}
	return v, true, nil
}

func (c *RedisVectorCache) Set(ctx context.Context, key string, vector []float32) error {
	return c.store.SetBytes(ctx, key, encodeVector(vector), c.ttl)
}
