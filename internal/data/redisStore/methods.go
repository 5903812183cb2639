package redisStore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// GetBytesTouch reads key and pushes its expiry back to ttl, so entries that
// keep being hit do not age out. ttl <= 0 leaves the expiry alone.
func (s *Store) GetBytesTouch(ctx context.Context, key string, ttl time.Duration) ([]byte, error) {
	if ttl <= 0 {
		return s.client.Get(ctx, key).Bytes()
	}
	return s.client.GetEx(ctx, key, ttl).Bytes()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
