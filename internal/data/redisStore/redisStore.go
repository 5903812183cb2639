package redisStore

import (
	"context"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var logger = logger_i.NewLogger("redis_store")

// Store is one logical Redis database.
type Store struct {
	client *redis.Client
	db     int
}

// NewRedisStore connects to one logical database and fails when the server
// does not answer a ping.
func NewRedisStore(ctx context.Context, addr string, dbType int) (*Store, error) {
	newClient := redis.NewClient(&redis.Options{
		Addr:                  addr,
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           config.RedisTimeout,
		WriteTimeout:          config.RedisTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, config.RedisPingTimeout)
	defer cancel()

	if err := newClient.Ping(pingCtx).Err(); err != nil {
		_ = newClient.Close()
		return nil, fmt.Errorf("redis at %s is offline: %w", addr, err)
	}

	logger.Info("Redis store connected", "addr", addr, "db", dbType)
	return &Store{
		client: newClient,
		db:     dbType,
	}, nil
}

func (s *Store) Close() error {
	logger.Info("Closing Redis store", "db", s.db)
	return s.client.Close()
}

// NewTestStore wraps an existing client, used with miniredis.
func NewTestStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}
