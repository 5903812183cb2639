package store

import (
	"context"
	"sync"
)

type InMemoryVectorCache struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

func InitInMemoryVectorCache() *InMemoryVectorCache {
	return &InMemoryVectorCache{
		vectors: make(map[string][]float32),
	}
}

func (c *InMemoryVectorCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, found := c.vectors[key]
	if !found {
		return nil, false, nil
	}
	return append([]float32(nil), v...), true, nil
}

func (c *InMemoryVectorCache) Set(ctx context.Context, key string, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors[key] = append([]float32(nil), vector...)
	return nil
}
