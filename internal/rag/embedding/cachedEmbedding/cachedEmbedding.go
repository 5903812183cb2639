// Package cachedEmbedding wraps an Embedder with a vector cache keyed by
// model and text.
package cachedEmbedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/akolanti/GoRAG/internal/data/store"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

type client struct {
	inner  embedding.Embedder
	cache  store.VectorCache
	logger *logger_i.Logger
}

func NewCachedEmbedder(inner embedding.Embedder, cache store.VectorCache) embedding.Embedder {
	return &client{
		inner:  inner,
		cache:  cache,
		logger: logger_i.NewLogger("cached_embedding").With("model", inner.ModelInfo()),
	}
}

func (c *client) Dimension() int    { return c.inner.Dimension() }
func (c *client) ModelInfo() string { return c.inner.ModelInfo() }

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	key := c.cacheKey(query)
	if v, ok := c.lookup(ctx, key); ok {
		return v, nil
	}
	v, err := c.inner.GetEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, v)
	return v, nil
}

// BatchEmbedding only sends cache misses to the wrapped embedder.
func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	results := make([][]float32, len(chunks))
	keys := make([]string, len(chunks))
	var missIdx []int
	var missText []string

	for i, chunk := range chunks {
		keys[i] = c.cacheKey(chunk)
		if v, ok := c.lookup(ctx, keys[i]); ok {
			results[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missText = append(missText, chunk)
	}
	if len(missText) == 0 {
		return results, nil
	}

	computed, err := c.inner.BatchEmbedding(ctx, missText)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missText) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(computed), len(missText))
	}
	for j, i := range missIdx {
		results[i] = computed[j]
		c.store(ctx, keys[i], computed[j])
	}
	c.logger.Debug("Batch served", "hits", len(chunks)-len(missText), "misses", len(missText))
	return results, nil
}

func (c *client) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(c.inner.ModelInfo() + "\x00" + text))
	return "emb:" + hex.EncodeToString(sum[:])
}

// lookup treats cache failures as misses.
func (c *client) lookup(ctx context.Context, key string) ([]float32, bool) {
	v, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Embedding cache read failed", "error", err)
		return nil, false
	}
	if found {
		metrics.IncrementEmbeddingCacheHits()
	}
	return v, found
}

func (c *client) store(ctx context.Context, key string, v []float32) {
	if err := c.cache.Set(ctx, key, v); err != nil {
		c.logger.Warn("Embedding cache write failed", "error", err)
	}
}
