// Package openaiEmbedding talks to any OpenAI compatible /embeddings endpoint
// (OpenAI, Ollama, llama.cpp servers started with --embedding).
package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

type client struct {
	api       *openai.Client
	model     string
	dimension atomic.Int64
	limiter   *rate.Limiter
	logger    *logger_i.Logger
}

// NewOpenAIEmbedder builds a client for baseURL. A dimension of 0 is learned
// from the first response. requestsPerSecond <= 0 disables rate limiting.
func NewOpenAIEmbedder(baseURL string, apiKey string, model string, dimension int, requestsPerSecond float64) embedding.Embedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	c := &client{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger_i.NewLogger("openai_embedding").With("model", model),
	}
	c.dimension.Store(int64(dimension))
	return c
}

func (c *client) Dimension() int { return int(c.dimension.Load()) }

func (c *client) ModelInfo() string { return "openai/" + c.model }

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	res, err := c.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: chunks,
	})
	metrics.CaptureExecutionMetrics("openai_embedding", time.Since(start))
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			c.logger.Error("Rate limit hit", "error", err)
		}
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(chunks) {
		return nil, fmt.Errorf("openai embeddings: asked for %d vectors, got %d", len(chunks), len(resp.Data))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	results := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		v := make([]float32, len(d.Embedding))
		for j := range d.Embedding {
			v[j] = float32(d.Embedding[j])
		}
		if err := c.checkDimension(len(v)); err != nil {
			return nil, err
		}
		results[i] = v
	}
	c.logger.Debug("Embedded batch", "size", len(chunks))
	return results, nil
}

func (c *client) checkDimension(got int) error {
	if c.dimension.CompareAndSwap(0, int64(got)) {
		return nil
	}
	if want := c.Dimension(); want != got {
		return fmt.Errorf("openai embeddings: got width %d, expected %d", got, want)
	}
	return nil
}
