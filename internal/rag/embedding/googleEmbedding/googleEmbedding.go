package googleEmbedding

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

var logger = logger_i.NewLogger("google_embedding")

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
	limiter   *rate.Limiter
}

// NewGoogleEmbedder creates a Gemini embedding client that asks for vectors of
// the given width. requestsPerSecond <= 0 disables rate limiting.
func NewGoogleEmbedder(ctx context.Context, modelName string, apikey string, dimension int, requestsPerSecond float64) (embedding.Embedder, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating Google Embedding client: %w", err)
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	logger.Info("Google Embedding client created", "model", modelName)
	return &client{
		genAi:     c,
		model:     modelName,
		dimension: int32(dimension),
		limiter:   rate.NewLimiter(limit, 1),
	}, nil
}

func (c *client) Dimension() int { return int(c.dimension) }

func (c *client) ModelInfo() string {
	return fmt.Sprintf("google/%s/%d", c.model, c.dimension)
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	res, err := c.doCall(ctx, genai.Text(query), taskQuery)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// BatchEmbedding splits the input into requests the API accepts and keeps the
// input order in the result.
func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	results := make([][]float32, 0, len(chunks))
	for _, batch := range splitBatches(chunks, maxBatchSize) {
		vectors, err := c.doCall(ctx, getContent(batch), taskDocument)
		if err != nil {
			return nil, err
		}
		results = append(results, vectors...)
	}
	return results, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content, taskType string) ([][]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             taskType,
	})
	metrics.CaptureExecutionMetrics("google_embedding", time.Since(start))
	if err != nil {
		if isRateLimited(err) {
			logger.Error("Rate limit hit", "error", err)
		}
		return nil, fmt.Errorf("google embeddings: %w", err)
	}
	return readVectors(result, len(content))
}
