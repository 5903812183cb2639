package retriever

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// Retriever embeds a question and returns the k closest chunks.
type Retriever struct {
	embedder embedding.Embedder
	searcher vectorDB.Searcher
	k        int
	logger   *logger_i.Logger
}

func NewRetriever(e embedding.Embedder, s vectorDB.Searcher, k int) (*Retriever, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d", k)
	}
	return &Retriever{
		embedder: e,
		searcher: s,
		k:        k,
		logger:   logger_i.NewLogger("retriever"),
	}, nil
}

// Retrieve returns at most k results, highest score first, ties in insertion order.
func (r *Retriever) Retrieve(ctx context.Context, question string) (commonModels.RetrievalResult, error) {
	r.logger.Debug("Retrieve", "Current Status", commonModels.Embedding)
	start := time.Now()
	vector, err := r.embedder.GetEmbedding(ctx, question)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	r.logger.Debug("Retrieve", "Current Status", commonModels.Retrieving)
	start = time.Now()
	results, err := r.searcher.Search(ctx, vector, r.k)
	metrics.CaptureExecutionMetrics("vector_search", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	vectorDB.SortResults(results)
	if len(results) > r.k {
		results = results[:r.k]
	}
	r.logger.Debug("Retrieved chunks", "count", len(results))
	return results, nil
}
