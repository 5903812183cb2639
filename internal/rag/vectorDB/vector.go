package vectorDB

import (
	"context"
	"sort"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
)

// Searcher answers nearest-neighbour queries over an already built index.
type Searcher interface {
	Search(ctx context.Context, query []float32, k int) (commonModels.RetrievalResult, error)
}

// DataProcessor is a writable backend the ingest pipeline can mirror into.
type DataProcessor interface {
	Searcher

	// CreateCollection drops any previous collection and creates an empty one.
	CreateCollection(ctx context.Context, dimension int, metric, modelInfo string) error
	UpsertBatch(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error
	// MarkComplete is called after the last batch. Readers refuse a
	// collection that was never marked.
	MarkComplete(ctx context.Context, chunks int) error
}

// SortResults orders by score, highest first, then by insertion ordinal.
func SortResults(results commonModels.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Ordinal < results[j].Chunk.Ordinal
	})
}
