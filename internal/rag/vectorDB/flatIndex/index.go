// Package flatIndex is the local vector store: every vector is kept in memory
// and compared against the query on each search.
package flatIndex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
)

type Metric string

const (
	Cosine Metric = "cosine"
	L2     Metric = "l2"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case Cosine, L2:
		return Metric(s), nil
	}
	return "", fmt.Errorf("unknown similarity metric %q", s)
}

// Index is immutable once built and safe for concurrent searches.
type Index struct {
	metric    Metric
	dimension int
	modelInfo string
	createdAt time.Time
	chunks    []commonModels.DocChunk
	vectors   [][]float32
	norms     []float64
}

// Build pairs vectors with chunks by position. Chunk ordinals are reset to
// that position.
func Build(vectors [][]float32, chunks []commonModels.DocChunk, metric Metric, modelInfo string) (*Index, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, errors.New("cannot build an empty index")
	}

	dimension := len(vectors[0])
	if dimension == 0 {
		return nil, errors.New("vectors have zero dimension")
	}

	ix := &Index{
		metric:    metric,
		dimension: dimension,
		modelInfo: modelInfo,
		createdAt: time.Now().UTC(),
		chunks:    make([]commonModels.DocChunk, len(chunks)),
		vectors:   make([][]float32, len(vectors)),
		norms:     make([]float64, len(vectors)),
	}
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dimension)
		}
		ix.vectors[i] = append([]float32(nil), v...)
		ix.norms[i] = norm(v)
		ix.chunks[i] = chunks[i]
		ix.chunks[i].Ordinal = i
	}
	return ix, nil
}

func (ix *Index) Len() int             { return len(ix.chunks) }
func (ix *Index) Dimension() int       { return ix.dimension }
func (ix *Index) Metric() Metric       { return ix.metric }
func (ix *Index) ModelInfo() string    { return ix.modelInfo }
func (ix *Index) CreatedAt() time.Time { return ix.createdAt }

func (ix *Index) Chunks() []commonModels.DocChunk {
	return append([]commonModels.DocChunk(nil), ix.chunks...)
}

func (ix *Index) Vectors() [][]float32 {
	out := make([][]float32, len(ix.vectors))
	for i, v := range ix.vectors {
		out[i] = append([]float32(nil), v...)
	}
	return out
}

// CheckModel fails when queries would be embedded by a different model than
// the one the index was built with.
func (ix *Index) CheckModel(modelInfo string) error {
	if ix.modelInfo != modelInfo {
		return fmt.Errorf("%w: index built with %q, embedder is %q", ragErrors.ErrIndexCorrupt, ix.modelInfo, modelInfo)
	}
	return nil
}

// Search returns the k best chunks by exact comparison with every vector.
func (ix *Index) Search(ctx context.Context, query []float32, k int) (commonModels.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", ragErrors.ErrIndexCorrupt, len(query), ix.dimension)
	}
	if k <= 0 {
		return commonModels.RetrievalResult{}, nil
	}

	queryNorm := norm(query)
	results := make(commonModels.RetrievalResult, len(ix.vectors))
	for i, v := range ix.vectors {
		results[i] = commonModels.ScoredChunk{
			Chunk: ix.chunks[i],
			Score: ix.score(query, queryNorm, v, ix.norms[i]),
		}
	}
	vectorDB.SortResults(results)

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (ix *Index) score(q []float32, qNorm float64, v []float32, vNorm float64) float32 {
	switch ix.metric {
	case L2:
		var sum float64
		for i := range q {
			d := float64(q[i]) - float64(v[i])
			sum += d * d
		}
		return float32(-math.Sqrt(sum))
	default:
		if qNorm == 0 || vNorm == 0 {
			return 0
		}
		var dot float64
		for i := range q {
			dot += float64(q[i]) * float64(v[i])
		}
		return float32(dot / (qNorm * vNorm))
	}
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
