package qdrantDB

import (
	"fmt"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	metaModelInfo = "model_info"
	metaMetric    = "metric"
	metaDimension = "dimension"
	metaChunks    = "chunks"
)

func distance(metric string) qdrant.Distance {
	if metric == "l2" {
		return qdrant.Distance_Euclid
	}
	return qdrant.Distance_Cosine
}

func collectionMetadata(dimension int, metric, modelInfo string) map[string]*qdrant.Value {
	return qdrant.NewValueMap(map[string]any{
		metaModelInfo: modelInfo,
		metaMetric:    metric,
		metaDimension: dimension,
	})
}

func completionMetadata(chunks int) map[string]*qdrant.Value {
	return qdrant.NewValueMap(map[string]any{metaChunks: chunks})
}

// checkMetadata returns the metric the collection was built with.
func checkMetadata(meta map[string]*qdrant.Value, modelInfo string) (string, error) {
	if meta[metaChunks] == nil {
		return "", fmt.Errorf("%w: ingest never completed", ragErrors.ErrIndexNotFound)
	}
	built := meta[metaModelInfo].GetStringValue()
	if built != modelInfo {
		return "", fmt.Errorf("%w: collection built with %q, embedder is %q", ragErrors.ErrIndexCorrupt, built, modelInfo)
	}
	metric := meta[metaMetric].GetStringValue()
	if metric != "cosine" && metric != "l2" {
		return "", fmt.Errorf("%w: unknown metric %q", ragErrors.ErrIndexCorrupt, metric)
	}
	return metric, nil
}

func toPoints(chunks []commonModels.DocChunk, vectors [][]float32) ([]*qdrant.PointStruct, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":       chunk.Text,
				"source_doc_id": chunk.ParentDocId,
				"source_path":   chunk.SourcePath,
				"chunk_order":   chunk.SequenceIndex,
				"ordinal":       chunk.Ordinal,
				"chunk_id":      chunk.ChunkId,
			}),
		}
	}
	return points, nil
}

// fromHits rebuilds chunks from payloads. Euclid scores are distances, they
// are negated so that larger is better for every metric.
func fromHits(hits []*qdrant.ScoredPoint, metric string) commonModels.RetrievalResult {
	matches := make(commonModels.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		score := hit.Score
		if metric == "l2" {
			score = -score
		}
		matches = append(matches, commonModels.ScoredChunk{
			Chunk: commonModels.DocChunk{
				ChunkId:       hit.Payload["chunk_id"].GetStringValue(),
				ParentDocId:   hit.Payload["source_doc_id"].GetStringValue(),
				SourcePath:    hit.Payload["source_path"].GetStringValue(),
				Text:          hit.Payload["content"].GetStringValue(),
				SequenceIndex: int(hit.Payload["chunk_order"].GetIntegerValue()),
				Ordinal:       int(hit.Payload["ordinal"].GetIntegerValue()),
			},
			Score: score,
		})
	}
	vectorDB.SortResults(matches)
	return matches
}

func mapError(err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.NotFound:
		return fmt.Errorf("%w: %v", ragErrors.ErrIndexNotFound, err)
	}
	return err
}
