package embedding

import "context"

// Embedder maps text to fixed-width vectors. The same text and model always
// give the same vector.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
	Dimension() int
	// ModelInfo identifies the model and width, e.g. "hash-v1/384".
	ModelInfo() string
}
