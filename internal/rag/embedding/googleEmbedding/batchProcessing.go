package googleEmbedding

import (
	"errors"
	"fmt"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxBatchSize is the largest number of contents one EmbedContent call accepts.
const maxBatchSize = 100

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))

	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

func splitBatches(chunks []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(chunks); start += size {
		end := min(start+size, len(chunks))
		batches = append(batches, chunks[start:end])
	}
	return batches
}

// isRateLimited reports quota errors from either transport genai may use.
func isRateLimited(err error) bool {
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}
	return false
}

func readVectors(res *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if res == nil || len(res.Embeddings) != want {
		got := 0
		if res != nil {
			got = len(res.Embeddings)
		}
		return nil, fmt.Errorf("google embeddings: asked for %d vectors, got %d", want, got)
	}
	vectors := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("google embeddings: empty vector at position %d", i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}
