// Package hashEmbedding is the offline embedder: words and character
// trigrams are hashed into a fixed number of buckets. It needs no model
// files and gives bit-identical vectors on every run.
//
// It matches shared words, not meaning. For semantic retrieval set
// EMBEDDER=openai and point OPENAI_BASE_URL at a llama.cpp server started
// with --embedding (or any OpenAI-compatible embeddings endpoint).
package hashEmbedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/akolanti/GoRAG/internal/rag/embedding"
)

const (
	modelName     = "hash-v1"
	wordWeight    = 1.0
	trigramWeight = 0.5
)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a o as os um uma de da do das dos e em no na nos nas por para com que se é ao à
		the an and or of to in on for is are was be it this that with as at by from`) {
		stopwords[w] = struct{}{}
	}
}

type client struct {
	dimension int
}

func NewHashEmbedder(dimension int) embedding.Embedder {
	return &client{dimension: dimension}
}

func (c *client) Dimension() int { return c.dimension }

func (c *client) ModelInfo() string {
	return fmt.Sprintf("%s/%d", modelName, c.dimension)
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.embed(query), nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = c.embed(chunk)
	}
	return out, nil
}

func (c *client) embed(text string) []float32 {
	acc := make([]float64, c.dimension)
	for _, tok := range tokenize(text) {
		c.add(acc, "w:"+tok, wordWeight)
		padded := []rune(" " + tok + " ")
		for i := 0; i+3 <= len(padded); i++ {
			c.add(acc, "t:"+string(padded[i:i+3]), trigramWeight)
		}
	}

	var sum float64
	for _, x := range acc {
		sum += x * x
	}
	vec := make([]float32, c.dimension)
	if sum == 0 {
		return vec
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range acc {
		vec[i] = float32(x * inv)
	}
	return vec
}

// add uses the top bit of the hash as a sign so collisions cancel out on average.
func (c *client) add(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(c.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if _, skip := stopwords[f]; skip {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
