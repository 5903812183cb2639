package cachedEmbedding

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/akolanti/GoRAG/internal/data/redisStore"
	"github.com/akolanti/GoRAG/internal/data/store"
	"github.com/akolanti/GoRAG/internal/rag/embedding/hashEmbedding"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingEmbedder struct {
	inner interface {
		BatchEmbedding(context.Context, []string) ([][]float32, error)
	}
	batchCalls int
	texts      int
	failWith   error
}

func (m *countingEmbedder) GetEmbedding(ctx context.Context, q string) ([]float32, error) {
	res, err := m.BatchEmbedding(ctx, []string{q})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

func (m *countingEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.batchCalls++
	m.texts += len(chunks)
	return m.inner.BatchEmbedding(ctx, chunks)
}

func (m *countingEmbedder) Dimension() int    { return 32 }
func (m *countingEmbedder) ModelInfo() string { return "hash-v1/32" }

func newCounting() *countingEmbedder {
	return &countingEmbedder{inner: hashEmbedding.NewHashEmbedder(32)}
}

func TestCachedEmbedder_OnlyMissesReachModel(t *testing.T) {
	inner := newCounting()
	e := NewCachedEmbedder(inner, store.InitInMemoryVectorCache())
	ctx := context.Background()

	first, err := e.BatchEmbedding(ctx, []string{"a b", "c d"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.BatchEmbedding(ctx, []string{"c d", "e f", "a b"})
	if err != nil {
		t.Fatal(err)
	}

	if inner.texts != 3 {
		t.Errorf("model embedded %d texts, want 3", inner.texts)
	}
	if !reflect.DeepEqual(second[0], first[1]) || !reflect.DeepEqual(second[2], first[0]) {
		t.Error("cached vectors are not in input order")
	}
}

func TestCachedEmbedder_RedisValuesAreIdentical(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := store.NewRedisVectorCache(redisStore.NewTestStore(client), time.Hour)

	inner := newCounting()
	e := NewCachedEmbedder(inner, cache)
	ctx := context.Background()

	computed, err := e.GetEmbedding(ctx, "Quais são os sintomas?")
	if err != nil {
		t.Fatal(err)
	}
	cached, err := e.GetEmbedding(ctx, "Quais são os sintomas?")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(computed, cached) {
		t.Error("cached vector differs from computed one")
	}
	if inner.batchCalls != 1 {
		t.Errorf("model called %d times, want 1", inner.batchCalls)
	}
	if len(mr.Keys()) != 1 {
		t.Errorf("expected one redis key, got %v", mr.Keys())
	}
}

func TestCachedEmbedder_PropagatesModelErrors(t *testing.T) {
	inner := newCounting()
	inner.failWith = errors.New("model offline")
	e := NewCachedEmbedder(inner, store.InitInMemoryVectorCache())

	if _, err := e.GetEmbedding(context.Background(), "x"); err == nil {
		t.Error("expected error")
	}
}
