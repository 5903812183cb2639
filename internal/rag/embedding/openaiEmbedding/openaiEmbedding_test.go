package openaiEmbedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// newFakeServer answers /embeddings with a vector derived from each input's length.
func newFakeServer(t *testing.T, width int, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		*calls++
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data := make([]map[string]any, len(req.Input))
		// reversed on purpose, clients must order by index
		for i := range req.Input {
			vec := make([]float32, width)
			vec[0] = float32(len(req.Input[i]))
			data[len(req.Input)-1-i] = map[string]any{"object": "embedding", "index": i, "embedding": vec}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}))
}

func TestBatchEmbedding(t *testing.T) {
	calls := 0
	srv := newFakeServer(t, 3, &calls)
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL+"/v1", "test-key", "mini", 0, 0)
	got, err := e.BatchEmbedding(context.Background(), []string{"a", "abcd", "ab"})
	if err != nil {
		t.Fatalf("BatchEmbedding failed: %v", err)
	}
	want := [][]float32{{1, 0, 0}, {4, 0, 0}, {2, 0, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if e.Dimension() != 3 {
		t.Errorf("Dimension = %d, want learned width 3", e.Dimension())
	}
	if calls != 1 {
		t.Errorf("expected one request, got %d", calls)
	}
	if e.ModelInfo() != "openai/mini" {
		t.Errorf("ModelInfo = %q", e.ModelInfo())
	}
}

func TestBatchEmbedding_WidthMismatch(t *testing.T) {
	calls := 0
	srv := newFakeServer(t, 3, &calls)
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL+"/v1", "test-key", "mini", 8, 0)
	if _, err := e.GetEmbedding(context.Background(), "hello"); err == nil {
		t.Error("expected width mismatch error")
	}
}

func TestBatchEmbedding_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL+"/v1", "test-key", "mini", 0, 0)
	if _, err := e.BatchEmbedding(context.Background(), []string{"x"}); err == nil {
		t.Error("expected error on 429")
	}
}
