package llamacpp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/rag/llm"
)

func fakeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiny.Q4_K_M.gguf")
	if err := os.WriteFile(path, []byte("GGUF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeServer mimics llama-server: /health turns 200 after readyAfter polls.
func fakeServer(t *testing.T, readyAfter int32, lastBody *map[string]any) *httptest.Server {
	t.Helper()
	var polls atomic.Int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/health":
			if polls.Add(1) <= readyAfter {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			if lastBody != nil {
				_ = json.NewDecoder(r.Body).Decode(lastBody)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "chatcmpl-1",
				"object": "chat.completion",
				"created": 1,
				"model": "tiny",
				"choices": [{"index": 0, "finish_reason": "stop",
					"message": {"role": "assistant", "content": "  Lave as mãos.  "}}]
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestNew_MissingModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.gguf")
	_, err := New(context.Background(), Options{ModelPath: path, ServerURL: "http://127.0.0.1:1"})
	if !errors.Is(err, ragErrors.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error does not name the path: %v", err)
	}
}

func TestCheckModel(t *testing.T) {
	if err := CheckModel(fakeModel(t)); err != nil {
		t.Errorf("existing model rejected: %v", err)
	}
	dir := t.TempDir()
	if err := CheckModel(dir); !errors.Is(err, ragErrors.ErrModelNotFound) {
		t.Errorf("directory accepted as model: %v", err)
	}
	missing := filepath.Join(dir, "nope.gguf")
	if err := CheckModel(missing); err == nil || !strings.Contains(err.Error(), missing) {
		t.Errorf("error does not name the path: %v", err)
	}
}

func TestGenerate(t *testing.T) {
	var body map[string]any
	srv := fakeServer(t, 1, &body)
	defer srv.Close()

	cfg := llm.DefaultGenerationConfig()
	c, err := New(context.Background(), Options{
		ModelPath:    fakeModel(t),
		ServerURL:    srv.URL,
		StartTimeout: 5 * time.Second,
		Config:       cfg,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	answer, err := c.Generate(context.Background(), "Como prevenir doenças?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if answer != "Lave as mãos." {
		t.Errorf("answer = %q", answer)
	}

	if body["model"] != "tiny.Q4_K_M" {
		t.Errorf("model = %v", body["model"])
	}
	if body["max_tokens"] != float64(cfg.MaxTokens) {
		t.Errorf("max_tokens = %v, want %d", body["max_tokens"], cfg.MaxTokens)
	}
	if _, ok := body["temperature"]; !ok {
		t.Error("temperature not sent")
	}
}

func TestNew_ServerNeverReady(t *testing.T) {
	srv := fakeServer(t, 1<<30, nil)
	defer srv.Close()

	_, err := New(context.Background(), Options{
		ModelPath:    fakeModel(t),
		ServerURL:    srv.URL,
		StartTimeout: 700 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected readiness error")
	}
}

func TestNew_MissingBinary(t *testing.T) {
	_, err := New(context.Background(), Options{
		ModelPath: fakeModel(t),
		Binary:    "definitely-not-a-llama-server-binary",
	})
	if err == nil || errors.Is(err, ragErrors.ErrModelNotFound) {
		t.Fatalf("expected binary lookup error, got %v", err)
	}
}

func TestGenerate_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			return
		}
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer slow.Close()

	c, err := New(context.Background(), Options{ModelPath: fakeModel(t), ServerURL: slow.URL, StartTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := c.Generate(ctx, "q"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}
