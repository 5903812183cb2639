// Package worker serialises access to the language model: many callers may
// submit prompts, exactly one goroutine runs them.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

var ErrStopped = errors.New("generation queue stopped")

type request struct {
	ctx    context.Context
	prompt string
	reply  chan result
}

type result struct {
	answer string
	err    error
}

// Serial owns a Provider and implements Provider itself, so it can be
// dropped in wherever a model is expected.
type Serial struct {
	provider  llm.Provider
	jobs      chan request
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	logger    *logger_i.Logger
}

func NewSerial(provider llm.Provider, buffer int) *Serial {
	s := &Serial{
		provider: provider,
		jobs:     make(chan request, buffer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger_i.NewLogger("generation_queue"),
	}
	go s.worker()
	s.logger.Info("Generation queue started", "buffer", buffer)
	return s
}

// Generate queues the prompt and blocks until the model answers or ctx ends.
func (s *Serial) Generate(ctx context.Context, prompt string) (string, error) {
	req := request{ctx: ctx, prompt: prompt, reply: make(chan result, 1)}

	metrics.IncrementQueueDepth()
	select {
	case s.jobs <- req:
	case <-ctx.Done():
		metrics.DecrementQueueDepth()
		return "", ctx.Err()
	case <-s.stop:
		metrics.DecrementQueueDepth()
		return "", ErrStopped
	}

	select {
	case r := <-req.reply:
		return r.answer, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.done:
		return "", ErrStopped
	}
}

// Close stops the consumer after the prompt in flight, if any, and fails
// everything still queued.
func (s *Serial) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}
