package worker

import (
	"time"

	"github.com/akolanti/GoRAG/internal/metrics"
)

func (s *Serial) worker() {
	defer close(s.done)
	for {
		select {
		case req := <-s.jobs:
			metrics.DecrementQueueDepth()
			s.executeJob(req)

		case <-s.stop:
			s.drain()
			s.logger.Info("Generation queue stopped")
			return
		}
	}
}

func (s *Serial) executeJob(req request) {
	// the caller gave up while waiting in the queue
	if err := req.ctx.Err(); err != nil {
		req.reply <- result{err: err}
		return
	}

	start := time.Now()
	answer, err := s.provider.Generate(req.ctx, req.prompt)
	metrics.CaptureExecutionMetrics("queued_generation", time.Since(start))
	if err != nil {
		s.logger.Error("Generation failed", "error", err)
	}
	req.reply <- result{answer: answer, err: err}
}

func (s *Serial) drain() {
	for {
		select {
		case req := <-s.jobs:
			metrics.DecrementQueueDepth()
			req.reply <- result{err: ErrStopped}
		default:
			return
		}
	}
}
