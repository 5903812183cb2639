package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/prompt"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

func logState(log *logger_i.Logger, state commonModels.PipelineState) {
	log.Debug("Answer", "Current Status", state)
}

func (s *service) stepError(log *logger_i.Logger, err error, message string) error {
	log.Error(message, "error", err)
	return err
}

func (s *service) executeRetrievalStep(ctx context.Context, log *logger_i.Logger, question string) (commonModels.RetrievalResult, error) {
	logState(log, commonModels.Retrieving)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	return s.retriever.Retrieve(ctx, question)
}

func (s *service) executePromptStep(log *logger_i.Logger, question string, matches commonModels.RetrievalResult) prompt.Prompt {
	logState(log, commonModels.Prompting)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("prompt_building", time.Since(start)) }()

	p := s.promptBuilder.Build(question, matches.Texts())
	log.Debug("Prompt built", "chunks", p.ChunksUsed, "dropped", p.ChunksDropped, "tokens", p.EstimatedTokens)
	return p
}

// executeLLMStep bounds the call with the generation timeout. Expiry of that
// timeout is ErrGenerationTimeout; a cancelled parent is returned as is.
func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, promptText string) (string, error) {
	logState(log, commonModels.Generating)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	genCtx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()

	answer, err := s.llmProvider.Generate(genCtx, promptText)
	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w after %s", ragErrors.ErrGenerationTimeout, s.generationTimeout)
		}
		return "", err
	}
	return answer, nil
}
