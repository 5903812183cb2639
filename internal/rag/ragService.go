package rag

import (
	"context"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/internal/rag/prompt"
	"github.com/akolanti/GoRAG/internal/rag/retriever"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/google/uuid"
)

/*
Service is the only thing the chat loop and the MCP server see. The private
service struct holds the retriever, prompt builder and model handed to
NewService; nothing in here is global, so tests swap any of them for mocks.
*/

// Service answers one question at a time; no state survives between calls.
type Service interface {
	Answer(ctx context.Context, question string) (string, error)
	AnswerWithSources(ctx context.Context, question string) (Response, error)
}

type Response struct {
	Answer        string
	Sources       commonModels.RetrievalResult
	ChunksDropped int
}

type service struct {
	retriever         *retriever.Retriever
	promptBuilder     *prompt.Builder
	llmProvider       llm.Provider
	generationTimeout time.Duration
	logger            *logger_i.Logger
}

// NewService constructor
func NewService(r *retriever.Retriever, b *prompt.Builder, p llm.Provider, generationTimeout time.Duration) Service {
	if generationTimeout <= 0 {
		generationTimeout = config.DefaultGenerationTimeout
	}
	return &service{
		retriever:         r,
		promptBuilder:     b,
		llmProvider:       p,
		generationTimeout: generationTimeout,
		logger:            logger_i.NewLogger("rag_service"),
	}
}

func (s *service) Answer(ctx context.Context, question string) (string, error) {
	res, err := s.AnswerWithSources(ctx, question)
	return res.Answer, err
}

func (s *service) AnswerWithSources(ctx context.Context, question string) (Response, error) {
	traceId := uuid.NewString()
	ctx = context.WithValue(ctx, config.TRACE_ID_KEY, traceId)
	inMethodLogger := s.logger.With("traceId", traceId)

	start := time.Now()
	status := "ok"
	defer func() { metrics.CaptureQuestionMetrics(status, time.Since(start)) }()
	defer logState(inMethodLogger, commonModels.Idle)

	// Retrieval
	matches, err := s.executeRetrievalStep(ctx, inMethodLogger, question)
	if err != nil {
		status = "retrieval_error"
		return Response{}, s.stepError(inMethodLogger, err, "RETRIEVAL_FAILURE")
	}

	// Prompt
	p := s.executePromptStep(inMethodLogger, question, matches)

	// LLM Generation
	answer, err := s.executeLLMStep(ctx, inMethodLogger, p.Text)
	if err != nil {
		status = "generation_error"
		return Response{Sources: matches[:p.ChunksUsed]}, s.stepError(inMethodLogger, err, "LLM_GENERATION_FAILURE")
	}

	return Response{
		Answer:        answer,
		Sources:       matches[:p.ChunksUsed],
		ChunksDropped: p.ChunksDropped,
	}, nil
}
