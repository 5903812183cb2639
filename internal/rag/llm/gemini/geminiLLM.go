package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
	cfg       llm.GenerationConfig
	logger    *logger_i.Logger
}

// NewGeminiClient builds a remote provider. baseURL is only set in tests.
func NewGeminiClient(ctx context.Context, apikey string, modelName string, cfg llm.GenerationConfig, baseURL string) (llm.Provider, error) {
	clientConfig := &genai.ClientConfig{APIKey: apikey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	c, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	log := logger_i.NewLogger("llm_gemini")
	log.Info("Gemini client created", "model", modelName)
	return &llmClient{client: c, modelName: modelName, cfg: cfg, logger: log}, nil
}

func (c *llmClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("gemini_generation", time.Since(start)) }()

	contentConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.cfg.Temperature),
		TopP:            genai.Ptr(c.cfg.TopP),
		MaxOutputTokens: int32(c.cfg.MaxTokens),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), contentConfig)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errors.New("gemini returned an empty answer")
	}
	return text, nil
}
