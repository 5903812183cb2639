package llm

import (
	"context"

	"github.com/akolanti/GoRAG/internal/config"
)

// Provider turns a finished prompt into an answer. Output is not
// deterministic when Temperature > 0.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type GenerationConfig struct {
	ContextSize int
	Temperature float32
	TopP        float32
	GPULayers   int
	MaxTokens   int
}

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		ContextSize: config.DefaultContextSize,
		Temperature: config.DefaultTemperature,
		TopP:        config.DefaultTopP,
		GPULayers:   config.DefaultGPULayers,
		MaxTokens:   config.DefaultMaxTokens,
	}
}

// PromptBudget is the number of tokens left for the prompt once room for
// the answer is reserved.
func (c GenerationConfig) PromptBudget() int {
	return c.ContextSize - c.MaxTokens
}
