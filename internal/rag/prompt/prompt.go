package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

const (
	ContextPlaceholder  = "{context}"
	QuestionPlaceholder = "{question}"
)

const DefaultTemplate = "Você é um assistente especializado em saúde, focado em cuidados básicos " +
	"e prevenção de doenças comuns.\n" +
	"Utilize estritamente o contexto abaixo para responder.\n" +
	"Se não souber, diga que não sabe!\n\n" +
	ContextPlaceholder + "\n\n" +
	"Pergunta: " + QuestionPlaceholder + "\n" +
	"Resposta:"

// Builder fills the template with retrieved chunks while keeping the
// estimated prompt size within a token budget.
type Builder struct {
	template      string
	budget        int
	charsPerToken int
	logger        *logger_i.Logger
}

type Prompt struct {
	Text            string
	ChunksUsed      int
	ChunksDropped   int
	EstimatedTokens int
}

// NewBuilder uses DefaultTemplate when template is empty. A budget <= 0
// disables trimming.
func NewBuilder(template string, budgetTokens int) (*Builder, error) {
	if template == "" {
		template = DefaultTemplate
	}
	if err := validate(template); err != nil {
		return nil, err
	}
	return &Builder{
		template:      template,
		budget:        budgetTokens,
		charsPerToken: config.CharsPerToken,
		logger:        logger_i.NewLogger("prompt_builder"),
	}, nil
}

// LoadTemplate reads a template file and checks its placeholders.
func LoadTemplate(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt template: %w", err)
	}
	template := string(raw)
	if err := validate(template); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return template, nil
}

func validate(template string) error {
	var errs []error
	for _, p := range []string{ContextPlaceholder, QuestionPlaceholder} {
		if !strings.Contains(template, p) {
			errs = append(errs, fmt.Errorf("prompt template has no %s placeholder", p))
		}
	}
	return errors.Join(errs...)
}

// Build keeps chunks in retrieval order and drops them from the end until
// the prompt fits the budget.
func (b *Builder) Build(question string, chunks []string) Prompt {
	for n := len(chunks); n >= 0; n-- {
		text := b.render(question, chunks[:n])
		tokens := b.EstimateTokens(text)
		if b.budget > 0 && tokens > b.budget && n > 0 {
			continue
		}

		if dropped := len(chunks) - n; dropped > 0 {
			b.logger.Warn("Prompt over budget, dropped lowest ranked chunks", "dropped", dropped, "budget", b.budget)
			if n == 0 {
				b.logger.Warn("No retrieved chunk fits the context window, answering without context")
			}
		}
		if b.budget > 0 && tokens > b.budget {
			b.logger.Warn("Prompt exceeds the budget even without context", "tokens", tokens, "budget", b.budget)
		}
		return Prompt{
			Text:            text,
			ChunksUsed:      n,
			ChunksDropped:   len(chunks) - n,
			EstimatedTokens: tokens,
		}
	}
	// unreachable, n == 0 always returns
	return Prompt{}
}

func (b *Builder) render(question string, chunks []string) string {
	r := strings.NewReplacer(
		ContextPlaceholder, strings.Join(chunks, "\n\n"),
		QuestionPlaceholder, question,
	)
	return r.Replace(b.template)
}

// EstimateTokens approximates the tokenizer with one token per charsPerToken runes.
func (b *Builder) EstimateTokens(text string) int {
	runes := len([]rune(text))
	return (runes + b.charsPerToken - 1) / b.charsPerToken
}
