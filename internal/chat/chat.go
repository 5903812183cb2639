package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

const (
	Greeting    = "Chatbot pronto! Digite 'sair' para terminar."
	UserPrompt  = "Você: "
	BotPrefix   = "Bot: "
	errorPrefix = "Erro: "
)

var logger = logger_i.NewLogger("chat")

// Answerer is the part of rag.Service the loop needs.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Run reads one question per line until an exit word, EOF or ctx ends.
// A failed question is reported on out and the loop carries on, unless the
// index or model itself is gone; then every later question would fail too
// and Run returns the error.
func Run(ctx context.Context, in io.Reader, out io.Writer, svc Answerer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprintln(out, Greeting)
	for {
		fmt.Fprint(out, "\n"+UserPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		if IsExit(line) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		answer, err := svc.Answer(ctx, line)
		if err != nil {
			logger.Error("Question failed", "error", err)
			fmt.Fprintln(out, errorPrefix+err.Error())
			if ragErrors.IsStartupFailure(err) {
				return err
			}
			continue
		}
		fmt.Fprintln(out, BotPrefix+answer)
	}
}

func IsExit(line string) bool {
	return slices.Contains(config.ExitWords, strings.ToLower(strings.TrimSpace(line)))
}
