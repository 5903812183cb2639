package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
)

const (
	exitOK = iota
	exitFailure
	exitNoDocuments
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	code := exitCode(err)
	if code != exitOK {
		fmt.Fprintln(os.Stderr, failureMessage(err))
	}
	os.Exit(code)
}

// failureMessage points configuration problems at the settings to check.
func failureMessage(err error) string {
	if !ragErrors.IsStartupFailure(err) {
		return "erro: " + err.Error()
	}
	return fmt.Sprintf("erro fatal: %v\nverifique MODEL_PATH, DATA_DIR e VECTOR_STORE_DIR (ou --config)", err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ragErrors.ErrNoDocuments):
		return exitNoDocuments
	default:
		return exitFailure
	}
}
