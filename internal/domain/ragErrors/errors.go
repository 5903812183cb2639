// Package ragErrors separates the errors that stop a pipeline from the ones
// that only cost a single item.
package ragErrors

import (
	"errors"
	"fmt"
)

var (
	ErrModelNotFound     = errors.New("model weights not found")
	ErrIndexNotFound     = errors.New("vector index not found")
	ErrIndexCorrupt      = errors.New("vector index corrupt")
	ErrNoDocuments       = errors.New("no documents found")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyDocument     = errors.New("document has no text")
	ErrGenerationTimeout = errors.New("generation timed out")
)

// SkippedError marks a per-file failure. The run continues without the file.
type SkippedError struct {
	Path string
	Err  error
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("skipped %s: %v", e.Path, e.Err)
}

func (e *SkippedError) Unwrap() error {
	return e.Err
}

func Skipped(path string, err error) *SkippedError {
	return &SkippedError{Path: path, Err: err}
}

// IsStartupFailure reports the kinds that stop every later question too and
// that an operator fixes by pointing the configuration at the right files.
// A SkippedError only ever costs its own file.
func IsStartupFailure(err error) bool {
	return errors.Is(err, ErrModelNotFound) ||
		errors.Is(err, ErrIndexNotFound) ||
		errors.Is(err, ErrIndexCorrupt) ||
		errors.Is(err, ErrNoDocuments)
}
