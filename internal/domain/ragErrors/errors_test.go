package ragErrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsStartupFailure(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil", nil, false},
		{"skipped file", Skipped("a.pdf", errors.New("corrupt")), false},
		{"wrapped skipped file", fmt.Errorf("loading: %w", Skipped("a.txt", ErrUnsupportedFormat)), false},
		{"missing model", fmt.Errorf("open: %w", ErrModelNotFound), true},
		{"missing index", ErrIndexNotFound, true},
		{"no documents", fmt.Errorf("%w in data", ErrNoDocuments), true},
		{"unknown", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStartupFailure(tt.err); got != tt.fatal {
				t.Errorf("IsStartupFailure(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
		})
	}
}

func TestSkippedError_Unwrap(t *testing.T) {
	err := Skipped("notes.md", ErrEmptyDocument)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Error("SkippedError should unwrap to its cause")
	}
	if err.Error() != "skipped notes.md: document has no text" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if IsStartupFailure(err) {
		t.Error("a skipped file is not a startup failure")
	}
	if IsStartupFailure(fmt.Errorf("%w after 2m0s", ErrGenerationTimeout)) {
		t.Error("generation timeout is a per-question failure")
	}
	if !IsStartupFailure(fmt.Errorf("x: %w", ErrIndexCorrupt)) {
		t.Error("corrupt index should be a startup failure")
	}
}
