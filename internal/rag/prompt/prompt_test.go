package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuild_ContainsChunksAndQuestion(t *testing.T) {
	b, err := NewBuilder("", 0)
	if err != nil {
		t.Fatal(err)
	}
	p := b.Build("How can I prevent disease?", []string{"Hand-washing prevents disease.", "Second chunk."})

	if !strings.Contains(p.Text, "Hand-washing prevents disease.\n\nSecond chunk.") {
		t.Errorf("chunks missing or out of order:\n%s", p.Text)
	}
	if !strings.Contains(p.Text, "Pergunta: How can I prevent disease?\nResposta:") {
		t.Errorf("question not inserted verbatim:\n%s", p.Text)
	}
	if p.ChunksUsed != 2 || p.ChunksDropped != 0 {
		t.Errorf("used=%d dropped=%d", p.ChunksUsed, p.ChunksDropped)
	}
}

func TestBuild_QuestionIsNotExpanded(t *testing.T) {
	b, _ := NewBuilder("C: {context} Q: {question}", 0)
	p := b.Build("what is {context}?", []string{"ctx"})
	if p.Text != "C: ctx Q: what is {context}?" {
		t.Errorf("got %q", p.Text)
	}
}

func TestBuild_DropsLowestRankedChunks(t *testing.T) {
	b, _ := NewBuilder("{context}|{question}", 6)
	chunks := []string{
		strings.Repeat("a", 16), // 4 tokens
		strings.Repeat("b", 16),
		strings.Repeat("c", 16),
	}

	p := b.Build("q", chunks)
	if p.ChunksUsed != 1 || p.ChunksDropped != 2 {
		t.Fatalf("used=%d dropped=%d, text %q", p.ChunksUsed, p.ChunksDropped, p.Text)
	}
	if !strings.HasPrefix(p.Text, "aaaa") {
		t.Errorf("highest ranked chunk not kept: %q", p.Text)
	}
	if p.EstimatedTokens > 6 {
		t.Errorf("prompt still over budget: %d", p.EstimatedTokens)
	}
}

func TestBuild_NothingFits(t *testing.T) {
	b, _ := NewBuilder("{context}|{question}", 2)
	p := b.Build("q", []string{strings.Repeat("x", 100)})
	if p.ChunksUsed != 0 || p.Text != "|q" {
		t.Errorf("expected empty context, got %+v", p)
	}
}

func TestNewBuilder_RequiresPlaceholders(t *testing.T) {
	for _, tmpl := range []string{"only {context}", "only {question}", "neither"} {
		if _, err := NewBuilder(tmpl, 0); err == nil {
			t.Errorf("template %q accepted", tmpl)
		}
	}
}

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.txt")
	_ = os.WriteFile(good, []byte("Context: {context}\nQ: {question}"), 0o644)
	_ = os.WriteFile(bad, []byte("no placeholders"), 0o644)

	if tmpl, err := LoadTemplate(good); err != nil || !strings.HasPrefix(tmpl, "Context:") {
		t.Errorf("LoadTemplate(good) = %q, %v", tmpl, err)
	}
	if _, err := LoadTemplate(bad); err == nil {
		t.Error("expected error for template without placeholders")
	}
	if _, err := LoadTemplate(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEstimateTokens(t *testing.T) {
	b, _ := NewBuilder("", 0)
	tests := map[string]int{"": 0, "abc": 1, "abcd": 1, "abcde": 2, "ção!": 1}
	for in, want := range tests {
		if got := b.EstimateTokens(in); got != want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", in, got, want)
		}
	}
}
