package ingest

import (
	"fmt"
	"strings"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/google/uuid"
)

// boundaries are tried in order; within one level the latest cut wins.
var boundaries = [][]string{
	{"\n\n"},
	{"\n"},
	{". ", "! ", "? ", "; "},
	{" "},
}

// Splitter cuts document text into overlapping windows measured in runes.
type Splitter struct {
	size    int
	overlap int
}

func NewSplitter(size int, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

func (s *Splitter) Size() int    { return s.size }
func (s *Splitter) Overlap() int { return s.overlap }

// PrepareChunks splits every document, keeping document order and then
// sequence order. Ordinal numbers the chunks across the whole corpus.
func (s *Splitter) PrepareChunks(docs []commonModels.Document) []commonModels.DocChunk {
	var chunks []commonModels.DocChunk
	for _, doc := range docs {
		for i, text := range s.SplitText(doc.Text) {
			chunks = append(chunks, commonModels.DocChunk{
				ChunkId:       chunkID(doc.Id, i),
				ParentDocId:   doc.Id,
				SourcePath:    doc.SourcePath,
				Text:          text,
				SequenceIndex: i,
				Ordinal:       len(chunks),
			})
		}
	}
	return chunks
}

// SplitText returns chunks of at most size runes where each chunk starts
// exactly overlap runes before the previous one ended.
func (s *Splitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)

	var chunks []string
	start := 0
	for len(runes)-start > s.size {
		end := s.cutPoint(runes, start)
		chunks = append(chunks, string(runes[start:end]))
		start = end - s.overlap
	}
	return append(chunks, string(runes[start:]))
}

// cutPoint picks the end of the chunk starting at start. The end always lies
// past start+overlap so the next chunk makes progress.
func (s *Splitter) cutPoint(runes []rune, start int) int {
	limit := start + s.size
	minEnd := start + s.overlap + 1
	for _, level := range boundaries {
		best := -1
		for _, sep := range level {
			if pos := lastSeparatorEnd(runes, minEnd, limit, []rune(sep)); pos > best {
				best = pos
			}
		}
		if best >= 0 {
			return best
		}
	}
	return limit
}

// lastSeparatorEnd returns the largest e in [minEnd, limit] such that runes
// ending at e spell sep, or -1.
func lastSeparatorEnd(runes []rune, minEnd int, limit int, sep []rune) int {
	for e := limit; e >= minEnd && e >= len(sep); e-- {
		if runesEqual(runes[e-len(sep):e], sep) {
			return e
		}
	}
	return -1
}

func runesEqual(a []rune, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func chunkID(docID string, seq int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "chunk:%s#%d", docID, seq)).String()
}
