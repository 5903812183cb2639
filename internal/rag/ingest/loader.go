package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/google/uuid"
)

var logger = logger_i.NewLogger("ingest")

// Extractor turns one file of a given format into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

type ExtractorFunc func(path string) (string, error)

func (f ExtractorFunc) Extract(path string) (string, error) {
	return f(path)
}

type format struct {
	docType   commonModels.DocType
	extractor Extractor
}

// Loader walks a corpus directory and extracts one Document per supported file.
type Loader struct {
	formats map[string]format
	logger  *logger_i.Logger
}

func NewLoader() *Loader {
	l := &Loader{
		formats: make(map[string]format),
		logger:  logger_i.NewLogger("document_loader"),
	}
	l.Register(commonModels.TXT, ExtractorFunc(extractPlainText), ".txt")
	l.Register(commonModels.MARKDOWN, ExtractorFunc(extractMarkdown), ".md", ".markdown")
	l.Register(commonModels.PDF, ExtractorFunc(extractPDF), ".pdf")
	l.Register(commonModels.OFFICE, ExtractorFunc(extractPlainText), ".docx", ".odt", ".rtf")
	return l
}

// Register binds file extensions to an extractor, replacing any previous binding.
func (l *Loader) Register(docType commonModels.DocType, extractor Extractor, extensions ...string) {
	for _, ext := range extensions {
		l.formats[strings.ToLower(ext)] = format{docType: docType, extractor: extractor}
	}
}

func (l *Loader) getDocType(docPath string) commonModels.DocType {
	f, ok := l.formats[strings.ToLower(filepath.Ext(docPath))]
	if !ok {
		return commonModels.ERR
	}
	return f.docType
}

// Load returns the documents under root in lexical path order. Files that
// fail extraction are returned in the skipped list and never abort the walk.
// A missing root yields no documents.
func (l *Loader) Load(ctx context.Context, root string) ([]commonModels.Document, []*ragErrors.SkippedError, error) {
	var docs []commonModels.Document
	var skipped []*ragErrors.SkippedError

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			skipped = append(skipped, l.skip(path, walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		docType := l.getDocType(path)
		if docType == commonModels.ERR {
			return nil
		}

		doc, err := l.loadFile(root, path, docType)
		if err != nil {
			skipped = append(skipped, l.skip(path, err))
			return nil
		}
		docs = append(docs, doc)
		return nil
	})

	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("Corpus directory does not exist", "path", root)
		return nil, skipped, nil
	}
	if err != nil {
		return nil, skipped, fmt.Errorf("walking %s: %w", root, err)
	}
	return docs, skipped, nil
}

func (l *Loader) loadFile(root string, path string, docType commonModels.DocType) (commonModels.Document, error) {
	text, err := safeExtract(l.formats[strings.ToLower(filepath.Ext(path))].extractor, path)
	if err != nil {
		return commonModels.Document{}, err
	}
	if strings.TrimSpace(text) == "" {
		return commonModels.Document{}, ragErrors.ErrEmptyDocument
	}
	// chunks are cut on runes and must stay byte-identical to the source
	if !utf8.ValidString(text) {
		return commonModels.Document{}, fmt.Errorf("%w: text is not valid UTF-8", ragErrors.ErrUnsupportedFormat)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	l.logger.Debug("Loaded document", "path", rel, "type", docType, "chars", len([]rune(text)))
	return commonModels.Document{
		Id:         documentID(rel),
		Text:       text,
		SourcePath: rel,
		Format:     docType,
	}, nil
}

func (l *Loader) skip(path string, err error) *ragErrors.SkippedError {
	l.logger.Warn("Skipping file", "path", path, "error", err)
	metrics.IncrementSkippedFiles()
	return ragErrors.Skipped(path, err)
}

// safeExtract turns a panicking parser into a per-file error.
func safeExtract(extractor Extractor, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return extractor.Extract(path)
}

// documentID is stable across runs for the same relative path.
func documentID(relPath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("doc:"+relPath)).String()
}
