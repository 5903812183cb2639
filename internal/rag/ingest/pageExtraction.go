package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

func extractPDF(path string) (string, error) {
	logger.Debug("Extracting pdf", "path", path)
	f, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := f.NumPage()
	logger.Debug("Pdf opened", "path", path, "pages", numPages)
	pages := make([]pageExtractor, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			logger.Debug("Skipping null page", "path", path, "page", i)
			pages = append(pages, nil)
			continue
		}
		pages = append(pages, func() (string, error) { return page.GetPlainText(nil) })
	}
	return joinPages(path, pages), nil
}

// pageExtractor returns the text of one page; nil marks a page to skip.
type pageExtractor func() (string, error)

var pageExtractionTimeout = config.PdfPageExtractionTimeout

// joinPages keeps page order and separates pages by a blank line. A page
// that fails, panics or times out is left out.
func joinPages(path string, pages []pageExtractor) string {
	var texts []string
	for i, extract := range pages {
		if extract == nil {
			continue
		}
		content, err := protectExtract(extract)
		if err != nil {
			// one bad page does not cost the whole file
			logger.Warn("Error parsing page content", "path", path, "page", i+1, "error", err)
			continue
		}
		texts = append(texts, content)
	}
	return strings.Join(texts, "\n\n")
}

func protectExtract(extract pageExtractor) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("pdf page panic: %v", r)}
			}
		}()
		content, err := extract()
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(pageExtractionTimeout):
		return "", errors.New("page extraction timeout")
	}
}

// extractPlainText reads .txt files and the office formats cat understands (.docx, .odt, .rtf).
func extractPlainText(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

func extractMarkdown(path string) (string, error) {
	raw, err := extractPlainText(path)
	if err != nil {
		return "", err
	}
	return stripMarkdown(raw), nil
}

var markdownRules = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile("(?m)^[ \t]*(```|~~~).*$\n?"), ""},
	{regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`), ""},
	{regexp.MustCompile(`(?m)^#{1,6}[ \t]*`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*([-*+]|\d+\.)[ \t]+`), ""},
	{regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`), "$1"},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`), "$1"},
	{regexp.MustCompile(`<[^>\n]+>`), ""},
	{regexp.MustCompile(`\*\*|__`), ""},
	{regexp.MustCompile(`(^|[^\w*])[*_]([^*_\n]+)[*_]([^\w*]|$)`), "$1$2$3"},
	{regexp.MustCompile("`"), ""},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// stripMarkdown drops markdown syntax and keeps the readable text.
func stripMarkdown(src string) string {
	out := strings.ReplaceAll(src, "\r\n", "\n")
	for _, rule := range markdownRules {
		out = rule.pattern.ReplaceAllString(out, rule.replace)
	}
	return strings.TrimSpace(out)
}
