package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFExtractor extracts text from PDF files using pdfcpu.
//
// pdfcpu exposes raw page content streams rather than decoded text, so this
// extractor pulls the text-showing operators (Tj/TJ) out of the streams.
// That is good enough for digitally produced PDFs; scanned documents come
// back empty and fail with ErrEmptyDocument at the registry boundary.
type PDFExtractor struct {
	conf   *model.Configuration
	logger *slog.Logger
}

var _ Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates a PDF extractor with pdfcpu defaults.
func NewPDFExtractor() *PDFExtractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFExtractor{
		conf:   conf,
		logger: slog.Default().With("component", "pdf-extractor"),
	}
}

// Extract validates the PDF and returns the text recovered from its
// content streams, pages separated by blank lines.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if pageCount == 0 {
		return "", fmt.Errorf("%w: %s has no pages", ErrEmptyDocument, path)
	}

	outDir, err := os.MkdirTemp("", "scriba-pdf-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, e.conf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	pages, err := readContentPages(outDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var sb strings.Builder
	for _, page := range pages {
		text := decodeTextOperators(page)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	e.logger.Debug("extracted pdf text", "path", path, "pages", pageCount, "chars", sb.Len())
	return sb.String(), nil
}

var pageNumber = regexp.MustCompile(`(\d+)\D*$`)

// readContentPages reads pdfcpu's per-page content dumps in page order.
func readContentPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return contentPageNum(names[i]) < contentPageNum(names[j])
	})

	pages := make([]string, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		pages = append(pages, string(data))
	}
	return pages, nil
}

func contentPageNum(name string) int {
	m := pageNumber.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

var (
	tjOperator = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)
	tjArray    = regexp.MustCompile(`\[((?:[^\[\]\\]|\\.)*)\]\s*TJ`)
	tjArrayStr = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)
)

// decodeTextOperators recovers the literal strings shown by Tj and TJ
// operators in a content stream.
func decodeTextOperators(stream string) string {
	var parts []string

	for _, m := range tjOperator.FindAllStringSubmatch(stream, -1) {
		if s := unescapePDFString(m[1]); s != "" {
			parts = append(parts, s)
		}
	}

	for _, arr := range tjArray.FindAllStringSubmatch(stream, -1) {
		var sb strings.Builder
		for _, m := range tjArrayStr.FindAllStringSubmatch(arr[1], -1) {
			sb.WriteString(unescapePDFString(m[1]))
		}
		if sb.Len() > 0 {
			parts = append(parts, sb.String())
		}
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}

// unescapePDFString resolves the escape sequences of a PDF literal string.
func unescapePDFString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '(', ')', '\\':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
