package extract

import (
	"context"
	"fmt"
	"os"
)

// TextExtractor reads a file as UTF-8 text. It serves all text/* MIME
// types including markdown, and doubles as the registry fallback for
// unknown formats.
type TextExtractor struct{}

var _ Extractor = (*TextExtractor)(nil)

// NewTextExtractor creates a plain-text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract returns the file contents verbatim.
func (e *TextExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}
	return string(data), nil
}
