package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Extractor produces plain text from a stored file.
// Implementations must be safe for concurrent use.
type Extractor interface {
	// Extract reads the file at path and returns its text content.
	// Returns an error wrapping ErrUnreadable or ErrEmptyDocument on failure.
	Extract(ctx context.Context, path string) (string, error)
}

// Registry maps MIME types to extractors. Lookup tries an exact match
// first ("text/markdown"), then a wildcard on the major type ("text/*"),
// then the optional fallback.
type Registry struct {
	byMIME   map[string]Extractor
	fallback Extractor
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithFallback sets an extractor used for MIME types with no registration.
func WithFallback(e Extractor) RegistryOption {
	return func(r *Registry) {
		r.fallback = e
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRegistry creates an empty extractor registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byMIME: make(map[string]Extractor),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRegistry returns a registry covering the formats scriba ships
// extractors for: all text/* types and PDF.
func DefaultRegistry(opts ...RegistryOption) *Registry {
	r := NewRegistry(opts...)
	r.Register("text/*", NewTextExtractor())
	r.Register("application/pdf", NewPDFExtractor())
	return r
}

// Register maps a MIME type (or a "type/*" wildcard) to an extractor.
func (r *Registry) Register(mime string, e Extractor) {
	r.byMIME[normalizeMIME(mime)] = e
}

// ForMIME returns the extractor registered for the given MIME type.
func (r *Registry) ForMIME(mime string) (Extractor, error) {
	norm := normalizeMIME(mime)
	if e, ok := r.byMIME[norm]; ok {
		return e, nil
	}
	if major, _, found := strings.Cut(norm, "/"); found {
		if e, ok := r.byMIME[major+"/*"]; ok {
			return e, nil
		}
	}
	if r.fallback != nil {
		r.logger.Debug("no extractor registered, using fallback", "mime", mime)
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, mime)
}

// Extract resolves the extractor for mime and runs it against path,
// rejecting whitespace-only output.
func (r *Registry) Extract(ctx context.Context, mime, path string) (string, error) {
	e, err := r.ForMIME(mime)
	if err != nil {
		return "", err
	}

	text, err := e.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}
	return text, nil
}

// normalizeMIME strips parameters ("text/plain; charset=utf-8") and lowercases.
func normalizeMIME(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
