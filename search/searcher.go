package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkwell-systems/scriba/ai"
	"github.com/inkwell-systems/scriba/core"
	"github.com/inkwell-systems/scriba/storage"
)

// Searcher answers semantic queries against the vector store.
type Searcher struct {
	vectors  storage.VectorStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(vectors storage.VectorStore, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		vectors:  vectors,
		embedder: embedder,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds up to limit chunks nearest to the query, nearest first.
// An empty index yields an empty result, not an error.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]*core.QueryResult, error) {
	return s.SearchFiltered(ctx, query, limit, nil)
}

// SearchFiltered is Search with a metadata filter applied before ranking,
// e.g. restricting results to one document.
func (s *Searcher) SearchFiltered(ctx context.Context, query string, limit int, filter storage.EntryFilter) ([]*core.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	count, err := s.vectors.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []*core.QueryResult{}, nil
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrQueryEmbedding, err)
	}

	results, err := s.vectors.Query(ctx, embedding, limit, filter)
	if err != nil {
		s.logger.Error("error querying vector store", "err", err)
		return nil, err
	}

	s.logger.Debug("search complete", "hits", len(results), "limit", limit)
	return results, nil
}

// ForDocument returns a filter restricting results to a single document.
func ForDocument(id core.ID) storage.EntryFilter {
	return func(meta *core.EntryMetadata) bool {
		return meta.DocumentId == id
	}
}
