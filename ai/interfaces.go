package ai

import (
	"context"
	"errors"
)

var (
	// ErrEmptyBatch is returned by EmbedTexts for an empty input batch.
	ErrEmptyBatch = errors.New("embedding batch is empty")

	// ErrNoEmbedding is returned when the embedding service answers a
	// request with no vectors.
	ErrNoEmbedding = errors.New("embedding service returned no vectors")
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use and must return
// vectors of the same dimensionality for every call against one model.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch, more efficient than calling EmbedText repeatedly. The returned
	// slice contains embeddings in the same order as the input texts.
	// Returns an error on an empty batch or if any embedding fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	Close() error
}
