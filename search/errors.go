package search

import "errors"

var (
	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyQuery is returned for blank queries.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrInvalidLimit is returned for non-positive result limits.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrQueryEmbedding wraps failures to embed the query text.
	ErrQueryEmbedding = errors.New("query embedding failed")
)
