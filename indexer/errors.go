package indexer

import "errors"

var (
	// ErrLedgerRequired is returned when a document ledger is not provided.
	ErrLedgerRequired = errors.New("document ledger required")

	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrResolverRequired is returned when a source resolver is not provided.
	ErrResolverRequired = errors.New("source resolver required")

	// ErrRegistryRequired is returned when an extractor registry is not provided.
	ErrRegistryRequired = errors.New("extractor registry required")

	// ErrProcessorRequired is returned when a processor is not provided.
	ErrProcessorRequired = errors.New("processor required")

	// ErrPoolStopped is returned when work is submitted to a stopped pool.
	ErrPoolStopped = errors.New("worker pool stopped")

	// ErrPoolRunning is returned when Start is called on a running pool.
	ErrPoolRunning = errors.New("worker pool already running")
)
