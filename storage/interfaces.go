package storage

import (
	"context"

	"github.com/inkwell-systems/scriba/core"
)

// DocumentLedger is the authoritative record of documents and their indexing
// status. Implementations must be thread-safe; in particular ClaimPending
// must never hand the same document to two concurrent callers.
type DocumentLedger interface {
	// AddDocuments registers one or more documents for indexing.
	// For documents with ID=0, generates new IDs from sequence.
	// Status defaults to PENDING and EnqueuedAt is set if zero.
	// Returns the documents with generated IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// ClaimPending atomically selects up to limit PENDING documents and
	// transitions them to PROCESSING in a single transaction. The claim is
	// exclusive: a document returned here is visible to no other claimer
	// until it leaves PROCESSING. Returns the claimed documents, oldest
	// EnqueuedAt first. An empty result means no work is available.
	ClaimPending(ctx context.Context, limit int) ([]*core.Document, error)

	// MarkCompleted transitions a PROCESSING document to COMPLETED,
	// recording chunkCount and setting IndexedAt. The error message is
	// cleared. Returns ErrStatusConflict if the document is not PROCESSING.
	MarkCompleted(ctx context.Context, id core.ID, chunkCount int) (*core.Document, error)

	// MarkRetry transitions a PROCESSING document back to PENDING with an
	// incremented retry count and the failure message recorded (truncated
	// to core.MaxErrorMessageLen). Returns ErrStatusConflict if the
	// document is not PROCESSING.
	MarkRetry(ctx context.Context, id core.ID, cause string) (*core.Document, error)

	// MarkFailed transitions a PROCESSING document to FAILED with an
	// incremented retry count and the failure message recorded (truncated
	// to core.MaxErrorMessageLen), so a FAILED document holds its total
	// failed-attempt count. Returns ErrStatusConflict if the document is
	// not PROCESSING.
	MarkFailed(ctx context.Context, id core.ID, cause string) (*core.Document, error)

	// Requeue transitions PROCESSING documents back to PENDING without
	// touching the retry count or error message. Used to hand back
	// claimed but unstarted documents, e.g. on worker shutdown. Returns
	// ErrStatusConflict if a document is not PROCESSING.
	Requeue(ctx context.Context, ids ...core.ID) error

	// ResetFailed transitions all FAILED documents back to PENDING with
	// retry count zero and error message cleared, making them eligible for
	// claiming again. Returns the number of documents reset.
	ResetFailed(ctx context.Context) (int, error)

	// ListByStatus retrieves documents with the given status, oldest
	// EnqueuedAt first. A limit of 0 means no limit.
	ListByStatus(ctx context.Context, status core.DocumentStatus, limit int) ([]*core.Document, error)

	// CountByStatus returns the number of documents per status. Statuses
	// with no documents are present in the map with a zero count.
	CountByStatus(ctx context.Context) (map[core.DocumentStatus]int, error)

	// Close closes the ledger and releases resources.
	Close() error
}

// EntryFilter restricts a vector query to entries whose metadata matches.
// A nil filter matches everything.
type EntryFilter func(meta *core.EntryMetadata) bool

// VectorStore is the searchable index of embedded chunks. Entries are keyed
// by their entry ID ("{documentID}_chunk_{index}") and carry the chunk text
// and provenance metadata alongside the vector.
type VectorStore interface {
	// Upsert inserts or replaces entries. An entry with an existing ID is
	// overwritten, including its vector.
	Upsert(ctx context.Context, entries ...*core.IndexEntry) error

	// DeleteByDocument removes all entries belonging to a document.
	// Returns the number of entries removed; removing a document with no
	// entries is not an error.
	DeleteByDocument(ctx context.Context, docID core.ID) (int, error)

	// Query finds the limit entries nearest to vector, nearest first.
	// A non-nil filter is applied before ranking, so the result holds the
	// nearest matching entries rather than a filtered slice of the global
	// nearest. An empty store returns an empty slice, not an error.
	Query(ctx context.Context, vector []float32, limit int, filter EntryFilter) ([]*core.QueryResult, error)

	// Count returns the total number of entries in the store.
	Count(ctx context.Context) (int, error)

	// Close closes the store and releases resources.
	Close() error
}
