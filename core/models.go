package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Ledger documents receive sequential IDs; content-derived IDs are
// generated with IDFromContent.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentStatus tracks a document through the indexing state machine.
type DocumentStatus int

const (
	// StatusPending means the document is waiting to be claimed by a worker.
	StatusPending DocumentStatus = iota + 1
	// StatusProcessing means a worker has claimed the document.
	StatusProcessing
	// StatusCompleted means the document was indexed successfully.
	StatusCompleted
	// StatusFailed means the document exhausted its retries.
	StatusFailed
)

// String returns the lowercase name of the status.
func (s DocumentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseStatus converts a status name back to a DocumentStatus.
func ParseStatus(name string) (DocumentStatus, error) {
	switch name {
	case "pending":
		return StatusPending, nil
	case "processing":
		return StatusProcessing, nil
	case "completed":
		return StatusCompleted, nil
	case "failed":
		return StatusFailed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, name)
	}
}

// Document is the durable ledger record that drives the indexing state machine.
// ChunkCount and IndexedAt are only set together with a transition into
// StatusCompleted. ErrorMessage is only non-empty after a failed attempt.
type Document struct {
	Id           ID
	SourceRef    string // opaque reference to the underlying file, resolved via a source.Resolver
	Status       DocumentStatus
	RetryCount   int
	ErrorMessage string // last failure detail, truncated to MaxErrorMessageLen runes
	ChunkCount   int
	IndexedAt    time.Time // zero until the first successful completion
	EnqueuedAt   time.Time // when the record was added to the ledger
	UpdatedAt    time.Time // when the record was last updated
}

// Chunk is a bounded slice of a document's extracted text, the unit that is
// embedded and stored. Chunks are ephemeral; they live only in the vector store.
type Chunk struct {
	DocumentId ID
	Index      int // 0-based position, defines reconstruction order
	Text       string
	Vector     []float32
}

// EntryID builds the vector store ID for a chunk: "{documentId}_chunk_{index}".
// Re-indexing a document produces the same IDs, so upserts replace prior entries.
func EntryID(docID ID, index int) string {
	return fmt.Sprintf("%d_chunk_%d", docID, index)
}

// EntryMetadata is attached to every vector store entry.
type EntryMetadata struct {
	DocumentId  ID
	SourceRef   string
	Filename    string
	UploadDate  time.Time
	ChunkIndex  int
	TotalChunks int
}

// IndexEntry is a vector-store-resident record. All entries for a document are
// superseded, not merged, when the document is re-indexed.
type IndexEntry struct {
	Id       string // "{documentId}_chunk_{index}"
	Vector   []float32
	Text     string
	Metadata EntryMetadata
}

// QueryResult is a single ranked search hit. Distance is cosine distance;
// results are ordered by ascending distance.
type QueryResult struct {
	Text     string
	Metadata EntryMetadata
	Distance float32
}

// Stats is a point-in-time snapshot of the indexing system.
type Stats struct {
	Total           int
	Pending         int
	Processing      int
	Completed       int
	Failed          int
	VectorStoreSize int
}
