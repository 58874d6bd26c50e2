package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/inkwell-systems/scriba/core"
)

// Key prefixes for different data types
const (
	documentPrefix       = "docrec"
	documentStatusPrefix = "docstat"
	documentIDSeq        = "docrecseq"
	entryPrefix          = "vecent"
	entryDocPrefix       = "vecdoc"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeStatusKey generates a composite key for the status index.
// Format: prefix:status:enqueuedAt:id
// The timestamp and ID are BigEndian so lexicographic iteration yields
// documents oldest EnqueuedAt first within one status.
func makeStatusKey(status core.DocumentStatus, enqueuedAt time.Time, id core.ID) []byte {
	prefix := documentStatusPrefix + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 1 + 16 // 1 status byte + 8 timestamp + 8 ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	buf[offset] = byte(status)
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(enqueuedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialStatusKey generates a prefix for iterating one status.
func makePartialStatusKey(status core.DocumentStatus) []byte {
	prefix := documentStatusPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+1)
	offset := copy(buf, prefixBytes)
	buf[offset] = byte(status)
	return buf
}

// makeEntryKey generates a key for a vector store entry by entry ID.
func makeEntryKey(entryID string) []byte {
	return []byte(entryPrefix + ":" + entryID)
}

// makeEntryDocKey generates a composite key for the document index.
// Format: prefix:docID:entryID
func makeEntryDocKey(docID core.ID, entryID string) []byte {
	prefix := entryDocPrefix + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 8 + 1 + len(entryID)
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	offset += 8
	buf[offset] = ':'
	offset++
	copy(buf[offset:], entryID)
	return buf
}

// makePartialEntryDocKey generates a prefix for iterating one document's entries.
func makePartialEntryDocKey(docID core.ID) []byte {
	prefix := entryDocPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+9)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	buf[offset+8] = ':'
	return buf
}

// entryIDFromDocKey extracts the entry ID suffix from a document index key.
func entryIDFromDocKey(key []byte, docID core.ID) string {
	prefixLen := len(makePartialEntryDocKey(docID))
	if len(key) <= prefixLen {
		return ""
	}
	return string(key[prefixLen:])
}
