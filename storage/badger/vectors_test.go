package badger

import (
	"context"
	"testing"
	"time"

	"github.com/inkwell-systems/scriba/core"
)

func makeEntry(docID core.ID, index, total int, text string, vector []float32) *core.IndexEntry {
	return &core.IndexEntry{
		Id:     core.EntryID(docID, index),
		Vector: vector,
		Text:   text,
		Metadata: core.EntryMetadata{
			DocumentId:  docID,
			SourceRef:   "docs/sample.txt",
			Filename:    "sample.txt",
			UploadDate:  time.Now().UTC(),
			ChunkIndex:  index,
			TotalChunks: total,
		},
	}
}

func TestVectorUpsertAndQuery(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	entries := []*core.IndexEntry{
		makeEntry(1, 0, 3, "cats are mammals", []float32{1, 0, 0}),
		makeEntry(1, 1, 3, "dogs are loyal", []float32{0, 1, 0}),
		makeEntry(1, 2, 3, "fish swim in water", []float32{0, 0, 1}),
	}
	if err := vectors.Upsert(ctx, entries...); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	count, err := vectors.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Expected count 3, got %d, err %v", count, err)
	}

	results, err := vectors.Query(ctx, []float32{0.9, 0.1, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Text != "cats are mammals" {
		t.Fatalf("Expected nearest entry first, got %q", results[0].Text)
	}
	if results[0].Distance > results[1].Distance {
		t.Fatal("Expected results ordered by ascending distance")
	}
}

func TestVectorQueryEmptyStore(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	results, err := vectors.Query(context.Background(), []float32{1, 0, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Failed to query empty store: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Expected empty results, got %d", len(results))
	}
}

func TestVectorUpsertReplaces(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	if err := vectors.Upsert(ctx, makeEntry(1, 0, 1, "old text", []float32{1, 0, 0})); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if err := vectors.Upsert(ctx, makeEntry(1, 0, 1, "new text", []float32{0, 1, 0})); err != nil {
		t.Fatalf("Failed to re-upsert: %v", err)
	}

	count, err := vectors.Count(ctx)
	if err != nil || count != 1 {
		t.Fatalf("Expected count 1 after replacement, got %d, err %v", count, err)
	}

	results, err := vectors.Query(ctx, []float32{0, 1, 0}, 1, nil)
	if err != nil || len(results) != 1 {
		t.Fatalf("Failed to query: %v", err)
	}
	if results[0].Text != "new text" {
		t.Fatalf("Expected replaced entry, got %q", results[0].Text)
	}
}

func TestVectorDeleteByDocument(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	if err := vectors.Upsert(ctx,
		makeEntry(1, 0, 2, "doc one chunk zero", []float32{1, 0, 0}),
		makeEntry(1, 1, 2, "doc one chunk one", []float32{0.9, 0.1, 0}),
		makeEntry(2, 0, 1, "doc two chunk zero", []float32{0, 0, 1}),
	); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	removed, err := vectors.DeleteByDocument(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if removed != 2 {
		t.Fatalf("Expected 2 removed, got %d", removed)
	}

	count, err := vectors.Count(ctx)
	if err != nil || count != 1 {
		t.Fatalf("Expected count 1, got %d, err %v", count, err)
	}

	// Deleted entries never surface in queries
	results, err := vectors.Query(ctx, []float32{1, 0, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	for _, r := range results {
		if r.Metadata.DocumentId == 1 {
			t.Fatalf("Deleted entry surfaced: %q", r.Text)
		}
	}

	// Deleting a document with no entries is not an error
	removed, err = vectors.DeleteByDocument(ctx, 42)
	if err != nil || removed != 0 {
		t.Fatalf("Expected no-op delete, got %d, err %v", removed, err)
	}
}

func TestVectorQueryWithFilter(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	if err := vectors.Upsert(ctx,
		makeEntry(1, 0, 1, "from doc one", []float32{1, 0, 0}),
		makeEntry(2, 0, 1, "from doc two", []float32{0.99, 0.01, 0}),
	); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	onlyDocTwo := func(meta *core.EntryMetadata) bool {
		return meta.DocumentId == 2
	}
	results, err := vectors.Query(ctx, []float32{1, 0, 0}, 1, onlyDocTwo)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(results) != 1 || results[0].Metadata.DocumentId != 2 {
		t.Fatalf("Expected filtered result from doc 2, got %+v", results)
	}
}

func TestVectorRebuildOnOpen(t *testing.T) {
	backend, err := OpenBackend(t.TempDir(), false)
	if err != nil {
		t.Fatalf("Failed to open backend: %v", err)
	}
	defer backend.Close()

	vectors, err := NewVectorIndex(backend)
	if err != nil {
		t.Fatalf("Failed to create vectors: %v", err)
	}

	ctx := context.Background()
	if err := vectors.Upsert(ctx, makeEntry(1, 0, 1, "persisted chunk", []float32{1, 0, 0})); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	vectors.Close()

	// A fresh index over the same backend sees the persisted entries
	reopened, err := NewVectorIndex(backend)
	if err != nil {
		t.Fatalf("Failed to reopen vectors: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	if err != nil || count != 1 {
		t.Fatalf("Expected 1 entry after rebuild, got %d, err %v", count, err)
	}

	results, err := reopened.Query(ctx, []float32{1, 0, 0}, 1, nil)
	if err != nil || len(results) != 1 {
		t.Fatalf("Failed to query rebuilt index: %v", err)
	}
	if results[0].Text != "persisted chunk" {
		t.Fatalf("Expected persisted entry, got %q", results[0].Text)
	}
}

func TestVectorUpsertValidation(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	entry := makeEntry(1, 0, 1, "no vector", nil)
	if err := vectors.Upsert(ctx, entry); err == nil {
		t.Fatal("Expected validation error for empty vector")
	}

	if _, err := vectors.Query(ctx, []float32{1}, 0, nil); err == nil {
		t.Fatal("Expected error for non-positive limit")
	}
}
