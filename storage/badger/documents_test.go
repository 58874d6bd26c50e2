package badger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inkwell-systems/scriba/core"
	"github.com/inkwell-systems/scriba/storage"
)

func TestDocumentBasics(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	doc := &core.Document{SourceRef: "uploads/report.pdf"}
	added, err := ledger.AddDocuments(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(added))
	}
	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added[0].Status != core.StatusPending {
		t.Fatalf("Expected pending status, got %s", added[0].Status)
	}
	if added[0].EnqueuedAt.IsZero() {
		t.Fatal("Expected EnqueuedAt to be set")
	}

	retrieved, err := ledger.GetDocument(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.SourceRef != "uploads/report.pdf" {
		t.Fatalf("Expected 'uploads/report.pdf', got '%s'", retrieved.SourceRef)
	}
}

func TestDocumentNotFound(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	_, err = ledger.GetDocument(context.Background(), core.ID(999))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestClaimPending(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	now := time.Now().UTC()
	docs := []*core.Document{
		{SourceRef: "c.txt", EnqueuedAt: now},
		{SourceRef: "a.txt", EnqueuedAt: now.Add(-2 * time.Hour)},
		{SourceRef: "b.txt", EnqueuedAt: now.Add(-1 * time.Hour)},
	}
	if _, err := ledger.AddDocuments(ctx, docs...); err != nil {
		t.Fatalf("Failed to add documents: %v", err)
	}

	claimed, err := ledger.ClaimPending(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("Expected 2 claimed, got %d", len(claimed))
	}

	// Oldest EnqueuedAt first
	if claimed[0].SourceRef != "a.txt" || claimed[1].SourceRef != "b.txt" {
		t.Fatalf("Expected oldest-first order, got %s, %s", claimed[0].SourceRef, claimed[1].SourceRef)
	}
	for _, doc := range claimed {
		if doc.Status != core.StatusProcessing {
			t.Fatalf("Expected processing status, got %s", doc.Status)
		}
	}

	// Only one pending document remains
	remaining, err := ledger.ClaimPending(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to claim remainder: %v", err)
	}
	if len(remaining) != 1 || remaining[0].SourceRef != "c.txt" {
		t.Fatalf("Expected only c.txt remaining, got %d claimed", len(remaining))
	}

	// Nothing left to claim
	empty, err := ledger.ClaimPending(ctx, 10)
	if err != nil {
		t.Fatalf("Failed on empty claim: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("Expected empty claim, got %d", len(empty))
	}
}

func TestClaimPendingConcurrent(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	const total = 20
	docs := make([]*core.Document, total)
	for i := range docs {
		docs[i] = &core.Document{SourceRef: "doc-" + string(rune('a'+i)) + ".txt"}
	}
	if _, err := ledger.AddDocuments(ctx, docs...); err != nil {
		t.Fatalf("Failed to add documents: %v", err)
	}

	// Concurrent claimers must never receive the same document.
	var mu sync.Mutex
	seen := make(map[core.ID]int)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				claimed, err := ledger.ClaimPending(ctx, 3)
				if err != nil {
					t.Errorf("Claim failed: %v", err)
					return
				}
				if len(claimed) == 0 {
					return
				}
				mu.Lock()
				for _, doc := range claimed {
					seen[doc.Id]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("Expected %d distinct claims, got %d", total, len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("Document %d claimed %d times", id, n)
		}
	}
}

func TestTransitions(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := ledger.AddDocuments(ctx, &core.Document{SourceRef: "a.txt"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	id := added[0].Id

	// Completing a pending document is a conflict
	if _, err := ledger.MarkCompleted(ctx, id, 5); !errors.Is(err, storage.ErrStatusConflict) {
		t.Fatalf("Expected ErrStatusConflict, got %v", err)
	}

	if _, err := ledger.ClaimPending(ctx, 1); err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}

	done, err := ledger.MarkCompleted(ctx, id, 5)
	if err != nil {
		t.Fatalf("Failed to complete: %v", err)
	}
	if done.Status != core.StatusCompleted || done.ChunkCount != 5 {
		t.Fatalf("Unexpected completed document: %+v", done)
	}
	if done.IndexedAt.IsZero() {
		t.Fatal("Expected IndexedAt to be set")
	}

	// Double completion is a conflict
	if _, err := ledger.MarkCompleted(ctx, id, 5); !errors.Is(err, storage.ErrStatusConflict) {
		t.Fatalf("Expected ErrStatusConflict on double completion, got %v", err)
	}
}

func TestMarkRetryAndFailed(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := ledger.AddDocuments(ctx, &core.Document{SourceRef: "a.txt"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	id := added[0].Id

	if _, err := ledger.ClaimPending(ctx, 1); err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}

	retried, err := ledger.MarkRetry(ctx, id, "extract failed: connection refused")
	if err != nil {
		t.Fatalf("Failed to retry: %v", err)
	}
	if retried.Status != core.StatusPending || retried.RetryCount != 1 {
		t.Fatalf("Unexpected retried document: %+v", retried)
	}
	if retried.ErrorMessage != "extract failed: connection refused" {
		t.Fatalf("Expected error message recorded, got %q", retried.ErrorMessage)
	}

	// Retried document is claimable again
	claimed, err := ledger.ClaimPending(ctx, 1)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("Expected to reclaim retried document, got %d, err %v", len(claimed), err)
	}

	failed, err := ledger.MarkFailed(ctx, id, strings.Repeat("x", 2000))
	if err != nil {
		t.Fatalf("Failed to fail: %v", err)
	}
	if failed.Status != core.StatusFailed {
		t.Fatalf("Expected failed status, got %s", failed.Status)
	}
	if failed.RetryCount != 2 {
		t.Fatalf("Expected failing attempt counted, got retry count %d", failed.RetryCount)
	}
	if len(failed.ErrorMessage) != core.MaxErrorMessageLen {
		t.Fatalf("Expected error truncated to %d, got %d", core.MaxErrorMessageLen, len(failed.ErrorMessage))
	}
}

func TestRequeue(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := ledger.AddDocuments(ctx, &core.Document{SourceRef: "a.txt"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	id := added[0].Id

	// A retried then reclaimed document carries state that must survive
	claimed, err := ledger.ClaimPending(ctx, 1)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("Failed to claim: %v", err)
	}
	if _, err := ledger.MarkRetry(ctx, id, "transient"); err != nil {
		t.Fatalf("Failed to retry: %v", err)
	}
	if _, err := ledger.ClaimPending(ctx, 1); err != nil {
		t.Fatalf("Failed to reclaim: %v", err)
	}

	if err := ledger.Requeue(ctx, id); err != nil {
		t.Fatalf("Failed to requeue: %v", err)
	}

	got, err := ledger.GetDocument(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if got.Status != core.StatusPending {
		t.Fatalf("Expected pending after requeue, got %s", got.Status)
	}
	if got.RetryCount != 1 || got.ErrorMessage != "transient" {
		t.Fatalf("Requeue must not touch retry state, got %+v", got)
	}

	// Requeued document is claimable again
	claimed, err = ledger.ClaimPending(ctx, 1)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("Expected to reclaim requeued document, got %d, err %v", len(claimed), err)
	}

	// Requeue outside PROCESSING is a conflict
	if _, err := ledger.MarkCompleted(ctx, id, 1); err != nil {
		t.Fatalf("Failed to complete: %v", err)
	}
	err = ledger.Requeue(ctx, id)
	if !errors.Is(err, storage.ErrStatusConflict) {
		t.Fatalf("Expected status conflict, got %v", err)
	}
}

func TestResetFailed(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	docs := []*core.Document{{SourceRef: "a.txt"}, {SourceRef: "b.txt"}}
	added, err := ledger.AddDocuments(ctx, docs...)
	if err != nil {
		t.Fatalf("Failed to add documents: %v", err)
	}

	if _, err := ledger.ClaimPending(ctx, 2); err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	for _, doc := range added {
		if _, err := ledger.MarkFailed(ctx, doc.Id, "embedding service down"); err != nil {
			t.Fatalf("Failed to fail document: %v", err)
		}
	}

	n, err := ledger.ResetFailed(ctx)
	if err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}
	if n != 2 {
		t.Fatalf("Expected 2 reset, got %d", n)
	}

	for _, doc := range added {
		got, err := ledger.GetDocument(ctx, doc.Id)
		if err != nil {
			t.Fatalf("Failed to get document: %v", err)
		}
		if got.Status != core.StatusPending || got.RetryCount != 0 || got.ErrorMessage != "" {
			t.Fatalf("Unexpected reset document: %+v", got)
		}
	}

	// Reset with no failed documents is a no-op
	n, err = ledger.ResetFailed(ctx)
	if err != nil || n != 0 {
		t.Fatalf("Expected no-op reset, got %d, err %v", n, err)
	}
}

func TestCountByStatus(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	counts, err := ledger.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	for status, n := range counts {
		if n != 0 {
			t.Fatalf("Expected zero count for %s, got %d", status, n)
		}
	}

	added, err := ledger.AddDocuments(ctx,
		&core.Document{SourceRef: "a.txt"},
		&core.Document{SourceRef: "b.txt"},
		&core.Document{SourceRef: "c.txt"},
	)
	if err != nil {
		t.Fatalf("Failed to add documents: %v", err)
	}

	if _, err := ledger.ClaimPending(ctx, 2); err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if _, err := ledger.MarkCompleted(ctx, added[0].Id, 3); err != nil {
		t.Fatalf("Failed to complete: %v", err)
	}
	if _, err := ledger.MarkFailed(ctx, added[1].Id, "boom"); err != nil {
		t.Fatalf("Failed to fail: %v", err)
	}

	counts, err = ledger.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if counts[core.StatusPending] != 1 || counts[core.StatusCompleted] != 1 || counts[core.StatusFailed] != 1 || counts[core.StatusProcessing] != 0 {
		t.Fatalf("Unexpected counts: %+v", counts)
	}
}

func TestListByStatus(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	now := time.Now().UTC()
	if _, err := ledger.AddDocuments(ctx,
		&core.Document{SourceRef: "newer.txt", EnqueuedAt: now},
		&core.Document{SourceRef: "older.txt", EnqueuedAt: now.Add(-time.Hour)},
	); err != nil {
		t.Fatalf("Failed to add documents: %v", err)
	}

	pending, err := ledger.ListByStatus(ctx, core.StatusPending, 0)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(pending) != 2 || pending[0].SourceRef != "older.txt" {
		t.Fatalf("Expected oldest-first list of 2, got %d", len(pending))
	}

	limited, err := ledger.ListByStatus(ctx, core.StatusPending, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("Expected 1 limited result, got %d, err %v", len(limited), err)
	}
}

func TestDeleteDocuments(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := ledger.AddDocuments(ctx, &core.Document{SourceRef: "a.txt"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if err := ledger.DeleteDocuments(ctx, added[0].Id); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	if _, err := ledger.GetDocument(ctx, added[0].Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}

	counts, err := ledger.CountByStatus(ctx)
	if err != nil || counts[core.StatusPending] != 0 {
		t.Fatalf("Expected status index cleaned, got %+v, err %v", counts, err)
	}

	if err := ledger.DeleteDocuments(ctx, core.ID(999)); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing document, got %v", err)
	}
}

func TestAddDocuments_Validation(t *testing.T) {
	ledger, vectors, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { vectors.Close(); ledger.Close(); backend.Close() }()

	ctx := context.Background()

	if _, err := ledger.AddDocuments(ctx, &core.Document{}); !errors.Is(err, core.ErrEmptySourceRef) {
		t.Fatalf("Expected ErrEmptySourceRef, got %v", err)
	}

	added, err := ledger.AddDocuments(ctx, &core.Document{SourceRef: "a.txt"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	dup := &core.Document{Id: added[0].Id, SourceRef: "b.txt"}
	if _, err := ledger.AddDocuments(ctx, dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
}
