// Copyright 2025 Inkwell Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/inkwell-systems/scriba/core"
	"github.com/inkwell-systems/scriba/storage"
)

// claimAttempts bounds retries when concurrent claimers conflict on the
// same pending documents. Badger detects the conflict at commit; losers
// re-run against the updated index.
const claimAttempts = 10

// Ledger implements storage.DocumentLedger for BadgerDB.
//
// A status index (status, enqueuedAt, id) is maintained alongside each
// document record in the same transaction, so ClaimPending and ListByStatus
// never scan the full record space.
type Ledger struct {
	backend *Backend
	idSeq   *badger.Sequence
	logger  *slog.Logger
}

var _ storage.DocumentLedger = (*Ledger)(nil)

// newLedger is an internal constructor that returns the concrete type.
func newLedger(backend *Backend) (*Ledger, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &Ledger{
		backend: backend,
		idSeq:   idSeq,
		logger:  slog.Default().With("component", "badger-ledger"),
	}, nil
}

// NewLedger creates a document ledger on top of the backend.
//
// Returns storage.DocumentLedger interface to enforce abstraction.
func NewLedger(backend *Backend) (storage.DocumentLedger, error) {
	return newLedger(backend)
}

// Close releases the ID sequence.
func (l *Ledger) Close() error {
	return l.idSeq.Release()
}

// AddDocuments registers one or more documents for indexing.
func (l *Ledger) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if doc.SourceRef == "" {
				return core.ErrEmptySourceRef
			}

			if doc.Id == 0 {
				nextID, err := l.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = l.idSeq.Next()
					if err != nil {
						return err
					}
				}
				doc.Id = core.ID(nextID)
			} else {
				existing, err := l.readDocument(tx, makeDocumentKey(doc.Id))
				if err != nil {
					return err
				}
				if existing != nil {
					return fmt.Errorf("%w: document %d", storage.ErrDuplicateKey, doc.Id)
				}
			}

			now := time.Now().UTC()
			if doc.Status == 0 {
				doc.Status = core.StatusPending
			}
			if doc.EnqueuedAt.IsZero() {
				doc.EnqueuedAt = now
			}
			doc.UpdatedAt = now

			if err := core.ValidateDocument(doc); err != nil {
				return err
			}

			if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
				return err
			}

			statusKey := makeStatusKey(doc.Status, doc.EnqueuedAt, doc.Id)
			if err := tx.Set(statusKey, storage.MarshalID(doc.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// GetDocument retrieves a single document by ID.
func (l *Ledger) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = l.readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
// Missing documents are skipped without error.
func (l *Ledger) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	results := make([]*core.Document, 0, len(ids))
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := l.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	return results, err
}

// DeleteDocuments removes documents by their IDs.
func (l *Ledger) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return l.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)
			doc, err := l.readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return storage.ErrNotFound
			}

			statusKey := makeStatusKey(doc.Status, doc.EnqueuedAt, doc.Id)
			if err := tx.Delete(statusKey); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ClaimPending atomically claims up to limit PENDING documents.
//
// The selection and the transition to PROCESSING happen in one read-write
// transaction; Badger's conflict detection aborts a commit when a
// concurrent claimer touched the same index entries, and the loser retries
// against the updated index. Two callers can therefore never claim the
// same document.
func (l *Ledger) ClaimPending(ctx context.Context, limit int) ([]*core.Document, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var claimed []*core.Document
	var err error
	for attempt := 1; attempt <= claimAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		claimed, err = l.claimPendingOnce(limit)
		if err == nil {
			return claimed, nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return nil, err
		}
		l.logger.Debug("claim conflicted with concurrent claimer, retrying", "attempt", attempt)
	}
	return nil, fmt.Errorf("%w: claim conflicted %d times", storage.ErrTransactionFailed, claimAttempts)
}

func (l *Ledger) claimPendingOnce(limit int) ([]*core.Document, error) {
	var claimed []*core.Document

	err := l.backend.WithTx(func(tx *badger.Txn) error {
		claimed = claimed[:0]

		prefix := makePartialStatusKey(core.StatusPending)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		ids := make([]core.ID, 0, limit)
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid() && len(ids) < limit; iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}
			ids = append(ids, id)
		}
		iter.Close()

		now := time.Now().UTC()
		for _, id := range ids {
			key := makeDocumentKey(id)
			doc, err := l.readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil || doc.Status != core.StatusPending {
				// Index entry raced ahead of the record; skip it.
				continue
			}

			oldStatusKey := makeStatusKey(doc.Status, doc.EnqueuedAt, doc.Id)
			doc.Status = core.StatusProcessing
			doc.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}
			if err := tx.Delete(oldStatusKey); err != nil {
				return err
			}
			newStatusKey := makeStatusKey(doc.Status, doc.EnqueuedAt, doc.Id)
			if err := tx.Set(newStatusKey, storage.MarshalID(doc.Id)); err != nil {
				return err
			}

			claimed = append(claimed, doc)
		}

		if len(claimed) == 0 {
			// Nothing claimed, nothing to commit.
			return nil
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkCompleted transitions a PROCESSING document to COMPLETED.
func (l *Ledger) MarkCompleted(ctx context.Context, id core.ID, chunkCount int) (*core.Document, error) {
	return l.transition(id, func(doc *core.Document, now time.Time) {
		doc.Status = core.StatusCompleted
		doc.ChunkCount = chunkCount
		doc.ErrorMessage = ""
		doc.IndexedAt = now
	})
}

// MarkRetry transitions a PROCESSING document back to PENDING for another
// attempt, recording the failure.
func (l *Ledger) MarkRetry(ctx context.Context, id core.ID, cause string) (*core.Document, error) {
	return l.transition(id, func(doc *core.Document, now time.Time) {
		doc.Status = core.StatusPending
		doc.RetryCount++
		doc.ErrorMessage = core.TruncateMessage(cause, core.MaxErrorMessageLen)
	})
}

// MarkFailed transitions a PROCESSING document to FAILED, recording the
// failure. The retry count is incremented like MarkRetry so a failed
// document holds its total failed-attempt count.
func (l *Ledger) MarkFailed(ctx context.Context, id core.ID, cause string) (*core.Document, error) {
	return l.transition(id, func(doc *core.Document, now time.Time) {
		doc.Status = core.StatusFailed
		doc.RetryCount++
		doc.ErrorMessage = core.TruncateMessage(cause, core.MaxErrorMessageLen)
	})
}

// Requeue returns claimed documents to PENDING. The retry count and error
// message are untouched, so handing work back costs the document nothing.
func (l *Ledger) Requeue(ctx context.Context, ids ...core.ID) error {
	for _, id := range ids {
		if _, err := l.transition(id, func(doc *core.Document, now time.Time) {
			doc.Status = core.StatusPending
		}); err != nil {
			return err
		}
	}
	return nil
}

// transition applies mutate to a PROCESSING document and maintains the
// status index. Returns ErrStatusConflict if the document is not PROCESSING.
func (l *Ledger) transition(id core.ID, mutate func(doc *core.Document, now time.Time)) (*core.Document, error) {
	var result *core.Document

	err := l.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := l.readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}
		if doc.Status != core.StatusProcessing {
			return fmt.Errorf("%w: document %d is %s, expected processing", storage.ErrStatusConflict, id, doc.Status)
		}

		oldStatusKey := makeStatusKey(doc.Status, doc.EnqueuedAt, doc.Id)

		now := time.Now().UTC()
		mutate(doc, now)
		doc.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Delete(oldStatusKey); err != nil {
			return err
		}
		newStatusKey := makeStatusKey(doc.Status, doc.EnqueuedAt, doc.Id)
		if err := tx.Set(newStatusKey, storage.MarshalID(doc.Id)); err != nil {
			return err
		}

		result = doc
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResetFailed transitions all FAILED documents back to PENDING.
func (l *Ledger) ResetFailed(ctx context.Context) (int, error) {
	count := 0

	err := l.backend.WithTx(func(tx *badger.Txn) error {
		count = 0

		ids, err := l.collectStatusIDs(tx, core.StatusFailed, 0)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, id := range ids {
			key := makeDocumentKey(id)
			doc, err := l.readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil || doc.Status != core.StatusFailed {
				continue
			}

			oldStatusKey := makeStatusKey(doc.Status, doc.EnqueuedAt, doc.Id)
			doc.Status = core.StatusPending
			doc.RetryCount = 0
			doc.ErrorMessage = ""
			doc.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}
			if err := tx.Delete(oldStatusKey); err != nil {
				return err
			}
			newStatusKey := makeStatusKey(doc.Status, doc.EnqueuedAt, doc.Id)
			if err := tx.Set(newStatusKey, storage.MarshalID(doc.Id)); err != nil {
				return err
			}
			count++
		}

		if count == 0 {
			return nil
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListByStatus retrieves documents with the given status, oldest first.
func (l *Ledger) ListByStatus(ctx context.Context, status core.DocumentStatus, limit int) ([]*core.Document, error) {
	if err := core.ValidateStatus(status); err != nil {
		return nil, err
	}

	var results []*core.Document
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := l.collectStatusIDs(tx, status, limit)
		if err != nil {
			return err
		}

		results = make([]*core.Document, 0, len(ids))
		for _, id := range ids {
			doc, err := l.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)

	return results, err
}

// CountByStatus returns the number of documents per status.
func (l *Ledger) CountByStatus(ctx context.Context) (map[core.DocumentStatus]int, error) {
	counts := map[core.DocumentStatus]int{
		core.StatusPending:    0,
		core.StatusProcessing: 0,
		core.StatusCompleted:  0,
		core.StatusFailed:     0,
	}

	err := l.backend.WithTx(func(tx *badger.Txn) error {
		for status := range counts {
			prefix := makePartialStatusKey(status)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false

			iter := tx.NewIterator(opts)
			n := 0
			for iter.Rewind(); iter.Valid(); iter.Next() {
				n++
			}
			iter.Close()
			counts[status] = n
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return counts, nil
}

// collectStatusIDs gathers document IDs from the status index in enqueue
// order. A limit of 0 means no limit.
func (l *Ledger) collectStatusIDs(tx *badger.Txn, status core.DocumentStatus, limit int) ([]core.ID, error) {
	prefix := makePartialStatusKey(status)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	var ids []core.ID
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if limit > 0 && len(ids) >= limit {
			break
		}
		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// readDocument reads and deserializes a document. Returns nil if not found.
func (l *Ledger) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
