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
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/coder/hnsw"
	"github.com/dgraph-io/badger/v4"
	"github.com/inkwell-systems/scriba/core"
	"github.com/inkwell-systems/scriba/storage"
)

// VectorIndex implements storage.VectorStore.
//
// Entries are persisted in BadgerDB; an in-memory HNSW graph provides
// approximate nearest neighbor search and is rebuilt from the persisted
// entries on open. Removal uses lazy deletion: the node stays in the graph
// but loses its ID mapping, so it can never surface in results. Orphans are
// reclaimed the next time the graph is rebuilt.
type VectorIndex struct {
	backend *Backend
	logger  *slog.Logger

	mu      sync.RWMutex
	graph   *hnsw.Graph[uint64]
	idMap   map[string]uint64 // entry ID -> graph key
	keyMap  map[uint64]string // graph key -> entry ID
	nextKey uint64
	closed  bool
}

var _ storage.VectorStore = (*VectorIndex)(nil)

// newVectorIndex is an internal constructor that returns the concrete type.
func newVectorIndex(backend *Backend) (*VectorIndex, error) {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	v := &VectorIndex{
		backend: backend,
		logger:  slog.Default().With("component", "badger-vectors"),
		graph:   graph,
		idMap:   make(map[string]uint64),
		keyMap:  make(map[uint64]string),
	}

	if err := v.rebuild(); err != nil {
		return nil, err
	}
	return v, nil
}

// NewVectorIndex creates a vector store on top of the backend. Persisted
// entries are loaded into the search graph before the store is returned.
//
// Returns storage.VectorStore interface to enforce abstraction.
func NewVectorIndex(backend *Backend) (storage.VectorStore, error) {
	return newVectorIndex(backend)
}

// rebuild loads all persisted entries into a fresh HNSW graph.
func (v *VectorIndex) rebuild() error {
	count := 0
	err := v.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix + ":")

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *core.IndexEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalIndexEntry(val)
				return err
			})
			if err != nil {
				return err
			}

			v.addToGraph(entry)
			count++
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	if count > 0 {
		v.logger.Info("vector index rebuilt", "entries", count)
	}
	return nil
}

// addToGraph inserts an entry into the HNSW graph, lazily orphaning any
// previous node for the same entry ID. Caller must hold the write lock
// (or have exclusive access during rebuild).
func (v *VectorIndex) addToGraph(entry *core.IndexEntry) {
	if existingKey, exists := v.idMap[entry.Id]; exists {
		delete(v.keyMap, existingKey)
		delete(v.idMap, entry.Id)
	}

	key := v.nextKey
	v.nextKey++

	vec := make([]float32, len(entry.Vector))
	copy(vec, entry.Vector)
	normalizeVectorInPlace(vec)

	v.graph.Add(hnsw.MakeNode(key, vec))
	v.idMap[entry.Id] = key
	v.keyMap[key] = entry.Id
}

// Upsert inserts or replaces entries.
func (v *VectorIndex) Upsert(ctx context.Context, entries ...*core.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	for _, entry := range entries {
		if err := core.ValidateEntry(entry); err != nil {
			return err
		}
	}

	err := v.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			if err := tx.Set(makeEntryKey(entry.Id), storage.MarshalIndexEntry(entry)); err != nil {
				return err
			}
			docKey := makeEntryDocKey(entry.Metadata.DocumentId, entry.Id)
			if err := tx.Set(docKey, []byte{1}); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return storage.ErrStorageClosed
	}
	for _, entry := range entries {
		v.addToGraph(entry)
	}
	return nil
}

// DeleteByDocument removes all entries belonging to a document.
func (v *VectorIndex) DeleteByDocument(ctx context.Context, docID core.ID) (int, error) {
	var entryIDs []string

	err := v.backend.WithTx(func(tx *badger.Txn) error {
		entryIDs = entryIDs[:0]

		prefix := makePartialEntryDocKey(docID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			id := entryIDFromDocKey(iter.Item().KeyCopy(nil), docID)
			if id != "" {
				entryIDs = append(entryIDs, id)
			}
		}
		iter.Close()

		if len(entryIDs) == 0 {
			return nil
		}

		for _, id := range entryIDs {
			if err := tx.Delete(makeEntryKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeEntryDocKey(docID, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0, storage.ErrStorageClosed
	}
	for _, id := range entryIDs {
		if key, exists := v.idMap[id]; exists {
			delete(v.keyMap, key)
			delete(v.idMap, id)
		}
	}
	return len(entryIDs), nil
}

// Query finds the limit entries nearest to vector, nearest first.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, limit int, filter storage.EntryFilter) ([]*core.QueryResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	if len(vector) == 0 {
		return nil, core.ErrEmptyVector
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.closed {
		return nil, storage.ErrStorageClosed
	}
	if len(v.idMap) == 0 {
		return []*core.QueryResult{}, nil
	}

	query := make([]float32, len(vector))
	copy(query, vector)
	normalizeVectorInPlace(query)

	graphSize := v.graph.Len()

	// Oversample to absorb orphaned nodes and filtered-out entries; widen
	// until enough matches are found or the whole graph has been ranked.
	k := limit * 2
	for {
		if k > graphSize {
			k = graphSize
		}

		results, exhausted, err := v.rankNodes(query, k, limit, filter)
		if err != nil {
			return nil, err
		}
		if len(results) >= limit || exhausted || k == graphSize {
			return results, nil
		}
		k *= 2
	}
}

// rankNodes searches the graph for k candidates and resolves up to limit
// matching entries from storage. exhausted is true when the search returned
// fewer candidates than requested, meaning widening k further is pointless.
func (v *VectorIndex) rankNodes(query []float32, k, limit int, filter storage.EntryFilter) ([]*core.QueryResult, bool, error) {
	nodes := v.graph.Search(query, k)
	exhausted := len(nodes) < k

	results := make([]*core.QueryResult, 0, limit)
	err := v.backend.WithTx(func(tx *badger.Txn) error {
		for _, node := range nodes {
			if len(results) >= limit {
				break
			}

			entryID, exists := v.keyMap[node.Key]
			if !exists {
				// Lazily deleted node.
				continue
			}

			entry, err := v.readEntry(tx, entryID)
			if err != nil {
				return err
			}
			if entry == nil {
				continue
			}
			if filter != nil && !filter(&entry.Metadata) {
				continue
			}

			results = append(results, &core.QueryResult{
				Text:     entry.Text,
				Metadata: entry.Metadata,
				Distance: v.graph.Distance(query, node.Value),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, false, err
	}
	return results, exhausted, nil
}

// readEntry reads and deserializes an entry. Returns nil if not found.
func (v *VectorIndex) readEntry(tx *badger.Txn, entryID string) (*core.IndexEntry, error) {
	item, err := tx.Get(makeEntryKey(entryID))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.IndexEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalIndexEntry(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Count returns the total number of entries in the store.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.closed {
		return 0, storage.ErrStorageClosed
	}
	return len(v.idMap), nil
}

// Close releases the in-memory graph. The shared backend is closed by its owner.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true
	v.graph = nil
	return nil
}

// normalizeVectorInPlace normalizes a vector to unit length in place.
func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}
