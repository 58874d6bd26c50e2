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


// Package scriba wires the document indexing system together: a BadgerDB
// ledger of documents and their indexing status, a vector store of embedded
// chunks, an embedding provider, and the worker pool that moves documents
// through the PENDING -> PROCESSING -> COMPLETED / FAILED state machine.
package scriba

import (
	"context"
	"log/slog"
	"time"

	"github.com/inkwell-systems/scriba/ai"
	"github.com/inkwell-systems/scriba/ai/openai"
	"github.com/inkwell-systems/scriba/core"
	"github.com/inkwell-systems/scriba/extract"
	"github.com/inkwell-systems/scriba/indexer"
	"github.com/inkwell-systems/scriba/search"
	"github.com/inkwell-systems/scriba/source"
	"github.com/inkwell-systems/scriba/storage"
	"github.com/inkwell-systems/scriba/storage/badger"
)

// System aggregates the stores and services of a scriba instance.
type System struct {
	backend  *badger.Backend
	ledger   storage.DocumentLedger
	vectors  storage.VectorStore
	provider ai.Provider
	resolver source.Resolver
	registry *extract.Registry
	logger   *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	resolver source.Resolver
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(cfg *ai.Config) SystemOption {
	return func(o *systemOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// default. Used by tests and alternative deployments.
func WithProvider(p ai.Provider) SystemOption {
	return func(o *systemOptions) {
		o.provider = p
	}
}

// WithResolver sets the source resolver. Default resolves refs against
// documentsDir.
func WithResolver(r source.Resolver) SystemOption {
	return func(o *systemOptions) {
		o.resolver = r
	}
}

// Open creates a System over the database at dataDir, resolving document
// refs against documentsDir.
func Open(dataDir, documentsDir string, opts ...SystemOption) (*System, error) {
	options := &systemOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(dataDir, false)
	if err != nil {
		return nil, err
	}

	ledger, err := badger.NewLedger(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	vectors, err := badger.NewVectorIndex(backend)
	if err != nil {
		ledger.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			vectors.Close()
			ledger.Close()
			backend.Close()
			return nil, err
		}
	}

	resolver := options.resolver
	if resolver == nil {
		resolver = source.NewDirResolver(documentsDir)
	}

	return &System{
		backend:  backend,
		ledger:   ledger,
		vectors:  vectors,
		provider: provider,
		resolver: resolver,
		registry: extract.DefaultRegistry(),
		logger:   slog.Default(),
	}, nil
}

// Close releases all resources. The worker pool, if any, must be stopped first.
func (s *System) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.vectors.Close(); err != nil {
		s.logger.Error("error closing vector store", "err", err)
		return err
	}
	if err := s.ledger.Close(); err != nil {
		s.logger.Error("error closing ledger", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Ledger returns the document ledger.
func (s *System) Ledger() storage.DocumentLedger {
	return s.ledger
}

// Vectors returns the vector store.
func (s *System) Vectors() storage.VectorStore {
	return s.vectors
}

// AddDocuments registers source refs for indexing and returns the created
// ledger records, all PENDING.
func (s *System) AddDocuments(ctx context.Context, refs ...string) ([]*core.Document, error) {
	docs := make([]*core.Document, len(refs))
	for i, ref := range refs {
		docs[i] = &core.Document{SourceRef: ref}
	}
	return s.ledger.AddDocuments(ctx, docs...)
}

// RemoveDocument deletes a document's ledger record and all of its vector
// store entries.
func (s *System) RemoveDocument(ctx context.Context, id core.ID) error {
	if err := s.ledger.DeleteDocuments(ctx, id); err != nil {
		return err
	}
	removed, err := s.vectors.DeleteByDocument(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Info("document removed", "document", id, "entries", removed)
	return nil
}

// ResetFailed returns all FAILED documents to PENDING for reprocessing.
func (s *System) ResetFailed(ctx context.Context) (int, error) {
	return s.ledger.ResetFailed(ctx)
}

// NewProcessor creates a document processor wired to the system's stores.
// The embedder is wrapped with bounded retries so transient service
// failures don't consume document-level retry attempts.
func (s *System) NewProcessor(opts ...indexer.ProcessorOption) (*indexer.Processor, error) {
	embedder := ai.NewRetryingEmbedder(s.provider.Embedder(), 3, time.Second)
	return indexer.NewProcessor(s.ledger, s.vectors, embedder, s.resolver, s.registry, opts...)
}

// NewPool creates a worker pool over the system's ledger and the processor.
func (s *System) NewPool(processor *indexer.Processor, opts ...indexer.PoolOption) (*indexer.Pool, error) {
	return indexer.NewPool(s.ledger, processor, opts...)
}

// NewSearcher creates a semantic searcher over the system's vector store.
func (s *System) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(s.vectors, s.provider.Embedder(), opts...)
}

// NewStatsAggregator creates a stats aggregator over the system's stores.
func (s *System) NewStatsAggregator() (*indexer.StatsAggregator, error) {
	return indexer.NewStatsAggregator(s.ledger, s.vectors)
}
