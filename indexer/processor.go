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


package indexer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkwell-systems/scriba/ai"
	"github.com/inkwell-systems/scriba/chunk"
	"github.com/inkwell-systems/scriba/core"
	"github.com/inkwell-systems/scriba/extract"
	"github.com/inkwell-systems/scriba/source"
	"github.com/inkwell-systems/scriba/storage"
)

// DefaultMaxRetries is the number of retries a document gets before it is
// marked FAILED.
const DefaultMaxRetries = 3

// Processor indexes a single claimed document: resolve the source, extract
// its text, chunk it, embed the chunks, and replace the document's entries
// in the vector store. On failure it consults Decide and records the retry
// or the permanent failure in the ledger.
type Processor struct {
	ledger     storage.DocumentLedger
	vectors    storage.VectorStore
	embedder   ai.Embedder
	resolver   source.Resolver
	registry   *extract.Registry
	chunkOpts  chunk.Options
	maxRetries int
	logger     *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithChunkOptions sets the chunking configuration.
// Default is chunk.DefaultOptions().
func WithChunkOptions(opts chunk.Options) ProcessorOption {
	return func(p *Processor) {
		p.chunkOpts = opts
	}
}

// WithMaxRetries sets how many retries a document gets before failing
// permanently. Default is DefaultMaxRetries.
func WithMaxRetries(n int) ProcessorOption {
	return func(p *Processor) {
		p.maxRetries = n
	}
}

// WithProcessorLogger sets a custom logger.
// Default is slog.Default().
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewProcessor creates a document processor.
func NewProcessor(
	ledger storage.DocumentLedger,
	vectors storage.VectorStore,
	embedder ai.Embedder,
	resolver source.Resolver,
	registry *extract.Registry,
	opts ...ProcessorOption,
) (*Processor, error) {
	if ledger == nil {
		return nil, ErrLedgerRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	p := &Processor{
		ledger:     ledger,
		vectors:    vectors,
		embedder:   embedder,
		resolver:   resolver,
		registry:   registry,
		chunkOpts:  chunk.DefaultOptions(),
		maxRetries: DefaultMaxRetries,
		logger:     slog.Default().With("component", "processor"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.chunkOpts.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Process indexes one claimed document. The document must be PROCESSING.
// The attempt's outcome is always recorded in the ledger; the returned
// error is the attempt failure, nil on success.
func (p *Processor) Process(ctx context.Context, doc *core.Document) error {
	logger := p.logger.With("document", doc.Id, "source", doc.SourceRef)

	chunkCount, err := p.index(ctx, doc)
	if err == nil {
		if _, err := p.ledger.MarkCompleted(ctx, doc.Id, chunkCount); err != nil {
			logger.Error("error completing document", "err", err)
			return err
		}
		logger.Info("document indexed", "chunks", chunkCount)
		return nil
	}

	failures := doc.RetryCount + 1
	outcome := Decide(failures, p.maxRetries)
	logger.Warn("indexing attempt failed", "err", err, "failures", failures, "outcome", outcome.String())

	switch outcome {
	case OutcomeRetry:
		if _, terr := p.ledger.MarkRetry(ctx, doc.Id, err.Error()); terr != nil {
			logger.Error("error scheduling retry", "err", terr)
		}
	default:
		if _, terr := p.ledger.MarkFailed(ctx, doc.Id, err.Error()); terr != nil {
			logger.Error("error recording failure", "err", terr)
		}
	}
	return err
}

// index performs the extract -> chunk -> embed -> store sequence and
// returns the number of chunks stored.
func (p *Processor) index(ctx context.Context, doc *core.Document) (int, error) {
	file, err := p.resolver.Resolve(ctx, doc.SourceRef)
	if err != nil {
		return 0, fmt.Errorf("resolve %q: %w", doc.SourceRef, err)
	}

	text, err := p.registry.Extract(ctx, file.MIME, file.Path)
	if err != nil {
		return 0, fmt.Errorf("extract %q: %w", file.Name, err)
	}

	chunks, err := chunk.Split(text, p.chunkOpts)
	if err != nil {
		return 0, fmt.Errorf("chunk %q: %w", file.Name, err)
	}

	vectors, err := p.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed %q: %w", file.Name, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embed %q: got %d vectors for %d chunks", file.Name, len(vectors), len(chunks))
	}

	entries := make([]*core.IndexEntry, len(chunks))
	for i, text := range chunks {
		entries[i] = &core.IndexEntry{
			Id:     core.EntryID(doc.Id, i),
			Vector: vectors[i],
			Text:   text,
			Metadata: core.EntryMetadata{
				DocumentId:  doc.Id,
				SourceRef:   doc.SourceRef,
				Filename:    file.Name,
				UploadDate:  file.UploadedAt,
				ChunkIndex:  i,
				TotalChunks: len(chunks),
			},
		}
	}

	// Supersede any entries from a previous indexing of this document. Chunk
	// IDs are positional, so a shrinking document would otherwise leave
	// stale tail entries behind.
	if _, err := p.vectors.DeleteByDocument(ctx, doc.Id); err != nil {
		return 0, fmt.Errorf("clear previous entries for document %d: %w", doc.Id, err)
	}

	if err := p.vectors.Upsert(ctx, entries...); err != nil {
		return 0, fmt.Errorf("store entries for document %d: %w", doc.Id, err)
	}

	return len(chunks), nil
}
