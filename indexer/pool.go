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
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inkwell-systems/scriba/core"
	"github.com/inkwell-systems/scriba/storage"
	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultBatchSize is how many documents a worker claims per cycle.
	DefaultBatchSize = 10
	// DefaultIdleInterval is how long a worker sleeps when no work is available.
	DefaultIdleInterval = 10 * time.Second
	// DefaultErrorBackoff is how long a worker sleeps after a claim error.
	DefaultErrorBackoff = 30 * time.Second
)

// Pool runs long-lived workers that claim and process pending documents.
// Workers poll the ledger in batches; claiming is exclusive, so adding
// workers never duplicates work.
type Pool struct {
	ledger    storage.DocumentLedger
	processor *Processor
	pool      *ants.Pool
	logger    *slog.Logger

	numWorkers   int
	batchSize    int
	idleInterval time.Duration
	errorBackoff time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	exited  atomic.Int32
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithNumWorkers sets the number of concurrent workers.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithNumWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n < 1 {
			n = 1
		}
		p.numWorkers = n
	}
}

// WithBatchSize sets how many documents a worker claims per cycle.
// Default is DefaultBatchSize.
func WithBatchSize(n int) PoolOption {
	return func(p *Pool) {
		if n < 1 {
			n = 1
		}
		p.batchSize = n
	}
}

// WithIdleInterval sets the sleep between polls when no work is available.
// Default is DefaultIdleInterval.
func WithIdleInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.idleInterval = d
		}
	}
}

// WithErrorBackoff sets the sleep after a claim error.
// Default is DefaultErrorBackoff.
func WithErrorBackoff(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.errorBackoff = d
		}
	}
}

// WithPoolLogger sets a custom logger.
// Default is slog.Default().
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewPool creates a worker pool over the ledger and processor.
func NewPool(ledger storage.DocumentLedger, processor *Processor, opts ...PoolOption) (*Pool, error) {
	if ledger == nil {
		return nil, ErrLedgerRequired
	}
	if processor == nil {
		return nil, ErrProcessorRequired
	}

	numWorkers := runtime.NumCPU() / 2
	if numWorkers < 1 {
		numWorkers = 1
	}

	p := &Pool{
		ledger:       ledger,
		processor:    processor,
		logger:       slog.Default().With("component", "indexer-pool"),
		numWorkers:   numWorkers,
		batchSize:    DefaultBatchSize,
		idleInterval: DefaultIdleInterval,
		errorBackoff: DefaultErrorBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}

	antsPool, err := ants.NewPool(p.numWorkers)
	if err != nil {
		return nil, err
	}
	p.pool = antsPool

	return p, nil
}

// Start launches the workers. Returns ErrPoolRunning if already started.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPoolRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running = true
	p.exited.Store(0)

	for i := 0; i < p.numWorkers; i++ {
		workerID := i
		p.wg.Add(1)
		if err := p.pool.Submit(func() {
			defer p.wg.Done()
			defer p.exited.Add(1)
			p.runWorker(ctx, workerID)
		}); err != nil {
			p.wg.Done()
			cancel()
			p.running = false
			return err
		}
	}

	p.logger.Info("indexer pool started", "workers", p.numWorkers, "batchSize", p.batchSize)
	return nil
}

// Stop signals the workers and waits for them to finish, bounded by ctx.
// A stopping worker finishes the document it is processing, hands any
// remaining claimed documents back to the ledger, and exits; the stop
// signal never aborts a document mid-pipeline and never consumes one of
// its retries. Workers that have not exited when ctx expires are
// abandoned: they are logged, the pool is released anyway, and each one
// finishes its in-flight document before its goroutine ends. An abandoned
// worker cannot claim new work because its claim context is already
// cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.pool.Release()
		p.logger.Info("indexer pool stopped")
		return nil
	case <-ctx.Done():
		abandoned := p.numWorkers - int(p.exited.Load())
		p.logger.Warn("stop timed out, abandoning workers", "abandoned", abandoned, "workers", p.numWorkers)
		p.pool.Release()
		return ctx.Err()
	}
}

// runWorker is one worker's claim-process loop. The stop signal is
// observed between documents only: processing runs on a context detached
// from it, so a shutdown cannot turn into a spurious document retry.
func (p *Pool) runWorker(ctx context.Context, id int) {
	logger := p.logger.With("worker", id)
	logger.Debug("worker started")

	procCtx := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			logger.Debug("worker stopping")
			return
		}

		claimed, err := p.ledger.ClaimPending(ctx, p.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("worker stopping")
				return
			}
			logger.Error("error claiming documents", "err", err)
			if !sleepCtx(ctx, p.errorBackoff) {
				return
			}
			continue
		}

		if len(claimed) == 0 {
			if !sleepCtx(ctx, p.idleInterval) {
				return
			}
			continue
		}

		logger.Debug("claimed documents", "count", len(claimed))
		for i, doc := range claimed {
			if ctx.Err() != nil {
				p.requeue(procCtx, logger, claimed[i:])
				logger.Debug("worker stopping")
				return
			}
			// Per-attempt errors are recorded in the ledger by the
			// processor; the loop keeps going.
			_ = p.processor.Process(procCtx, doc)
		}
	}
}

// requeue hands claimed but unstarted documents back to the ledger so
// another worker can pick them up.
func (p *Pool) requeue(ctx context.Context, logger *slog.Logger, docs []*core.Document) {
	ids := make([]core.ID, len(docs))
	for i, doc := range docs {
		ids[i] = doc.Id
	}
	if err := p.ledger.Requeue(ctx, ids...); err != nil {
		logger.Error("error requeuing claimed documents", "count", len(ids), "err", err)
		return
	}
	logger.Debug("requeued claimed documents", "count", len(ids))
}

// sleepCtx sleeps for d or until ctx is cancelled. Returns false on cancel.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
