package indexer

import (
	"context"

	"github.com/inkwell-systems/scriba/core"
	"github.com/inkwell-systems/scriba/storage"
)

// StatsAggregator produces point-in-time snapshots of the indexing system.
type StatsAggregator struct {
	ledger  storage.DocumentLedger
	vectors storage.VectorStore
}

// NewStatsAggregator creates a stats aggregator over the ledger and vector store.
func NewStatsAggregator(ledger storage.DocumentLedger, vectors storage.VectorStore) (*StatsAggregator, error) {
	if ledger == nil {
		return nil, ErrLedgerRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	return &StatsAggregator{ledger: ledger, vectors: vectors}, nil
}

// Snapshot gathers document counts per status and the vector store size.
// The snapshot is not transactional across the two stores; counts taken
// while workers are running describe a moment, not an invariant.
func (s *StatsAggregator) Snapshot(ctx context.Context) (*core.Stats, error) {
	counts, err := s.ledger.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	size, err := s.vectors.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &core.Stats{
		Pending:         counts[core.StatusPending],
		Processing:      counts[core.StatusProcessing],
		Completed:       counts[core.StatusCompleted],
		Failed:          counts[core.StatusFailed],
		VectorStoreSize: size,
	}
	stats.Total = stats.Pending + stats.Processing + stats.Completed + stats.Failed
	return stats, nil
}
