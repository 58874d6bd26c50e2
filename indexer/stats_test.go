package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkwell-systems/scriba/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsSnapshot(t *testing.T) {
	env := newTestEnv(t)
	proc := env.newProcessor(t)
	ctx := context.Background()

	agg, err := NewStatsAggregator(env.ledger, env.vectors)
	require.NoError(t, err)

	// Empty system
	stats, err := agg.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, &core.Stats{}, stats)

	// One completed, one pending, one failed
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "good.txt"), []byte("Indexable content."), 0644))
	_, err = env.ledger.AddDocuments(ctx,
		&core.Document{SourceRef: "good.txt"},
		&core.Document{SourceRef: "pending.txt"},
		&core.Document{SourceRef: "gone.txt"},
	)
	require.NoError(t, err)

	claimed, err := env.ledger.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, proc.Process(ctx, claimed[0]))

	claimed, err = env.ledger.ClaimPending(ctx, 1)
	require.NoError(t, err)
	_, err = env.ledger.MarkFailed(ctx, claimed[0].Id, "file disappeared")
	require.NoError(t, err)

	stats, err = agg.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 0, stats.Processing)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	assert.Greater(t, stats.VectorStoreSize, 0)
}

func TestNewStatsAggregatorValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := NewStatsAggregator(nil, env.vectors)
	assert.ErrorIs(t, err, ErrLedgerRequired)

	_, err = NewStatsAggregator(env.ledger, nil)
	assert.ErrorIs(t, err, ErrVectorStoreRequired)
}
