package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inkwell-systems/scriba/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.GreaterOrEqual(t, cfg.Indexing.NumWorkers, 1)
	assert.Equal(t, 10, cfg.Indexing.BatchSize)
	assert.Equal(t, 3, cfg.Indexing.MaxRetries)
	assert.Equal(t, string(chunk.StrategySemantic), cfg.Indexing.Strategy)

	idle, err := cfg.IdleInterval()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, idle)

	backoff, err := cfg.ErrorBackoff()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, backoff)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriba.yaml")
	content := `
storage:
  data_dir: /var/lib/scriba
indexing:
  num_workers: 4
  chunk_size: 500
  strategy: fixed
embeddings:
  model: text-embedding-3-small
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/scriba", cfg.Storage.DataDir)
	assert.Equal(t, 4, cfg.Indexing.NumWorkers)
	assert.Equal(t, 500, cfg.Indexing.ChunkSize)
	assert.Equal(t, "fixed", cfg.Indexing.Strategy)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Unset fields keep defaults
	assert.Equal(t, Default().Storage.DocumentsDir, cfg.Storage.DocumentsDir)
	assert.Equal(t, Default().Indexing.BatchSize, cfg.Indexing.BatchSize)
	assert.Equal(t, Default().Embeddings.Host, cfg.Embeddings.Host)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "indexing: ["},
		{name: "bad strategy", content: "indexing:\n  strategy: telepathic"},
		{name: "overlap too large", content: "indexing:\n  chunk_size: 100\n  chunk_overlap: 100"},
		{name: "bad duration", content: "indexing:\n  idle_interval: soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scriba.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestChunkOptions(t *testing.T) {
	cfg := Default()
	cfg.Indexing.ChunkSize = 800
	cfg.Indexing.ChunkOverlap = 80
	cfg.Indexing.Strategy = "fixed"

	opts := cfg.ChunkOptions()
	assert.Equal(t, 800, opts.Size)
	assert.Equal(t, 80, opts.Overlap)
	assert.Equal(t, chunk.StrategyFixed, opts.Strategy)
}
