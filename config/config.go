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


// Package config loads the scriba application configuration from YAML.
//
// Configuration is optional: a missing file yields the defaults, and any
// field left empty or zero in the file keeps its default value.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/inkwell-systems/scriba/chunk"
	"gopkg.in/yaml.v3"
)

// Config is the complete scriba configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Indexing   IndexingConfig   `yaml:"indexing"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	LogLevel   string           `yaml:"log_level"`
}

// StorageConfig configures on-disk locations.
type StorageConfig struct {
	// DataDir holds the BadgerDB database (ledger + vector entries).
	DataDir string `yaml:"data_dir"`
	// DocumentsDir is the root that document SourceRefs resolve against.
	DocumentsDir string `yaml:"documents_dir"`
}

// IndexingConfig configures the worker pool and chunking.
type IndexingConfig struct {
	NumWorkers   int    `yaml:"num_workers"`
	BatchSize    int    `yaml:"batch_size"`
	MaxRetries   int    `yaml:"max_retries"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	Strategy     string `yaml:"strategy"`
	// IdleInterval and ErrorBackoff are duration strings ("10s", "500ms").
	IdleInterval string `yaml:"idle_interval"`
	ErrorBackoff string `yaml:"error_backoff"`
}

// EmbeddingsConfig configures the embedding service.
type EmbeddingsConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// Default returns the configuration defaults.
func Default() *Config {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}

	return &Config{
		Storage: StorageConfig{
			DataDir:      "data/scriba",
			DocumentsDir: "data/documents",
		},
		Indexing: IndexingConfig{
			NumWorkers:   workers,
			BatchSize:    10,
			MaxRetries:   3,
			ChunkSize:    1000,
			ChunkOverlap: 200,
			Strategy:     string(chunk.StrategySemantic),
			IdleInterval: "10s",
			ErrorBackoff: "30s",
		},
		Embeddings: EmbeddingsConfig{
			Host:  "http://localhost:11434/v1",
			Model: "embeddinggemma",
		},
		LogLevel: "info",
	}
}

// Load reads the configuration file at path, layering it over the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills fields the file left empty or zero.
func (c *Config) applyDefaults() {
	def := Default()

	if c.Storage.DataDir == "" {
		c.Storage.DataDir = def.Storage.DataDir
	}
	if c.Storage.DocumentsDir == "" {
		c.Storage.DocumentsDir = def.Storage.DocumentsDir
	}
	if c.Indexing.NumWorkers == 0 {
		c.Indexing.NumWorkers = def.Indexing.NumWorkers
	}
	if c.Indexing.BatchSize == 0 {
		c.Indexing.BatchSize = def.Indexing.BatchSize
	}
	if c.Indexing.MaxRetries == 0 {
		c.Indexing.MaxRetries = def.Indexing.MaxRetries
	}
	if c.Indexing.ChunkSize == 0 {
		c.Indexing.ChunkSize = def.Indexing.ChunkSize
	}
	if c.Indexing.ChunkOverlap == 0 {
		c.Indexing.ChunkOverlap = def.Indexing.ChunkOverlap
	}
	if c.Indexing.Strategy == "" {
		c.Indexing.Strategy = def.Indexing.Strategy
	}
	if c.Indexing.IdleInterval == "" {
		c.Indexing.IdleInterval = def.Indexing.IdleInterval
	}
	if c.Indexing.ErrorBackoff == "" {
		c.Indexing.ErrorBackoff = def.Indexing.ErrorBackoff
	}
	if c.Embeddings.Host == "" {
		c.Embeddings.Host = def.Embeddings.Host
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = def.Embeddings.Model
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Indexing.NumWorkers < 1 {
		return fmt.Errorf("indexing.num_workers must be at least 1, got %d", c.Indexing.NumWorkers)
	}
	if c.Indexing.BatchSize < 1 {
		return fmt.Errorf("indexing.batch_size must be at least 1, got %d", c.Indexing.BatchSize)
	}
	if c.Indexing.MaxRetries < 0 {
		return fmt.Errorf("indexing.max_retries cannot be negative, got %d", c.Indexing.MaxRetries)
	}

	opts := c.ChunkOptions()
	if err := opts.Validate(); err != nil {
		return err
	}

	if _, err := c.IdleInterval(); err != nil {
		return err
	}
	if _, err := c.ErrorBackoff(); err != nil {
		return err
	}
	return nil
}

// ChunkOptions converts the indexing configuration into chunk options.
func (c *Config) ChunkOptions() chunk.Options {
	return chunk.Options{
		Size:     c.Indexing.ChunkSize,
		Overlap:  c.Indexing.ChunkOverlap,
		Strategy: chunk.Strategy(c.Indexing.Strategy),
	}
}

// IdleInterval parses the idle interval duration.
func (c *Config) IdleInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Indexing.IdleInterval)
	if err != nil {
		return 0, fmt.Errorf("indexing.idle_interval: %w", err)
	}
	return d, nil
}

// ErrorBackoff parses the error backoff duration.
func (c *Config) ErrorBackoff() (time.Duration, error) {
	d, err := time.ParseDuration(c.Indexing.ErrorBackoff)
	if err != nil {
		return 0, fmt.Errorf("indexing.error_backoff: %w", err)
	}
	return d, nil
}
