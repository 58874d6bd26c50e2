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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/inkwell-systems/scriba"
	"github.com/inkwell-systems/scriba/ai"
	"github.com/inkwell-systems/scriba/config"
	"github.com/inkwell-systems/scriba/core"
	"github.com/inkwell-systems/scriba/indexer"
	"github.com/inkwell-systems/scriba/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "scriba",
		Usage: "Asynchronous document indexing and semantic search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "scriba.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "worker",
				Usage:  "Run the indexing worker pool until interrupted",
				Action: workerCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent workers (overrides config)",
					},
					&cli.DurationFlag{
						Name:  "shutdown-timeout",
						Usage: "How long to wait for workers to finish on shutdown",
						Value: 30 * time.Second,
					},
				},
			},
			{
				Name:      "add",
				Usage:     "Register documents for indexing",
				ArgsUsage: "REF [REF...]",
				Action:    addCommand,
			},
			{
				Name:      "search",
				Usage:     "Search indexed documents",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   5,
					},
					&cli.Uint64Flag{
						Name:  "document",
						Usage: "Restrict results to a single document ID",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show document and vector store statistics",
				Action: statsCommand,
			},
			{
				Name:   "reset",
				Usage:  "Return all failed documents to pending",
				Action: resetCommand,
			},
			{
				Name:      "remove",
				Usage:     "Remove documents and their indexed chunks",
				ArgsUsage: "ID [ID...]",
				Action:    removeCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openSystem loads the configuration and opens the system it describes.
func openSystem(c *cli.Context) (*scriba.System, *config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(cfg.Embeddings.Host),
		ai.WithModel(cfg.Embeddings.Model),
	)

	sys, err := scriba.Open(cfg.Storage.DataDir, cfg.Storage.DocumentsDir,
		scriba.WithAIConfig(aiConfig))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open system: %w", err)
	}
	return sys, cfg, nil
}

func workerCommand(c *cli.Context) error {
	sys, cfg, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	processor, err := sys.NewProcessor(
		indexer.WithChunkOptions(cfg.ChunkOptions()),
		indexer.WithMaxRetries(cfg.Indexing.MaxRetries),
	)
	if err != nil {
		return fmt.Errorf("failed to create processor: %w", err)
	}

	numWorkers := cfg.Indexing.NumWorkers
	if c.Int("workers") > 0 {
		numWorkers = c.Int("workers")
	}

	idle, err := cfg.IdleInterval()
	if err != nil {
		return err
	}
	backoff, err := cfg.ErrorBackoff()
	if err != nil {
		return err
	}

	pool, err := sys.NewPool(processor,
		indexer.WithNumWorkers(numWorkers),
		indexer.WithBatchSize(cfg.Indexing.BatchSize),
		indexer.WithIdleInterval(idle),
		indexer.WithErrorBackoff(backoff),
	)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}

	if err := pool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig
	slog.Info("shutting down", "signal", received.String())

	stopCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
	defer cancel()
	return pool.Stop(stopCtx)
}

func addCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one document ref is required")
	}

	sys, _, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	docs, err := sys.AddDocuments(c.Context, c.Args().Slice()...)
	if err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	for _, doc := range docs {
		fmt.Printf("%d\t%s\t%s\n", doc.Id, doc.Status, doc.SourceRef)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a search query is required")
	}

	sys, _, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	searcher, err := sys.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	var results []*core.QueryResult
	if docID := c.Uint64("document"); docID != 0 {
		results, err = searcher.SearchFiltered(c.Context, query, c.Int("limit"),
			search.ForDocument(core.ID(docID)))
	} else {
		results, err = searcher.Search(c.Context, query, c.Int("limit"))
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: %q (doc %d, chunk %d/%d) [%0.3f]\n",
			i, hit.Text, hit.Metadata.DocumentId,
			hit.Metadata.ChunkIndex+1, hit.Metadata.TotalChunks, hit.Distance)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	sys, _, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	aggregator, err := sys.NewStatsAggregator()
	if err != nil {
		return fmt.Errorf("failed to create stats aggregator: %w", err)
	}

	stats, err := aggregator.Snapshot(c.Context)
	if err != nil {
		return fmt.Errorf("failed to collect stats: %w", err)
	}

	fmt.Printf("Documents:     %d\n", stats.Total)
	fmt.Printf("  pending:     %d\n", stats.Pending)
	fmt.Printf("  processing:  %d\n", stats.Processing)
	fmt.Printf("  completed:   %d\n", stats.Completed)
	fmt.Printf("  failed:      %d\n", stats.Failed)
	fmt.Printf("Vector store:  %d entries\n", stats.VectorStoreSize)
	return nil
}

func resetCommand(c *cli.Context) error {
	sys, _, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	reset, err := sys.ResetFailed(c.Context)
	if err != nil {
		return fmt.Errorf("failed to reset documents: %w", err)
	}

	fmt.Printf("Reset %d failed documents to pending\n", reset)
	return nil
}

func removeCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one document ID is required")
	}

	ids := make([]core.ID, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid document ID %q: %w", arg, err)
		}
		ids = append(ids, core.ID(id))
	}

	sys, _, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	for _, id := range ids {
		if err := sys.RemoveDocument(c.Context, id); err != nil {
			return fmt.Errorf("failed to remove document %d: %w", id, err)
		}
		fmt.Printf("removed %d\n", id)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
