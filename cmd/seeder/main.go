package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/inkwell-systems/scriba"
	"github.com/inkwell-systems/scriba/config"
	"github.com/inkwell-systems/scriba/indexer"
)

// documents is the built-in seed corpus. Each entry becomes one file in the
// documents directory and one PENDING ledger record for the workers to pick up.
var documents = map[string]string{
	"lighthouse.md": `# The Keeper's Log

The lighthouse beam cut through fog, guiding sailors safely past the
shoals. Every third Tuesday the abandoned lighthouse still broadcasts
its warning, though nobody remembers who winds the mechanism.

The keeper's log records seventeen storms, four shipwrecks averted, and
one comet that streaked across the horizon at midnight. The old clock
chimed thirteen times the night the last entry was written.`,

	"orchard.txt": `She tasted fruit straight from the orchard's ripe branches. They
tasted the sweetest strawberries from the farmer's garden, and honey
straight from a beehive's sweet core.

A gentle breeze rustled through the wheat fields. Sunlight filtered
through curtains, turning dust motes into golden specks. The wind
carried scents of jasmine from distant gardens.`,

	"expedition.txt": `A mysterious map led them to a forgotten treasure. The old map showed
roads that no longer existed, and an ancient rune carved deep within
the stone marked the turning point.

They explored caves filled with stalactites glittering like
chandeliers. He measured the distance between two distant mountains and
built a wooden bridge across the swift river.

Beneath the waves, coral gardens shimmered in colors unseen. The
river's surface shimmered like liquid silver under moonlight.`,

	"machines.md": `# Field Notes on Misbehaving Systems

The server room developed opinions about the backup schedule. The
garbage collector went on strike, memory leaks formed a union, and the
null pointer exception filed for workers' compensation.

The race condition won by not participating. TCP packets started
arriving before they were sent. The distributed system achieved
consensus through interpretive dance.

Documentation exists in a superposition until observed. Bugs are
features that haven't read the documentation either.`,

	"nocturne.txt": `The moon rose slowly, casting silver light on the lake. A lone wolf
howled, echoing into the vast night. The night sky glittered with
countless stars, and a bright comet streaked past, leaving a trail of
light.

He whispered to the stars, hoping they would hear. The desert dunes
shifted silently under a pale moon.`,
}

var (
	configPath = flag.String("config", "scriba.yaml", "path to configuration file")
	srcDir     = flag.String("src", "", "directory of existing documents to register instead of the built-in corpus")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// refsFromDir lists the regular files under dir as refs relative to dir.
// The directory must be the configured documents dir for the refs to resolve.
func refsFromDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		refs = append(refs, entry.Name())
	}
	return refs, nil
}

// refsFromSlice returns an iterator over a slice of refs.
func refsFromSlice(refs []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, ref := range refs {
			if !yield(ref) {
				return
			}
		}
	}
}

// refsFromCorpus writes the built-in corpus into documentsDir and returns an
// iterator over the written refs.
func refsFromCorpus(documentsDir string) (iter.Seq[string], error) {
	if err := os.MkdirAll(documentsDir, 0755); err != nil {
		return nil, err
	}

	for name, text := range documents {
		path := filepath.Join(documentsDir, name)
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		w := bufio.NewWriter(f)
		if _, err := w.WriteString(text); err != nil {
			f.Close()
			return nil, err
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}

	return func(yield func(string) bool) {
		for name := range documents {
			if !yield(name) {
				return
			}
		}
	}, nil
}

// addBatched registers refs from source in batches.
func addBatched(ctx context.Context, sys *scriba.System, source iter.Seq[string], batchSize int, tracker *indexer.ProgressTracker) (int, error) {
	added := 0
	batch := make([]string, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := sys.AddDocuments(ctx, batch...); err != nil {
			return err
		}
		added += len(batch)
		tracker.Increment(len(batch))
		batch = batch[:0]
		return nil
	}

	for ref := range source {
		batch = append(batch, ref)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return added, err
			}
		}
	}
	if err := flush(); err != nil {
		return added, err
	}
	return added, nil
}

func main() {
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	sys, err := scriba.Open(cfg.Storage.DataDir, cfg.Storage.DocumentsDir)
	if err != nil {
		panic(err)
	}
	defer sys.Close()

	ctx := context.Background()

	var source iter.Seq[string]
	var total int
	if *srcDir != "" {
		refs, err := refsFromDir(*srcDir)
		if err != nil {
			panic(err)
		}
		source = refsFromSlice(refs)
		total = len(refs)
	} else {
		source, err = refsFromCorpus(cfg.Storage.DocumentsDir)
		if err != nil {
			panic(err)
		}
		total = len(documents)
	}

	tracker := indexer.NewProgressTracker(os.Stderr, total, 1)
	tracker.Start()

	added, err := addBatched(ctx, sys, source, 5, tracker)
	if err != nil {
		panic(err)
	}
	tracker.Finish()

	fmt.Fprintf(os.Stderr, "Registered %d documents in %s; run 'scriba worker' to index them\n",
		added, tracker.Elapsed().Round(time.Millisecond))
}
