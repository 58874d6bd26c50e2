package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkwell-systems/scriba/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder turns chunk and query text into vectors through any
// OpenAI-compatible embeddings endpoint (Ollama, LocalAI, or the hosted
// API). Newlines are stripped before embedding; some models treat them
// as sequence breaks.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// newEmbedder is the internal constructor returning the concrete type,
// used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Token "none" satisfies the client for local services that skip auth.
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates an embedder for the configured endpoint and model,
// returned as the ai.Embedder interface.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds a single text, typically a search query.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("error embedding text", "length", len(text), "err", err)
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, ai.ErrNoEmbedding
	}
	return vectors[0], nil
}

// EmbedTexts embeds a batch of texts, one vector per input in order.
// An empty batch is rejected rather than passed to the service.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ai.ErrEmptyBatch
	}

	e.logger.Debug("embedding batch", "texts", len(texts))
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("error embedding batch", "texts", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w for batch of %d", ai.ErrNoEmbedding, len(texts))
	}
	return vectors, nil
}
