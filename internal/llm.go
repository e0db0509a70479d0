package internal

import "context"

// Embedder turns text into vectors. Failures wrap ErrEmbedding and are
// never retried here.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)
	Dimension() int
	Model() string
}

// Generator completes prompts with a hosted language model. Failures wrap
// ErrGeneration.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string, onDelta func(string)) (string, error)
}
