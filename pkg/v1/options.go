package v1

import (
	"log/slog"

	"github.com/4thel00z/docrag/internal"
	"github.com/go-git/go-billy/v5"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	root          string
	fs            billy.Filesystem
	embedder      Embedder
	generator     Generator
	maxChunkChars int
	topK          int
	backend       string
	trees         int
	workers       int
	preamble      string
	historyTurns  int
	logger        *slog.Logger
	transcript    string
}

// WithRoot sets the directory relative paths and .ragignore are resolved
// against. Defaults to the working directory.
func WithRoot(dir string) Option {
	return func(c *clientConfig) {
		c.root = dir
	}
}

// WithFilesystem reads documents through fs instead of the OS. Paths
// handed to the client must be absolute within fs.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(c *clientConfig) {
		c.fs = fs
	}
}

// WithEmbedder replaces the OpenAI embedder configured from OPENAI_API_KEY.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithGenerator sets the model used by Ask. Without it Ask fails.
func WithGenerator(g Generator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

func WithMaxChunkChars(n int) Option {
	return func(c *clientConfig) {
		c.maxChunkChars = n
	}
}

func WithTopK(k int) Option {
	return func(c *clientConfig) {
		c.topK = k
	}
}

// WithAnnoy switches the index to the approximate annoy backend.
func WithAnnoy(trees int) Option {
	return func(c *clientConfig) {
		c.backend = internal.BackendAnnoy
		c.trees = trees
	}
}

func WithWorkers(n int) Option {
	return func(c *clientConfig) {
		c.workers = n
	}
}

func WithPreamble(p string) Option {
	return func(c *clientConfig) {
		c.preamble = p
	}
}

// WithHistoryTurns limits how many earlier turns of a Conversation are
// replayed in each prompt.
func WithHistoryTurns(n int) Option {
	return func(c *clientConfig) {
		c.historyTurns = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithTranscript records every conversation turn in the SQLite database at
// path, so conversations can be resumed by a later Client.
func WithTranscript(path string) Option {
	return func(c *clientConfig) {
		c.transcript = path
	}
}
