package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// Pipeline holds one workspace's retrieval stack: extraction, chunking,
// embedding and the in-memory index it fills.
type Pipeline struct {
	workspace  Workspace
	cfg        *Config
	fs         billy.Filesystem
	extractors *Extractors
	chunker    *Chunker
	embedder   Embedder
	index      VectorIndex
	logger     *slog.Logger
}

// NewPipeline expects fs to resolve absolute paths, e.g. osfs.New("/").
func NewPipeline(ws Workspace, cfg *Config, fs billy.Filesystem, embedder Embedder, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chunker, err := NewChunker(cfg.Chunking.MaxChunkChars)
	if err != nil {
		return nil, err
	}

	index, err := NewVectorIndex(cfg.Retrieval)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Pipeline{
		workspace:  ws,
		cfg:        cfg,
		fs:         fs,
		extractors: NewExtractors(fs),
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		logger:     logger,
	}, nil
}

func (p *Pipeline) Config() *Config         { return p.cfg }
func (p *Pipeline) Index() VectorIndex      { return p.index }
func (p *Pipeline) Chunker() *Chunker       { return p.chunker }
func (p *Pipeline) Extractors() *Extractors { return p.extractors }

func (p *Pipeline) Retriever() *Retriever {
	return NewRetriever(p.embedder, p.index)
}

// DocumentsPath is the directory ingested when no paths are given.
func (p *Pipeline) DocumentsPath() string {
	return p.workspace.DocumentsPath(p.cfg.Ingestion.DocumentsDir)
}

// Discover expands paths (the documents directory when empty) into
// sources. Relative paths are resolved against the workspace root.
func (p *Pipeline) Discover(paths []string) ([]Source, error) {
	if len(paths) == 0 {
		paths = []string{p.DocumentsPath()}
	}

	abs := make([]string, len(paths))
	for i, path := range paths {
		if filepath.IsAbs(path) {
			abs[i] = filepath.Clean(path)
		} else {
			abs[i] = filepath.Join(p.workspace.Path, path)
		}
	}

	matcher, err := NewIgnoreMatcher(p.fs, p.workspace.Path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", IgnoreFilename, err)
	}

	return NewDiscovery(p.fs, p.workspace.Path, p.extractors.Supports, matcher).Discover(abs)
}

// Ingest discovers and ingests paths into the pipeline's index.
func (p *Pipeline) Ingest(ctx context.Context, paths []string) (*IngestReport, error) {
	sources, err := p.Discover(paths)
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}
	return p.IngestSources(ctx, sources)
}

func (p *Pipeline) IngestSources(ctx context.Context, sources []Source) (*IngestReport, error) {
	ingestor := NewIngestor(p.extractors, p.chunker, p.embedder, p.index,
		WithWorkers(p.cfg.Ingestion.Workers),
		WithLogger(p.logger),
	)
	return ingestor.Ingest(ctx, sources)
}
