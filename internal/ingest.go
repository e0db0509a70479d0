package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

type SourceReport struct {
	Source    Source `json:"source"`
	Fragments int    `json:"fragments"`
}

type SkippedSource struct {
	Source Source `json:"source"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

type IngestReport struct {
	Sources   []SourceReport  `json:"sources"`
	Skipped   []SkippedSource `json:"skipped"`
	Fragments int             `json:"fragments"`
}

type IngestOption func(*Ingestor)

func WithWorkers(n int) IngestOption {
	return func(in *Ingestor) {
		if n > 0 {
			in.workers = n
		}
	}
}

func WithLogger(logger *slog.Logger) IngestOption {
	return func(in *Ingestor) {
		if logger != nil {
			in.logger = logger
		}
	}
}

// Ingestor extracts, chunks and embeds sources in parallel, then inserts
// the fragments into the index in source order so rankings do not depend
// on scheduling.
type Ingestor struct {
	extractor TextExtractor
	chunker   *Chunker
	embedder  Embedder
	index     VectorIndex
	workers   int
	logger    *slog.Logger
}

func NewIngestor(extractor TextExtractor, chunker *Chunker, embedder Embedder, index VectorIndex, opts ...IngestOption) *Ingestor {
	in := &Ingestor{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		workers:   DefaultWorkers,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

type preparedSource struct {
	fragments []Fragment
	vectors   []Vector
	skipped   error
}

// Ingest skips sources whose extraction fails and aborts on the first
// embedding or index error. The returned report covers everything inserted
// before an abort.
func (in *Ingestor) Ingest(ctx context.Context, sources []Source) (*IngestReport, error) {
	prepared := make([]preparedSource, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.workers)

	for i, src := range sources {
		g.Go(func() error {
			p, err := in.prepare(gctx, src)
			if err != nil {
				return err
			}
			prepared[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return &IngestReport{}, err
	}

	report := &IngestReport{}
	for i, src := range sources {
		p := prepared[i]
		if p.skipped != nil {
			report.Skipped = append(report.Skipped, SkippedSource{Source: src, Reason: p.skipped.Error(), Err: p.skipped})
			continue
		}

		for j, frag := range p.fragments {
			if err := in.index.Insert(frag, p.vectors[j]); err != nil {
				return report, fmt.Errorf("index %s: %w", frag.ID, err)
			}
		}

		report.Sources = append(report.Sources, SourceReport{Source: src, Fragments: len(p.fragments)})
		report.Fragments += len(p.fragments)
		in.logger.Debug("ingested source", "source", src.ID, "fragments", len(p.fragments))
	}

	return report, nil
}

func (in *Ingestor) prepare(ctx context.Context, src Source) (preparedSource, error) {
	text, err := in.extractor.Extract(ctx, src.Path)
	if err != nil {
		if errors.Is(err, ErrExtraction) {
			in.logger.Warn("skipping source", "source", src.ID, "error", err)
			return preparedSource{skipped: err}, nil
		}
		return preparedSource{}, err
	}

	frags := in.chunker.Chunk(src.ID, text)
	if len(frags) == 0 {
		return preparedSource{}, nil
	}

	texts := make([]string, len(frags))
	for i, f := range frags {
		texts[i] = f.Content
	}

	vecs, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return preparedSource{}, fmt.Errorf("embed %s: %w", src.ID, err)
	}
	if len(vecs) != len(frags) {
		return preparedSource{}, fmt.Errorf("%w: %s: got %d vectors for %d fragments", ErrEmbedding, src.ID, len(vecs), len(frags))
	}

	return preparedSource{fragments: frags, vectors: vecs}, nil
}
