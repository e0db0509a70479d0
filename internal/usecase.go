package internal

import (
	"context"
	"fmt"
	"path/filepath"
)

// Use case input/output DTOs

type ChunkInput struct {
	Path          string
	MaxChunkChars int
}

type ChunkOutput struct {
	Source        Source     `json:"source"`
	MaxChunkChars int        `json:"max_chunk_chars"`
	Fragments     []Fragment `json:"fragments"`
}

type IngestInput struct {
	Paths []string
}

type IngestOutput struct {
	Report *IngestReport `json:"report"`
	Total  int           `json:"total"`
}

type SearchInput struct {
	Query string
	Limit int
	Paths []string
}

type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Skipped []SkippedSource      `json:"skipped,omitempty"`
}

type SearchResultOutput struct {
	ID      FragmentID `json:"id"`
	Source  string     `json:"source"`
	Score   float64    `json:"score"`
	Content string     `json:"content"`
}

type AskInput struct {
	Question string
	Limit    int
	Provider string
}

type AskOutput struct {
	Answer  string               `json:"answer"`
	Sources []SearchResultOutput `json:"sources"`
}

func toResultOutputs(results []SearchResult) []SearchResultOutput {
	out := make([]SearchResultOutput, len(results))
	for i, r := range results {
		out[i] = SearchResultOutput{
			ID:      r.Fragment.ID,
			Source:  r.Fragment.Source,
			Score:   r.Score,
			Content: r.Fragment.Content,
		}
	}
	return out
}

// Use cases

type ChunkUseCase struct {
	pipeline *Pipeline
}

func NewChunkUseCase(pipeline *Pipeline) *ChunkUseCase {
	return &ChunkUseCase{pipeline: pipeline}
}

// Execute chunks one document without embedding it. A zero MaxChunkChars
// falls back to the configured size.
func (uc *ChunkUseCase) Execute(ctx context.Context, input ChunkInput) (*ChunkOutput, error) {
	chunker := uc.pipeline.Chunker()
	if input.MaxChunkChars != 0 {
		var err error
		if chunker, err = NewChunker(input.MaxChunkChars); err != nil {
			return nil, err
		}
	}

	path := input.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(uc.pipeline.workspace.Path, path)
	}
	src := NewSource(uc.pipeline.workspace.Path, path)

	text, err := uc.pipeline.Extractors().Extract(ctx, src.Path)
	if err != nil {
		return nil, err
	}

	return &ChunkOutput{
		Source:        src,
		MaxChunkChars: chunker.MaxChars(),
		Fragments:     chunker.Chunk(src.ID, text),
	}, nil
}

type IngestUseCase struct {
	pipeline *Pipeline
}

func NewIngestUseCase(pipeline *Pipeline) *IngestUseCase {
	return &IngestUseCase{pipeline: pipeline}
}

func (uc *IngestUseCase) Execute(ctx context.Context, input IngestInput) (*IngestOutput, error) {
	report, err := uc.pipeline.Ingest(ctx, input.Paths)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	return &IngestOutput{Report: report, Total: uc.pipeline.Index().Len()}, nil
}

type SearchUseCase struct {
	pipeline *Pipeline
}

func NewSearchUseCase(pipeline *Pipeline) *SearchUseCase {
	return &SearchUseCase{pipeline: pipeline}
}

// Execute ingests input.Paths (the documents directory when empty) and
// ranks fragments against the query.
func (uc *SearchUseCase) Execute(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = uc.pipeline.Config().Retrieval.TopK
	}
	if err := checkK(limit); err != nil {
		return nil, err
	}

	report, err := uc.pipeline.Ingest(ctx, input.Paths)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	results, err := uc.pipeline.Retriever().Retrieve(ctx, input.Query, limit)
	if err != nil {
		return nil, err
	}

	return &SearchOutput{Results: toResultOutputs(results), Skipped: report.Skipped}, nil
}

type AskUseCase struct {
	pipeline *Pipeline
	factory  GeneratorFactory
}

func NewAskUseCase(pipeline *Pipeline, factory GeneratorFactory) *AskUseCase {
	return &AskUseCase{pipeline: pipeline, factory: factory}
}

// NewSession ingests the documents directory and opens a conversation on
// the resulting index. opts are applied after the configured defaults.
func (uc *AskUseCase) NewSession(ctx context.Context, provider string, limit int, opts ...SessionOption) (*Session, *IngestReport, error) {
	cfg := uc.pipeline.Config()
	if limit == 0 {
		limit = cfg.Retrieval.TopK
	}
	if err := checkK(limit); err != nil {
		return nil, nil, err
	}

	gen, err := NewGenerator(ctx, cfg, provider, uc.factory)
	if err != nil {
		return nil, nil, err
	}

	report, err := uc.pipeline.Ingest(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: %w", err)
	}

	session := NewSession(uc.pipeline.Retriever(), gen, append([]SessionOption{
		WithTopK(limit),
		WithPreamble(cfg.Generation.Preamble),
		WithHistoryTurns(cfg.Generation.HistoryTurns),
	}, opts...)...)
	return session, report, nil
}

func (uc *AskUseCase) Execute(ctx context.Context, input AskInput) (*AskOutput, error) {
	session, _, err := uc.NewSession(ctx, input.Provider, input.Limit)
	if err != nil {
		return nil, err
	}

	reply, err := session.Ask(ctx, input.Question)
	if err != nil {
		return nil, err
	}

	return &AskOutput{Answer: reply.Turn.Answer, Sources: toResultOutputs(reply.Results)}, nil
}
