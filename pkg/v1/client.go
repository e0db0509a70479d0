package v1

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/4thel00z/docrag/internal"
	"github.com/go-git/go-billy/v5/osfs"
)

// Client indexes documents in memory and answers questions over them.
// The index lives as long as the Client.
type Client struct {
	pipeline  *internal.Pipeline
	retriever *internal.Retriever
	generator  Generator
	cfg        *internal.Config
	transcript *internal.Transcript
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, opt := range opts {
		opt(cc)
	}

	cfg := internal.DefaultConfig()
	cfg.ApplyEnv(os.Getenv)
	if cc.maxChunkChars != 0 {
		cfg.Chunking.MaxChunkChars = cc.maxChunkChars
	}
	if cc.topK != 0 {
		cfg.Retrieval.TopK = cc.topK
	}
	if cc.backend != "" {
		cfg.Retrieval.Backend = cc.backend
		cfg.Retrieval.Trees = cc.trees
	}
	if cc.workers != 0 {
		cfg.Ingestion.Workers = cc.workers
	}
	if cc.preamble != "" {
		cfg.Generation.Preamble = cc.preamble
	}
	if cc.historyTurns != 0 {
		cfg.Generation.HistoryTurns = cc.historyTurns
	}

	embedder := cc.embedder
	if embedder == nil {
		var err error
		if embedder, err = internal.NewEmbedder(cfg.Embeddings); err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
	} else {
		cfg.Embeddings.Backend = internal.EmbeddingsHash
		cfg.Embeddings.Dimension = max(embedder.Dimension(), 1)
	}

	root := cc.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	fs := cc.fs
	if fs == nil {
		fs = osfs.New("/")
	}

	ws := internal.Workspace{
		Type:    internal.WorkspaceProject,
		Path:    root,
		RagPath: filepath.Join(root, internal.WorkspaceDirname),
	}
	p, err := internal.NewPipeline(ws, cfg, fs, embedder, cc.logger)
	if err != nil {
		return nil, err
	}

	var transcript *internal.Transcript
	if cc.transcript != "" {
		if transcript, err = internal.OpenTranscript(cc.transcript); err != nil {
			return nil, err
		}
	}

	return &Client{
		pipeline:   p,
		retriever:  p.Retriever(),
		generator:  cc.generator,
		cfg:        cfg,
		transcript: transcript,
	}, nil
}

// Ingest adds the documents under paths to the index. Directories are
// walked recursively; unreadable documents are reported as skipped.
func (c *Client) Ingest(ctx context.Context, paths ...string) (*IngestReport, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no paths given", ErrInvalidArgument)
	}

	report, err := c.pipeline.Ingest(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	out := &IngestReport{
		Documents: make(map[string]int, len(report.Sources)),
		Fragments: report.Fragments,
		Total:     c.pipeline.Index().Len(),
	}
	for _, s := range report.Sources {
		out.Documents[s.Source.ID] = s.Fragments
	}
	if len(report.Skipped) > 0 {
		out.Skipped = make(map[string]string, len(report.Skipped))
		for _, s := range report.Skipped {
			out.Skipped[s.Source.ID] = s.Reason
		}
	}
	return out, nil
}

// Search returns up to k fragments closest to query. k <= 0 uses the
// configured top-k.
func (c *Client) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = c.cfg.Retrieval.TopK
	}
	results, err := c.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return toResults(results), nil
}

// Ask answers a single question without conversation history.
func (c *Client) Ask(ctx context.Context, question string) (*Answer, error) {
	return c.Conversation().Ask(ctx, question)
}

// Conversation starts a dialogue whose earlier turns are replayed to the
// model with every question.
func (c *Client) Conversation() *Conversation {
	return c.newConversation()
}

// Conversations lists the ids recorded in the transcript, oldest first.
func (c *Client) Conversations(ctx context.Context) ([]string, error) {
	if c.transcript == nil {
		return nil, ErrNoTranscript
	}
	return c.transcript.Sessions(ctx)
}

// ResumeConversation continues a recorded conversation with its history
// restored.
func (c *Client) ResumeConversation(ctx context.Context, id string) (*Conversation, error) {
	if c.transcript == nil {
		return nil, ErrNoTranscript
	}
	turns, err := c.transcript.Turns(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("%w: no conversation %q", ErrInvalidArgument, id)
	}
	return c.newConversation(internal.WithSessionID(id), internal.WithHistory(turns)), nil
}

func (c *Client) newConversation(opts ...internal.SessionOption) *Conversation {
	opts = append([]internal.SessionOption{
		internal.WithTopK(c.cfg.Retrieval.TopK),
		internal.WithPreamble(c.cfg.Generation.Preamble),
		internal.WithHistoryTurns(c.cfg.Generation.HistoryTurns),
	}, opts...)
	return &Conversation{
		session:    internal.NewSession(c.retriever, c.generator, opts...),
		transcript: c.transcript,
	}
}

// Len reports the number of indexed fragments.
func (c *Client) Len() int {
	return c.pipeline.Index().Len()
}

// Close releases the transcript database, if any.
func (c *Client) Close() error {
	if c.transcript == nil {
		return nil
	}
	return c.transcript.Close()
}

type Conversation struct {
	session    *internal.Session
	transcript *internal.Transcript
}

func (c *Conversation) ID() string {
	return c.session.ID()
}

func (c *Conversation) Ask(ctx context.Context, question string) (*Answer, error) {
	reply, err := c.session.Ask(ctx, question)
	if err != nil {
		return nil, err
	}
	if c.transcript != nil {
		if err := c.transcript.Record(ctx, c.session.ID(), reply.Turn); err != nil {
			return nil, err
		}
	}
	return &Answer{
		Text:    reply.Turn.Answer,
		Sources: toResults(reply.Results),
		At:      reply.Turn.At,
	}, nil
}

// History returns the turns so far, oldest first.
func (c *Conversation) History() []Turn {
	turns := c.session.History()
	out := make([]Turn, len(turns))
	for i, t := range turns {
		sources := make([]string, len(t.Sources))
		for j, id := range t.Sources {
			sources[j] = id.String()
		}
		out[i] = Turn{Question: t.Question, Answer: t.Answer, Sources: sources, At: t.At}
	}
	return out
}

func toResults(results []internal.SearchResult) []SearchResult {
	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			ID:      r.Fragment.ID.String(),
			Source:  r.Fragment.Source,
			Score:   r.Score,
			Content: r.Fragment.Content,
		}
	}
	return out
}
