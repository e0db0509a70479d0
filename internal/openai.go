package internal

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultEmbeddingModel     = string(openai.AdaEmbeddingV2)
	DefaultEmbeddingDimension = 1536
	DefaultEmbeddingBatchSize = 64
)

var _ Embedder = (*OpenAIEmbedder)(nil)

type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
	BatchSize int
}

// OpenAIEmbedder calls the embeddings endpoint of OpenAI or any
// compatible server.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dim       int
	batchSize int
}

func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: embeddings api key not set (OPENAI_API_KEY)", ErrInvalidConfig)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	dim := cfg.Dimension
	if dim == 0 {
		dim = DefaultEmbeddingDimension
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultEmbeddingBatchSize
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		dim:       dim,
		batchSize: batch,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends texts in batches of batchSize and returns vectors in
// input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: text %d is empty", ErrEmbedding, i)
		}
	}

	out := make([]Vector, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: texts[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbedding, end-start, len(resp.Data))
		}

		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= end-start {
				return nil, fmt.Errorf("%w: embedding index %d out of range", ErrEmbedding, d.Index)
			}
			if len(d.Embedding) != e.dim {
				return nil, fmt.Errorf("%w: %w: model %s returned %d, configured %d",
					ErrEmbedding, ErrDimensionMismatch, e.model, len(d.Embedding), e.dim)
			}
			out[start+d.Index] = Vector(d.Embedding)
		}
	}

	return out, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

func (e *OpenAIEmbedder) Model() string {
	return "openai-" + e.model
}
