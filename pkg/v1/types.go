package v1

import (
	"errors"
	"time"

	"github.com/4thel00z/docrag/internal"
)

type (
	// Embedder turns text into vectors of a fixed dimension.
	Embedder = internal.Embedder
	// Generator completes prompts with a language model.
	Generator = internal.Generator
	Vector    = internal.Vector
)

var (
	ErrInvalidConfig     = internal.ErrInvalidConfig
	ErrInvalidArgument   = internal.ErrInvalidArgument
	ErrDimensionMismatch = internal.ErrDimensionMismatch
	ErrDuplicateID       = internal.ErrDuplicateID
	ErrUnsupportedSource = internal.ErrUnsupportedSource
	ErrExtraction        = internal.ErrExtraction
	ErrEmbedding         = internal.ErrEmbedding
	ErrGeneration        = internal.ErrGeneration
	ErrNoGenerator       = internal.ErrNoGenerator

	ErrNoTranscript = errors.New("client has no transcript")
)

// SearchResult is a fragment ranked by cosine similarity to a query.
type SearchResult struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

// IngestReport summarizes one Ingest call.
type IngestReport struct {
	Documents map[string]int    `json:"documents"` // source id -> fragments
	Skipped   map[string]string `json:"skipped,omitempty"`
	Fragments int               `json:"fragments"`
	Total     int               `json:"total"`
}

// Answer is the model's reply together with the fragments it was shown.
type Answer struct {
	Text    string         `json:"text"`
	Sources []SearchResult `json:"sources"`
	At      time.Time      `json:"at"`
}

// Turn is one question and answer of a Conversation.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Sources  []string  `json:"sources"` // fragment ids
	At       time.Time `json:"at"`
}
