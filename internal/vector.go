package internal

import (
	"cmp"
	"fmt"
	"math"
)

// Vector is an embedding produced by an Embedder.
type Vector []float32

func (v Vector) Dim() int {
	return len(v)
}

func (v Vector) Norm() float64 {
	return math.Sqrt(v.sqNorm())
}

func (v Vector) sqNorm() float64 {
	return dot(v, v)
}

func (v Vector) validate() error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", ErrInvalidArgument)
	}
	for i, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return fmt.Errorf("%w: non-finite component at %d", ErrInvalidArgument, i)
		}
	}
	return nil
}

type SearchResult struct {
	Fragment Fragment `json:"fragment"`
	Score    float64  `json:"score"` // cosine similarity, higher is better
}

// VectorIndex maps fragment ids to vectors and answers top-k cosine
// queries. Implementations are safe for concurrent use, reject duplicate
// ids and rank ties by insertion order.
type VectorIndex interface {
	Insert(frag Fragment, vec Vector) error
	Query(vec Vector, k int) ([]SearchResult, error)
	Contains(id FragmentID) bool
	Len() int
	Dimension() int
}

// CosineSimilarity returns 0 when either vector has zero magnitude. A
// vector compared with itself scores exactly 1.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) {
		return 0
	}
	return cosine(a, b, a.sqNorm(), b.sqNorm())
}

// cosine takes squared norms so a vector scores exactly 1 against itself.
// The result is clamped to [-1, 1].
func cosine(a, b Vector, sqa, sqb float64) float64 {
	if sqa == 0 || sqb == 0 {
		return 0
	}
	return max(-1, min(1, dot(a, b)/math.Sqrt(sqa*sqb)))
}

func dot(a, b Vector) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// ranked pairs a result with its insertion sequence for tie-breaking.
type ranked struct {
	result SearchResult
	seq    uint64
}

func compareRanked(a, b ranked) int {
	if c := cmp.Compare(b.result.Score, a.result.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

func checkK(k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, k)
	}
	return nil
}
