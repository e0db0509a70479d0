package internal

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

const DefaultHashDimension = 256

var _ Embedder = (*HashEmbedder)(nil)

// HashEmbedder is a deterministic bag-of-words embedder. It needs no
// network access and is meant for offline runs and tests.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dimension int) (*HashEmbedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: hash embedder dimension must be positive, got %d", ErrInvalidConfig, dimension)
	}
	return &HashEmbedder{dim: dimension}, nil
}

func (e *HashEmbedder) Embed(_ context.Context, text string) (Vector, error) {
	vec := make(Vector, e.dim)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()

		sign := float32(1)
		if sum>>63 == 1 {
			sign = -1
		}
		vec[sum%uint64(e.dim)] += sign
	}

	return l2Normalize(vec), nil
}

func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	out := make([]Vector, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (e *HashEmbedder) Dimension() int {
	return e.dim
}

func (e *HashEmbedder) Model() string {
	return fmt.Sprintf("hash-%d", e.dim)
}

func l2Normalize(vec Vector) Vector {
	norm := vec.Norm()
	if norm == 0 {
		return vec
	}

	result := make(Vector, len(vec))
	for i, v := range vec {
		result[i] = float32(float64(v) / norm)
	}
	return result
}
