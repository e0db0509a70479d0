package internal

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var indexBackends = []struct {
	name string
	new  func(t *testing.T) VectorIndex
}{
	{"flat", func(t *testing.T) VectorIndex { return NewFlatIndex() }},
	{"annoy", func(t *testing.T) VectorIndex {
		idx, err := NewAnnoyIndex(DefaultNumTrees)
		require.NoError(t, err)
		return idx
	}},
}

func frag(id string) Fragment {
	return Fragment{ID: FragmentID(id), Source: "test", Content: id}
}

func ids(results []SearchResult) []FragmentID {
	out := make([]FragmentID, len(results))
	for i, r := range results {
		out[i] = r.Fragment.ID
	}
	return out
}

func forEachBackend(t *testing.T, fn func(t *testing.T, idx VectorIndex)) {
	for _, b := range indexBackends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.new(t))
		})
	}
}

func TestIndexRankingScenario(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		require.NoError(t, idx.Insert(frag("a"), Vector{1, 0}))
		require.NoError(t, idx.Insert(frag("b"), Vector{0, 1}))
		require.NoError(t, idx.Insert(frag("c"), Vector{0.9, 0.1}))

		results, err := idx.Query(Vector{1, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, []FragmentID{"a", "c"}, ids(results))
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		assert.Greater(t, results[0].Score, results[1].Score)
	})
}

func TestIndexSelfSimilarity(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		vecs := []Vector{{0.3, -1.2, 4}, {1, 1, 1}, {-2, 0.5, 0.25}}
		for i, v := range vecs {
			require.NoError(t, idx.Insert(frag(fmt.Sprintf("f%d", i)), v))
		}

		for i, v := range vecs {
			results, err := idx.Query(v, 1)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, FragmentID(fmt.Sprintf("f%d", i)), results[0].Fragment.ID)
			assert.Equal(t, 1.0, results[0].Score)
		}
	})
}

func TestIndexDuplicateLeavesStateUnchanged(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		require.NoError(t, idx.Insert(frag("x"), Vector{1, 0}))

		err := idx.Insert(frag("x"), Vector{0, 1})
		require.ErrorIs(t, err, ErrDuplicateID)
		assert.Contains(t, err.Error(), "x")
		assert.Equal(t, 1, idx.Len())

		results, err := idx.Query(Vector{1, 0}, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	})
}

func TestIndexEmptyQuery(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		results, err := idx.Query(Vector{1, 2, 3}, 5)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
		assert.Equal(t, 0, idx.Dimension())
	})
}

func TestIndexInvalidK(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		for _, k := range []int{0, -3} {
			_, err := idx.Query(Vector{1, 0}, k)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		}

		require.NoError(t, idx.Insert(frag("a"), Vector{1, 0}))
		// k is checked before the dimension.
		_, err := idx.Query(Vector{1, 0, 0}, 0)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestIndexDimensionMismatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		require.NoError(t, idx.Insert(frag("a"), Vector{1, 0}))

		err := idx.Insert(frag("b"), Vector{1, 0, 0})
		require.ErrorIs(t, err, ErrDimensionMismatch)
		assert.Contains(t, err.Error(), "2")
		assert.Contains(t, err.Error(), "3")
		assert.False(t, idx.Contains("b"))

		_, err = idx.Query(Vector{1, 0, 0}, 1)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
		assert.Equal(t, 2, idx.Dimension())
	})
}

func TestIndexRejectsInvalidVectors(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		for _, v := range []Vector{nil, {}, {nan, 1}, {1, inf}} {
			err := idx.Insert(frag("bad"), v)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		}
		assert.Equal(t, 0, idx.Len())
		assert.Equal(t, 0, idx.Dimension())
	})
}

func TestIndexZeroVectorScoresZero(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		require.NoError(t, idx.Insert(frag("zero"), Vector{0, 0}))
		require.NoError(t, idx.Insert(frag("one"), Vector{1, 0}))

		results, err := idx.Query(Vector{1, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, []FragmentID{"one", "zero"}, ids(results))
		assert.Equal(t, 0.0, results[1].Score)

		results, err = idx.Query(Vector{0, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, 0.0, results[0].Score)
	})
}

func TestIndexTiesFollowInsertionOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		for _, id := range []string{"first", "second", "third"} {
			require.NoError(t, idx.Insert(frag(id), Vector{2, 2}))
		}

		results, err := idx.Query(Vector{1, 1}, 10)
		require.NoError(t, err)
		assert.Equal(t, []FragmentID{"first", "second", "third"}, ids(results))
	})
}

func TestIndexCopiesVectors(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		v := Vector{1, 0}
		require.NoError(t, idx.Insert(frag("a"), v))
		v[0], v[1] = 0, 1

		results, err := idx.Query(Vector{1, 0}, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	})
}

func TestIndexConcurrentSameID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		const n = 32
		var ok, dup atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := idx.Insert(frag("same"), Vector{1, float32(i)})
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, ErrDuplicateID):
					dup.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), ok.Load())
		assert.Equal(t, int32(n-1), dup.Load())
		assert.Equal(t, 1, idx.Len())
	})
}

func TestIndexConcurrentInsertAndQuery(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		require.NoError(t, idx.Insert(frag("seed"), Vector{1, 0, 0}))

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				assert.NoError(t, idx.Insert(frag(fmt.Sprintf("f%d", i)), Vector{float32(i), 1, 0}))
			}()
			go func() {
				defer wg.Done()
				results, err := idx.Query(Vector{1, 0, 0}, 3)
				assert.NoError(t, err)
				assert.NotEmpty(t, results)
			}()
		}
		wg.Wait()

		assert.Equal(t, 51, idx.Len())
		for i := 0; i < 50; i++ {
			assert.True(t, idx.Contains(FragmentID(fmt.Sprintf("f%d", i))))
		}
	})
}

func TestIndexExactMatchBeatsScaledCopy(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for _, b := range indexBackends {
		t.Run(b.name, func(t *testing.T) {
			for i := 0; i < 500; i++ {
				v := randomVector(r, 8)
				scaled := make(Vector, len(v))
				for j, x := range v {
					scaled[j] = 3 * x
				}

				idx := b.new(t)
				require.NoError(t, idx.Insert(frag("self"), v))
				require.NoError(t, idx.Insert(frag("scaled"), scaled))

				results, err := idx.Query(v, 1)
				require.NoError(t, err)
				require.Equal(t, FragmentID("self"), results[0].Fragment.ID, "vector %v", v)
				require.Equal(t, 1.0, results[0].Score)
			}
		})
	}
}

func TestIndexRejectsInvalidQuery(t *testing.T) {
	forEachBackend(t, func(t *testing.T, idx VectorIndex) {
		require.NoError(t, idx.Insert(frag("a"), Vector{1, 0}))

		for _, q := range []Vector{
			{},
			{float32(math.NaN()), 0},
			{float32(math.Inf(1)), 0},
		} {
			results, err := idx.Query(q, 1)
			assert.ErrorIs(t, err, ErrInvalidArgument, "query %v", q)
			assert.Nil(t, results)
		}
	})
}

func TestCosineSimilarityExactAndBounded(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 10000; i++ {
		a, b := randomVector(r, 8), randomVector(r, 8)
		require.Equal(t, 1.0, CosineSimilarity(a, a), "vector %v", a)

		s := CosineSimilarity(a, b)
		require.GreaterOrEqual(t, s, -1.0)
		require.LessOrEqual(t, s, 1.0)
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity(Vector{1, 2}, Vector{2, 4}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity(Vector{1, 0}, Vector{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity(Vector{0, 0}, Vector{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity(Vector{1}, Vector{1, 0}))
}

func TestNewVectorIndex(t *testing.T) {
	idx, err := NewVectorIndex(RetrievalConfig{Backend: BackendFlat})
	require.NoError(t, err)
	assert.IsType(t, &FlatIndex{}, idx)

	idx, err = NewVectorIndex(RetrievalConfig{Backend: BackendAnnoy, Trees: 4})
	require.NoError(t, err)
	assert.IsType(t, &AnnoyIndex{}, idx)

	_, err = NewVectorIndex(RetrievalConfig{Backend: BackendAnnoy})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewVectorIndex(RetrievalConfig{Backend: "faiss"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
