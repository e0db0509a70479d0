package internal

import (
	"fmt"
	"slices"
	"sync"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

const (
	DefaultNumTrees = 10
	annoyOverfetch  = 4
)

var _ VectorIndex = (*AnnoyIndex)(nil)

// AnnoyIndex keeps the FlatIndex contract but narrows each query to the
// candidates of an angular annoy forest before exact rescoring. The forest
// is rebuilt on the first query after an insert.
type AnnoyIndex struct {
	mu        sync.RWMutex
	entries   []flatEntry
	ids       map[FragmentID]int
	dimension int
	numTrees  int
	forest    *annoyForest
}

// annoyForest covers entries[:size]; item ids are entry positions.
type annoyForest struct {
	idx  interfaces.AnnoyIndex[float32, uint32]
	size int
}

func NewAnnoyIndex(numTrees int) (*AnnoyIndex, error) {
	if numTrees <= 0 {
		return nil, fmt.Errorf("%w: annoy trees must be positive, got %d", ErrInvalidConfig, numTrees)
	}
	return &AnnoyIndex{
		ids:      make(map[FragmentID]int),
		numTrees: numTrees,
	}, nil
}

func (a *AnnoyIndex) Insert(frag Fragment, vec Vector) error {
	if err := vec.validate(); err != nil {
		return fmt.Errorf("insert %s: %w", frag.ID, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dimension != 0 && len(vec) != a.dimension {
		return fmt.Errorf("insert %s: %w: index has %d, got %d", frag.ID, ErrDimensionMismatch, a.dimension, len(vec))
	}
	if _, exists := a.ids[frag.ID]; exists {
		return fmt.Errorf("insert %s: %w", frag.ID, ErrDuplicateID)
	}

	own := slices.Clone(vec)
	a.ids[frag.ID] = len(a.entries)
	a.entries = append(a.entries, flatEntry{frag: frag, vec: own, sqNorm: own.sqNorm()})
	a.dimension = len(vec)

	return nil
}

func (a *AnnoyIndex) Query(vec Vector, k int) ([]SearchResult, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if err := vec.validate(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	a.mu.RLock()
	for a.needsForest(k) {
		a.mu.RUnlock()
		a.build()
		a.mu.RLock()
	}
	defer a.mu.RUnlock()

	if len(a.entries) == 0 {
		return []SearchResult{}, nil
	}
	if len(vec) != a.dimension {
		return nil, fmt.Errorf("query: %w: index has %d, got %d", ErrDimensionMismatch, a.dimension, len(vec))
	}

	candidates := a.candidates(vec, k)
	qn := vec.sqNorm()
	scored := make([]ranked, len(candidates))
	for i, pos := range candidates {
		e := a.entries[pos]
		scored[i] = ranked{
			result: SearchResult{Fragment: e.frag, Score: cosine(vec, e.vec, qn, e.sqNorm)},
			seq:    uint64(pos),
		}
	}
	slices.SortFunc(scored, compareRanked)

	if k > len(scored) {
		k = len(scored)
	}
	results := make([]SearchResult, k)
	for i := range results {
		results[i] = scored[i].result
	}
	return results, nil
}

// needsForest reports whether the forest is stale for a query that would
// actually consult it. Callers hold the read lock.
func (a *AnnoyIndex) needsForest(k int) bool {
	if len(a.entries) <= k*annoyOverfetch {
		return false
	}
	return a.forest == nil || a.forest.size != len(a.entries)
}

func (a *AnnoyIndex) build() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.forest != nil && a.forest.size == len(a.entries) {
		return
	}

	idx := builder.Index[float32, uint32]().
		AngularDistance(a.dimension).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()

	for pos, e := range a.entries {
		idx.AddItem(uint32(pos), e.vec)
	}
	idx.Build(a.numTrees, -1)

	a.forest = &annoyForest{idx: idx, size: len(a.entries)}
}

// candidates returns entry positions to rescore. Small indexes are scanned
// exhaustively.
func (a *AnnoyIndex) candidates(vec Vector, k int) []int {
	n := k * annoyOverfetch
	if len(a.entries) <= n {
		all := make([]int, len(a.entries))
		for i := range all {
			all[i] = i
		}
		return all
	}

	searchCtx := a.forest.idx.CreateContext()
	ids, _ := a.forest.idx.GetNnsByVector(vec, n, -1, searchCtx)

	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if int(id) < a.forest.size {
			out = append(out, int(id))
		}
	}
	return out
}

func (a *AnnoyIndex) Contains(id FragmentID) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, exists := a.ids[id]
	return exists
}

func (a *AnnoyIndex) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.entries)
}

func (a *AnnoyIndex) Dimension() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.dimension
}

// NewVectorIndex builds the index named by the retrieval backend.
func NewVectorIndex(cfg RetrievalConfig) (VectorIndex, error) {
	switch cfg.Backend {
	case "", BackendFlat:
		return NewFlatIndex(), nil
	case BackendAnnoy:
		return NewAnnoyIndex(cfg.Trees)
	default:
		return nil, fmt.Errorf("%w: unknown retrieval backend %q", ErrInvalidConfig, cfg.Backend)
	}
}
