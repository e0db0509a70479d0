package internal

import (
	"fmt"
	"slices"
	"sync"
)

var _ VectorIndex = (*FlatIndex)(nil)

// FlatIndex is a brute-force index: every query scans all entries.
type FlatIndex struct {
	mu        sync.RWMutex
	entries   []flatEntry
	ids       map[FragmentID]int
	dimension int
}

type flatEntry struct {
	frag   Fragment
	vec    Vector
	sqNorm float64
}

func NewFlatIndex() *FlatIndex {
	return &FlatIndex{
		ids: make(map[FragmentID]int),
	}
}

func (f *FlatIndex) Insert(frag Fragment, vec Vector) error {
	if err := vec.validate(); err != nil {
		return fmt.Errorf("insert %s: %w", frag.ID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dimension != 0 && len(vec) != f.dimension {
		return fmt.Errorf("insert %s: %w: index has %d, got %d", frag.ID, ErrDimensionMismatch, f.dimension, len(vec))
	}
	if _, exists := f.ids[frag.ID]; exists {
		return fmt.Errorf("insert %s: %w", frag.ID, ErrDuplicateID)
	}

	own := slices.Clone(vec)
	f.ids[frag.ID] = len(f.entries)
	f.entries = append(f.entries, flatEntry{frag: frag, vec: own, sqNorm: own.sqNorm()})
	f.dimension = len(vec)

	return nil
}

func (f *FlatIndex) Query(vec Vector, k int) ([]SearchResult, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if err := vec.validate(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.entries) == 0 {
		return []SearchResult{}, nil
	}
	if len(vec) != f.dimension {
		return nil, fmt.Errorf("query: %w: index has %d, got %d", ErrDimensionMismatch, f.dimension, len(vec))
	}

	qn := vec.sqNorm()
	scored := make([]ranked, len(f.entries))
	for i, e := range f.entries {
		scored[i] = ranked{
			result: SearchResult{Fragment: e.frag, Score: cosine(vec, e.vec, qn, e.sqNorm)},
			seq:    uint64(i),
		}
	}
	slices.SortStableFunc(scored, compareRanked)

	if k > len(scored) {
		k = len(scored)
	}
	results := make([]SearchResult, k)
	for i := range results {
		results[i] = scored[i].result
	}
	return results, nil
}

func (f *FlatIndex) Contains(id FragmentID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, exists := f.ids[id]
	return exists
}

func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.entries)
}

func (f *FlatIndex) Dimension() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.dimension
}
