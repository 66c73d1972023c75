package models

import "sync"

// PairRepository owns the ordered pair list of a review session and its cursor.
// Index is -1 whenever the list is empty.
type PairRepository struct {
	mu    sync.RWMutex
	pairs []Pair
	index int
}

// NewPairRepository creates an empty repository
func NewPairRepository() *PairRepository {
	return &PairRepository{index: -1}
}

// Replace swaps in a new pair list and moves the cursor to the first pair
func (r *PairRepository) Replace(pairs []Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pairs = append([]Pair(nil), pairs...)
	if len(r.pairs) > 0 {
		r.index = 0
	} else {
		r.index = -1
	}
}

// Pairs returns a copy of the pair list
func (r *PairRepository) Pairs() []Pair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Pair(nil), r.pairs...)
}

// Len returns the number of pairs
func (r *PairRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pairs)
}

// Index returns the cursor position
func (r *PairRepository) Index() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index
}

// Current returns the pair under the cursor
func (r *PairRepository) Current() (Pair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.index < 0 || r.index >= len(r.pairs) {
		return Pair{}, false
	}
	return r.pairs[r.index], true
}

// SetIndex moves the cursor; out-of-range values are rejected
func (r *PairRepository) SetIndex(i int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i < 0 || i >= len(r.pairs) || i == r.index {
		return false
	}
	r.index = i
	return true
}

// Find returns the position of p, or -1
func (r *PairRepository) Find(p Pair) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, q := range r.pairs {
		if q.Original.Path == p.Original.Path && q.Segmentation.Path == p.Segmentation.Path {
			return i
		}
	}
	return -1
}

// RemoveCurrent drops the pair under the cursor. The cursor stays on the
// following pair, or the new last pair when the removed one was last.
func (r *PairRepository) RemoveCurrent() (Pair, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index < 0 || r.index >= len(r.pairs) {
		return Pair{}, false
	}

	removed := r.pairs[r.index]
	r.pairs = append(r.pairs[:r.index], r.pairs[r.index+1:]...)
	switch {
	case len(r.pairs) == 0:
		r.index = -1
	case r.index >= len(r.pairs):
		r.index = len(r.pairs) - 1
	}
	return removed, true
}
