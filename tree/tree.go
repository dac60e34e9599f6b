// Package tree implements the per-tree leaf container: a sorted slice of
// quadrants plus the per-level histogram and descendant caches the
// completion, balance and partition engines all read. A Tree never
// communicates across ranks itself - that is the Forest's and the
// partition engine's job - it only maintains the local invariants of a
// single tree's leaf set: leaves kept in Compare order and per-level counts
// kept current. Overlap removal is Linearize's job, and coverage of the
// tree is not checked here.
package tree

import (
	"errors"
	"sort"

	"github.com/katalvlaran/forest/internal/assert"
	"github.com/katalvlaran/forest/quadrant"
)

// Sentinel errors for Tree operations.
var (
	// ErrEmptyTree indicates an operation that requires at least one leaf
	// was called on a Tree with none.
	ErrEmptyTree = errors.New("tree: tree has no leaves")

	// ErrWrongTree indicates a quadrant tagged with a different WhichTree
	// was inserted into this Tree.
	ErrWrongTree = errors.New("tree: quadrant belongs to a different tree")

	// ErrNotSorted indicates a caller-supplied leaf slice was not in
	// Compare order, violating the Tree's core invariant.
	ErrNotSorted = errors.New("tree: leaves are not sorted")
)

// Tree holds one tree's sorted leaf set and derived bookkeeping.
type Tree struct {
	which    int32
	leaves   []quadrant.Quadrant
	perLevel [quadrant.MaxLevel + 2]int64
	maxLevel uint8

	// QuadrantsOffset is the count of quadrants in all trees preceding this
	// one in the Forest's global, rank-local numbering. The Forest
	// maintains this; Tree just stores it.
	QuadrantsOffset int64
}

// New creates an empty Tree for tree index which.
func New(which int32) *Tree {
	return &Tree{which: which}
}

// WhichTree returns this Tree's index within its owning Forest.
func (t *Tree) WhichTree() int32 {
	return t.which
}

// Leaves returns the tree's leaves in sorted (Compare) order. The returned
// slice is owned by Tree; callers must not mutate it in place.
func (t *Tree) Leaves() []quadrant.Quadrant {
	return t.leaves
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.leaves)
}

// MaxLevel returns the deepest refinement level among the tree's leaves.
func (t *Tree) MaxLevel() uint8 {
	return t.maxLevel
}

// PerLevel returns the number of leaves at the given level.
func (t *Tree) PerLevel(level uint8) int64 {
	return t.perLevel[level]
}

// First returns the tree's first (smallest, Compare order) leaf.
func (t *Tree) First() (quadrant.Quadrant, error) {
	if len(t.leaves) == 0 {
		return quadrant.Quadrant{}, ErrEmptyTree
	}

	return t.leaves[0], nil
}

// Last returns the tree's last (largest, Compare order) leaf.
func (t *Tree) Last() (quadrant.Quadrant, error) {
	if len(t.leaves) == 0 {
		return quadrant.Quadrant{}, ErrEmptyTree
	}

	return t.leaves[len(t.leaves)-1], nil
}

// FirstDescendant returns the first descendant (at quadrant.MaxLevel) of the
// tree's first leaf - the smallest point the tree covers.
func (t *Tree) FirstDescendant() (quadrant.Quadrant, error) {
	first, err := t.First()
	if err != nil {
		return quadrant.Quadrant{}, err
	}

	return quadrant.FirstDescendant(first, quadrant.MaxLevel), nil
}

// LastDescendant returns the last descendant (at quadrant.MaxLevel) of the
// tree's last leaf - the largest point the tree covers.
func (t *Tree) LastDescendant() (quadrant.Quadrant, error) {
	last, err := t.Last()
	if err != nil {
		return quadrant.Quadrant{}, err
	}

	return quadrant.LastDescendant(last, quadrant.MaxLevel), nil
}

// SetLeaves replaces the tree's leaf set wholesale. leaves must already be
// sorted (Compare order) and free of duplicates/overlaps; use Linearize
// first if that is not guaranteed. Every quadrant's WhichTree must match t.
func (t *Tree) SetLeaves(leaves []quadrant.Quadrant) error {
	for i, q := range leaves {
		if q.WhichTree != t.which {
			return ErrWrongTree
		}
		if i > 0 && quadrant.Compare(leaves[i-1], q) >= 0 {
			return ErrNotSorted
		}
	}
	t.leaves = leaves
	t.recompute()

	return nil
}

// Insert adds q to the tree's sorted leaf set in the correct position.
// Insert does not itself deduplicate against ancestors/descendants; call
// Linearize afterward if that invariant must hold.
func (t *Tree) Insert(q quadrant.Quadrant) error {
	if q.WhichTree != t.which {
		return ErrWrongTree
	}
	idx := sort.Search(len(t.leaves), func(i int) bool {
		return quadrant.Compare(t.leaves[i], q) >= 0
	})
	t.leaves = append(t.leaves, quadrant.Quadrant{})
	copy(t.leaves[idx+1:], t.leaves[idx:])
	t.leaves[idx] = q
	t.recompute()

	return nil
}

// Linearize sorts leaves and removes any quadrant that is an ancestor or
// exact duplicate of another, keeping only the finest quadrant at each
// covered point - the same "remove overlaps, keep finest" pass the
// completion and balance engines run after merging candidate sets.
func Linearize(leaves []quadrant.Quadrant) []quadrant.Quadrant {
	if len(leaves) == 0 {
		return leaves
	}
	sorted := append([]quadrant.Quadrant(nil), leaves...)
	sort.Slice(sorted, func(i, j int) bool { return quadrant.Compare(sorted[i], sorted[j]) < 0 })

	out := make([]quadrant.Quadrant, 0, len(sorted))
	for _, q := range sorted {
		duplicate := false
		for len(out) > 0 {
			last := out[len(out)-1]
			if last.Equal(q) {
				duplicate = true

				break
			}
			if quadrant.IsAncestor(last, q) {
				// last is coarser than q; q is the finer quadrant at this
				// covered point, so last is superseded and dropped.
				out = out[:len(out)-1]

				continue
			}
			assert.Invariant(!quadrant.IsAncestor(q, last), "tree: linearize encountered out-of-order ancestor")

			break
		}
		if duplicate {
			continue
		}
		out = append(out, q)
	}

	return out
}

// RemoveNonOwned trims leaves to the closed Morton range [firstMorton,
// lastMorton], dropping any leaf whose first descendant falls outside it.
// The partition engine does not call it; it rebuilds trees from the
// received quadrants instead.
func RemoveNonOwned(leaves []quadrant.Quadrant, firstMorton, lastMorton uint64) []quadrant.Quadrant {
	out := leaves[:0:0]
	for _, q := range leaves {
		fd := quadrant.FirstDescendantMorton(q)
		if fd >= firstMorton && fd <= lastMorton {
			out = append(out, q)
		}
	}

	return out
}

func (t *Tree) recompute() {
	for i := range t.perLevel {
		t.perLevel[i] = 0
	}
	t.maxLevel = 0
	for _, q := range t.leaves {
		t.perLevel[q.Level]++
		if q.Level > t.maxLevel {
			t.maxLevel = q.Level
		}
	}
}
