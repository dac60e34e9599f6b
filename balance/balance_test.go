package balance_test

import (
	"sort"
	"testing"

	"github.com/katalvlaran/forest/balance"
	"github.com/katalvlaran/forest/pool"
	"github.com/katalvlaran/forest/quadrant"
	"github.com/katalvlaran/forest/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLeaves inserts qs into a fresh tree.Tree and linearizes them.
func buildLeaves(t *testing.T, qs ...quadrant.Quadrant) *tree.Tree {
	t.Helper()
	tr := tree.New(0)
	require.NoError(t, tr.SetLeaves(tree.Linearize(qs)))

	return tr
}

// maxLevelDiff returns the worst (level difference) found between any two
// leaves whose cells touch across a face or corner, -1 if there are fewer
// than two leaves. A balanced tree has maxLevelDiff <= 1.
func maxLevelDiff(leaves []quadrant.Quadrant) int {
	sorted := append([]quadrant.Quadrant(nil), leaves...)
	sort.Slice(sorted, func(i, j int) bool { return quadrant.Compare(sorted[i], sorted[j]) < 0 })

	worst := -1
	for _, q := range sorted {
		candidates := make([]quadrant.Quadrant, 0, 8)
		for f := uint8(0); f < quadrant.NumFaces2D; f++ {
			candidates = append(candidates, quadrant.ShiftFace(q, f))
		}
		for c := uint8(0); c < quadrant.NumCorners2D; c++ {
			candidates = append(candidates, quadrant.ShiftCorner(q, c))
		}
		for _, cand := range candidates {
			if cand.X < 0 || cand.Y < 0 || cand.X >= quadrant.RootLen || cand.Y >= quadrant.RootLen {
				continue
			}
			m := quadrant.FirstDescendantMorton(cand)
			idx := sort.Search(len(sorted), func(i int) bool {
				return quadrant.LastDescendantMorton(sorted[i]) >= m
			})
			if idx >= len(sorted) || quadrant.FirstDescendantMorton(sorted[idx]) > m {
				continue
			}
			diff := int(q.Level) - int(sorted[idx].Level)
			if diff < 0 {
				diff = -diff
			}
			if diff > worst {
				worst = diff
			}
		}
	}

	return worst
}

func TestTreeAlreadyBalancedIsNoOp(t *testing.T) {
	root := quadrant.New(0, 0, 0)
	tr := buildLeaves(t, quadrant.Children(root)[:]...)

	require.NoError(t, balance.Tree(tr, &balance.Options{Mode: balance.ModeFull}))
	assert.Len(t, tr.Leaves(), 4)
}

func TestTreeEnforcesFullBalance(t *testing.T) {
	root := quadrant.New(0, 0, 0)
	k := quadrant.Children(root) // level 1: K0..K3

	// Refine K0 into level2, then refine K0's (+x) child fully to level3.
	k0children := quadrant.Children(k[0])
	k0plusX := k0children[1]
	k0plusXChildren := quadrant.Children(k0plusX)

	leaves := []quadrant.Quadrant{
		k0children[0], k0children[2], k0children[3], // K0's other level-2 children
		k[1], k[2], k[3], // K1, K2, K3 unrefined at level 1
	}
	leaves = append(leaves, k0plusXChildren[:]...) // level 3, touching K1 at level 1

	tr := buildLeaves(t, leaves...)
	require.Greater(t, maxLevelDiff(tr.Leaves()), 1, "fixture must start out-of-balance")

	require.NoError(t, balance.Tree(tr, &balance.Options{Mode: balance.ModeFull}))
	assert.LessOrEqual(t, maxLevelDiff(tr.Leaves()), 1)

	// Balance only ever refines, it never coarsens past what was already there.
	assert.GreaterOrEqual(t, len(tr.Leaves()), len(leaves))
}

func TestTreeFaceOnlyModeIsCheaperThanFull(t *testing.T) {
	root := quadrant.New(0, 0, 0)
	k := quadrant.Children(root)
	k0children := quadrant.Children(k[0])
	k0plusXChildren := quadrant.Children(k0children[1])

	base := []quadrant.Quadrant{k0children[0], k0children[2], k0children[3], k[1], k[2], k[3]}
	base = append(base, k0plusXChildren[:]...)

	face := buildLeaves(t, append([]quadrant.Quadrant(nil), base...)...)
	require.NoError(t, balance.Tree(face, &balance.Options{Mode: balance.ModeFace}))

	full := buildLeaves(t, append([]quadrant.Quadrant(nil), base...)...)
	require.NoError(t, balance.Tree(full, &balance.Options{Mode: balance.ModeFull}))

	assert.LessOrEqual(t, len(face.Leaves()), len(full.Leaves()))
}

// TestTreeAllocatesPayloadForRefinedChildren checks that every leaf in the
// converged tree carries a pool handle whose initFn-written byte identifies
// its own level, and that no handle leaks: Pool.LiveCount matches the final
// leaf count when every initial leaf already had one.
func TestTreeAllocatesPayloadForRefinedChildren(t *testing.T) {
	root := quadrant.New(0, 0, 0)
	k := quadrant.Children(root)
	k0children := quadrant.Children(k[0])
	k0plusXChildren := quadrant.Children(k0children[1])

	p := pool.New(1)
	leaves := []quadrant.Quadrant{k0children[0], k0children[2], k0children[3], k[1], k[2], k[3]}
	leaves = append(leaves, k0plusXChildren[:]...)
	for i := range leaves {
		h := p.Alloc()
		require.NoError(t, p.Set(h, []byte{leaves[i].Level}))
		leaves[i].Payload = int64(h)
	}
	tr := buildLeaves(t, leaves...)

	initFn := func(p *pool.Pool, q *quadrant.Quadrant) error {
		return p.Set(pool.Handle(q.Payload), []byte{q.Level})
	}
	opts := &balance.Options{Mode: balance.ModeFull, Pool: p, InitFn: initFn}
	require.NoError(t, balance.Tree(tr, opts))

	final := tr.Leaves()
	assert.Equal(t, p.LiveCount(), len(final))
	for _, q := range final {
		got, err := p.Get(pool.Handle(q.Payload))
		require.NoError(t, err)
		assert.Equal(t, []byte{q.Level}, got)
	}
}
