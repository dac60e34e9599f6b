package tree_test

import (
	"testing"

	"github.com/katalvlaran/forest/quadrant"
	"github.com/katalvlaran/forest/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootOf(which int32) quadrant.Quadrant {
	q := quadrant.New(0, 0, 0)
	q.WhichTree = which

	return q
}

func TestInsertMaintainsSortedOrder(t *testing.T) {
	tr := tree.New(0)
	root := rootOf(0)
	kids := quadrant.Children(root)
	for _, k := range []int{3, 1, 0, 2} {
		require.NoError(t, tr.Insert(kids[k]))
	}

	leaves := tr.Leaves()
	require.Len(t, leaves, 4)
	for i := 1; i < len(leaves); i++ {
		assert.Less(t, quadrant.Compare(leaves[i-1], leaves[i]), 0)
	}
}

func TestInsertRejectsWrongTree(t *testing.T) {
	tr := tree.New(0)
	foreign := rootOf(1)
	assert.ErrorIs(t, tr.Insert(foreign), tree.ErrWrongTree)
}

func TestFirstLastOnEmptyTree(t *testing.T) {
	tr := tree.New(0)
	_, err := tr.First()
	assert.ErrorIs(t, err, tree.ErrEmptyTree)
	_, err = tr.Last()
	assert.ErrorIs(t, err, tree.ErrEmptyTree)
}

func TestPerLevelHistogram(t *testing.T) {
	tr := tree.New(0)
	root := rootOf(0)
	for _, k := range quadrant.Children(root) {
		require.NoError(t, tr.Insert(k))
	}
	assert.Equal(t, int64(4), tr.PerLevel(1))
	assert.Equal(t, uint8(1), tr.MaxLevel())
}

func TestLinearizeDropsAncestorsAndDuplicates(t *testing.T) {
	root := rootOf(0)
	kids := quadrant.Children(root)
	leaves := []quadrant.Quadrant{root, kids[0], kids[0], kids[1]}
	out := tree.Linearize(leaves)

	// root is an ancestor of every child and must be dropped; kids[0]'s
	// duplicate collapses; kids[2], kids[3] were never present.
	require.Len(t, out, 2)
	assert.True(t, out[0].Equal(kids[0]))
	assert.True(t, out[1].Equal(kids[1]))
}

func TestRemoveNonOwnedTrimsRange(t *testing.T) {
	root := rootOf(0)
	kids := quadrant.Children(root)
	sorted := tree.Linearize([]quadrant.Quadrant{kids[0], kids[1], kids[2], kids[3]})
	mid := quadrant.FirstDescendantMorton(sorted[1])

	out := tree.RemoveNonOwned(sorted, mid, quadrant.LastDescendantMorton(sorted[len(sorted)-1]))
	assert.Len(t, out, len(sorted)-1)
}

func TestFirstLastDescendantCache(t *testing.T) {
	tr := tree.New(0)
	root := rootOf(0)
	require.NoError(t, tr.Insert(quadrant.Child(root, 0)))
	require.NoError(t, tr.Insert(quadrant.Child(root, 3)))

	fd, err := tr.FirstDescendant()
	require.NoError(t, err)
	assert.Equal(t, quadrant.Coord(0), fd.X)

	ld, err := tr.LastDescendant()
	require.NoError(t, err)
	assert.Equal(t, quadrant.RootLen-1, ld.X)
}
