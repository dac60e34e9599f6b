package borderbalance_test

import (
	"testing"

	"github.com/katalvlaran/forest/balance"
	"github.com/katalvlaran/forest/borderbalance"
	"github.com/katalvlaran/forest/connectivity"
	"github.com/katalvlaran/forest/forest"
	"github.com/katalvlaran/forest/quadrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoTreesFaceJoined glues tree 0's +X face to tree 1's -X face, aligned -
// the same topology used across the overlap engine's tests.
func twoTreesFaceJoined(t *testing.T) *connectivity.Connectivity {
	t.Helper()
	faces := make([][connectivity.NumFaces]connectivity.FaceJoin, 2)
	corners := make([][connectivity.NumCorners]connectivity.CornerJoin, 2)
	for tr := range faces {
		for f := range faces[tr] {
			faces[tr][f] = connectivity.FaceJoin{Tree: -1}
		}
		for k := range corners[tr] {
			corners[tr][k] = connectivity.CornerJoin{Tree: -1}
		}
	}
	faces[0][quadrant.FacePlusX] = connectivity.FaceJoin{Tree: 1, Face: quadrant.FaceMinusX}
	faces[1][quadrant.FaceMinusX] = connectivity.FaceJoin{Tree: 0, Face: quadrant.FacePlusX}

	c, err := connectivity.NewConnectivity(2, faces, corners)
	require.NoError(t, err)

	return c
}

func TestForestRefinesCoarseNeighborAcrossTreeBoundary(t *testing.T) {
	conn := twoTreesFaceJoined(t)
	f, err := forest.New(conn, 0)
	require.NoError(t, err)
	f.FirstLocalTree, f.LastLocalTree = 0, 1

	// Tree 0: a single level-2 leaf at the bottom-right corner, touching the
	// shared +X face at its finest granularity.
	fine := quadrant.New(quadrant.RootLen-quadrant.Len(2), 0, 2)
	fine.WhichTree = 0
	require.NoError(t, f.Tree(0).Insert(fine))

	// Tree 1 starts as a single unrefined root leaf - two levels coarser
	// than its neighbor across the shared face.
	root1 := quadrant.New(0, 0, 0)
	root1.WhichTree = 1
	require.NoError(t, f.Tree(1).Insert(root1))

	err = borderbalance.Forest(f, &borderbalance.Options{Mode: balance.ModeFull})
	require.NoError(t, err)

	// The leaf in tree 1 now covering the shared boundary point (0,0) must
	// be at least level 1, bringing the cross-tree level difference to <= 1.
	owner := ownerAt(t, f.Tree(1).Leaves(), 0, 0)
	assert.GreaterOrEqual(t, int(owner.Level), 1)

	// Tree 0's own leaf set is untouched - only tree 1 needed to refine.
	assert.Len(t, f.Tree(0).Leaves(), 1)
}

func ownerAt(t *testing.T, leaves []quadrant.Quadrant, x, y quadrant.Coord) quadrant.Quadrant {
	t.Helper()
	for _, q := range leaves {
		l := quadrant.Len(q.Level)
		if x >= q.X && x < q.X+l && y >= q.Y && y < q.Y+l {
			return q
		}
	}
	t.Fatal("no leaf covers the requested point")

	return quadrant.Quadrant{}
}

func TestForestIsNoOpWhenNoLocalTrees(t *testing.T) {
	conn := twoTreesFaceJoined(t)
	f, err := forest.New(conn, 0)
	require.NoError(t, err)
	f.FirstLocalTree, f.LastLocalTree = 0, -1

	assert.NoError(t, borderbalance.Forest(f, nil))
}
