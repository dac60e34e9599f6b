package overlap_test

import (
	"testing"

	"github.com/katalvlaran/forest/connectivity"
	"github.com/katalvlaran/forest/forest"
	"github.com/katalvlaran/forest/overlap"
	"github.com/katalvlaran/forest/quadrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoTreesFaceJoined glues tree 0's +X face to tree 1's -X face, aligned.
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

// cornerOnlyTrees glues tree 0's corner 3 (+x,+y) to tree 1's corner 0
// (-x,-y), with no face joins at all - the "corner-only join" scenario.
func cornerOnlyTrees(t *testing.T) *connectivity.Connectivity {
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
	corners[0][quadrant.Corner11] = connectivity.CornerJoin{Tree: 1, Corner: quadrant.Corner00}
	corners[1][quadrant.Corner00] = connectivity.CornerJoin{Tree: 0, Corner: quadrant.Corner11}

	c, err := connectivity.NewConnectivity(2, faces, corners)
	require.NoError(t, err)

	return c
}

func TestComputeEmptyForestHasNoOverlap(t *testing.T) {
	conn := twoTreesFaceJoined(t)
	f, err := forest.New(conn, 0)
	require.NoError(t, err)
	f.FirstLocalTree, f.LastLocalTree = 0, 0

	out, err := overlap.Compute(f, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestComputeFaceBoundaryProducesTransformedGhost(t *testing.T) {
	conn := twoTreesFaceJoined(t)
	f, err := forest.New(conn, 0)
	require.NoError(t, err)
	f.FirstLocalTree, f.LastLocalTree = 0, 0

	root := quadrant.New(0, 0, 0)
	root.WhichTree = 0
	rightEdge := quadrant.Child(root, 1) // +x child, touches tree 0's +X boundary
	require.NoError(t, f.Tree(0).Insert(rightEdge))

	out, err := overlap.Compute(f, &overlap.Options{Mode: overlap.ModeFace})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int32(1), out[0].WhichTree)
	assert.Equal(t, int32(0), out[0].FromTree)
	assert.Equal(t, quadrant.Coord(0), out[0].X) // placed at neighbor's -X boundary
}

func TestComputeKeepsDistinctFaceGhostsOfDistinctLeaves(t *testing.T) {
	conn := twoTreesFaceJoined(t)
	f, err := forest.New(conn, 0)
	require.NoError(t, err)
	f.FirstLocalTree, f.LastLocalTree = 0, 0

	root := quadrant.New(0, 0, 0)
	root.WhichTree = 0
	// Both children touching the +X face each produce one face ghost; the
	// two ghosts differ, so deduplication must keep both.
	k1 := quadrant.Child(root, 1)
	k3 := quadrant.Child(root, 3)
	require.NoError(t, f.Tree(0).Insert(k1))
	require.NoError(t, f.Tree(0).Insert(k3))

	out, err := overlap.Compute(f, &overlap.Options{Mode: overlap.ModeFace})
	require.NoError(t, err)
	assert.Len(t, out, 2) // k1 and k3 touch +X at different Y, distinct ghosts
}

func TestComputeCornerOnlyJoin(t *testing.T) {
	conn := cornerOnlyTrees(t)
	f, err := forest.New(conn, 0)
	require.NoError(t, err)
	f.FirstLocalTree, f.LastLocalTree = 0, 0

	root := quadrant.New(0, 0, 0)
	root.WhichTree = 0
	farCorner := quadrant.Child(root, 3) // (+x,+y) child touches corner 3
	require.NoError(t, f.Tree(0).Insert(farCorner))

	faceOnly, err := overlap.Compute(f, &overlap.Options{Mode: overlap.ModeFace})
	require.NoError(t, err)
	assert.Empty(t, faceOnly, "no face joins exist in this topology")

	full, err := overlap.Compute(f, &overlap.Options{Mode: overlap.ModeFull})
	require.NoError(t, err)
	require.Len(t, full, 1)
	assert.Equal(t, int32(1), full[0].WhichTree)
	assert.Equal(t, quadrant.Coord(0), full[0].X)
	assert.Equal(t, quadrant.Coord(0), full[0].Y)
}
