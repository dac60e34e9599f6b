package forest_test

import (
	"testing"

	"github.com/katalvlaran/forest/connectivity"
	"github.com/katalvlaran/forest/forest"
	"github.com/katalvlaran/forest/quadrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleTreeConnectivity(t *testing.T) *connectivity.Connectivity {
	t.Helper()
	faces := make([][connectivity.NumFaces]connectivity.FaceJoin, 1)
	corners := make([][connectivity.NumCorners]connectivity.CornerJoin, 1)
	for f := range faces[0] {
		faces[0][f] = connectivity.FaceJoin{Tree: -1}
	}
	for k := range corners[0] {
		corners[0][k] = connectivity.CornerJoin{Tree: -1}
	}
	c, err := connectivity.NewConnectivity(1, faces, corners)
	require.NoError(t, err)

	return c
}

func TestNewForestIsValidAndEmpty(t *testing.T) {
	conn := singleTreeConnectivity(t)
	f, err := forest.New(conn, 0)
	require.NoError(t, err)

	ok, reason := f.IsValid()
	require.True(t, ok, reason)
	assert.Equal(t, int64(0), f.LocalNumQuadrants())
	assert.NotNil(t, f.Tree(0))
}

func TestNewForestRejectsNilConnectivity(t *testing.T) {
	_, err := forest.New(nil, 0)
	assert.ErrorIs(t, err, forest.ErrNoConnectivity)
}

func TestLocalNumQuadrantsCountsInsertedLeaves(t *testing.T) {
	conn := singleTreeConnectivity(t)
	f, err := forest.New(conn, 0)
	require.NoError(t, err)

	root := quadrant.New(0, 0, 0)
	for _, k := range quadrant.Children(root) {
		require.NoError(t, f.Tree(0).Insert(k))
	}
	assert.Equal(t, int64(4), f.LocalNumQuadrants())
}

func TestIsEqualComparesLeafSequences(t *testing.T) {
	conn := singleTreeConnectivity(t)
	a, err := forest.New(conn, 0)
	require.NoError(t, err)
	b, err := forest.New(conn, 0)
	require.NoError(t, err)

	assert.True(t, forest.IsEqual(a, b))

	root := quadrant.New(0, 0, 0)
	require.NoError(t, a.Tree(0).Insert(quadrant.Child(root, 0)))
	assert.False(t, forest.IsEqual(a, b))
}

func TestTreeOutOfRangeReturnsNil(t *testing.T) {
	conn := singleTreeConnectivity(t)
	f, err := forest.New(conn, 0)
	require.NoError(t, err)
	assert.Nil(t, f.Tree(99))
}
