package wire_test

import (
	"testing"

	"github.com/katalvlaran/forest/connectivity"
	"github.com/katalvlaran/forest/forest"
	"github.com/katalvlaran/forest/pool"
	"github.com/katalvlaran/forest/quadrant"
	"github.com/katalvlaran/forest/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	q := quadrant.Child(quadrant.New(0, 0, 0), 2)
	q.WhichTree = 4
	rec := wire.FromQuadrant(q)

	buf := rec.Encode(nil)
	require.Len(t, buf, wire.RecordSize)

	decoded, rest := wire.DecodeRecord(buf)
	assert.Empty(t, rest)
	assert.True(t, decoded.ToQuadrant().Equal(q))
}

func TestEncodeDecodeRecordsSlice(t *testing.T) {
	root := quadrant.New(0, 0, 0)
	qs := quadrant.Children(root)
	buf, err := wire.EncodeRecords(qs[:], nil)
	require.NoError(t, err)
	assert.Len(t, buf, 4*wire.RecordSize)

	out, err := wire.DecodeRecords(buf, nil)
	require.NoError(t, err)
	require.Len(t, out, 4)
	for i := range qs {
		assert.True(t, qs[i].Equal(out[i]))
	}
}

func TestEncodeDecodeRecordsSliceWithPayload(t *testing.T) {
	srcPool := pool.New(4)
	root := quadrant.New(0, 0, 0)
	qs := quadrant.Children(root)
	payloads := [][]byte{{1, 1, 1, 1}, {2, 2, 2, 2}, {3, 3, 3, 3}, {4, 4, 4, 4}}
	for i := range qs {
		h := srcPool.Alloc()
		require.NoError(t, srcPool.Set(h, payloads[i]))
		qs[i].Payload = int64(h)
	}

	buf, err := wire.EncodeRecords(qs[:], srcPool)
	require.NoError(t, err)
	assert.Len(t, buf, 4*(wire.RecordSize+4))

	dstPool := pool.New(4)
	out, err := wire.DecodeRecords(buf, dstPool)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, 4, dstPool.LiveCount())
	for i := range qs {
		assert.True(t, qs[i].Equal(out[i]))
		got, err := dstPool.Get(pool.Handle(out[i].Payload))
		require.NoError(t, err)
		assert.Equal(t, payloads[i], got)
	}
}

func singleTreeConn(t *testing.T) *connectivity.Connectivity {
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

func TestChecksumIsStableAndOrderSensitiveOnlyToContent(t *testing.T) {
	conn := singleTreeConn(t)
	f1, err := forest.New(conn, 0)
	require.NoError(t, err)
	root := quadrant.New(0, 0, 0)
	for _, k := range quadrant.Children(root) {
		require.NoError(t, f1.Tree(0).Insert(k))
	}

	f2, err := forest.New(conn, 0)
	require.NoError(t, err)
	for _, k := range quadrant.Children(root) {
		require.NoError(t, f2.Tree(0).Insert(k))
	}

	c1, err := wire.Checksum(f1)
	require.NoError(t, err)
	c2, err := wire.Checksum(f2)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)

	require.NoError(t, f2.Tree(0).Insert(quadrant.Child(quadrant.Child(root, 0), 0)))
	// inserting a descendant changes the leaf sequence even before
	// linearization, so the checksum must differ.
	c2, err = wire.Checksum(f2)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
}
