// Package forest implements the top-level Forest aggregate: a sparse
// collection of per-rank trees sharing a Connectivity, a payload Pool, and
// the global partition bookkeeping (GlobalFirstQuadrant,
// GlobalFirstPosition) the partition engine reads and rewrites on every
// reshuffle.
package forest

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/forest/connectivity"
	"github.com/katalvlaran/forest/internal/assert"
	"github.com/katalvlaran/forest/pool"
	"github.com/katalvlaran/forest/quadrant"
	"github.com/katalvlaran/forest/tree"
)

// Sentinel errors for Forest construction and validity queries.
var (
	// ErrInvalidRank indicates Rank is outside [0, NumProcs).
	ErrInvalidRank = errors.New("forest: rank out of range")

	// ErrNoConnectivity indicates a nil Connectivity was supplied.
	ErrNoConnectivity = errors.New("forest: connectivity is required")

	// ErrTreeRangeMismatch indicates FirstLocalTree/LastLocalTree do not
	// describe the supplied trees slice.
	ErrTreeRangeMismatch = errors.New("forest: local tree range does not match supplied trees")
)

// GlobalPosition names the quadrant that starts a given rank's share of the
// global linear order: which tree it lives in, and its coordinates/level
// within that tree. A rank that owns nothing (an empty partition) is
// recorded with Tree == -1, mirroring the wire encoding's own empty-range
// marker ("first=-1,last=-2").
type GlobalPosition struct {
	Tree  int32
	X, Y  quadrant.Coord
	Level uint8
}

// IsEmpty reports whether this GlobalPosition marks an empty partition.
func (g GlobalPosition) IsEmpty() bool {
	return g.Tree < 0
}

// Forest is the top-level mesh: NumProcs ranks share Connectivity and a
// contiguous range of trees [FirstLocalTree, LastLocalTree] is populated on
// this rank; Trees outside that range are nil - a rank never materializes
// another rank's trees.
type Forest struct {
	Connectivity *connectivity.Connectivity
	Trees        []*tree.Tree // index == tree ordinal; nil outside local range

	NumProcs int32
	Rank     int32
	DataSize int

	Pool *pool.Pool

	FirstLocalTree int32
	LastLocalTree  int32 // -2 (with FirstLocalTree -1) if this rank owns no trees

	// GlobalFirstQuadrant[r] is the count of quadrants owned by ranks
	// [0, r) in the current partition; length NumProcs+1.
	GlobalFirstQuadrant []int64

	// GlobalFirstPosition[r] is the quadrant that starts rank r's share;
	// length NumProcs+1, with entry NumProcs a sentinel end marker.
	GlobalFirstPosition []GlobalPosition
}

// New constructs an empty Forest over conn with one *tree.Tree per tree
// index, all owned locally by a single rank (rank 0 of 1) - the common case
// for building a forest before a first partition call.
func New(conn *connectivity.Connectivity, dataSize int) (*Forest, error) {
	if conn == nil {
		return nil, ErrNoConnectivity
	}
	n := conn.NumTrees()
	trees := make([]*tree.Tree, n)
	for i := int32(0); i < n; i++ {
		trees[i] = tree.New(i)
	}
	f := &Forest{
		Connectivity:   conn,
		Trees:          trees,
		NumProcs:       1,
		Rank:           0,
		DataSize:       dataSize,
		Pool:           pool.New(dataSize),
		FirstLocalTree: 0,
		LastLocalTree:  n - 1,
	}
	f.GlobalFirstQuadrant = make([]int64, 2)
	f.GlobalFirstPosition = make([]GlobalPosition, 2)
	f.recomputeGlobalFirstQuadrant()

	return f, nil
}

// NumTrees returns the number of trees in the forest's Connectivity.
func (f *Forest) NumTrees() int32 {
	return f.Connectivity.NumTrees()
}

// LocalNumQuadrants returns the total leaf count across this rank's
// populated trees.
func (f *Forest) LocalNumQuadrants() int64 {
	var n int64
	if f.LastLocalTree < f.FirstLocalTree {
		return 0
	}
	for i := f.FirstLocalTree; i <= f.LastLocalTree; i++ {
		if f.Trees[i] != nil {
			n += int64(f.Trees[i].Len())
		}
	}

	return n
}

// recomputeGlobalFirstQuadrant rebuilds the single-rank degenerate case
// used right after New; the partition engine is responsible for
// recomputing this array across all ranks after a real reshuffle.
func (f *Forest) recomputeGlobalFirstQuadrant() {
	f.GlobalFirstQuadrant[0] = 0
	f.GlobalFirstQuadrant[1] = f.LocalNumQuadrants()
}

// IsValid checks the forest's structural invariants: rank in range,
// connectivity present, every tree in the local range present, and
// GlobalFirstQuadrant of length NumProcs+1 and monotone. It does not
// inspect leaves: sortedness is left to tree.Tree (which never stores an
// unsorted slice), and neither completeness nor absence of overlap between
// leaves is checked. IsValid returns false with a diagnostic label rather than
// panicking - this is a query a caller can run on untrusted/partially-built
// state, unlike the assert-based programmer-precondition checks elsewhere.
func (f *Forest) IsValid() (bool, string) {
	if f.Rank < 0 || f.Rank >= f.NumProcs {
		return false, "rank out of range"
	}
	if f.Connectivity == nil {
		return false, "missing connectivity"
	}
	if f.LastLocalTree >= f.FirstLocalTree {
		for i := f.FirstLocalTree; i <= f.LastLocalTree; i++ {
			if i < 0 || i >= int32(len(f.Trees)) || f.Trees[i] == nil {
				return false, fmt.Sprintf("tree %d missing within local range", i)
			}
		}
	}
	if int32(len(f.GlobalFirstQuadrant)) != f.NumProcs+1 {
		return false, "GlobalFirstQuadrant has wrong length"
	}
	for i := 1; i < len(f.GlobalFirstQuadrant); i++ {
		if f.GlobalFirstQuadrant[i] < f.GlobalFirstQuadrant[i-1] {
			return false, "GlobalFirstQuadrant is not monotone"
		}
	}

	return true, ""
}

// IsEqual reports whether f and g describe the same forest: same
// connectivity tree count, same rank layout, and every corresponding local
// tree has an identical leaf sequence. Equality does not compare Pool
// contents - payloads are opaque to the forest's structural identity, and
// equality of payload bytes is the caller's own concern.
func IsEqual(f, g *Forest) bool {
	if f.NumTrees() != g.NumTrees() || f.NumProcs != g.NumProcs || f.Rank != g.Rank {
		return false
	}
	if f.FirstLocalTree != g.FirstLocalTree || f.LastLocalTree != g.LastLocalTree {
		return false
	}
	for i := f.FirstLocalTree; i <= f.LastLocalTree; i++ {
		a, b := f.Trees[i], g.Trees[i]
		if (a == nil) != (b == nil) {
			return false
		}
		if a == nil {
			continue
		}
		al, bl := a.Leaves(), b.Leaves()
		if len(al) != len(bl) {
			return false
		}
		for j := range al {
			if !al[j].Equal(bl[j]) {
				return false
			}
		}
	}

	return true
}

// mustTree returns f.Trees[which], panicking if which is out of range or
// the tree is not locally populated - a programmer precondition, since
// every engine call site first checks FirstLocalTree/LastLocalTree.
func (f *Forest) mustTree(which int32) *tree.Tree {
	assert.Invariantf(which >= 0 && which < int32(len(f.Trees)), "tree index %d out of range", which)
	t := f.Trees[which]
	assert.Invariantf(t != nil, "tree %d is not locally populated", which)

	return t
}

// Tree returns the locally populated tree at index which, or nil if out of
// the local range (callers that need the panic-on-misuse behavior should
// use mustTree internally; Tree is the safe public accessor).
func (f *Forest) Tree(which int32) *tree.Tree {
	if which < 0 || which >= int32(len(f.Trees)) {
		return nil
	}

	return f.Trees[which]
}
