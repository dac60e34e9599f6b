// Package quadrant implements the QCoord primitives: the fixed-point
// quadrant coordinate system that every other package in this module is
// built on top of.
//
// A Quadrant is a square (2D) cell addressed by the integer coordinates of
// its lower-left corner plus a refinement Level. Coordinates live on an
// integer grid of side RootLen = 1<<MaxLevel, a fixed-point encoding chosen
// so that siblings, ancestors and descendants are all exact integers and
// there is no floating point anywhere in the coordinate system.
//
// Coordinates are carried as int64 rather than the grid's native unsigned
// width so that "extended" quadrants - ghost/neighbor quadrants computed by
// shifting across a tree boundary, which may legitimately fall in
// [-RootLen, 2*RootLen) - can be represented and compared without wraparound.
package quadrant

import "fmt"

// Coord is a fixed-point grid coordinate. Valid in-root quadrants have
// Coord in [0, RootLen); extended (off-root, not-yet-transformed) quadrants
// may range over [-RootLen, 2*RootLen).
type Coord int64

const (
	// MaxLevel is the deepest refinement level representable by this
	// package's fixed-point grid.
	MaxLevel uint8 = 30

	// RootLen is the side length of a level-0 (root) quadrant, in grid units.
	RootLen Coord = 1 << MaxLevel

	// NilPayload is the Payload value meaning "no pool handle allocated
	// yet". It is defined here (rather than imported from package pool, to
	// avoid an import cycle) but must equal pool.NilHandle's own value.
	NilPayload int64 = -1
)

// Len returns the side length, in grid units, of a quadrant at level.
// Len panics if level exceeds MaxLevel (a programmer error).
func Len(level uint8) Coord {
	if level > MaxLevel {
		panic(fmt.Sprintf("quadrant: level %d exceeds MaxLevel %d", level, MaxLevel))
	}

	return RootLen >> level
}

// Quadrant is a square cell of the forest grid.
//
// X, Y are the coordinates of the quadrant's lower-left corner. Level is its
// refinement depth (0 = root). WhichTree identifies the owning tree within a
// Forest; FromTree, when >= 0, records the tree a transformed/ghost copy of
// this quadrant originated from (used by the overlap engine). Payload is an
// arena handle into a pool.Pool, never a direct pointer, per the "treat
// payloads as arena indices" design note.
type Quadrant struct {
	X, Y      Coord
	Level     uint8
	WhichTree int32
	FromTree  int32
	Payload   int64 // pool.Handle; kept as int64 here to avoid an import cycle with pool.

	// Aux carries transient per-algorithm markers (sibling-zero, parent,
	// blocked). The engines in this module do not set them; the derivation
	// and shift functions clear Aux on every quadrant they produce.
	// It is never part of a quadrant's identity: Compare and Equal ignore it.
	Aux AuxFlags
}

// AuxFlags are transient, algorithm-local markers attached to a Quadrant
// while it sits in a working set. They do not participate in ordering or
// equality.
type AuxFlags uint8

const (
	// AuxSiblingZero marks the first (index 0) child in a family grouping.
	AuxSiblingZero AuxFlags = 1 << iota
	// AuxParent marks a quadrant injected into a working set as a parent
	// candidate rather than a sibling or neighbor.
	AuxParent
	// AuxBlocked marks a candidate that cannot be owned locally and is
	// deferred to a remote rank.
	AuxBlocked
)

// New constructs a Quadrant at (x, y, level) in tree 0, with no FromTree
// and no payload; set WhichTree afterwards for any other tree.
// New does not validate; call IsValid to check preconditions before relying
// on the result (validity is a query, not an enforced invariant at
// construction time).
func New(x, y Coord, level uint8) Quadrant {
	return Quadrant{X: x, Y: y, Level: level, WhichTree: 0, FromTree: -1, Payload: NilPayload}
}

// IsValid reports whether q has a level within range and coordinates that
// are aligned to its level's grid and lie within the root square [0, RootLen).
func (q Quadrant) IsValid() bool {
	if q.Level > MaxLevel {
		return false
	}
	l := Len(q.Level)
	if q.X < 0 || q.Y < 0 || q.X >= RootLen || q.Y >= RootLen {
		return false
	}

	return q.X%l == 0 && q.Y%l == 0
}

// IsExtended reports whether q has a valid level and grid alignment but may
// lie outside the root square, i.e. it is a candidate ghost/neighbor
// quadrant prior to being transformed into its owning tree's frame.
func (q Quadrant) IsExtended() bool {
	if q.Level > MaxLevel {
		return false
	}
	l := Len(q.Level)
	if q.X < -RootLen || q.Y < -RootLen || q.X >= 2*RootLen || q.Y >= 2*RootLen {
		return false
	}

	return q.X%l == 0 && q.Y%l == 0
}

// Equal reports whether q and o address the same cell in the same tree.
// Aux flags and Payload are ignored, matching Compare's ordering key.
func (q Quadrant) Equal(o Quadrant) bool {
	return q.X == o.X && q.Y == o.Y && q.Level == o.Level && q.WhichTree == o.WhichTree
}

// String renders q as "(X,Y)@Level" for diagnostics and log lines.
func (q Quadrant) String() string {
	return fmt.Sprintf("(%d,%d)@%d", q.X, q.Y, q.Level)
}
