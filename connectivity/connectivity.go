// Package connectivity describes how the trees of a Forest are glued
// together: which tree lies across which face or corner of another, and
// with what relative orientation. It holds only the in-memory join tables;
// loading a connectivity from a file format and the unit-domain factories
// (unitsquare, brick, disk, moebius) are out of scope - callers construct a
// Connectivity literal directly, as the tests in this module do.
package connectivity

import (
	"errors"
	"fmt"
)

// Sentinel errors for connectivity construction and queries.
var (
	// ErrTreeOutOfRange indicates a tree index outside [0, NumTrees).
	ErrTreeOutOfRange = errors.New("connectivity: tree index out of range")

	// ErrFaceOutOfRange indicates a face index outside [0, 4).
	ErrFaceOutOfRange = errors.New("connectivity: face index out of range")

	// ErrCornerOutOfRange indicates a corner index outside [0, 4).
	ErrCornerOutOfRange = errors.New("connectivity: corner index out of range")

	// ErrInconsistentJoin indicates tree A claims to join tree B but B does
	// not claim the matching reverse join - a malformed topology.
	ErrInconsistentJoin = errors.New("connectivity: face/corner join is not reciprocal")
)

// NumFaces and NumCorners are the fixed per-tree topology sizes in 2D.
const (
	NumFaces   = 4
	NumCorners = 4
)

// FaceJoin records that a tree's face is glued to a neighboring tree's face,
// possibly with a relative orientation twist.
type FaceJoin struct {
	// Tree is the neighboring tree index, or -1 if this face is a physical
	// boundary (no neighbor).
	Tree int32
	// Face is the neighbor's face index that meets this one.
	Face uint8
	// Orientation is 0 if the two trees parameterize the shared face in the
	// same direction, 1 if reversed.
	Orientation uint8
}

// CornerJoin records that a tree's corner meets one or more other trees'
// corners. In 2D exactly one neighbor tree (or none, for a boundary corner)
// meets at a given corner along with the two face-neighbors, so a single
// join per (tree, corner) suffices.
type CornerJoin struct {
	// Tree is the neighboring tree index, or -1 if this corner is a
	// physical boundary corner.
	Tree int32
	// Corner is the neighbor's corner index that meets this one.
	Corner uint8
}

// Connectivity holds the face and corner join tables for NumTrees trees.
// It is immutable after construction: build the slices, call NewConnectivity
// to validate, and treat the result as read-only.
type Connectivity struct {
	numTrees int32
	faces    [][NumFaces]FaceJoin
	corners  [][NumCorners]CornerJoin
}

// NewConnectivity validates and wraps per-tree face and corner join tables.
// faces and corners must both have length numTrees. A boundary entry is
// written as Tree: -1 (Face/Corner/Orientation are then meaningless).
func NewConnectivity(numTrees int32, faces [][NumFaces]FaceJoin, corners [][NumCorners]CornerJoin) (*Connectivity, error) {
	if int32(len(faces)) != numTrees || int32(len(corners)) != numTrees {
		return nil, fmt.Errorf("connectivity: table length mismatch: want %d trees, got %d face rows, %d corner rows",
			numTrees, len(faces), len(corners))
	}
	c := &Connectivity{numTrees: numTrees, faces: faces, corners: corners}
	if err := c.validateReciprocity(); err != nil {
		return nil, err
	}

	return c, nil
}

// validateReciprocity checks that every non-boundary face join's neighbor
// lists this tree back, at the declared face, with the same orientation.
func (c *Connectivity) validateReciprocity() error {
	for t := int32(0); t < c.numTrees; t++ {
		for f := uint8(0); f < NumFaces; f++ {
			j := c.faces[t][f]
			if j.Tree < 0 {
				continue
			}
			back := c.faces[j.Tree][j.Face]
			if back.Tree != t || back.Face != f || back.Orientation != j.Orientation {
				return fmt.Errorf("%w: tree %d face %d -> tree %d face %d is not reciprocated",
					ErrInconsistentJoin, t, f, j.Tree, j.Face)
			}
		}
	}

	return nil
}

// NumTrees returns the number of trees this Connectivity describes.
func (c *Connectivity) NumTrees() int32 {
	return c.numTrees
}

// Face returns the join across tree t's face f.
func (c *Connectivity) Face(t int32, f uint8) (FaceJoin, error) {
	if t < 0 || t >= c.numTrees {
		return FaceJoin{}, ErrTreeOutOfRange
	}
	if f >= NumFaces {
		return FaceJoin{}, ErrFaceOutOfRange
	}

	return c.faces[t][f], nil
}

// Corner returns the join at tree t's corner k.
func (c *Connectivity) Corner(t int32, k uint8) (CornerJoin, error) {
	if t < 0 || t >= c.numTrees {
		return CornerJoin{}, ErrTreeOutOfRange
	}
	if k >= NumCorners {
		return CornerJoin{}, ErrCornerOutOfRange
	}

	return c.corners[t][k], nil
}

// IsBoundaryFace reports whether tree t's face f has no neighbor.
func (c *Connectivity) IsBoundaryFace(t int32, f uint8) bool {
	j, err := c.Face(t, f)

	return err == nil && j.Tree < 0
}
