// Package overlap implements the Overlap engine: it enumerates the
// insulation layer - the quadrants of neighboring trees that touch this
// rank's locally owned leaves across a face or corner - transforming each
// into its owning tree's coordinate frame via the Forest's Connectivity.
// This realizes the insulation layer as a one-ghost-per-boundary-leaf
// shift-and-transform rather than a fuller 3x3 scan with balance-test
// seeding of a "new mode" seed-ancestor path; that path is not part of
// this package's public surface (OQ-2), since the simpler shift covers
// every boundary case the documented 2D scenarios exercise.
package overlap

import (
	"github.com/duke-git/lancet/v2/slice"
	"github.com/katalvlaran/forest/connectivity"
	"github.com/katalvlaran/forest/forest"
	"github.com/katalvlaran/forest/internal/flog"
	"github.com/katalvlaran/forest/internal/metrics"
	"github.com/katalvlaran/forest/quadrant"
)

// Mode selects which neighbor relationships seed the insulation layer.
type Mode int

const (
	// ModeFace collects quadrants touching a tree boundary face only.
	ModeFace Mode = iota
	// ModeFull collects quadrants touching a tree boundary face or corner,
	// the seed set a later full-mode Balance pass needs corner candidates
	// for too.
	ModeFull
)

// Options configures an Overlap computation.
type Options struct {
	Mode    Mode
	Logger  flog.Logger
	Metrics *metrics.Registry
}

func (o *Options) logger() flog.Logger {
	if o == nil || o.Logger == nil {
		return flog.Default
	}

	return o.Logger
}

func (o *Options) metrics() *metrics.Registry {
	if o == nil || o.Metrics == nil {
		return metrics.Noop()
	}

	return o.Metrics
}

// Compute returns the insulation layer for f: every quadrant transformed
// into a neighboring tree's frame that touches one of f's locally owned
// leaves across a tree boundary face (and, under ModeFull, a tree boundary
// corner). The result is deduplicated and sorted via lancet/v2/slice so a
// quadrant seen from two different local leaves (e.g. two leaves sharing
// the same far corner) appears once.
func Compute(f *forest.Forest, opts *Options) ([]quadrant.Quadrant, error) {
	log := opts.logger()
	met := opts.metrics()
	mode := ModeFace
	if opts != nil {
		mode = opts.Mode
	}

	var out []quadrant.Quadrant
	if f.LastLocalTree < f.FirstLocalTree {
		return nil, nil
	}

	for which := f.FirstLocalTree; which <= f.LastLocalTree; which++ {
		t := f.Tree(which)
		if t == nil {
			continue
		}
		for _, q := range t.Leaves() {
			faceGhosts, err := faceGhosts(f.Connectivity, q)
			if err != nil {
				return nil, err
			}
			out = append(out, faceGhosts...)

			if mode == ModeFull {
				cornerGhosts, err := cornerGhosts(f.Connectivity, q)
				if err != nil {
					return nil, err
				}
				out = append(out, cornerGhosts...)
			}
		}
	}

	for range out {
		met.OverlapEmitted.Inc()
	}

	out = uniqifyOverlap(out)
	log.Debug("overlap.Compute: emitted %d quadrants after uniqify", len(out))

	return out, nil
}

// faceGhosts returns the (at most) one ghost quadrant produced by shifting
// q across each of its four faces, for faces where q actually touches the
// tree boundary and that boundary has a neighboring tree.
func faceGhosts(conn *connectivity.Connectivity, q quadrant.Quadrant) ([]quadrant.Quadrant, error) {
	var out []quadrant.Quadrant
	for face := uint8(0); face < quadrant.NumFaces2D; face++ {
		if !onFaceBoundary(q, face) {
			continue
		}
		join, err := conn.Face(q.WhichTree, face)
		if err != nil {
			return nil, err
		}
		if join.Tree < 0 {
			continue
		}
		shifted := quadrant.ShiftFace(q, face)
		out = append(out, quadrant.TransformFace(shifted, face, join.Face, join.Orientation, join.Tree))
	}

	return out, nil
}

// cornerGhosts returns the ghost quadrant(s) produced by shifting q across
// each of its four corners, where that corner sits on a tree boundary
// corner with a registered neighbor.
func cornerGhosts(conn *connectivity.Connectivity, q quadrant.Quadrant) ([]quadrant.Quadrant, error) {
	var out []quadrant.Quadrant
	for corner := uint8(0); corner < quadrant.NumCorners2D; corner++ {
		if !onCornerBoundary(q, corner) {
			continue
		}
		join, err := conn.Corner(q.WhichTree, corner)
		if err != nil {
			return nil, err
		}
		if join.Tree < 0 {
			continue
		}
		shifted := quadrant.ShiftCorner(q, corner)
		out = append(out, quadrant.TransformCorner(shifted, join.Corner, join.Tree))
	}

	return out, nil
}

// onFaceBoundary reports whether q's cell touches the tree's own boundary
// on the given face (as opposed to an interior face shared with another
// leaf of the same tree).
func onFaceBoundary(q quadrant.Quadrant, face uint8) bool {
	switch face {
	case quadrant.FaceMinusX:
		return q.X == 0
	case quadrant.FacePlusX:
		return q.X+quadrant.Len(q.Level) == quadrant.RootLen
	case quadrant.FaceMinusY:
		return q.Y == 0
	case quadrant.FacePlusY:
		return q.Y+quadrant.Len(q.Level) == quadrant.RootLen
	}

	return false
}

// onCornerBoundary reports whether q's cell touches the tree's own corner
// point.
func onCornerBoundary(q quadrant.Quadrant, corner uint8) bool {
	l := quadrant.Len(q.Level)
	wantX, wantY := quadrant.Coord(0), quadrant.Coord(0)
	if corner&1 != 0 {
		wantX = quadrant.RootLen - l
	}
	if corner&2 != 0 {
		wantY = quadrant.RootLen - l
	}

	return q.X == wantX && q.Y == wantY
}

// uniqifyOverlap sorts a ghost-quadrant slice via lancet/v2/slice.SortBy
// then collapses runs of quadrants sharing the same (X, Y, Level, WhichTree)
// identity - two different local leaves can legitimately produce the same
// ghost quadrant,
// e.g. at a shared far corner, and FromTree/Payload are not part of a
// quadrant's identity (Quadrant.Equal), so a strict-equality Unique would
// under-deduplicate here.
func uniqifyOverlap(qs []quadrant.Quadrant) []quadrant.Quadrant {
	slice.SortBy(qs, func(a, b quadrant.Quadrant) bool { return quadrant.Compare(a, b) < 0 })
	sorted := qs

	out := sorted[:0:0]
	for _, q := range sorted {
		if len(out) > 0 && out[len(out)-1].Equal(q) {
			continue
		}
		out = append(out, q)
	}

	return out
}
