// Package balance implements the intra-tree Balance engine: it refines a
// tree's leaf set until no two leaves that touch across a face or corner
// differ by more than one refinement level (the "2:1 balance" condition).
// Neighbors that cross into a different tree are out of this package's
// scope - that is the border-balance engine's job; a quadrant whose
// candidate neighbor falls outside the root square is simply skipped here.
package balance

import (
	"sort"

	"github.com/katalvlaran/forest/internal/assert"
	"github.com/katalvlaran/forest/internal/flog"
	"github.com/katalvlaran/forest/internal/metrics"
	"github.com/katalvlaran/forest/pool"
	"github.com/katalvlaran/forest/quadrant"
	"github.com/katalvlaran/forest/tree"
)

// Mode selects which neighbor relationships must satisfy the 2:1 condition.
type Mode int

const (
	// ModeFace balances only across shared faces.
	ModeFace Mode = iota
	// ModeFull balances across faces and corners, the standard "full"
	// balance condition.
	ModeFull
)

// Options configures a Balance run.
type Options struct {
	Mode Mode

	// RejectOutOfBoundsParent is the tunable for discarding candidate
	// parent quadrants whose cell would lie outside the tree's bounds
	// (OQ-3), off (false) by default. Tree does not read it: candidates are
	// generated and tested the same way whether it is set or not.
	RejectOutOfBoundsParent bool

	Logger  flog.Logger
	Metrics *metrics.Registry

	// Pool is allocated from for every newly refined child quadrant, and
	// freed to for every leaf a refinement supersedes. Nil means the tree
	// carries no payload (DataSize == 0).
	Pool *pool.Pool
	// InitFn is called exactly once per newly refined child, immediately
	// after its handle is allocated from Pool.
	InitFn pool.InitFn
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

func (o *Options) pool() *pool.Pool {
	if o == nil {
		return nil
	}

	return o.Pool
}

func (o *Options) initFn() pool.InitFn {
	if o == nil {
		return nil
	}

	return o.InitFn
}

// Tree balances t in place: t.Leaves() after Tree returns satisfies the 2:1
// condition for every pair of same-tree neighbors under the configured
// Mode. Tree repeatedly scans for violations and refines the coarser side
// of each one until a fixed point is reached (a single corner-refined unit
// square converges to 13 leaves in 2D under full balance).
func Tree(t *tree.Tree, opts *Options) error {
	log := opts.logger()
	met := opts.metrics()
	p, initFn := opts.pool(), opts.initFn()
	mode := ModeFace
	if opts != nil {
		mode = opts.Mode
	}

	leaves := append([]quadrant.Quadrant(nil), t.Leaves()...)
	liveBefore, nonNilBefore := 0, 0
	if p != nil {
		liveBefore, nonNilBefore = p.LiveCount(), CountWithPayload(leaves)
	}
	log.Debug("balance.Tree: starting with %d leaves, mode=%d", len(leaves), mode)

	for {
		sort.Slice(leaves, func(i, j int) bool { return quadrant.Compare(leaves[i], leaves[j]) < 0 })
		toRefine := map[int]bool{}

		for i, q := range leaves {
			if q.Level == 0 {
				continue
			}
			for _, cand := range neighborPoints(q, mode) {
				met.BalanceCandidates.Inc()
				idx, owner, ok := findOwner(leaves, cand)
				if !ok {
					continue // off-root: a border-balance concern, not ours
				}
				if owner.Level+1 < q.Level {
					toRefine[idx] = true
				}
			}
		}

		if len(toRefine) == 0 {
			break
		}

		next := make([]quadrant.Quadrant, 0, len(leaves))
		for i, q := range leaves {
			if toRefine[i] {
				children := quadrant.Children(q)
				for c := range children {
					if err := p.AllocInit(initFn, &children[c]); err != nil {
						return err
					}
				}
				if p != nil {
					p.Free(pool.Handle(q.Payload))
				}
				next = append(next, children[:]...)
			} else {
				next = append(next, q)
			}
		}
		leaves = next
	}

	if p != nil {
		liveAfter, nonNilAfter := p.LiveCount(), CountWithPayload(leaves)
		// Every refinement frees exactly the superseded leaf's handle (a
		// no-op if it had none) and allocates exactly one for each of its
		// four children, so the pool's live count and this tree's own
		// payload-bearing leaf count must have moved in lockstep - any
		// transient quadrant created and later superseded within this run
		// is freed again before this point, leaving no leak behind.
		assert.Invariantf(liveAfter-liveBefore == nonNilAfter-nonNilBefore,
			"balance.Tree: pool live count drifted from payload-bearing leaf count (live %d->%d, payload %d->%d)",
			liveBefore, liveAfter, nonNilBefore, nonNilAfter)
		met.PoolLive.Set(float64(liveAfter))
	}

	leaves = tree.Linearize(leaves)
	log.Debug("balance.Tree: converged with %d leaves", len(leaves))

	return t.SetLeaves(leaves)
}

// CountWithPayload counts the leaves in qs that carry an allocated pool
// handle.
func CountWithPayload(qs []quadrant.Quadrant) int {
	n := 0
	for _, q := range qs {
		if q.Payload != quadrant.NilPayload {
			n++
		}
	}

	return n
}

// neighborPoints returns one Morton key per candidate neighbor cell of q -
// one per face under ModeFace, plus one per corner under ModeFull - each
// computed as the first-descendant key of the extended quadrant obtained by
// shifting q by its own size in that direction.
func neighborPoints(q quadrant.Quadrant, mode Mode) []uint64 {
	out := make([]uint64, 0, 8)
	for face := uint8(0); face < quadrant.NumFaces2D; face++ {
		s := quadrant.ShiftFace(q, face)
		if !s.IsExtended() || !inRoot(s) {
			continue
		}
		out = append(out, quadrant.FirstDescendantMorton(s))
	}
	if mode == ModeFull {
		for corner := uint8(0); corner < quadrant.NumCorners2D; corner++ {
			s := quadrant.ShiftCorner(q, corner)
			if !s.IsExtended() || !inRoot(s) {
				continue
			}
			out = append(out, quadrant.FirstDescendantMorton(s))
		}
	}

	return out
}

func inRoot(q quadrant.Quadrant) bool {
	return q.X >= 0 && q.Y >= 0 && q.X < quadrant.RootLen && q.Y < quadrant.RootLen
}

// findOwner locates the leaf (assumed sorted, complete, non-overlapping)
// whose cell contains the deepest-level point identified by morton.
func findOwner(leaves []quadrant.Quadrant, morton uint64) (int, quadrant.Quadrant, bool) {
	idx := sort.Search(len(leaves), func(i int) bool {
		return quadrant.LastDescendantMorton(leaves[i]) >= morton
	})
	if idx >= len(leaves) {
		return 0, quadrant.Quadrant{}, false
	}
	if quadrant.FirstDescendantMorton(leaves[idx]) > morton {
		return 0, quadrant.Quadrant{}, false
	}

	return idx, leaves[idx], true
}
