// Package borderbalance implements the Border Balance engine: it extends
// the intra-tree Balance engine across tree boundaries. balance.Tree only
// ever compares a leaf against neighbor points that land back inside the
// same tree - a point that crosses into a different tree is off-root from
// its own perspective and is skipped. This package supplies exactly that
// missing cross-tree neighbor information: the insulation layer computed
// by the overlap engine already places each neighboring tree's boundary
// leaves into this tree's own coordinate frame, so a leaf's border
// container - the finest border candidate covering the same point - is a
// direct, disjoint-key lookup (binary search on the candidate's Morton
// range, the same technique balance.Tree's own findOwner uses) rather than
// a merge into the tree's leaf set; merging the two would silently destroy
// local coverage, since a border candidate is an overlay describing the
// neighbor, not a subdivision of this tree's own leaf.
package borderbalance

import (
	"sort"

	"github.com/katalvlaran/forest/balance"
	"github.com/katalvlaran/forest/forest"
	"github.com/katalvlaran/forest/internal/assert"
	"github.com/katalvlaran/forest/internal/flog"
	"github.com/katalvlaran/forest/internal/metrics"
	"github.com/katalvlaran/forest/overlap"
	"github.com/katalvlaran/forest/pool"
	"github.com/katalvlaran/forest/quadrant"
	"github.com/katalvlaran/forest/tree"
)

// Options configures a border-balance run. Mode and RejectOutOfBoundsParent
// are forwarded verbatim to the underlying balance.Tree call; Pool and
// InitFn are forwarded the same way, and are additionally used directly by
// this package's own cross-tree refinement loop.
type Options struct {
	Mode                    balance.Mode
	RejectOutOfBoundsParent bool
	Logger                  flog.Logger
	Metrics                 *metrics.Registry
	Pool                    *pool.Pool
	InitFn                  pool.InitFn
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

func (o *Options) balanceOptions() *balance.Options {
	mode := balance.ModeFace
	reject := false
	if o != nil {
		mode = o.Mode
		reject = o.RejectOutOfBoundsParent
	}

	return &balance.Options{
		Mode:                    mode,
		RejectOutOfBoundsParent: reject,
		Logger:                  o.logger(),
		Metrics:                 o.metrics(),
		Pool:                    o.pool(),
		InitFn:                  o.initFn(),
	}
}

// Forest balances every one of f's locally populated trees against their
// neighbors' borders, in place. It computes the full (face-and-corner)
// insulation layer once via overlap.Compute, groups it by owning tree, and
// for each local tree uses the candidates landing on that tree to drive
// cross-tree refinement.
func Forest(f *forest.Forest, opts *Options) error {
	log := opts.logger()
	met := opts.metrics()

	if f.LastLocalTree < f.FirstLocalTree {
		return nil
	}

	ghosts, err := overlap.Compute(f, &overlap.Options{Mode: overlap.ModeFull, Logger: log, Metrics: met})
	if err != nil {
		return err
	}
	byTree := map[int32][]quadrant.Quadrant{}
	for _, g := range ghosts {
		byTree[g.WhichTree] = append(byTree[g.WhichTree], g)
	}

	bOpts := opts.balanceOptions()
	p, initFn := opts.pool(), opts.initFn()
	for which := f.FirstLocalTree; which <= f.LastLocalTree; which++ {
		t := f.Tree(which)
		if t == nil || t.Len() == 0 {
			continue
		}
		if err := balanceAgainstBorder(t, byTree[which], bOpts, p, initFn); err != nil {
			return err
		}
	}
	log.Debug("borderbalance.Forest: balanced %d trees", f.LastLocalTree-f.FirstLocalTree+1)

	return nil
}

// balanceAgainstBorder first balances t against its own same-tree
// neighbors, then repeatedly refines any leaf whose border container is
// more than one level finer, re-balancing intra-tree after each round,
// until a fixed point is reached. Every refinement here follows the same
// pool discipline as balance.Tree's own: allocate a handle for each new
// child, free the superseded leaf's handle.
func balanceAgainstBorder(t *tree.Tree, border []quadrant.Quadrant, bOpts *balance.Options, p *pool.Pool, initFn pool.InitFn) error {
	if err := balance.Tree(t, bOpts); err != nil {
		return err
	}
	if len(border) == 0 {
		return nil
	}

	sorted := append([]quadrant.Quadrant(nil), border...)
	sort.Slice(sorted, func(i, j int) bool { return quadrant.Compare(sorted[i], sorted[j]) < 0 })

	for {
		leaves := append([]quadrant.Quadrant(nil), t.Leaves()...)
		liveBefore, nonNilBefore := 0, 0
		if p != nil {
			liveBefore, nonNilBefore = p.LiveCount(), balance.CountWithPayload(leaves)
		}
		toRefine := map[int]bool{}

		for i, q := range leaves {
			container, ok := borderContainer(sorted, quadrant.FirstDescendantMorton(q))
			if !ok {
				continue
			}
			if container.Level > q.Level+1 {
				toRefine[i] = true
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
		if p != nil {
			liveAfter, nonNilAfter := p.LiveCount(), balance.CountWithPayload(next)
			assert.Invariantf(liveAfter-liveBefore == nonNilAfter-nonNilBefore,
				"borderbalance: pool live count drifted from payload-bearing leaf count (live %d->%d, payload %d->%d)",
				liveBefore, liveAfter, nonNilBefore, nonNilAfter)
		}
		if err := t.SetLeaves(tree.Linearize(next)); err != nil {
			return err
		}
		if err := balance.Tree(t, bOpts); err != nil {
			return err
		}
	}

	return nil
}

// borderContainer finds the border candidate whose cell contains the
// deepest-level point identified by morton, mirroring balance.go's own
// findOwner lookup but over the cross-tree border set instead of the
// tree's own leaves.
func borderContainer(sorted []quadrant.Quadrant, morton uint64) (quadrant.Quadrant, bool) {
	idx := sort.Search(len(sorted), func(i int) bool {
		return quadrant.LastDescendantMorton(sorted[i]) >= morton
	})
	if idx >= len(sorted) {
		return quadrant.Quadrant{}, false
	}
	if quadrant.FirstDescendantMorton(sorted[idx]) > morton {
		return quadrant.Quadrant{}, false
	}

	return sorted[idx], true
}
