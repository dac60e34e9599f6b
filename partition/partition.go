// Package partition implements the Partition engine: given a set of
// per-rank forests sharing one Connectivity, it computes a new even
// distribution of quadrants across ranks, exchanges the moved quadrants
// (headers and, for a nonzero DataSize, their payload bytes) asynchronously,
// and rebuilds each rank's local trees and global bookkeeping. Parallelism
// here is the one place in this module that is literally concurrent, since
// ranks are independent processes exchanging messages rather than sharing
// memory - an errgroup.Group drives a sending and a receiving goroutine per
// source/destination pair over a channel-based Transport that stands in for
// that inter-process transport.
package partition

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/katalvlaran/forest/forest"
	"github.com/katalvlaran/forest/internal/assert"
	"github.com/katalvlaran/forest/internal/flog"
	"github.com/katalvlaran/forest/internal/metrics"
	"github.com/katalvlaran/forest/pool"
	"github.com/katalvlaran/forest/quadrant"
	"github.com/katalvlaran/forest/tree"
	"github.com/katalvlaran/forest/wire"
	"golang.org/x/sync/errgroup"
)

// ErrRankCountMismatch indicates the forests slice's length does not equal
// every forest's own NumProcs, or the forests disagree on NumProcs.
var ErrRankCountMismatch = errors.New("partition: forests slice length does not match NumProcs")

// Options configures a Reshuffle call.
type Options struct {
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

// ComputeGlobalFirstQuadrant splits total quadrants as evenly as possible
// across numProcs ranks, returning the standard length-(numProcs+1)
// cumulative-count array: GFQ[p] is the count owned by ranks [0, p).
func ComputeGlobalFirstQuadrant(total int64, numProcs int32) []int64 {
	gfq := make([]int64, numProcs+1)
	for p := int32(0); p <= numProcs; p++ {
		gfq[p] = int64(p) * total / int64(numProcs)
	}

	return gfq
}

// Reshuffle redistributes quadrants evenly across the ranks represented by
// forests (forests[r].Rank must equal r; all must share NumProcs ==
// len(forests) and the same Connectivity). On success every forest's Trees,
// FirstLocalTree/LastLocalTree and GlobalFirstQuadrant/GlobalFirstPosition
// are rewritten in place to reflect the new partition; an empty resulting
// partition for rank r is encoded as FirstLocalTree = -1, LastLocalTree =
// -2, matching wire's "first=-1,last=-2" convention. Payload bytes travel
// with their quadrants: a migrated quadrant's source-rank handle is freed
// once its bytes are encoded, and a fresh handle is allocated in the
// destination rank's own Pool once its bytes are decoded - a Pool is never
// shared across the forests slice, so a handle value from one rank's Pool
// is meaningless in another's.
func Reshuffle(ctx context.Context, forests []*forest.Forest, opts *Options) error {
	log := opts.logger()
	met := opts.metrics()
	numProcs := int32(len(forests))
	for _, f := range forests {
		if f.NumProcs != numProcs {
			return ErrRankCountMismatch
		}
	}

	liveBefore := 0
	for _, f := range forests {
		if f.Pool != nil {
			liveBefore += f.Pool.LiveCount()
		}
	}

	oldGFQ := make([]int64, numProcs+1)
	localSeq := make([][]quadrant.Quadrant, numProcs)
	for r, f := range forests {
		localSeq[r] = flatten(f)
		oldGFQ[r+1] = oldGFQ[r] + int64(len(localSeq[r]))
	}
	total := oldGFQ[numProcs]
	newGFQ := ComputeGlobalFirstQuadrant(total, numProcs)
	log.Debug("partition.Reshuffle: total=%d numProcs=%d", total, numProcs)

	globalSeq := make([]quadrant.Quadrant, 0, total)
	for _, seq := range localSeq {
		globalSeq = append(globalSeq, seq...)
	}

	transport := NewLocalTransport()
	epoch := uuid.New() // stamps this call's send/recv pairs so a stale
	// async result from a previous Reshuffle can't be mistaken for this one.

	g, gctx := errgroup.WithContext(ctx)
	received := make([][]quadrant.Quadrant, numProcs)
	var mu sync.Mutex

	for src := int32(0); src < numProcs; src++ {
		for dst := int32(0); dst < numProcs; dst++ {
			lo := maxI64(oldGFQ[src], newGFQ[dst])
			hi := minI64(oldGFQ[src+1], newGFQ[dst+1])
			if lo >= hi {
				continue
			}
			src, dst, lo, hi := src, dst, lo, hi
			slice := localSeq[src][lo-oldGFQ[src] : hi-oldGFQ[src]]
			srcPool := forests[src].Pool
			payload, err := wire.EncodeRecords(slice, srcPool)
			if err != nil {
				return fmt.Errorf("partition: encoding rank %d -> %d: %w", src, dst, err)
			}
			if srcPool != nil {
				for _, q := range slice {
					srcPool.Free(pool.Handle(q.Payload))
				}
			}

			g.Go(func() error {
				return transport.Send(gctx, src, dst, epoch, payload)
			})
			g.Go(func() error {
				data, err := transport.Recv(gctx, src, dst, epoch)
				if err != nil {
					return err
				}
				qs, err := wire.DecodeRecords(data, forests[dst].Pool)
				if err != nil {
					return fmt.Errorf("partition: decoding rank %d -> %d: %w", src, dst, err)
				}
				if src != dst {
					met.PartitionMigrated.Add(float64(len(qs)))
				}
				mu.Lock()
				received[dst] = append(received[dst], qs...)
				mu.Unlock()

				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("partition: exchange failed: %w", err)
	}

	for r, f := range forests {
		if err := rebuild(f, received[r]); err != nil {
			return err
		}
		f.GlobalFirstQuadrant = newGFQ
	}
	positions := globalFirstPositions(globalSeq, newGFQ, numProcs)
	for _, f := range forests {
		f.GlobalFirstPosition = positions
	}

	liveAfter := 0
	for _, f := range forests {
		if f.Pool != nil {
			liveAfter += f.Pool.LiveCount()
		}
	}
	if liveBefore > 0 || liveAfter > 0 {
		// Every exchanged quadrant frees exactly one handle at its source
		// rank and allocates exactly one at its destination rank; quadrants
		// that stay on their rank make the same free-then-allocate round
		// trip within that rank's own Pool. So the total live count across
		// every rank's Pool is conserved by a reshuffle regardless of how
		// quadrants move between ranks.
		assert.Invariantf(liveBefore == liveAfter,
			"partition.Reshuffle: total pool live count drifted across reshuffle (%d -> %d)", liveBefore, liveAfter)
		met.PoolLive.Set(float64(liveAfter))
	}
	log.Debug("partition.Reshuffle: complete")

	return nil
}

// flatten concatenates a forest's locally populated trees' leaves, in
// increasing tree-index order, into one sequence ordered by tree and then
// by Morton order within each tree.
func flatten(f *forest.Forest) []quadrant.Quadrant {
	var out []quadrant.Quadrant
	if f.LastLocalTree < f.FirstLocalTree {
		return out
	}
	for which := f.FirstLocalTree; which <= f.LastLocalTree; which++ {
		if t := f.Tree(which); t != nil {
			out = append(out, t.Leaves()...)
		}
	}

	return out
}

// rebuild regroups a rank's newly received quadrants by WhichTree, replaces
// the forest's Trees and local tree range, or encodes an empty partition.
func rebuild(f *forest.Forest, qs []quadrant.Quadrant) error {
	if len(qs) == 0 {
		f.FirstLocalTree, f.LastLocalTree = -1, -2
		for i := range f.Trees {
			f.Trees[i] = nil
		}

		return nil
	}

	byTree := map[int32][]quadrant.Quadrant{}
	minTree, maxTree := qs[0].WhichTree, qs[0].WhichTree
	for _, q := range qs {
		byTree[q.WhichTree] = append(byTree[q.WhichTree], q)
		if q.WhichTree < minTree {
			minTree = q.WhichTree
		}
		if q.WhichTree > maxTree {
			maxTree = q.WhichTree
		}
	}

	for i := range f.Trees {
		f.Trees[i] = nil
	}
	for which, leaves := range byTree {
		t := tree.New(which)
		if err := t.SetLeaves(tree.Linearize(leaves)); err != nil {
			return err
		}
		f.Trees[which] = t
	}
	f.FirstLocalTree, f.LastLocalTree = minTree, maxTree

	return nil
}

// globalFirstPositions computes the quadrant starting each rank's new
// share of globalSeq, or an empty marker (Tree: -1) for a rank that ends up
// owning nothing.
func globalFirstPositions(globalSeq []quadrant.Quadrant, gfq []int64, numProcs int32) []forest.GlobalPosition {
	out := make([]forest.GlobalPosition, numProcs+1)
	for r := int32(0); r <= numProcs; r++ {
		if gfq[r] >= int64(len(globalSeq)) || (r < numProcs && gfq[r] == gfq[r+1]) {
			out[r] = forest.GlobalPosition{Tree: -1}

			continue
		}
		q := globalSeq[gfq[r]]
		out[r] = forest.GlobalPosition{Tree: q.WhichTree, X: q.X, Y: q.Y, Level: q.Level}
	}

	return out
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}

	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}

	return b
}
