// Package pool implements a free-list arena for quadrant payload data.
//
// A payload handle is treated as an arena index, never a Go pointer: a
// Handle is an int64 slot index into a Pool, so quadrants can be copied,
// serialized across the wire, and compared for equality without any
// aliasing concerns - exactly the data-size-agnostic blob storage the
// forest's DataSize field describes. The completion, balance,
// border-balance and partition engines all allocate through this package
// whenever they materialize a new leaf, and free through it whenever a
// leaf is superseded, so LiveCount reflects exactly the leaves currently
// owned by a tree once an engine call returns.
package pool

import (
	"errors"
	"sync"

	"github.com/katalvlaran/forest/quadrant"
)

// ErrInvalidHandle indicates a Handle that was never allocated, or has
// since been freed, was passed to Get/Set/Free.
var ErrInvalidHandle = errors.New("pool: invalid or freed handle")

// Handle is an opaque index into a Pool's payload arena. The zero Handle is
// not reserved; use NilHandle to represent "no payload".
type Handle int64

// NilHandle is the sentinel Handle meaning "no payload allocated".
const NilHandle Handle = -1

// Pool is a thread-safe, fixed-element-size arena of payload byte blobs.
// Freed slots are recycled via a free list, so live handles are stable
// across Alloc/Free churn - required for quadrants whose Payload handle
// must survive a balance or partition pass unchanged until explicitly
// reallocated.
type Pool struct {
	mu       sync.RWMutex
	dataSize int
	slots    [][]byte
	live     []bool
	free     []Handle
}

// New creates an empty Pool whose every allocated slot is dataSize bytes.
// dataSize may be zero (quadrants carry no user payload).
func New(dataSize int) *Pool {
	return &Pool{dataSize: dataSize}
}

// DataSize returns the fixed per-slot payload size this Pool was built with.
func (p *Pool) DataSize() int {
	return p.dataSize
}

// Alloc reserves a new zeroed slot and returns its Handle.
func (p *Pool) Alloc() Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		h := p.free[n-1]
		p.free = p.free[:n-1]
		p.live[h] = true
		for i := range p.slots[h] {
			p.slots[h][i] = 0
		}

		return h
	}
	h := Handle(len(p.slots))
	p.slots = append(p.slots, make([]byte, p.dataSize))
	p.live = append(p.live, true)

	return h
}

// Free releases h back to the free list. Freeing NilHandle or an already
// freed handle is a no-op.
func (p *Pool) Free(h Handle) {
	if h == NilHandle {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(h) < 0 || int(h) >= len(p.live) || !p.live[h] {
		return
	}
	p.live[h] = false
	p.free = append(p.free, h)
}

// Get returns a copy of the payload bytes stored at h.
func (p *Pool) Get(h Handle) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if h == NilHandle || int(h) < 0 || int(h) >= len(p.live) || !p.live[h] {
		return nil, ErrInvalidHandle
	}
	out := make([]byte, len(p.slots[h]))
	copy(out, p.slots[h])

	return out, nil
}

// Set overwrites the payload bytes stored at h. data is copied; it need not
// equal DataSize() in length, but data beyond the slot's capacity is
// silently truncated, matching a fixed-width arena element.
func (p *Pool) Set(h Handle, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h == NilHandle || int(h) < 0 || int(h) >= len(p.live) || !p.live[h] {
		return ErrInvalidHandle
	}
	n := copy(p.slots[h], data)
	for i := n; i < len(p.slots[h]); i++ {
		p.slots[h][i] = 0
	}

	return nil
}

// InitFn initializes a newly materialized quadrant's payload exactly once,
// called by the emitting engine right after it has allocated q's handle and
// stored it in q.Payload. A nil InitFn leaves the freshly allocated
// (zeroed) slot as-is.
type InitFn func(p *Pool, q *quadrant.Quadrant) error

// AllocInit allocates a fresh handle for q, stores it in q.Payload, and -
// if initFn is non-nil - invokes it so a caller can populate the payload
// bytes. A nil Pool is a no-op, leaving q.Payload unchanged, which
// is the correct behavior for a DataSize == 0 forest (quadrants carry no
// payload at all).
func (p *Pool) AllocInit(initFn InitFn, q *quadrant.Quadrant) error {
	if p == nil {
		return nil
	}
	q.Payload = int64(p.Alloc())
	if initFn != nil {
		return initFn(p, q)
	}

	return nil
}

// LiveCount returns the number of currently allocated (unfreed) handles.
// Each engine that mutates a tree's leaf set samples this value before and
// after its own run: transient quadrants created mid-algorithm and later
// superseded are always freed again, so the delta in LiveCount across one
// run must equal the delta in the tree's own payload-bearing leaf count -
// not an absolute equality, since a Pool is ordinarily shared across every
// tree in a forest.
func (p *Pool) LiveCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, l := range p.live {
		if l {
			n++
		}
	}

	return n
}
