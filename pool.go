package aox

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// DefaultPoolCapacity is the event pool size used when a kernel is built
// without WithPoolCapacity.
const DefaultPoolCapacity = 64

// Pool is a fixed-capacity arena of event buffers. Allocation pops a slot
// index from a free list; the last release of an event pushes its slot back.
// There is no deferred collection and no growth: when the free list is empty
// Allocate fails with ErrPoolExhausted.
//
// The free list is guarded by a single mutex ("exactly one mutator at a
// time"); already-published events are shared read-only and tracked with
// atomic counters, so any number of consumers may hold references.
type Pool struct {
	mu    sync.Mutex
	slots []Event
	free  []int

	inUse     atomic.Int32
	highWater atomic.Int32
}

// NewPool creates a pool of capacity event buffers.
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}
	p := &Pool{
		slots: make([]Event, capacity),
		free:  make([]int, capacity),
	}
	for i := range p.free {
		p.free[i] = i
	}
	return p
}

// Allocate takes a free buffer, stamps it with sig and data, and returns it
// holding one reference owned by the caller. Posting the event transfers
// that reference to the target queue; allocate-then-post is the expected
// usage pattern.
func (p *Pool) Allocate(sig Signal, data any) (*Event, error) {
	p.mu.Lock()
	n := len(p.free)
	if n == 0 {
		p.mu.Unlock()
		poolExhaustedTotal.Inc()
		return nil, fmt.Errorf("allocate signal %d: %w", sig, ErrPoolExhausted)
	}
	slot := p.free[n-1]
	p.free = p.free[:n-1]
	p.mu.Unlock()

	e := &p.slots[slot]
	e.Sig = sig
	e.Data = data
	e.pool = p
	e.slot = slot
	e.refs.Store(1)

	in := p.inUse.Inc()
	for {
		hw := p.highWater.Load()
		if in <= hw || p.highWater.CompareAndSwap(hw, in) {
			break
		}
	}
	eventsAllocatedTotal.Inc()
	poolInUse.Set(float64(in))
	poolHighWater.Set(float64(p.highWater.Load()))
	return e, nil
}

// reclaim returns a slot to the free list after its last reference is gone.
func (p *Pool) reclaim(slot int) {
	e := &p.slots[slot]
	e.Sig = SigNone
	e.Data = nil

	p.mu.Lock()
	p.free = append(p.free, slot)
	p.mu.Unlock()

	eventsReclaimedTotal.Inc()
	poolInUse.Set(float64(p.inUse.Dec()))
}

// Free reports how many buffers are currently available.
func (p *Pool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Capacity reports the fixed pool size.
func (p *Pool) Capacity() int {
	return len(p.slots)
}

// HighWater reports the most buffers ever in use at once, for sizing the
// pool against real workloads.
func (p *Pool) HighWater() int {
	return int(p.highWater.Load())
}
