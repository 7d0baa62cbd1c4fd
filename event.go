package aox

import "go.uber.org/atomic"

// Event couples a signal with an optional payload and a reference count.
// Pooled events are created by Pool.Allocate with one reference owned by the
// producer; posting transfers that reference to the target queue, and the
// kernel releases it after the consumer's dispatch completes. When the count
// reaches zero the buffer returns to its pool immediately.
//
// Payloads are immutable once posted. Publish delivers one shared Event
// instance to every subscriber, so a handler must never write through Data.
type Event struct {
	Sig  Signal
	Data any

	refs   atomic.Int32
	pool   *Pool
	slot   int
	static bool
}

// NewStaticEvent returns an event that does not participate in pooling or
// reference counting. Static events suit signals that carry no per-post
// state and are posted from construction-time code; they are never
// reclaimed and may be posted any number of times.
func NewStaticEvent(sig Signal, data any) *Event {
	return &Event{Sig: sig, Data: data, static: true}
}

// Retain adds a reference, allowing one extra delivery of this event.
// A producer multicasting an event by hand calls Retain once per additional
// target before posting. Publish manages its own counts.
func (e *Event) Retain() {
	if e.static {
		return
	}
	e.refs.Inc()
}

// Release drops one reference; the last release reclaims the buffer
// immediately. The kernel releases the engine's reference after each
// dispatch, so the only callers outside the runtime are producers
// discarding an event they allocated but never posted. Reading an event
// after its last release is a defect.
func (e *Event) Release() {
	if e.static {
		return
	}
	switch n := e.refs.Dec(); {
	case n == 0:
		e.pool.reclaim(e.slot)
	case n < 0:
		invariant("event.Release", "reference count underflow for signal %d", e.Sig)
	}
}

// preload sets the count for a multi-recipient delivery before the first
// enqueue, so the count cannot dip to zero mid-delivery.
func (e *Event) preload(n int) {
	e.refs.Store(int32(n))
}
