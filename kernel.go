package aox

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.uber.org/atomic"
)

// Kernel is the cooperative run-to-completion scheduler plus the shared
// services actives depend on: the event pool, the publish/subscribe
// registry, the time-event service, and the name-to-handle registry.
//
// Scheduling is strict priority: among actives with pending events the one
// with the lowest priority value runs next, and a lower-urgency active makes
// no progress while a more urgent one has work. Starvation under sustained
// load is expected behavior, not a defect. FIFO order is preserved within
// each queue.
//
// Dispatching (Step, RunToIdle, Run) must be driven from one goroutine at a
// time. Post, Publish, and Tick are safe from any goroutine.
type Kernel struct {
	logger *slog.Logger
	tracer Tracer
	pool   *Pool

	mu      sync.RWMutex
	actives []*Active // ascending priority value: most urgent first
	byName  map[string]*Active
	subs    map[Signal][]*Active
	timers  []*TimeEvent
	started bool

	ticks atomic.Uint64
	wake  chan struct{}
}

// NewKernel creates a kernel with its event pool and empty registries.
func NewKernel(opts ...Option) *Kernel {
	k := &Kernel{
		byName: make(map[string]*Active),
		subs:   make(map[Signal][]*Active),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.logger == nil {
		k.logger = slog.Default()
	}
	if k.tracer == nil {
		k.tracer = nopTracer{}
	}
	if k.pool == nil {
		k.pool = NewPool(DefaultPoolCapacity)
	}
	return k
}

// Pool returns the kernel's event pool.
func (k *Kernel) Pool() *Pool { return k.pool }

// Ticks returns the number of Tick calls so far.
func (k *Kernel) Ticks() uint64 { return k.ticks.Load() }

// Started reports whether Start has run.
func (k *Kernel) Started() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.started
}

// AddActive registers an active object with a unique name and a unique
// static priority (lower value = more urgent, minimum 1). Registration is
// construction-time only: adding after Start, reusing a name, or reusing a
// priority fails with ErrInvalidConstruction.
func (k *Kernel) AddActive(name string, prio uint8, m *Machine, opts ...ActiveOption) (*Active, error) {
	if m == nil {
		return nil, fmt.Errorf("active %q: %w: nil machine", name, ErrInvalidConstruction)
	}
	if prio == 0 {
		return nil, fmt.Errorf("active %q: %w: priority must be >= 1", name, ErrInvalidConstruction)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.started {
		return nil, fmt.Errorf("active %q: %w: kernel already started", name, ErrInvalidConstruction)
	}
	if _, dup := k.byName[name]; dup {
		return nil, fmt.Errorf("active %q: %w: name already registered", name, ErrInvalidConstruction)
	}
	for _, other := range k.actives {
		if other.prio == prio {
			return nil, fmt.Errorf("active %q: %w: priority %d already held by %q",
				name, ErrInvalidConstruction, prio, other.name)
		}
	}

	a := &Active{
		name:    name,
		prio:    prio,
		machine: m,
		queue:   newQueue(DefaultQueueCapacity, PolicyReject),
		kernel:  k,
	}
	for _, opt := range opts {
		opt(a)
	}
	if _, isNop := m.tracer.(nopTracer); isNop {
		m.tracer = k.tracer
	}

	k.byName[name] = a
	k.actives = append(k.actives, a)
	sort.Slice(k.actives, func(i, j int) bool { return k.actives[i].prio < k.actives[j].prio })
	return a, nil
}

// Active looks up a registered active by name. This registry replaces
// process-wide singleton handles: collaborators receive the kernel (or the
// handle itself) by injection and resolve peers by logical name.
func (k *Kernel) Active(name string) (*Active, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	a, ok := k.byName[name]
	return a, ok
}

// Actives returns the registered actives in priority order.
func (k *Kernel) Actives() []*Active {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]*Active, len(k.actives))
	copy(out, k.actives)
	return out
}

// Start freezes registration and initializes every active in priority
// order: the start hook first (subscriptions, dictionary names), then the
// machine's initial transition cascade. No dispatch happens before Start.
func (k *Kernel) Start() error {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return fmt.Errorf("%w: kernel already started", ErrInvalidConstruction)
	}
	if len(k.actives) == 0 {
		k.mu.Unlock()
		return fmt.Errorf("%w: kernel has no actives", ErrInvalidConstruction)
	}
	k.started = true
	list := make([]*Active, len(k.actives))
	copy(list, k.actives)
	k.mu.Unlock()

	for _, a := range list {
		if a.startHook != nil {
			a.startHook(a)
		}
		a.machine.Init()
	}
	k.logger.Debug("kernel started", "actives", len(list))
	return nil
}

// Allocate draws an event from the kernel's pool.
func (k *Kernel) Allocate(sig Signal, data any) (*Event, error) {
	return k.pool.Allocate(sig, data)
}

// Post enqueues an event into target's queue, transferring the caller's
// reference. sender is a diagnostic identity for traces and may be empty.
// When the queue is full the active's policy applies: PolicyReject releases
// the event and returns ErrQueueOverflow; the drop policies succeed but
// count and log the dropped event. Events posted by one producer to one
// consumer are dispatched in post order.
func (k *Kernel) Post(target *Active, e *Event, sender string) error {
	if target == nil || e == nil {
		invariant("kernel.Post", "nil target or event")
	}
	sig := e.Sig
	k.tracer.Post(target.name, sig, sender)

	dropped, err := target.queue.push(e)
	if err != nil {
		e.Release()
		droppedTotal.WithLabelValues(target.name, "reject").Inc()
		k.logger.Warn("event rejected, queue full",
			"active", target.name, "signal", sig, "sender", sender)
		return fmt.Errorf("post signal %d to %q: %w", sig, target.name, ErrQueueOverflow)
	}
	if dropped != nil {
		// Capture before releasing: the last release zeroes the buffer.
		dropSig := dropped.Sig
		reason := "drop-oldest"
		if dropped == e {
			reason = "drop-newest"
		}
		dropped.Release()
		droppedTotal.WithLabelValues(target.name, reason).Inc()
		k.logger.Warn("event dropped, queue full",
			"active", target.name, "signal", dropSig, "policy", reason)
	}

	queueDepth.WithLabelValues(target.name).Set(float64(target.queue.len()))
	k.notify()
	return nil
}

// nextReady returns the most urgent active with a non-empty queue.
func (k *Kernel) nextReady() *Active {
	k.mu.RLock()
	defer k.mu.RUnlock()
	for _, a := range k.actives {
		if a.queue.len() > 0 {
			return a
		}
	}
	return nil
}

// Step runs one run-to-completion dispatch: pop the oldest event of the
// most urgent non-empty queue, dispatch it, release the engine's reference.
// Returns false when every queue is empty.
func (k *Kernel) Step() bool {
	for {
		a := k.nextReady()
		if a == nil {
			return false
		}
		e := a.queue.pop()
		if e == nil {
			continue
		}
		queueDepth.WithLabelValues(a.name).Set(float64(a.queue.len()))

		outcome := a.machine.Dispatch(e)
		e.Release()
		dispatchedTotal.WithLabelValues(a.name, outcome.String()).Inc()
		return true
	}
}

// RunToIdle steps until every queue is empty, including events produced by
// the dispatches themselves, and returns the number of events dispatched.
func (k *Kernel) RunToIdle() int {
	n := 0
	for k.Step() {
		n++
	}
	return n
}

// Run drives the scheduler until ctx is done, sleeping on the wake channel
// whenever every queue is empty. Starts the kernel if Start was not called.
func (k *Kernel) Run(ctx context.Context) error {
	k.mu.RLock()
	started := k.started
	k.mu.RUnlock()
	if !started {
		if err := k.Start(); err != nil {
			return err
		}
	}

	for {
		if k.Step() {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-k.wake:
		}
	}
}

// notify nudges a sleeping Run loop; never blocks.
func (k *Kernel) notify() {
	select {
	case k.wake <- struct{}{}:
	default:
	}
}
