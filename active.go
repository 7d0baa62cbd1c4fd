package aox

// Active couples one state machine with a private bounded event queue and a
// static priority. Actives are constructed once at startup via
// Kernel.AddActive and live for the process lifetime; the kernel guarantees
// an active never processes two events concurrently, so the machine and any
// embedding struct's fields are owned exclusively by the active's own
// dispatch.
type Active struct {
	name      string
	prio      uint8
	machine   *Machine
	queue     *queue
	kernel    *Kernel
	startHook func(*Active)
}

// ActiveOption configures an active at registration.
type ActiveOption func(*Active)

// WithQueueCapacity sets the bounded queue size (default
// DefaultQueueCapacity).
func WithQueueCapacity(n int) ActiveOption {
	return func(a *Active) { a.queue = newQueue(n, a.queue.policy) }
}

// WithQueuePolicy sets the queue's overflow policy (default PolicyReject).
func WithQueuePolicy(p OverflowPolicy) ActiveOption {
	return func(a *Active) { a.queue.policy = p }
}

// WithStartHook runs f during Kernel.Start, before the active's machine is
// initialized. The canonical place to subscribe to signals and register
// dictionary names.
func WithStartHook(f func(*Active)) ActiveOption {
	return func(a *Active) { a.startHook = f }
}

// Name returns the active's registry name.
func (a *Active) Name() string { return a.name }

// Priority returns the active's static priority. Lower values are more
// urgent; priorities are unique per kernel.
func (a *Active) Priority() uint8 { return a.prio }

// Machine returns the active's state machine.
func (a *Active) Machine() *Machine { return a.machine }

// State returns the machine's current leaf state ID.
func (a *Active) State() string { return a.machine.Current() }

// Post enqueues an event into this active's queue without a sender
// identity. Equivalent to Kernel.Post(a, e, "").
func (a *Active) Post(e *Event) error { return a.kernel.Post(a, e, "") }

// Subscribe registers this active for a broadcast signal. Idempotent.
func (a *Active) Subscribe(sig Signal) { a.kernel.Subscribe(a, sig) }

// QueueLen reports how many events are waiting in this active's queue.
func (a *Active) QueueLen() int { return a.queue.len() }
