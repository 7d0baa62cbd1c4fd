package aox

import "sync"

// OverflowPolicy selects what a full queue does with an incoming event.
type OverflowPolicy int

const (
	// PolicyReject refuses the new event and reports ErrQueueOverflow to
	// the producer. This is the default: overflow is a sizing defect the
	// producer should see, never a silent drop.
	PolicyReject OverflowPolicy = iota
	// PolicyDropOldest evicts the oldest queued event to admit the new one.
	PolicyDropOldest
	// PolicyDropNewest discards the incoming event and keeps the queue as
	// is.
	PolicyDropNewest
)

func (p OverflowPolicy) String() string {
	switch p {
	case PolicyReject:
		return "reject"
	case PolicyDropOldest:
		return "drop-oldest"
	case PolicyDropNewest:
		return "drop-newest"
	default:
		return "unknown"
	}
}

// DefaultQueueCapacity is used when an active is built without
// WithQueueCapacity.
const DefaultQueueCapacity = 32

// queue is the bounded FIFO event queue owned by one active object. Pushes
// may come from any goroutine (timers, other actives' handlers); pops happen
// only on the kernel's dispatch goroutine, guarded by the same mutex.
type queue struct {
	mu     sync.Mutex
	buf    []*Event
	head   int
	count  int
	policy OverflowPolicy
}

func newQueue(capacity int, policy OverflowPolicy) *queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &queue{buf: make([]*Event, capacity), policy: policy}
}

// push appends e in FIFO order. When full, the policy decides: the returned
// dropped event (if any) is the one the caller must release, and err is
// non-nil only under PolicyReject.
func (q *queue) push(e *Event) (dropped *Event, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.buf) {
		switch q.policy {
		case PolicyReject:
			return nil, ErrQueueOverflow
		case PolicyDropOldest:
			dropped = q.buf[q.head]
			q.buf[q.head] = nil
			q.head = (q.head + 1) % len(q.buf)
			q.count--
		case PolicyDropNewest:
			return e, nil
		}
	}

	q.buf[(q.head+q.count)%len(q.buf)] = e
	q.count++
	return dropped, nil
}

// pop removes and returns the oldest event, or nil when empty.
func (q *queue) pop() *Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}
	e := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return e
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}
