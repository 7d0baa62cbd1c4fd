package aox

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolExhausted is returned by allocation when no event buffer is
	// free. Recoverable only if the producer has a fallback (for example,
	// skipping a non-critical broadcast).
	ErrPoolExhausted = errors.New("event pool exhausted")

	// ErrQueueOverflow is returned by a post when the target queue is full
	// and its policy is PolicyReject.
	ErrQueueOverflow = errors.New("event queue overflow")

	// ErrInvalidConstruction is returned for startup-time defects: duplicate
	// priorities or names, a cycle in a parent chain, an initial-transition
	// target outside its state's descendants, or registration on a kernel
	// that already started. Always fatal; detected before any dispatch.
	ErrInvalidConstruction = errors.New("invalid construction")
)

// InvariantError reports a defect in state-table construction or runtime use
// that cannot be recovered at runtime: dispatching an uninitialized machine,
// a handler naming an unknown transition target, or an event reference count
// going negative. The runtime panics with an InvariantError rather than
// continuing with possibly corrupted pool or queue state.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("engine invariant violated in %s: %s", e.Op, e.Detail)
}

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)})
}
