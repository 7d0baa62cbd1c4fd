// Package aox is an active-object runtime: independent event-driven objects,
// each owning one hierarchical state machine and one bounded event queue, run
// to completion by a cooperative strict-priority kernel and exchange
// reference-counted events drawn from a fixed-capacity pool.
//
// The building blocks are:
//
//   - Machine: one hierarchical state machine instance built from a plain
//     table of state records (id, parent, entry, exit, initial, handler).
//   - Active: a Machine coupled with a bounded FIFO queue and a unique
//     static priority.
//   - Kernel: the registry of actives, the run-to-completion scheduler, the
//     publish/subscribe registry, and the time-event service.
//   - Pool: the fixed-capacity arena of reference-counted event buffers.
//
// Nothing in the runtime blocks: handlers must complete without waiting, and
// concurrency between actives is expressed purely through asynchronous
// posting. Posting and ticking are safe from other goroutines; dispatching
// happens on whichever goroutine drives Kernel.Step, RunToIdle, or Run.
package aox
