package aox

import "log/slog"

// Option configures a Kernel at construction.
type Option func(*Kernel)

// WithLogger sets the kernel's structured logger (default slog.Default).
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) { k.logger = logger }
}

// WithTracer attaches an instrumentation tracer. Machines registered with
// AddActive inherit it unless they carry their own.
func WithTracer(t Tracer) Option {
	return func(k *Kernel) { k.tracer = t }
}

// WithPoolCapacity sizes the kernel's event pool (default
// DefaultPoolCapacity).
func WithPoolCapacity(n int) Option {
	return func(k *Kernel) { k.pool = NewPool(n) }
}

// WithPool supplies a pre-built event pool, for sharing one pool across
// kernels or inspecting it in tests.
func WithPool(p *Pool) Option {
	return func(k *Kernel) { k.pool = p }
}
