// Package realtime drives a kernel's logical clock from wall time. The core
// runtime is deliberately tickless — tests and replay tools call Kernel.Tick
// themselves — and this package is the one place wall-clock time enters: a
// fixed-rate ticker that advances the kernel and drains the resulting work
// each period.
package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/Archontes/aox"
)

// DefaultTickRate is one tick every 16.667ms, i.e. 60 ticks per second.
const DefaultTickRate = 16667 * time.Microsecond

// Config configures a Driver.
type Config struct {
	// TickRate is the fixed period between kernel ticks (default
	// DefaultTickRate). Work left over from a slow tick delays the next
	// one; the driver never runs ticks concurrently.
	TickRate time.Duration
}

// Driver owns the goroutine that periodically calls Kernel.Tick and then
// dispatches until idle. Exactly one driver should run per kernel, since the
// kernel's dispatch side is single-threaded by contract.
type Driver struct {
	kernel  *aox.Kernel
	rate    time.Duration
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New creates a stopped driver for k.
func New(k *aox.Kernel, cfg Config) *Driver {
	rate := cfg.TickRate
	if rate <= 0 {
		rate = DefaultTickRate
	}
	return &Driver{kernel: k, rate: rate}
}

// TickRate returns the driver's fixed tick period.
func (d *Driver) TickRate() time.Duration { return d.rate }

// Start launches the tick loop. The kernel is started first if the caller
// has not done so. Start may be called once per driver.
func (d *Driver) Start(ctx context.Context) error {
	if d.cancel != nil {
		return errors.New("realtime: driver already started")
	}
	if !d.kernel.Started() {
		if err := d.kernel.Start(); err != nil {
			return err
		}
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.stopped = make(chan struct{})
	go d.loop(ctx)
	return nil
}

// Stop halts the tick loop and waits for the in-flight tick, if any, to
// finish. Safe to call on a driver that never started.
func (d *Driver) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.stopped
}

func (d *Driver) loop(ctx context.Context) {
	defer close(d.stopped)
	ticker := time.NewTicker(d.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.kernel.Tick()
			d.kernel.RunToIdle()
		}
	}
}
