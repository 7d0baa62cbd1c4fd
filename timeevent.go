package aox

// TimeEvent posts a signal to its owning active after a number of kernel
// ticks. Owned by one active for the process lifetime; armed and disarmed
// dynamically. A period of zero makes the event one-shot.
type TimeEvent struct {
	kernel *Kernel
	owner  *Active
	sig    Signal
	data   any

	ctr    uint32
	period uint32
	armed  bool
}

// NewTimeEvent creates a disarmed time event owned by owner. data, if
// non-nil, becomes the payload of every event the timer posts.
func (k *Kernel) NewTimeEvent(owner *Active, sig Signal, data any) *TimeEvent {
	if owner == nil {
		invariant("kernel.NewTimeEvent", "nil owner")
	}
	te := &TimeEvent{kernel: k, owner: owner, sig: sig, data: data}
	k.mu.Lock()
	k.timers = append(k.timers, te)
	k.mu.Unlock()
	return te
}

// Arm schedules the event to fire after delay ticks, then every period
// ticks; period 0 means one-shot. Re-arming an armed event resets its
// counter. delay must be at least 1.
func (te *TimeEvent) Arm(delay, period uint32) {
	if delay == 0 {
		invariant("timeevent.Arm", "zero initial delay for signal %d", te.sig)
	}
	te.kernel.mu.Lock()
	defer te.kernel.mu.Unlock()
	te.ctr = delay
	te.period = period
	te.armed = true
}

// Disarm prevents future firing. An event the timer already enqueued is not
// recalled. Disarming a disarmed event is a no-op.
func (te *TimeEvent) Disarm() {
	te.kernel.mu.Lock()
	defer te.kernel.mu.Unlock()
	te.armed = false
	te.ctr = 0
}

// Armed reports whether the event is scheduled to fire.
func (te *TimeEvent) Armed() bool {
	te.kernel.mu.Lock()
	defer te.kernel.mu.Unlock()
	return te.armed
}

// Tick advances global time by one step, typically called by an external
// timer collaborator (see package realtime). Every armed time event's
// counter decrements; at zero the event posts its signal to its owner and
// reloads or disarms. Afterwards the reserved SigTimeTick broadcast goes
// out to any subscribers, so actives needing periodic updates can subscribe
// instead of owning a timer.
func (k *Kernel) Tick() {
	k.ticks.Inc()
	ticksTotal.Inc()

	// Decide firings under the lock, post after releasing it: posting only
	// touches per-queue locks and the wake channel.
	k.mu.Lock()
	var fires []*TimeEvent
	for _, te := range k.timers {
		if !te.armed {
			continue
		}
		te.ctr--
		if te.ctr > 0 {
			continue
		}
		fires = append(fires, te)
		if te.period > 0 {
			te.ctr = te.period
		} else {
			te.armed = false
		}
	}
	k.mu.Unlock()

	for _, te := range fires {
		e, err := k.pool.Allocate(te.sig, te.data)
		if err != nil {
			k.logger.Error("time event skipped, pool exhausted",
				"active", te.owner.name, "signal", te.sig)
			continue
		}
		timeEventsFiredTotal.Inc()
		if err := k.Post(te.owner, e, "timer"); err != nil {
			k.logger.Warn("time event lost at post",
				"active", te.owner.name, "signal", te.sig, "error", err)
		}
	}

	_ = k.Publish(SigTimeTick, nil)
}
