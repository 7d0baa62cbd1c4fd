package aox

import "fmt"

// Subscribe registers the active for broadcasts of sig. Subscribing the same
// pair twice has the same effect as once. Subscriptions belong to startup
// wiring; the canonical place is the active's start hook.
func (k *Kernel) Subscribe(a *Active, sig Signal) {
	if a == nil {
		invariant("kernel.Subscribe", "nil active")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	list := k.subs[sig]
	for _, existing := range list {
		if existing == a {
			return
		}
	}
	// Keep subscriber lists in priority order so delivery matches the
	// scheduler's selection order.
	pos := len(list)
	for i, existing := range list {
		if a.prio < existing.prio {
			pos = i
			break
		}
	}
	list = append(list, nil)
	copy(list[pos+1:], list[pos:])
	list[pos] = a
	k.subs[sig] = list
}

// Publish broadcasts sig with an immutable payload to every current
// subscriber, sharing one event instance: the event is allocated with its
// reference count preloaded to the subscriber count, and one reference is
// transferred per delivery. With zero subscribers nothing is allocated and
// the call is a no-op.
//
// A subscriber whose queue cannot admit the event (per its policy) simply
// misses this broadcast; its share of the reference count is released and
// the drop is counted. Pool exhaustion fails the whole broadcast.
func (k *Kernel) Publish(sig Signal, data any) error {
	k.mu.RLock()
	list := append([]*Active(nil), k.subs[sig]...)
	k.mu.RUnlock()

	k.tracer.Publish(sig, len(list))
	if len(list) == 0 {
		return nil
	}

	e, err := k.pool.Allocate(sig, data)
	if err != nil {
		k.logger.Error("publish failed", "signal", sig, "error", err)
		return fmt.Errorf("publish signal %d: %w", sig, err)
	}
	e.preload(len(list))
	publishedTotal.Inc()

	for _, a := range list {
		dropped, err := a.queue.push(e)
		if err != nil {
			e.Release()
			droppedTotal.WithLabelValues(a.name, "reject").Inc()
			k.logger.Warn("subscriber missed broadcast, queue full",
				"active", a.name, "signal", sig)
			continue
		}
		if dropped != nil {
			// Capture before releasing: the last release zeroes the buffer.
			dropSig := dropped.Sig
			reason := "drop-oldest"
			if dropped == e {
				reason = "drop-newest"
			}
			dropped.Release()
			droppedTotal.WithLabelValues(a.name, reason).Inc()
			k.logger.Warn("event dropped during broadcast, queue full",
				"active", a.name, "signal", dropSig, "policy", reason)
		}
		queueDepth.WithLabelValues(a.name).Set(float64(a.queue.len()))
	}

	k.notify()
	return nil
}

// Subscribers reports how many actives currently subscribe to sig.
func (k *Kernel) Subscribers(sig Signal) int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.subs[sig])
}
