// Package testutil provides test collaborators for the active-object
// runtime: a Collector active that records every event delivered to it, and
// a conformance fixture machine exercising the full transition repertoire.
package testutil

import (
	"sync"

	"github.com/Archontes/aox"
)

// Delivery is one event as seen by a Collector. Sig and Data are copied at
// dispatch time, so a Delivery stays valid after the event buffer is
// reclaimed.
type Delivery struct {
	Sig  aox.Signal
	Data any
}

// Collector is a one-state active object that consumes and records every
// event posted or published to it. Tests register collectors under the names
// their subjects expect to find (for example "tunnel" or "ship") and assert
// on the recorded deliveries afterwards.
type Collector struct {
	mu         sync.Mutex
	active     *aox.Active
	deliveries []Delivery
}

// NewCollector registers a collector active on k under the given name and
// priority.
func NewCollector(k *aox.Kernel, name string, prio uint8, opts ...aox.ActiveOption) (*Collector, error) {
	c := &Collector{}
	m, err := aox.NewMachine(name, "collecting", []aox.State{{
		ID:      "collecting",
		Handler: c.collect,
	}})
	if err != nil {
		return nil, err
	}
	a, err := k.AddActive(name, prio, m, opts...)
	if err != nil {
		return nil, err
	}
	c.active = a
	return c, nil
}

func (c *Collector) collect(e *aox.Event) aox.Disposition {
	c.mu.Lock()
	c.deliveries = append(c.deliveries, Delivery{Sig: e.Sig, Data: e.Data})
	c.mu.Unlock()
	return aox.Handled()
}

// Active returns the collector's registered active object.
func (c *Collector) Active() *aox.Active { return c.active }

// Deliveries returns a snapshot of everything delivered so far.
func (c *Collector) Deliveries() []Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Delivery, len(c.deliveries))
	copy(out, c.deliveries)
	return out
}

// BySignal returns the recorded deliveries carrying sig, in delivery order.
func (c *Collector) BySignal(sig aox.Signal) []Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Delivery
	for _, d := range c.deliveries {
		if d.Sig == sig {
			out = append(out, d)
		}
	}
	return out
}

// Reset discards the recorded deliveries.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliveries = nil
}
