package aox

import "fmt"

// Outcome is the result of dispatching one event to a machine.
type Outcome int

const (
	// OutcomeIgnored: no handler on the current leaf's ancestor chain
	// recognized the signal.
	OutcomeIgnored Outcome = iota
	// OutcomeHandled: a handler consumed the event without a state change.
	OutcomeHandled
	// OutcomeTransitioned: a handler requested a transition and it was
	// executed, including entry/exit chains and initial cascades.
	OutcomeTransitioned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeHandled:
		return "handled"
	case OutcomeTransitioned:
		return "transitioned"
	default:
		return "unknown"
	}
}

// Machine executes one hierarchical state machine instance. States form a
// tree under an implicit top state: records with no parent are topmost, and
// an event delegated past them is ignored. A machine always has exactly one
// current leaf state between dispatch calls.
//
// Machine is not safe for concurrent use on its own; the kernel guarantees
// that at most one dispatch runs per active at a time.
type Machine struct {
	name        string
	states      map[string]*node
	initial     *node
	current     *node
	tracer      Tracer
	initialized bool
}

// MachineOption configures a Machine at construction.
type MachineOption func(*Machine)

// WithMachineTracer attaches a tracer to this machine only. Machines added
// to a kernel inherit the kernel's tracer unless one was set here.
func WithMachineTracer(t Tracer) MachineOption {
	return func(m *Machine) { m.tracer = t }
}

// NewMachine builds a machine from a state table. initial names the state
// entered by Init; it may be any state in the table, and its own initial
// transitions cascade until a leaf is reached. Construction validates the
// table and fails with ErrInvalidConstruction on any structural defect.
func NewMachine(name, initial string, states []State, opts ...MachineOption) (*Machine, error) {
	nodes, err := buildNodes(states)
	if err != nil {
		return nil, fmt.Errorf("machine %q: %w", name, err)
	}
	start, ok := nodes[initial]
	if !ok {
		return nil, fmt.Errorf("machine %q: %w: unknown initial state %q",
			name, ErrInvalidConstruction, initial)
	}

	m := &Machine{
		name:    name,
		states:  nodes,
		initial: start,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracer == nil {
		m.tracer = nopTracer{}
	}
	return m, nil
}

// Name returns the machine's name as used in traces.
func (m *Machine) Name() string { return m.name }

// Current returns the ID of the current leaf state. Empty before Init.
func (m *Machine) Current() string {
	if m.current == nil {
		return ""
	}
	return m.current.id
}

// IsIn reports whether the given state is the current leaf or one of its
// ancestors.
func (m *Machine) IsIn(id string) bool {
	for s := m.current; s != nil; s = s.parent {
		if s.id == id {
			return true
		}
	}
	return false
}

// Init runs the machine's initial transition: every state from the top down
// to the configured initial state is entered parent-to-child, then nested
// initial transitions cascade until a leaf with none is reached. Init must
// run exactly once, before the first Dispatch.
func (m *Machine) Init() {
	if m.initialized {
		invariant("machine.Init", "machine %q initialized twice", m.name)
	}
	m.enterPath(nil, m.initial)
	m.current = m.initial
	m.drillInitial()
	m.initialized = true
}

// Dispatch looks up the current leaf's handler and, while the signal is not
// recognized, delegates up the parent chain. Reaching past the topmost state
// yields OutcomeIgnored. A handler may consume the event (OutcomeHandled) or
// request a transition, which is executed before Dispatch returns.
func (m *Machine) Dispatch(e *Event) Outcome {
	if !m.initialized {
		invariant("machine.Dispatch", "machine %q dispatched before Init", m.name)
	}
	m.tracer.Dispatch(m.name, e.Sig, m.current.id)

	for s := m.current; s != nil; s = s.parent {
		if s.handler == nil {
			continue
		}
		d := s.handler(e)
		switch d.kind {
		case dispPass:
			continue
		case dispHandled:
			return OutcomeHandled
		case dispTran:
			target, ok := m.states[d.target]
			if !ok {
				invariant("machine.Dispatch",
					"machine %q: handler of %q returned unknown transition target %q",
					m.name, s.id, d.target)
			}
			m.tracer.Transition(m.name, e.Sig, m.current.id, target.id)
			m.transition(target)
			return OutcomeTransitioned
		}
	}
	return OutcomeIgnored
}

// transition moves from the current leaf to target: exit actions from the
// leaf up to (excluding) the least common ancestor, child-to-parent; entry
// actions from below the LCA down to target, parent-to-child; then target's
// initial cascade. A self-transition (target is the current leaf) still runs
// the exit and entry actions, so per-entry state resets on re-entry.
func (m *Machine) transition(target *node) {
	src := m.current

	if src == target {
		m.exitState(src)
		m.enterState(src)
	} else {
		ancestor := lca(src, target)
		for s := src; s != ancestor; s = s.parent {
			m.exitState(s)
		}
		m.enterPath(ancestor, target)
	}

	m.current = target
	m.drillInitial()
}

// enterPath runs entry actions from just below ancestor down to target.
// A nil ancestor means the path starts at target's topmost ancestor.
func (m *Machine) enterPath(ancestor, target *node) {
	var path []*node
	for s := target; s != ancestor; s = s.parent {
		path = append(path, s)
	}
	for i := len(path) - 1; i >= 0; i-- {
		m.enterState(path[i])
	}
}

// drillInitial applies initial transitions from the current state until a
// state without one is reached, entering each intermediate state on the way
// down. Establishes the machine's leaf.
func (m *Machine) drillInitial() {
	for m.current.initial != nil {
		target := m.current.initial
		m.tracer.Init(m.name, m.current.id, target.id)
		m.enterPath(m.current, target)
		m.current = target
	}
}

func (m *Machine) enterState(s *node) {
	m.tracer.Entry(m.name, s.id)
	if s.entry != nil {
		s.entry()
	}
}

func (m *Machine) exitState(s *node) {
	m.tracer.Exit(m.name, s.id)
	if s.exit != nil {
		s.exit()
	}
}
