package aox

import "fmt"

// Action is an entry or exit action attached to a state node. Actions take
// no arguments: per-instance state lives on the struct whose methods serve
// as handlers and actions.
type Action func()

// Handler processes one event for a state. It returns Handled for a
// side-effect-only outcome, Tran(target) to request a transition, or Pass
// to delegate to the parent state's handler. Guard logic is ordinary
// conditional code inside the handler; there is no separate guard construct.
//
// Handlers must not block: processing an event is synchronous and bounded.
type Handler func(e *Event) Disposition

type dispKind int

const (
	dispPass dispKind = iota
	dispHandled
	dispTran
)

// Disposition is a handler's verdict on one event.
type Disposition struct {
	kind   dispKind
	target string
}

// Pass delegates the event to the parent state's handler. An event that
// passes beyond the topmost state is ignored.
func Pass() Disposition { return Disposition{kind: dispPass} }

// Handled reports the event consumed with no state change.
func Handled() Disposition { return Disposition{kind: dispHandled} }

// Tran requests a transition to the named state. Naming a state that does
// not exist in the machine is an invariant violation and panics at dispatch.
func Tran(target string) Disposition { return Disposition{kind: dispTran, target: target} }

// State is one record of a declarative state table. Records with an empty
// Parent attach directly under the machine's implicit top state. Initial
// names the child (or deeper descendant) entered when the state itself
// becomes active without a more specific target.
type State struct {
	ID      string
	Parent  string
	Initial string
	Entry   Action
	Exit    Action
	Handler Handler
}

// node is the resolved, pointer-linked form of a State record.
type node struct {
	id      string
	parent  *node
	depth   int
	initial *node
	entry   Action
	exit    Action
	handler Handler
}

// buildNodes resolves a state table into linked nodes, validating the
// properties that must hold before any dispatch: unique IDs, resolvable
// parents and initial targets, an acyclic parent chain, and initial targets
// that are proper descendants of their state.
func buildNodes(states []State) (map[string]*node, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: machine has no states", ErrInvalidConstruction)
	}

	nodes := make(map[string]*node, len(states))
	for _, s := range states {
		if s.ID == "" {
			return nil, fmt.Errorf("%w: state with empty ID", ErrInvalidConstruction)
		}
		if _, dup := nodes[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate state %q", ErrInvalidConstruction, s.ID)
		}
		nodes[s.ID] = &node{
			id:      s.ID,
			entry:   s.Entry,
			exit:    s.Exit,
			handler: s.Handler,
		}
	}

	// Link parents.
	for _, s := range states {
		if s.Parent == "" {
			continue
		}
		parent, ok := nodes[s.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: state %q names unknown parent %q",
				ErrInvalidConstruction, s.ID, s.Parent)
		}
		if parent == nodes[s.ID] {
			return nil, fmt.Errorf("%w: state %q is its own parent",
				ErrInvalidConstruction, s.ID)
		}
		nodes[s.ID].parent = parent
	}

	// Depth assignment doubles as cycle detection: a parent chain longer
	// than the node count can only mean a cycle.
	limit := len(nodes)
	for _, n := range nodes {
		depth := 0
		for p := n.parent; p != nil; p = p.parent {
			depth++
			if depth > limit {
				return nil, fmt.Errorf("%w: cycle in parent chain of state %q",
					ErrInvalidConstruction, n.id)
			}
		}
		n.depth = depth
	}

	// Link and check initial-transition targets.
	for _, s := range states {
		if s.Initial == "" {
			continue
		}
		target, ok := nodes[s.Initial]
		if !ok {
			return nil, fmt.Errorf("%w: state %q names unknown initial target %q",
				ErrInvalidConstruction, s.ID, s.Initial)
		}
		owner := nodes[s.ID]
		if !isDescendant(target, owner) {
			return nil, fmt.Errorf("%w: initial target %q is not a descendant of state %q",
				ErrInvalidConstruction, s.Initial, s.ID)
		}
		owner.initial = target
	}

	return nodes, nil
}

// isDescendant reports whether n sits strictly below ancestor.
func isDescendant(n, ancestor *node) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// lca returns the least common ancestor of a and b, or nil when their only
// shared ancestor is the implicit top state.
func lca(a, b *node) *node {
	for a.depth > b.depth {
		a = a.parent
	}
	for b.depth > a.depth {
		b = b.parent
	}
	for a != b {
		a = a.parent
		b = b.parent
	}
	return a
}
