package aox_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Archontes/aox"
)

const (
	sigGo aox.Signal = aox.SigUser + iota
	sigStay
	sigUp
	sigSelf
	sigUnknown
)

// actionLog collects action executions in order.
type actionLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *actionLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *actionLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.lines
	l.lines = nil
	return out
}

func (l *actionLog) entry(state string) aox.Action {
	return func() { l.add("entry:" + state) }
}

func (l *actionLog) exit(state string) aox.Action {
	return func() { l.add("exit:" + state) }
}

// newNestedMachine builds the test hierarchy
//
//	s (initial s1)
//	├── s1 (initial s11)
//	│   └── s11
//	└── s2
//	    └── s21
//
// s11 handles sigGo (to s21), sigSelf (to s11), sigStay (handled, no
// transition) and sigUp (to s). rootHandler, when non-nil, is attached to s
// so tests can observe delegation up the parent chain.
func newNestedMachine(t *testing.T, log *actionLog, rootHandler aox.Handler) *aox.Machine {
	t.Helper()

	s11 := func(e *aox.Event) aox.Disposition {
		switch e.Sig {
		case sigGo:
			return aox.Tran("s21")
		case sigSelf:
			return aox.Tran("s11")
		case sigStay:
			log.add("handled:s11")
			return aox.Handled()
		case sigUp:
			return aox.Tran("s")
		}
		return aox.Pass()
	}

	m, err := aox.NewMachine("nested", "s", []aox.State{
		{ID: "s", Initial: "s1", Entry: log.entry("s"), Exit: log.exit("s"), Handler: rootHandler},
		{ID: "s1", Parent: "s", Initial: "s11", Entry: log.entry("s1"), Exit: log.exit("s1")},
		{ID: "s11", Parent: "s1", Entry: log.entry("s11"), Exit: log.exit("s11"), Handler: s11},
		{ID: "s2", Parent: "s", Entry: log.entry("s2"), Exit: log.exit("s2")},
		{ID: "s21", Parent: "s2", Entry: log.entry("s21"), Exit: log.exit("s21")},
	})
	require.NoError(t, err)
	return m
}

func TestInitCascadesNestedInitialTransitions(t *testing.T) {
	log := &actionLog{}
	m := newNestedMachine(t, log, nil)

	m.Init()

	assert.Equal(t, []string{"entry:s", "entry:s1", "entry:s11"}, log.take())
	assert.Equal(t, "s11", m.Current())
	assert.True(t, m.IsIn("s11"))
	assert.True(t, m.IsIn("s1"))
	assert.True(t, m.IsIn("s"))
	assert.False(t, m.IsIn("s2"))
}

func TestTransitionExitsToLCAAndEntersTarget(t *testing.T) {
	log := &actionLog{}
	m := newNestedMachine(t, log, nil)
	m.Init()
	log.take()

	outcome := m.Dispatch(aox.NewStaticEvent(sigGo, nil))

	assert.Equal(t, aox.OutcomeTransitioned, outcome)
	// LCA(s11, s21) = s: exit child-to-parent up to s, enter parent-to-child.
	assert.Equal(t, []string{"exit:s11", "exit:s1", "entry:s2", "entry:s21"}, log.take())
	assert.Equal(t, "s21", m.Current())
}

func TestSelfTransitionRunsExitAndEntry(t *testing.T) {
	log := &actionLog{}
	m := newNestedMachine(t, log, nil)
	m.Init()
	log.take()

	outcome := m.Dispatch(aox.NewStaticEvent(sigSelf, nil))

	assert.Equal(t, aox.OutcomeTransitioned, outcome)
	assert.Equal(t, []string{"exit:s11", "entry:s11"}, log.take())
	assert.Equal(t, "s11", m.Current())
}

func TestTransitionToAncestorReentersViaInitialCascade(t *testing.T) {
	log := &actionLog{}
	m := newNestedMachine(t, log, nil)
	m.Init()
	log.take()

	outcome := m.Dispatch(aox.NewStaticEvent(sigUp, nil))

	assert.Equal(t, aox.OutcomeTransitioned, outcome)
	// Target s is the LCA itself: exit up to it, no re-entry of s, then its
	// initial cascade re-establishes the leaf.
	assert.Equal(t, []string{"exit:s11", "exit:s1", "entry:s1", "entry:s11"}, log.take())
	assert.Equal(t, "s11", m.Current())
}

func TestHandledOutcomeChangesNoState(t *testing.T) {
	log := &actionLog{}
	m := newNestedMachine(t, log, nil)
	m.Init()
	log.take()

	outcome := m.Dispatch(aox.NewStaticEvent(sigStay, nil))

	assert.Equal(t, aox.OutcomeHandled, outcome)
	assert.Equal(t, []string{"handled:s11"}, log.take())
	assert.Equal(t, "s11", m.Current())
}

func TestUnrecognizedSignalDelegatesToAncestor(t *testing.T) {
	log := &actionLog{}
	root := func(e *aox.Event) aox.Disposition {
		if e.Sig == sigUnknown {
			log.add("handled:s")
			return aox.Handled()
		}
		return aox.Pass()
	}
	m := newNestedMachine(t, log, root)
	m.Init()
	log.take()

	outcome := m.Dispatch(aox.NewStaticEvent(sigUnknown, nil))

	assert.Equal(t, aox.OutcomeHandled, outcome)
	assert.Equal(t, []string{"handled:s"}, log.take())
}

func TestSignalBeyondTopIsIgnored(t *testing.T) {
	log := &actionLog{}
	m := newNestedMachine(t, log, nil)
	m.Init()
	log.take()

	outcome := m.Dispatch(aox.NewStaticEvent(sigUnknown, nil))

	assert.Equal(t, aox.OutcomeIgnored, outcome)
	assert.Empty(t, log.take())
	assert.Equal(t, "s11", m.Current())
}

func TestTransitionIntoDeepDescendantEntersIntermediates(t *testing.T) {
	log := &actionLog{}
	handler := func(e *aox.Event) aox.Disposition {
		if e.Sig == sigGo {
			return aox.Tran("b2")
		}
		return aox.Pass()
	}
	m, err := aox.NewMachine("deep", "a", []aox.State{
		{ID: "a", Entry: log.entry("a"), Handler: handler},
		{ID: "b", Entry: log.entry("b"), Exit: log.exit("b")},
		{ID: "b1", Parent: "b", Entry: log.entry("b1")},
		{ID: "b2", Parent: "b", Entry: log.entry("b2"), Initial: "b21"},
		{ID: "b21", Parent: "b2", Entry: log.entry("b21")},
	})
	require.NoError(t, err)
	m.Init()
	log.take()

	outcome := m.Dispatch(aox.NewStaticEvent(sigGo, nil))

	assert.Equal(t, aox.OutcomeTransitioned, outcome)
	assert.Equal(t, []string{"entry:b", "entry:b2", "entry:b21"}, log.take())
	assert.Equal(t, "b21", m.Current())
}

func TestDispatchBeforeInitPanics(t *testing.T) {
	m := newNestedMachine(t, &actionLog{}, nil)

	assert.PanicsWithError(t,
		`engine invariant violated in machine.Dispatch: machine "nested" dispatched before Init`,
		func() { m.Dispatch(aox.NewStaticEvent(sigGo, nil)) })
}

func TestDoubleInitPanics(t *testing.T) {
	m := newNestedMachine(t, &actionLog{}, nil)
	m.Init()

	assert.Panics(t, func() { m.Init() })
}

func TestUnknownTransitionTargetPanics(t *testing.T) {
	bad := func(e *aox.Event) aox.Disposition { return aox.Tran("nowhere") }
	m, err := aox.NewMachine("bad", "only", []aox.State{{ID: "only", Handler: bad}})
	require.NoError(t, err)
	m.Init()

	assert.Panics(t, func() { m.Dispatch(aox.NewStaticEvent(sigGo, nil)) })
}

func TestConstructionValidation(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		states  []aox.State
	}{
		{"no states", "a", nil},
		{"empty id", "a", []aox.State{{ID: ""}}},
		{"duplicate id", "a", []aox.State{{ID: "a"}, {ID: "a"}}},
		{"unknown parent", "a", []aox.State{{ID: "a", Parent: "ghost"}}},
		{"self parent", "a", []aox.State{{ID: "a", Parent: "a"}}},
		{"parent cycle", "a", []aox.State{
			{ID: "a", Parent: "b"},
			{ID: "b", Parent: "a"},
		}},
		{"unknown initial target", "a", []aox.State{{ID: "a", Initial: "ghost"}}},
		{"initial target not descendant", "a", []aox.State{
			{ID: "a", Initial: "b"},
			{ID: "b"},
		}},
		{"initial target is self", "a", []aox.State{{ID: "a", Initial: "a"}}},
		{"unknown machine initial", "ghost", []aox.State{{ID: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := aox.NewMachine("m", tt.initial, tt.states)
			require.Error(t, err)
			assert.ErrorIs(t, err, aox.ErrInvalidConstruction)
		})
	}
}
