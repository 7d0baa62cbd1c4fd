package testutil

import "github.com/Archontes/aox"

// Signals driven through the conformance fixture. The block sits well above
// application ranges so fixture traffic never collides with a subject's own
// signals.
const (
	SigA aox.Signal = aox.SigUser + 100 + iota
	SigB
	SigC
	SigD
	SigE
	SigF
	SigG
	SigH
	SigI
	SigTerminate
	SigIgnore
)

// NewFixtureMachine builds the conformance machine used to pin down the
// transition engine's observable behavior:
//
//	top (initial s1)
//	├── s1 (initial s11)
//	│   └── s11
//	└── s2 (initial s21)
//	    └── s21
//
// The handlers cover every interesting dispatch shape: self-transition (A on
// s11, B on s1), cross-subtree transition (C both ways), transition to an
// ancestor (D), re-entry from a sibling subtree (E, F, G), handled without
// transition (H, I), delegation to the topmost handler (Terminate), and a
// signal nothing handles (Ignore).
func NewFixtureMachine(tracer aox.Tracer) (*aox.Machine, error) {
	top := func(e *aox.Event) aox.Disposition {
		if e.Sig == SigTerminate {
			return aox.Handled()
		}
		return aox.Pass()
	}
	s1 := func(e *aox.Event) aox.Disposition {
		switch e.Sig {
		case SigB:
			return aox.Tran("s1")
		case SigC:
			return aox.Tran("s2")
		case SigF:
			return aox.Tran("s21")
		case SigI:
			return aox.Handled()
		}
		return aox.Pass()
	}
	s11 := func(e *aox.Event) aox.Disposition {
		switch e.Sig {
		case SigA:
			return aox.Tran("s11")
		case SigD:
			return aox.Tran("s1")
		case SigG:
			return aox.Tran("s21")
		}
		return aox.Pass()
	}
	s2 := func(e *aox.Event) aox.Disposition {
		switch e.Sig {
		case SigC:
			return aox.Tran("s1")
		case SigH:
			return aox.Handled()
		}
		return aox.Pass()
	}
	s21 := func(e *aox.Event) aox.Disposition {
		if e.Sig == SigE {
			return aox.Tran("s11")
		}
		return aox.Pass()
	}

	var opts []aox.MachineOption
	if tracer != nil {
		opts = append(opts, aox.WithMachineTracer(tracer))
	}
	return aox.NewMachine("fixture", "top", []aox.State{
		{ID: "top", Initial: "s1", Handler: top},
		{ID: "s1", Parent: "top", Initial: "s11", Handler: s1},
		{ID: "s11", Parent: "s1", Handler: s11},
		{ID: "s2", Parent: "top", Initial: "s21", Handler: s2},
		{ID: "s21", Parent: "s2", Handler: s21},
	}, opts...)
}

// FixtureDictionary returns a dictionary naming the fixture's signals for
// trace decoding.
func FixtureDictionary() *aox.Dictionary {
	d := aox.NewDictionary()
	d.RegisterSignal(SigA, "A")
	d.RegisterSignal(SigB, "B")
	d.RegisterSignal(SigC, "C")
	d.RegisterSignal(SigD, "D")
	d.RegisterSignal(SigE, "E")
	d.RegisterSignal(SigF, "F")
	d.RegisterSignal(SigG, "G")
	d.RegisterSignal(SigH, "H")
	d.RegisterSignal(SigI, "I")
	d.RegisterSignal(SigTerminate, "TERMINATE")
	d.RegisterSignal(SigIgnore, "IGNORE")
	return d
}
