package aox

// Signal identifies an event kind. Signals are opaque small integers,
// process-wide unique by convention. Values below SigUser are reserved for
// the runtime; applications define their own starting at SigUser.
type Signal uint16

const (
	// SigNone is the zero signal; never dispatched.
	SigNone Signal = iota
	// SigEntry, SigExit and SigInit are the internal pseudo-signals backing
	// entry actions, exit actions and initial transitions. They appear only
	// in trace output; handlers never see them.
	SigEntry
	SigExit
	SigInit
	// SigTimeTick is the reserved broadcast signal published by Kernel.Tick.
	// Actives needing periodic updates subscribe to it.
	SigTimeTick
)

// SigUser is the first signal value available to applications.
const SigUser Signal = 8

// reservedSignalNames seeds every Dictionary so traces decode the runtime's
// own signals without registration.
var reservedSignalNames = map[Signal]string{
	SigNone:     "NONE",
	SigEntry:    "ENTRY",
	SigExit:     "EXIT",
	SigInit:     "INIT",
	SigTimeTick: "TIME_TICK",
}
