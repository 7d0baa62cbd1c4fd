package aox

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Tracer receives instrumentation callbacks from the runtime. Tracing is
// diagnostic only: it has no effect on functional behavior, and every
// callback must be cheap and non-blocking. The zero tracer is a no-op.
type Tracer interface {
	Entry(machine, state string)
	Exit(machine, state string)
	Init(machine, parent, target string)
	Dispatch(machine string, sig Signal, state string)
	Transition(machine string, sig Signal, source, target string)
	Post(target string, sig Signal, sender string)
	Publish(sig Signal, subscribers int)
}

type nopTracer struct{}

func (nopTracer) Entry(string, string)                      {}
func (nopTracer) Exit(string, string)                       {}
func (nopTracer) Init(string, string, string)               {}
func (nopTracer) Dispatch(string, Signal, string)           {}
func (nopTracer) Transition(string, Signal, string, string) {}
func (nopTracer) Post(string, Signal, string)               {}
func (nopTracer) Publish(Signal, int)                       {}

// Dictionary maps opaque identifiers to symbolic names for offline trace
// decoding. The runtime never reads a dictionary back; it exists so a
// decoder can render signals and objects a human can follow. Reserved
// signals come pre-registered.
type Dictionary struct {
	mu      sync.RWMutex
	signals map[Signal]string
	objects map[string]string
}

// NewDictionary returns a dictionary seeded with the reserved signal names.
func NewDictionary() *Dictionary {
	d := &Dictionary{
		signals: make(map[Signal]string, len(reservedSignalNames)),
		objects: make(map[string]string),
	}
	for sig, name := range reservedSignalNames {
		d.signals[sig] = name
	}
	return d
}

// RegisterSignal binds a symbolic name to a signal value.
func (d *Dictionary) RegisterSignal(sig Signal, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.signals[sig] = name
}

// RegisterObject binds a display name to an object identifier (an active's
// or machine's name).
func (d *Dictionary) RegisterObject(id, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.objects[id] = name
}

// SignalName resolves a signal to its registered name, or "SIG(n)".
func (d *Dictionary) SignalName(sig Signal) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if name, ok := d.signals[sig]; ok {
		return name
	}
	return fmt.Sprintf("SIG(%d)", sig)
}

// ObjectName resolves an object identifier to its display name, falling
// back to the identifier itself.
func (d *Dictionary) ObjectName(id string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if name, ok := d.objects[id]; ok {
		return name
	}
	return id
}

// RecordKind tags one trace record.
type RecordKind uint8

const (
	RecordEntry RecordKind = iota + 1
	RecordExit
	RecordInit
	RecordDispatch
	RecordTransition
	RecordPost
	RecordPublish
)

// Record is one compact trace entry. Fields beyond Seq and Kind are
// populated per kind; unused fields stay zero.
type Record struct {
	Seq     uint64
	Kind    RecordKind
	Machine string
	State   string
	Target  string
	Sig     Signal
	Sender  string
	Count   int
}

// Recorder is a Tracer that appends records to memory for offline decoding.
// Each recorder carries a unique session identifier so traces from separate
// runs can be told apart once written out.
type Recorder struct {
	mu      sync.Mutex
	session string
	seq     uint64
	records []Record
}

// NewRecorder creates an empty trace recorder.
func NewRecorder() *Recorder {
	return &Recorder{session: uuid.NewString()}
}

// Session returns the recorder's unique session identifier.
func (r *Recorder) Session() string { return r.session }

// Records returns a snapshot copy of everything recorded so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Reset discards all records but keeps the session identifier.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = r.records[:0]
}

func (r *Recorder) append(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.Seq = r.seq
	r.seq++
	r.records = append(r.records, rec)
}

func (r *Recorder) Entry(machine, state string) {
	r.append(Record{Kind: RecordEntry, Machine: machine, State: state})
}

func (r *Recorder) Exit(machine, state string) {
	r.append(Record{Kind: RecordExit, Machine: machine, State: state})
}

func (r *Recorder) Init(machine, parent, target string) {
	r.append(Record{Kind: RecordInit, Machine: machine, State: parent, Target: target})
}

func (r *Recorder) Dispatch(machine string, sig Signal, state string) {
	r.append(Record{Kind: RecordDispatch, Machine: machine, Sig: sig, State: state})
}

func (r *Recorder) Transition(machine string, sig Signal, source, target string) {
	r.append(Record{Kind: RecordTransition, Machine: machine, Sig: sig, State: source, Target: target})
}

func (r *Recorder) Post(target string, sig Signal, sender string) {
	r.append(Record{Kind: RecordPost, Machine: target, Sig: sig, Sender: sender})
}

func (r *Recorder) Publish(sig Signal, subscribers int) {
	r.append(Record{Kind: RecordPublish, Sig: sig, Count: subscribers})
}

// Decode renders the recorded trace as human-readable lines using the
// dictionary for symbolic names. Output is deterministic for a given
// record sequence, which makes it suitable for golden-file comparison.
func (r *Recorder) Decode(d *Dictionary) []string {
	if d == nil {
		d = NewDictionary()
	}
	recs := r.Records()
	lines := make([]string, 0, len(recs))
	for _, rec := range recs {
		var line string
		switch rec.Kind {
		case RecordEntry:
			line = fmt.Sprintf("%04d ENTRY %s.%s", rec.Seq, d.ObjectName(rec.Machine), rec.State)
		case RecordExit:
			line = fmt.Sprintf("%04d EXIT  %s.%s", rec.Seq, d.ObjectName(rec.Machine), rec.State)
		case RecordInit:
			line = fmt.Sprintf("%04d INIT  %s.%s -> %s", rec.Seq, d.ObjectName(rec.Machine), rec.State, rec.Target)
		case RecordDispatch:
			line = fmt.Sprintf("%04d DISP  %s %s in %s", rec.Seq, d.ObjectName(rec.Machine), d.SignalName(rec.Sig), rec.State)
		case RecordTransition:
			line = fmt.Sprintf("%04d TRAN  %s %s: %s -> %s", rec.Seq, d.ObjectName(rec.Machine), d.SignalName(rec.Sig), rec.State, rec.Target)
		case RecordPost:
			sender := rec.Sender
			if sender == "" {
				sender = "?"
			}
			line = fmt.Sprintf("%04d POST  %s <- %s from %s", rec.Seq, d.ObjectName(rec.Machine), d.SignalName(rec.Sig), sender)
		case RecordPublish:
			line = fmt.Sprintf("%04d PUB   %s to %d", rec.Seq, d.SignalName(rec.Sig), rec.Count)
		default:
			line = fmt.Sprintf("%04d ???", rec.Seq)
		}
		lines = append(lines, line)
	}
	return lines
}
