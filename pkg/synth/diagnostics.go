package synth

import (
	"sync/atomic"

	"github.com/justyntemme/wtsynth/pkg/framework/debug"
	"github.com/justyntemme/wtsynth/pkg/midi"
	"github.com/justyntemme/wtsynth/pkg/modmatrix"
)

// DiagnosticKind classifies an anomaly seen on the audio thread.
type DiagnosticKind uint8

const (
	// DiagNoteDropped is a note-on that found every voice busy
	DiagNoteDropped DiagnosticKind = iota
	// DiagNoteOffUnmatched is a note-off for a note no voice holds
	DiagNoteOffUnmatched
	// DiagUnknownDestination is a modulation lookup for an unknown ID
	DiagUnknownDestination
	// DiagEventOverflow is an event that did not fit in the queue
	DiagEventOverflow

	numDiagnosticKinds
)

var diagnosticNames = [numDiagnosticKinds]string{
	"note dropped",
	"unmatched note-off",
	"unknown modulation destination",
	"event queue overflow",
}

func (k DiagnosticKind) String() string {
	if k >= numDiagnosticKinds {
		return "unknown"
	}
	return diagnosticNames[k]
}

// Diagnostic is one recorded anomaly. It is a plain value so that
// recording it never allocates.
type Diagnostic struct {
	Kind   DiagnosticKind
	Note   uint8
	Voice  int16 // -1 when not tied to a voice
	Dest   modmatrix.DestinationID
	Sample int64 // engine sample clock
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagNoteDropped, DiagNoteOffUnmatched:
		return d.Kind.String() + ": " + midi.NoteNumberToName(d.Note)
	case DiagUnknownDestination:
		return d.Kind.String() + ": " + d.Dest.String()
	}
	return d.Kind.String()
}

// diagnostics buffers anomalies for the control thread. record never
// blocks: when the buffer is full the diagnostic is counted as lost.
type diagnostics struct {
	ch     chan Diagnostic
	counts [numDiagnosticKinds]atomic.Uint64
	lost   atomic.Uint64
}

func newDiagnostics(capacity int) diagnostics {
	return diagnostics{ch: make(chan Diagnostic, capacity)}
}

func (d *diagnostics) record(x Diagnostic) {
	if x.Kind < numDiagnosticKinds {
		d.counts[x.Kind].Add(1)
	}
	select {
	case d.ch <- x:
	default:
		d.lost.Add(1)
	}
}

// DiagnosticCount returns how many anomalies of kind have been recorded
// since the engine was created.
func (e *Engine) DiagnosticCount(kind DiagnosticKind) uint64 {
	if kind >= numDiagnosticKinds {
		return 0
	}
	return e.diag.counts[kind].Load()
}

// LostDiagnostics returns how many diagnostics were counted but not kept
// because the buffer was full, since the last FlushDiagnostics.
func (e *Engine) LostDiagnostics() uint64 {
	return e.diag.lost.Load()
}

// Diagnostics drains buffered diagnostics into dst without blocking.
func (e *Engine) Diagnostics(dst []Diagnostic) []Diagnostic {
	for {
		select {
		case d := <-e.diag.ch:
			dst = append(dst, d)
		default:
			return dst
		}
	}
}

// FlushDiagnostics drains buffered diagnostics into logger and returns how
// many were logged. Call it from the control thread.
func (e *Engine) FlushDiagnostics(logger *debug.Logger) int {
	if logger == nil {
		logger = debug.Default()
	}
	n := 0
	for {
		select {
		case d := <-e.diag.ch:
			n++
			if d.Kind == DiagNoteOffUnmatched {
				logger.Debug("sample %d: %s", d.Sample, d)
			} else {
				logger.Warn("sample %d: %s", d.Sample, d)
			}
		default:
			if lost := e.diag.lost.Swap(0); lost > 0 {
				logger.Warn("%d diagnostics lost", lost)
			}
			return n
		}
	}
}
