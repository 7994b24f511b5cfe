// Package synth is the polyphonic wavetable engine: a fixed pool of voices,
// each running three wavetable oscillators through a filter, a saturation
// stage and an amplitude envelope, with envelope, LFO and performance
// sources routed through a shared modulation matrix.
//
// ProcessBlock and the note/controller methods run on the audio thread and
// never allocate, lock or block. Parameters, routing, LFO shapes and
// wavetables are changed from the control thread through the parameter
// registry and the atomic publish methods of their owners.
package synth

import (
	"fmt"

	"github.com/justyntemme/wtsynth/pkg/dsp"
	"github.com/justyntemme/wtsynth/pkg/dsp/envelope"
)

// DefaultDestUpdateInterval is how many samples modulation destinations are
// held between matrix evaluations. Sources still tick every sample.
const DefaultDestUpdateInterval = 35

// Config fixes the structure of an engine. It cannot change after New.
type Config struct {
	// Polyphony is the size of the voice pool
	Polyphony int
	// DestUpdateInterval is the control-rate period in samples
	DestUpdateInterval int
	// QuickKillMs is the length of the steal ramp
	QuickKillMs float64
	// Tuning is the frequency of A4 in Hz
	Tuning float64
	// MaxEvents bounds the events queued for one block
	MaxEvents int
	// DiagnosticCapacity bounds the diagnostics held between flushes
	DiagnosticCapacity int
	// NoiseSeed seeds the noise source so renders repeat
	NoiseSeed int64
}

// DefaultConfig returns a 16 voice engine tuned to A440.
func DefaultConfig() Config {
	return Config{
		Polyphony:          16,
		DestUpdateInterval: DefaultDestUpdateInterval,
		QuickKillMs:        envelope.DefaultQuickKillMs,
		Tuning:             dsp.TuningA4,
		MaxEvents:          1024,
		DiagnosticCapacity: 256,
		NoiseSeed:          1,
	}
}

func (c Config) validate() error {
	switch {
	case c.Polyphony < 1:
		return fmt.Errorf("synth: polyphony %d must be at least 1", c.Polyphony)
	case c.DestUpdateInterval < 1:
		return fmt.Errorf("synth: destination update interval %d must be at least 1", c.DestUpdateInterval)
	case c.QuickKillMs <= 0:
		return fmt.Errorf("synth: quick-kill length %.2f ms must be positive", c.QuickKillMs)
	case c.Tuning <= 0:
		return fmt.Errorf("synth: tuning %.2f Hz must be positive", c.Tuning)
	case c.MaxEvents < 1 || c.DiagnosticCapacity < 1:
		return fmt.Errorf("synth: event and diagnostic capacities must be positive")
	}
	return nil
}
