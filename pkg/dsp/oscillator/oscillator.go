// Package oscillator provides wavetable oscillators with morphing, tuning and
// panning.
package oscillator

import (
	"sync/atomic"

	"github.com/justyntemme/wtsynth/pkg/dsp"
	"github.com/justyntemme/wtsynth/pkg/dsp/wavetable"
)

// Pitch offset ranges.
const (
	CoarseRange = 48.0  // semitones
	FineRange   = 100.0 // cents
)

// Params is the unmodulated state of one oscillator slot, refreshed once per
// block from the parameter registry.
type Params struct {
	Enabled  bool
	Level    float64 // 0..1
	Pan      float64 // -1..1
	Position float64 // 0..1 across the morph set
	Coarse   float64 // semitones
	Fine     float64 // cents
}

// DefaultParams returns an enabled, centred oscillator at full level.
func DefaultParams() Params {
	return Params{
		Enabled: true,
		Level:   1,
	}
}

// Mod holds the per-sample modulation amounts applied on top of Params. Each
// field is a bipolar amount in [-1, 1] scaled to the parameter's range.
type Mod struct {
	Level    float64
	Pan      float64
	Position float64
	Coarse   float64
	Fine     float64
}

// Bank holds the wavetable set for one oscillator slot. Every voice reads the
// same bank, and a replacement set is published with Store without blocking
// the audio thread.
type Bank struct {
	set atomic.Pointer[wavetable.Set]
}

// NewBank creates a bank holding set.
func NewBank(set *wavetable.Set) *Bank {
	b := &Bank{}
	b.set.Store(set)
	return b
}

// Store publishes a new set. Voices pick it up on their next sample.
func (b *Bank) Store(set *wavetable.Set) {
	if set != nil {
		b.set.Store(set)
	}
}

// Load returns the current set.
func (b *Bank) Load() *wavetable.Set {
	return b.set.Load()
}

// Oscillator is one voice's instance of an oscillator slot.
type Oscillator struct {
	sampleRate float64
	tuning     float64
	bank       *Bank
	params     Params

	phase  float64
	offset float64 // semitones, from pitch bend
}

// New creates an oscillator reading from bank.
func New(sampleRate float64, bank *Bank) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		tuning:     dsp.TuningA4,
		bank:       bank,
		params:     DefaultParams(),
	}
}

// SetSampleRate updates the sample rate.
func (o *Oscillator) SetSampleRate(sampleRate float64) {
	o.sampleRate = sampleRate
}

// SetTuning sets the reference frequency of A4.
func (o *Oscillator) SetTuning(a4 float64) {
	o.tuning = a4
}

// SetParams replaces the unmodulated parameters.
func (o *Oscillator) SetParams(p Params) {
	o.params = p
}

// Params returns the unmodulated parameters.
func (o *Oscillator) Params() Params {
	return o.params
}

// SetPitchOffset sets an additional pitch offset in semitones.
func (o *Oscillator) SetPitchOffset(semitones float64) {
	o.offset = semitones
}

// Reset sets the phase in [0, 1).
func (o *Oscillator) Reset(phase float64) {
	o.phase = dsp.Wrap(phase)
}

// Phase returns the current phase.
func (o *Oscillator) Phase() float64 {
	return o.phase
}

// Frequency returns the oscillator frequency for note under mod.
func (o *Oscillator) Frequency(note float64, mod *Mod) float64 {
	coarse := dsp.Bipolar(o.params.Coarse, mod.Coarse, -CoarseRange, CoarseRange)
	fine := dsp.Bipolar(o.params.Fine, mod.Fine, -FineRange, FineRange)
	return dsp.NoteToFrequency(note+coarse+fine/100+o.offset, o.tuning)
}

// RenderSample advances the phase and returns one stereo sample for note.
// A disabled or silent oscillator still advances so that it stays in phase
// when it is turned back up.
func (o *Oscillator) RenderSample(note float64, mod *Mod) (left, right float64) {
	delta := o.Frequency(note, mod) / o.sampleRate
	o.phase += delta
	if o.phase >= 1 || o.phase < 0 {
		o.phase = dsp.Wrap(o.phase)
	}

	if !o.params.Enabled {
		return 0, 0
	}
	level := dsp.Bipolar(o.params.Level, mod.Level, 0, 1)
	if level <= 0 {
		return 0, 0
	}

	set := o.bank.Load()
	if set == nil {
		return 0, 0
	}
	position := dsp.Bipolar(o.params.Position, mod.Position, 0, 1)
	s := set.Sample(o.phase, position, delta) * level

	l, r := PanGains(dsp.Bipolar(o.params.Pan, mod.Pan, -1, 1))
	return s * l, s * r
}

// PanGains returns the linear crossfade gains for pan in [-1, 1]. The centre
// passes both channels at unity; each extreme silences the opposite channel.
func PanGains(pan float64) (left, right float64) {
	pan = dsp.Clamp(pan, -1, 1)
	left, right = 1, 1
	if pan > 0 {
		left = 1 - pan
	} else {
		right = 1 + pan
	}
	return left, right
}
