package filter

import (
	"math"

	"github.com/justyntemme/wtsynth/pkg/dsp"
)

// Type selects the filter topology
type Type int

const (
	// TypeSVF is the 2-pole state variable filter
	TypeSVF Type = iota
	// TypeLadder is the 4-pole lowpass ladder
	TypeLadder
)

// Mode selects the SVF output. The ladder is always lowpass.
type Mode int

const (
	ModeLowpass Mode = iota
	ModeBandpass
	ModeHighpass
)

// Cutoff limits in Hz. The upper limit is further held below Nyquist.
const (
	MinCutoff = 20.0
	MaxCutoff = 20000.0
)

// Filter is a stereo voice filter. Coefficients are recomputed only when the
// cutoff or resonance actually changes.
type Filter struct {
	sampleRate float64
	typ        Type
	mode       Mode

	cutoff    float64
	resonance float64

	svf    SVF
	ladder Ladder

	updates int
}

// New creates a lowpass SVF at 1 kHz with no resonance.
func New(sampleRate float64) *Filter {
	f := &Filter{
		sampleRate: sampleRate,
		cutoff:     1000,
	}
	f.recompute()
	return f
}

// SetSampleRate updates the sample rate and recomputes coefficients
func (f *Filter) SetSampleRate(sampleRate float64) {
	if sampleRate == f.sampleRate {
		return
	}
	f.sampleRate = sampleRate
	f.recompute()
}

// SetType switches topology. State is cleared when the topology changes.
func (f *Filter) SetType(t Type) {
	if t == f.typ {
		return
	}
	f.typ = t
	f.Reset()
}

// SetMode selects the SVF output
func (f *Filter) SetMode(m Mode) {
	f.mode = m
}

// SetCutoffHz sets the cutoff frequency
func (f *Filter) SetCutoffHz(hz float64) {
	hz = dsp.Clamp(hz, MinCutoff, math.Min(MaxCutoff, 0.49*f.sampleRate))
	if hz == f.cutoff {
		return
	}
	f.cutoff = hz
	f.recompute()
}

// SetResonance sets the resonance in [0, 1]
func (f *Filter) SetResonance(r float64) {
	r = dsp.Clamp(r, 0, 1)
	if r == f.resonance {
		return
	}
	f.resonance = r
	f.recompute()
}

// Cutoff returns the cutoff in Hz
func (f *Filter) Cutoff() float64 {
	return f.cutoff
}

// Resonance returns the resonance in [0, 1]
func (f *Filter) Resonance() float64 {
	return f.resonance
}

// CoefficientUpdates counts how many times coefficients were recomputed
func (f *Filter) CoefficientUpdates() int {
	return f.updates
}

func (f *Filter) recompute() {
	f.updates++
	// Pre-warp the frequency for the bilinear transform
	g := math.Tan(math.Pi * f.cutoff / f.sampleRate)
	f.svf.setCoefficients(g, 2-1.98*f.resonance)
	f.ladder.setCoefficients(g, 3.96*f.resonance)
}

// Reset clears the filter state
func (f *Filter) Reset() {
	f.svf.Reset()
	f.ladder.Reset()
}

// ProcessMono filters one sample on channel 0 or 1
func (f *Filter) ProcessMono(x float64, channel int) float64 {
	if f.typ == TypeLadder {
		return f.ladder.ProcessSample(x, channel)
	}
	out := f.svf.ProcessSample(x, channel)
	switch f.mode {
	case ModeBandpass:
		return out.Bandpass
	case ModeHighpass:
		return out.Highpass
	default:
		return out.Lowpass
	}
}

// ProcessStereo filters a stereo pair
func (f *Filter) ProcessStereo(left, right float64) (float64, float64) {
	return f.ProcessMono(left, 0), f.ProcessMono(right, 1)
}
