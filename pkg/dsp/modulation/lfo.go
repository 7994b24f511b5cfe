package modulation

import (
	"math"

	"github.com/justyntemme/wtsynth/pkg/dsp"
)

// LFO rate limits in Hz.
const (
	MinRate = 0.01
	MaxRate = 20.0
)

// LFOParams is the unmodulated state of one LFO slot.
type LFOParams struct {
	Rate      float64 // Hz
	Bipolar   bool    // output in [-1, 1] instead of [0, 1]
	Retrigger bool    // reset phase on note start
	Phase     float64 // reset phase
}

// DefaultLFOParams returns a free-running 1 Hz unipolar LFO.
func DefaultLFOParams() LFOParams {
	return LFOParams{Rate: 1}
}

// LFO implements a Low Frequency Oscillator reading a shared Shape.
type LFO struct {
	sampleRate float64
	shape      *Shape
	params     LFOParams

	phase   float64
	rateMod float64
	value   float64

	// Quick-kill ramp
	killLen     int
	killElapsed int
	killing     bool
	killed      bool
}

// NewLFO creates a new LFO
func NewLFO(sampleRate float64, shape *Shape) *LFO {
	l := &LFO{
		sampleRate: sampleRate,
		shape:      shape,
		params:     DefaultLFOParams(),
	}
	l.SetQuickKillSamples(dsp.MsToSamples(5, sampleRate))
	return l
}

// SetSampleRate updates the sample rate
func (l *LFO) SetSampleRate(sampleRate float64) {
	l.sampleRate = sampleRate
}

// SetParams replaces the unmodulated parameters
func (l *LFO) SetParams(p LFOParams) {
	p.Rate = dsp.Clamp(p.Rate, MinRate, MaxRate)
	l.params = p
}

// Params returns the unmodulated parameters
func (l *LFO) Params() LFOParams {
	return l.params
}

// SetRateMod sets the bipolar rate modulation amount, applied until changed
func (l *LFO) SetRateMod(mod float64) {
	l.rateMod = mod
}

// SetQuickKillSamples sets the kill ramp length
func (l *LFO) SetQuickKillSamples(n int) {
	if n < 1 {
		n = 1
	}
	l.killLen = n
}

// SetPhase sets the current phase (0-1)
func (l *LFO) SetPhase(phase float64) {
	l.phase = phase - math.Floor(phase)
}

// Phase returns the current phase (0-1)
func (l *LFO) Phase() float64 {
	return l.phase
}

// Value returns the most recent output
func (l *LFO) Value() float64 {
	return l.value
}

// Rate returns the modulated rate in Hz
func (l *LFO) Rate() float64 {
	return dsp.Bipolar(l.params.Rate, l.rateMod, MinRate, MaxRate)
}

// Start is called when the owning voice starts a note. It clears a finished
// quick-kill and resets the phase if retriggering is enabled.
func (l *LFO) Start() {
	l.killing = false
	l.killed = false
	l.killElapsed = 0
	if l.params.Retrigger {
		l.SetPhase(l.params.Phase)
	}
}

// QuickKill ramps the output to zero over the kill length.
func (l *LFO) QuickKill() {
	if l.killed {
		return
	}
	l.killing = true
	l.killElapsed = 0
}

// IsKilling reports whether the kill ramp is running
func (l *LFO) IsKilling() bool {
	return l.killing
}

// Tick advances the phase by one sample and returns the shape value there.
func (l *LFO) Tick() float64 {
	l.phase += l.Rate() / l.sampleRate
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
	}

	v := l.shape.Lookup(l.phase)
	if l.params.Bipolar {
		v = 2*v - 1
	}

	switch {
	case l.killed:
		v = 0
	case l.killing:
		l.killElapsed++
		gain := 1 - float64(l.killElapsed)/float64(l.killLen)
		if gain <= 0 {
			gain = 0
			l.killing = false
			l.killed = true
		}
		v *= gain
	}

	l.value = v
	return v
}

// Reset resets the LFO state
func (l *LFO) Reset() {
	l.phase = 0
	l.value = 0
	l.rateMod = 0
	l.killing = false
	l.killed = false
}
