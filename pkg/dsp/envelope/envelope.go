// Package envelope provides the AHDSR envelope generator used by synth voices.
package envelope

import (
	"math"

	"github.com/justyntemme/wtsynth/pkg/dsp"
)

// Stage represents the current envelope stage
type Stage int

const (
	// StageAttack ramps from 0 to 1
	StageAttack Stage = iota
	// StageHold stays at 1
	StageHold
	// StageDecay ramps from 1 to the sustain level
	StageDecay
	// StageSustain holds the sustain level while the gate is on
	StageSustain
	// StageRelease ramps to 0 after the gate closes
	StageRelease
	// StageIdle outputs 0
	StageIdle
)

var stageNames = [...]string{"attack", "hold", "decay", "sustain", "release", "idle"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Curve parameters are kept away from 0 and 1 where the exponent degenerates.
const (
	MinCurve = 0.001
	MaxCurve = 0.999
)

// DefaultQuickKillMs is the length of the steal ramp.
const DefaultQuickKillMs = 5.0

// Params holds the static shape of an envelope. Durations are in milliseconds,
// levels and curves in [0, 1]. A curve of 0.5 is linear; in general the curve
// value is the normalized level reached halfway through the segment.
type Params struct {
	AttackMs      float64
	HoldMs        float64
	DecayMs       float64
	ReleaseMs     float64
	Sustain       float64
	AttackCurve   float64
	DecayCurve    float64
	ReleaseCurve  float64
	VelocityTrack float64
}

// DefaultParams returns a short plucked-organ shape.
func DefaultParams() Params {
	return Params{
		AttackMs:     5,
		HoldMs:       0,
		DecayMs:      200,
		ReleaseMs:    300,
		Sustain:      0.7,
		AttackCurve:  0.5,
		DecayCurve:   0.5,
		ReleaseCurve: 0.5,
	}
}

// CurveExponent maps a curve parameter to the power applied to normalized time.
func CurveExponent(curve float64) float64 {
	curve = dsp.Clamp(curve, MinCurve, MaxCurve)
	return math.Log(curve) / math.Log(0.5)
}

// CurveLevel returns the normalized progress of a segment at time t in [0, 1].
// CurveLevel(0.5, c) == c.
func CurveLevel(t, curve float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return math.Pow(t, CurveExponent(curve))
}

// AHDSR implements an Attack-Hold-Decay-Sustain-Release envelope generator
// with curved segments, velocity tracking and a linear quick-kill ramp.
type AHDSR struct {
	sampleRate float64
	params     Params

	// Segment lengths in samples
	attack  int
	hold    int
	decay   int
	release int
	kill    int

	// Exponents derived from the curve parameters
	attackExp  float64
	decayExp   float64
	releaseExp float64

	// State
	stage    Stage
	elapsed  int
	raw      float64 // curve output before velocity tracking
	value    float64
	from     float64 // level at the start of release or kill
	velocity float64
	killing  bool
}

// New creates a new AHDSR envelope
func New(sampleRate float64) *AHDSR {
	e := &AHDSR{
		sampleRate: sampleRate,
		stage:      StageIdle,
		velocity:   1,
	}
	e.params = DefaultParams()
	e.SetQuickKillMs(DefaultQuickKillMs)
	e.update()
	return e
}

// SetSampleRate recomputes segment lengths for a new rate
func (e *AHDSR) SetSampleRate(sampleRate float64) {
	killMs := float64(e.kill) * 1000 / e.sampleRate
	e.sampleRate = sampleRate
	e.SetQuickKillMs(killMs)
	e.update()
}

// SetParams replaces the envelope shape. Running segments continue with the
// new lengths from their current elapsed position.
func (e *AHDSR) SetParams(p Params) {
	p.Sustain = dsp.Clamp(p.Sustain, 0, 1)
	p.VelocityTrack = dsp.Clamp(p.VelocityTrack, 0, 1)
	if p == e.params {
		return
	}
	e.params = p
	e.update()
}

// Params returns the current shape
func (e *AHDSR) Params() Params {
	return e.params
}

// SetQuickKillMs sets the length of the steal ramp
func (e *AHDSR) SetQuickKillMs(ms float64) {
	e.kill = dsp.MsToSamples(ms, e.sampleRate)
	if e.kill < 1 {
		e.kill = 1
	}
}

// QuickKillSamples returns the steal ramp length in samples
func (e *AHDSR) QuickKillSamples() int {
	return e.kill
}

func (e *AHDSR) update() {
	e.attack = dsp.MsToSamples(e.params.AttackMs, e.sampleRate)
	e.hold = dsp.MsToSamples(e.params.HoldMs, e.sampleRate)
	e.decay = dsp.MsToSamples(e.params.DecayMs, e.sampleRate)
	e.release = dsp.MsToSamples(e.params.ReleaseMs, e.sampleRate)
	e.attackExp = CurveExponent(e.params.AttackCurve)
	e.decayExp = CurveExponent(e.params.DecayCurve)
	e.releaseExp = CurveExponent(e.params.ReleaseCurve)
}

// Gate opens the envelope for a note with velocity in [0, 1]. Gating an
// active envelope restarts the attack from zero.
func (e *AHDSR) Gate(velocity float64) {
	e.velocity = dsp.Clamp(velocity, 0, 1)
	e.stage = StageAttack
	e.elapsed = 0
	e.killing = false
	e.raw = 0
	e.value = 0
}

// Release closes the gate. The release ramp starts from the current level.
func (e *AHDSR) Release() {
	if e.stage == StageIdle || e.stage == StageRelease || e.killing {
		return
	}
	e.stage = StageRelease
	e.elapsed = 0
	e.from = e.raw
}

// QuickKill forces a linear ramp from the current level to 0 over the
// quick-kill length.
func (e *AHDSR) QuickKill() {
	if e.stage == StageIdle {
		return
	}
	e.killing = true
	e.stage = StageRelease
	e.elapsed = 0
	e.from = e.raw
}

// Reset immediately returns the envelope to idle
func (e *AHDSR) Reset() {
	e.stage = StageIdle
	e.elapsed = 0
	e.killing = false
	e.raw = 0
	e.value = 0
}

// IsActive returns true if the envelope is generating output
func (e *AHDSR) IsActive() bool {
	return e.stage != StageIdle
}

// IsGateOn reports whether the envelope is in a gated stage
func (e *AHDSR) IsGateOn() bool {
	return e.stage < StageRelease
}

// IsKilling reports whether a quick-kill ramp is running
func (e *AHDSR) IsKilling() bool {
	return e.killing
}

// Stage returns the current envelope stage
func (e *AHDSR) Stage() Stage {
	return e.stage
}

// Elapsed returns samples spent in the current stage
func (e *AHDSR) Elapsed() int {
	return e.elapsed
}

// Value returns the most recent output
func (e *AHDSR) Value() float64 {
	return e.value
}

// Tick advances the envelope by one sample and returns the new output
func (e *AHDSR) Tick() float64 {
	if e.stage == StageIdle {
		e.raw = 0
		e.value = 0
		return 0
	}

	e.elapsed++
	e.advance()
	e.raw = e.level()

	vt := e.params.VelocityTrack
	e.value = e.raw*(1-vt) + e.raw*e.velocity*vt
	return e.value
}

// advance moves through every segment whose length has been used up. Zero
// length segments are skipped within the same sample.
func (e *AHDSR) advance() {
	for {
		switch {
		case e.killing:
			if e.elapsed < e.kill {
				return
			}
			e.killing = false
			e.stage = StageIdle
			e.elapsed = 0
			return
		case e.stage == StageAttack && e.elapsed >= e.attack:
			e.elapsed -= e.attack
			e.stage = StageHold
		case e.stage == StageHold && e.elapsed >= e.hold:
			e.elapsed -= e.hold
			e.stage = StageDecay
		case e.stage == StageDecay && e.elapsed >= e.decay:
			e.elapsed = 0
			e.stage = StageSustain
		case e.stage == StageRelease && e.elapsed >= e.release:
			e.elapsed = 0
			e.stage = StageIdle
			return
		default:
			return
		}
	}
}

func (e *AHDSR) level() float64 {
	if e.killing {
		return e.from * (1 - float64(e.elapsed)/float64(e.kill))
	}
	switch e.stage {
	case StageAttack:
		return math.Pow(float64(e.elapsed)/float64(e.attack), e.attackExp)
	case StageHold:
		return 1
	case StageDecay:
		t := math.Pow(float64(e.elapsed)/float64(e.decay), e.decayExp)
		return 1 + (e.params.Sustain-1)*t
	case StageSustain:
		return e.params.Sustain
	case StageRelease:
		t := math.Pow(float64(e.elapsed)/float64(e.release), e.releaseExp)
		return e.from * (1 - t)
	}
	return 0
}

// ShapeLUT renders the envelope outline into n points for display: attack,
// hold and decay in proportion to their durations, a sustain plateau of the
// same length as the decay, then release.
func ShapeLUT(p Params, n int) []float64 {
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	sustainMs := math.Max(p.DecayMs, 1)
	total := p.AttackMs + p.HoldMs + p.DecayMs + sustainMs + p.ReleaseMs
	for i := range out {
		ms := total * float64(i) / float64(max(n-1, 1))
		switch {
		case ms < p.AttackMs:
			out[i] = CurveLevel(ms/p.AttackMs, p.AttackCurve)
		case ms < p.AttackMs+p.HoldMs:
			out[i] = 1
		case ms < p.AttackMs+p.HoldMs+p.DecayMs:
			t := CurveLevel((ms-p.AttackMs-p.HoldMs)/p.DecayMs, p.DecayCurve)
			out[i] = 1 + (p.Sustain-1)*t
		case ms < total-p.ReleaseMs:
			out[i] = p.Sustain
		default:
			t := 1.0
			if p.ReleaseMs > 0 {
				t = CurveLevel((ms-(total-p.ReleaseMs))/p.ReleaseMs, p.ReleaseCurve)
			}
			out[i] = p.Sustain * (1 - t)
		}
	}
	return out
}
