package synth

import (
	"math"

	"github.com/justyntemme/wtsynth/pkg/dsp"
	"github.com/justyntemme/wtsynth/pkg/dsp/distortion"
	"github.com/justyntemme/wtsynth/pkg/dsp/envelope"
	"github.com/justyntemme/wtsynth/pkg/dsp/filter"
	"github.com/justyntemme/wtsynth/pkg/dsp/modulation"
	"github.com/justyntemme/wtsynth/pkg/dsp/oscillator"
	"github.com/justyntemme/wtsynth/pkg/modmatrix"
)

// AmpEnvelope is the envelope slot that scales the voice output.
const AmpEnvelope = 0

const dcBlockerHz = 10.0

var (
	logMinCutoff = math.Log2(filter.MinCutoff)
	logMaxCutoff = math.Log2(filter.MaxCutoff)
)

// globalSources is the performance and free-running modulation state shared
// by every voice. The engine writes it on the audio thread.
type globalSources struct {
	lfo       float64
	noise     float64
	modWheel  float64
	pitchBend float64
}

// Voice is one slot of the engine's pool. It owns its oscillators,
// envelopes, LFOs and filter state and reads routing from the shared matrix.
type Voice struct {
	index      int
	sampleRate float64

	oscs [NumOscillators]*oscillator.Oscillator
	envs [NumEnvelopes]*envelope.AHDSR
	lfos [NumLFOs]*modulation.LFO
	flt  *filter.Filter
	sat  *distortion.Saturator
	dc   *filter.DCBlocker

	matrix  *modmatrix.Matrix
	globals *globalSources
	diag    *diagnostics
	base    *blockParams

	// Logical note state, as seen by the allocator
	note     uint8
	velocity float64
	gate     bool

	// The note actually rendered. It differs from note while a steal is
	// ramping the previous note out.
	sounding uint8

	pending         bool
	pendingNote     uint8
	pendingVelocity float64

	mods [NumOscillators]oscillator.Mod
}

func newVoice(index int, sampleRate float64, quickKillMs float64, tuning float64, e *Engine) *Voice {
	v := &Voice{
		index:      index,
		sampleRate: sampleRate,
		flt:        filter.New(sampleRate),
		sat:        distortion.NewSaturator(),
		dc:         filter.NewDCBlocker(dcBlockerHz, sampleRate),
		matrix:     e.matrix,
		globals:    &e.globals,
		diag:       &e.diag,
		base:       &e.block,
	}
	killSamples := dsp.MsToSamples(quickKillMs, sampleRate)
	for i := range v.oscs {
		v.oscs[i] = oscillator.New(sampleRate, e.banks[i])
		v.oscs[i].SetTuning(tuning)
	}
	for i := range v.envs {
		v.envs[i] = envelope.New(sampleRate)
		v.envs[i].SetQuickKillMs(quickKillMs)
	}
	for i := range v.lfos {
		v.lfos[i] = modulation.NewLFO(sampleRate, e.shapes[i])
		v.lfos[i].SetQuickKillSamples(killSamples)
	}
	return v
}

// Index returns the voice's position in the pool.
func (v *Voice) Index() int {
	return v.index
}

// IsBusy is true while the gate is on, a stolen note is queued, or the
// amplitude envelope has not yet settled to zero.
func (v *Voice) IsBusy() bool {
	return v.gate || v.pending || v.envs[AmpEnvelope].IsActive()
}

func (v *Voice) IsGateOn() bool {
	return v.gate
}

// CurrentNote returns the assigned note, including one queued by a steal.
func (v *Voice) CurrentNote() uint8 {
	return v.note
}

// Velocity returns the note-on velocity in [0, 1].
func (v *Voice) Velocity() float64 {
	return v.velocity
}

// IsStealing reports whether a queued note is waiting for the quick-kill.
func (v *Voice) IsStealing() bool {
	return v.pending
}

// Envelope returns envelope slot i.
func (v *Voice) Envelope(i int) *envelope.AHDSR {
	return v.envs[i]
}

// StartNote opens every envelope for note. velocity is MIDI 0..127.
func (v *Voice) StartNote(note, velocity uint8) {
	v.begin(note, float64(velocity)/127)
}

func (v *Voice) begin(note uint8, velocity float64) {
	v.note = note
	v.sounding = note
	v.velocity = velocity
	v.gate = true
	v.pending = false

	for _, o := range v.oscs {
		o.Reset(0)
	}
	v.flt.Reset()
	v.dc.Reset()
	for _, env := range v.envs {
		env.Gate(velocity)
	}
	for _, l := range v.lfos {
		l.Start()
	}
	v.updateModulation(v.matrix.Table())
}

// StopNote closes the gates. A note still queued behind a steal is
// cancelled and the quick-kill runs out to silence.
func (v *Voice) StopNote() {
	v.gate = false
	if v.pending {
		v.pending = false
		return
	}
	for _, env := range v.envs {
		env.Release()
	}
}

// StealNote queues note and quick-kills the envelopes and LFOs. The queued
// note starts on the first sample after the amplitude envelope reaches
// zero.
func (v *Voice) StealNote(note, velocity uint8) {
	if !v.envs[AmpEnvelope].IsActive() {
		v.StartNote(note, velocity)
		return
	}
	v.note = note
	v.gate = true
	v.pending = true
	v.pendingNote = note
	v.pendingVelocity = float64(velocity) / 127
	v.quickKill()
}

// Kill ramps the voice to silence without queuing a note.
func (v *Voice) Kill() {
	v.gate = false
	v.pending = false
	v.quickKill()
}

func (v *Voice) quickKill() {
	for _, env := range v.envs {
		env.QuickKill()
	}
	for _, l := range v.lfos {
		l.QuickKill()
	}
}

// Reset silences the voice immediately.
func (v *Voice) Reset() {
	v.gate = false
	v.pending = false
	for _, env := range v.envs {
		env.Reset()
	}
	for _, l := range v.lfos {
		l.Reset()
	}
	v.flt.Reset()
	v.dc.Reset()
	v.mods = [NumOscillators]oscillator.Mod{}
}

// SourceValue implements modmatrix.SourceReader.
func (v *Voice) SourceValue(id modmatrix.SourceID) float64 {
	switch {
	case id < modmatrix.SourceLFO:
		return v.envs[id-modmatrix.SourceEnvelope].Value()
	case id < modmatrix.SourceGlobalLFO:
		return v.lfos[id-modmatrix.SourceLFO].Value()
	}
	switch id {
	case modmatrix.SourceGlobalLFO:
		return v.globals.lfo
	case modmatrix.SourceModWheel:
		return v.globals.modWheel
	case modmatrix.SourcePitchBend:
		return v.globals.pitchBend
	case modmatrix.SourceVelocity:
		return v.velocity
	case modmatrix.SourceKeyTrack:
		return dsp.Clamp((float64(v.sounding)-60)/64, -1, 1)
	case modmatrix.SourceNoise:
		return v.globals.noise
	}
	return 0
}

// modValue evaluates dest for this voice. An unknown destination
// contributes nothing and is reported.
func (v *Voice) modValue(t *modmatrix.Table, dest modmatrix.DestinationID) float64 {
	m, ok := t.Value(dest, v)
	if !ok {
		v.diag.record(Diagnostic{Kind: DiagUnknownDestination, Voice: int16(v.index), Dest: dest})
		return 0
	}
	return m
}

// applyBlock installs the unmodulated parameters for a block.
func (v *Voice) applyBlock(bp *blockParams) {
	for i, o := range v.oscs {
		o.SetParams(bp.osc[i])
	}
	for i, env := range v.envs {
		env.SetParams(bp.env[i])
	}
	for i, l := range v.lfos {
		l.SetParams(bp.lfo[i])
	}
	v.flt.SetType(bp.filterType)
	v.flt.SetMode(bp.filterMode)
	v.sat.SetType(bp.satType)
}

// updateModulation recomputes every destination from the current source
// values. It runs once per control tick and when a note starts.
func (v *Voice) updateModulation(t *modmatrix.Table) {
	bp := v.base
	bend := v.globals.pitchBend * bp.bendRange
	for i, o := range v.oscs {
		v.mods[i] = oscillator.Mod{
			Level:    v.modValue(t, modmatrix.OscDestination(i, modmatrix.OscLevel)),
			Position: v.modValue(t, modmatrix.OscDestination(i, modmatrix.OscPosition)),
			Pan:      v.modValue(t, modmatrix.OscDestination(i, modmatrix.OscPan)),
			Coarse:   v.modValue(t, modmatrix.OscDestination(i, modmatrix.OscCoarse)),
			Fine:     v.modValue(t, modmatrix.OscDestination(i, modmatrix.OscFine)),
		}
		o.SetPitchOffset(bend)
	}
	for i, l := range v.lfos {
		l.SetRateMod(v.modValue(t, modmatrix.LFORateDestination(i)))
	}

	// Cutoff moves in octaves so that modulation depth is even across the
	// range.
	base := math.Log2(dsp.Clamp(bp.cutoff, filter.MinCutoff, filter.MaxCutoff))
	cutoff := dsp.Bipolar(base, v.modValue(t, modmatrix.DestFilterCutoff), logMinCutoff, logMaxCutoff)
	v.flt.SetCutoffHz(math.Exp2(cutoff))
	v.flt.SetResonance(dsp.Bipolar(bp.resonance, v.modValue(t, modmatrix.DestFilterResonance), 0, 1))

	v.sat.SetDrive(dsp.Bipolar(bp.drive, v.modValue(t, modmatrix.DestSaturationDrive), distortion.MinDrive, distortion.MaxDrive))
	v.sat.SetMix(dsp.Bipolar(bp.mix, v.modValue(t, modmatrix.DestSaturationMix), 0, 1))
}

// RenderNextSample ticks the voice's sources, runs the oscillators through
// the filter and saturation, scales by the amplitude envelope and adds the
// result to acc.
func (v *Voice) RenderNextSample(acc *[2]float64) {
	if v.pending && !v.envs[AmpEnvelope].IsActive() {
		v.begin(v.pendingNote, v.pendingVelocity)
	}
	if !v.envs[AmpEnvelope].IsActive() {
		return
	}

	for _, l := range v.lfos {
		l.Tick()
	}
	for _, env := range v.envs {
		env.Tick()
	}
	amp := v.envs[AmpEnvelope].Value()

	note := float64(v.sounding)
	var left, right float64
	for i, o := range v.oscs {
		l, r := o.RenderSample(note, &v.mods[i])
		left += l
		right += r
	}

	left, right = v.flt.ProcessStereo(left, right)
	left, right = v.sat.ProcessStereo(left, right)
	left = v.dc.Process(left, 0)
	right = v.dc.Process(right, 1)

	acc[0] += left * amp
	acc[1] += right * amp
}

// EnvelopeSnapshot is the display state of one envelope.
type EnvelopeSnapshot struct {
	Stage envelope.Stage
	Value float64
}

// LFOSnapshot is the display state of one LFO.
type LFOSnapshot struct {
	Phase float64
	Value float64
}

// VoiceSnapshot is a copy of a voice's state for visualization.
type VoiceSnapshot struct {
	Index     int
	Note      uint8
	Velocity  float64
	Gate      bool
	Busy      bool
	Stealing  bool
	Envelopes [NumEnvelopes]EnvelopeSnapshot
	LFOs      [NumLFOs]LFOSnapshot
	OscPhases [NumOscillators]float64
}

// Snapshot copies the voice state.
func (v *Voice) Snapshot() VoiceSnapshot {
	s := VoiceSnapshot{
		Index:    v.index,
		Note:     v.note,
		Velocity: v.velocity,
		Gate:     v.gate,
		Busy:     v.IsBusy(),
		Stealing: v.pending,
	}
	for i, env := range v.envs {
		s.Envelopes[i] = EnvelopeSnapshot{Stage: env.Stage(), Value: env.Value()}
	}
	for i, l := range v.lfos {
		s.LFOs[i] = LFOSnapshot{Phase: l.Phase(), Value: l.Value()}
	}
	for i, o := range v.oscs {
		s.OscPhases[i] = o.Phase()
	}
	return s
}
