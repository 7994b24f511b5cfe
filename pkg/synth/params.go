package synth

import (
	"math"

	"github.com/justyntemme/wtsynth/pkg/dsp/distortion"
	"github.com/justyntemme/wtsynth/pkg/dsp/envelope"
	"github.com/justyntemme/wtsynth/pkg/dsp/filter"
	"github.com/justyntemme/wtsynth/pkg/dsp/gain"
	"github.com/justyntemme/wtsynth/pkg/dsp/modulation"
	"github.com/justyntemme/wtsynth/pkg/dsp/oscillator"
	"github.com/justyntemme/wtsynth/pkg/framework/param"
	"github.com/justyntemme/wtsynth/pkg/modmatrix"
)

// Generator counts per voice.
const (
	NumOscillators = modmatrix.NumOscillators
	NumEnvelopes   = modmatrix.NumEnvelopes
	NumLFOs        = modmatrix.NumLFOs
)

// Global parameter names. Per-slot parameters are named with
// param.IndexedName and a 1-based slot, e.g. "osc_level_1".
const (
	ParamFilterType       = "filter_type"
	ParamFilterMode       = "filter_mode"
	ParamFilterCutoff     = "filter_cutoff"
	ParamFilterResonance  = "filter_resonance"
	ParamSaturationType   = "saturation_type"
	ParamSaturationDrive  = "saturation_drive"
	ParamSaturationMix    = "saturation_mix"
	ParamPitchBendRange   = "pitch_bend_range"
	ParamMasterVolume     = "master_volume"
	ParamNoiseType        = "noise_type"
	ParamGlobalLFORate    = "global_lfo_rate"
	ParamGlobalLFOBipolar = "global_lfo_bipolar"
)

// Per-slot parameter bases.
const (
	ParamOscEnabled  = "osc_enabled"
	ParamOscLevel    = "osc_level"
	ParamOscPan      = "osc_pan"
	ParamOscPosition = "osc_position"
	ParamOscCoarse   = "osc_coarse"
	ParamOscFine     = "osc_fine"

	ParamEnvAttack       = "env_attack"
	ParamEnvHold         = "env_hold"
	ParamEnvDecay        = "env_decay"
	ParamEnvSustain      = "env_sustain"
	ParamEnvRelease      = "env_release"
	ParamEnvAttackCurve  = "env_attack_curve"
	ParamEnvDecayCurve   = "env_decay_curve"
	ParamEnvReleaseCurve = "env_release_curve"
	ParamEnvVelocity     = "env_velocity_track"

	ParamLFORate      = "lfo_rate"
	ParamLFOBipolar   = "lfo_bipolar"
	ParamLFORetrigger = "lfo_retrigger"
	ParamLFOPhase     = "lfo_phase"
	ParamLFOPeak      = "lfo_peak"
	ParamLFORise      = "lfo_rise"
	ParamLFOFall      = "lfo_fall"
)

// Slot names a per-slot parameter for slot i counted from zero.
func Slot(base string, i int) string {
	return param.IndexedName(base, i+1)
}

const maxEnvelopeMs = 10000

type oscParams struct {
	enabled, level, pan, position, coarse, fine *param.Parameter
}

type envParams struct {
	attack, hold, decay, sustain, release       *param.Parameter
	attackCurve, decayCurve, releaseCurve, velo *param.Parameter
}

type lfoParams struct {
	rate, bipolar, retrigger, phase *param.Parameter
	peak, rise, fall                *param.Parameter
}

// paramSet holds the registered parameters. Reading them is a set of
// atomic loads, so the audio thread can snapshot it once per block.
type paramSet struct {
	osc [NumOscillators]oscParams
	env [NumEnvelopes]envParams
	lfo [NumLFOs]lfoParams

	globalRate, globalBipolar                 *param.Parameter
	filterType, filterMode, cutoff, resonance *param.Parameter
	satType, drive, mix                       *param.Parameter
	bendRange, volume, noiseType              *param.Parameter
}

// blockParams is the unmodulated state for one block.
type blockParams struct {
	osc       [NumOscillators]oscillator.Params
	env       [NumEnvelopes]envelope.Params
	lfo       [NumLFOs]modulation.LFOParams
	globalLFO modulation.LFOParams

	filterType filter.Type
	filterMode filter.Mode
	cutoff     float64
	resonance  float64

	satType distortion.Type
	drive   float64
	mix     float64

	bendRange float64
	volume    float64 // linear gain
	noiseType modulation.NoiseType
}

func registerParams(reg *param.Registry) (*paramSet, error) {
	ps := &paramSet{}
	var all []*param.Parameter
	add := func(b *param.Builder) *param.Parameter {
		p := b.Build()
		all = append(all, p)
		return p
	}

	for i := range ps.osc {
		o := &ps.osc[i]
		o.enabled = add(param.ToggleParameter(0, Slot(ParamOscEnabled, i), i == 0))
		o.level = add(param.LevelParameter(0, Slot(ParamOscLevel, i), 70))
		o.pan = add(param.PanParameter(0, Slot(ParamOscPan, i)))
		o.position = add(param.LevelParameter(0, Slot(ParamOscPosition, i), 0))
		o.coarse = add(param.SemitoneParameter(0, Slot(ParamOscCoarse, i), oscillator.CoarseRange))
		o.fine = add(param.CentsParameter(0, Slot(ParamOscFine, i)))
	}

	def := envelope.DefaultParams()
	for i := range ps.env {
		e := &ps.env[i]
		e.attack = add(param.TimeParameter(0, Slot(ParamEnvAttack, i), 0, maxEnvelopeMs, def.AttackMs))
		e.hold = add(param.TimeParameter(0, Slot(ParamEnvHold, i), 0, maxEnvelopeMs, def.HoldMs))
		e.decay = add(param.TimeParameter(0, Slot(ParamEnvDecay, i), 0, maxEnvelopeMs, def.DecayMs))
		e.sustain = add(param.LevelParameter(0, Slot(ParamEnvSustain, i), def.Sustain*100))
		e.release = add(param.TimeParameter(0, Slot(ParamEnvRelease, i), 0, maxEnvelopeMs, def.ReleaseMs))
		e.attackCurve = add(param.CurveParameter(0, Slot(ParamEnvAttackCurve, i)))
		e.decayCurve = add(param.CurveParameter(0, Slot(ParamEnvDecayCurve, i)))
		e.releaseCurve = add(param.CurveParameter(0, Slot(ParamEnvReleaseCurve, i)))
		e.velo = add(param.LevelParameter(0, Slot(ParamEnvVelocity, i), 0))
	}

	curve := modulation.DefaultCurve()
	for i := range ps.lfo {
		l := &ps.lfo[i]
		l.rate = add(param.RateParameter(0, Slot(ParamLFORate, i), modulation.MinRate, modulation.MaxRate, 1))
		l.bipolar = add(param.ToggleParameter(0, Slot(ParamLFOBipolar, i), true))
		l.retrigger = add(param.ToggleParameter(0, Slot(ParamLFORetrigger, i), false))
		l.phase = add(param.New(0, Slot(ParamLFOPhase, i)).Range(0, 1).Default(0))
		l.peak = add(param.New(0, Slot(ParamLFOPeak, i)).Range(0, 1).Default(curve.Peak))
		l.rise = add(param.CurveParameter(0, Slot(ParamLFORise, i)))
		l.fall = add(param.CurveParameter(0, Slot(ParamLFOFall, i)))
	}

	ps.globalRate = add(param.RateParameter(0, ParamGlobalLFORate, modulation.MinRate, modulation.MaxRate, 0.5))
	ps.globalBipolar = add(param.ToggleParameter(0, ParamGlobalLFOBipolar, true))

	ps.filterType = add(param.Choice(0, ParamFilterType, []param.ChoiceOption{
		{Value: float64(filter.TypeSVF), Name: "SVF", Aliases: []string{"state variable"}},
		{Value: float64(filter.TypeLadder), Name: "Ladder", Aliases: []string{"moog"}},
	}))
	ps.filterMode = add(param.Choice(0, ParamFilterMode, []param.ChoiceOption{
		{Value: float64(filter.ModeLowpass), Name: "Lowpass", Aliases: []string{"lp"}},
		{Value: float64(filter.ModeBandpass), Name: "Bandpass", Aliases: []string{"bp"}},
		{Value: float64(filter.ModeHighpass), Name: "Highpass", Aliases: []string{"hp"}},
	}))
	ps.cutoff = add(param.FrequencyParameter(0, ParamFilterCutoff, filter.MinCutoff, filter.MaxCutoff, 8000))
	ps.resonance = add(param.ResonanceParameter(0, ParamFilterResonance))

	satOptions := make([]param.ChoiceOption, distortion.NumTypes)
	for t := range satOptions {
		satOptions[t] = param.ChoiceOption{Value: float64(t), Name: distortion.Type(t).String()}
	}
	ps.satType = add(param.Choice(0, ParamSaturationType, satOptions))
	ps.drive = add(param.DriveParameter(0, ParamSaturationDrive, distortion.MinDrive, distortion.MaxDrive, 1))
	ps.mix = add(param.MixParameter(0, ParamSaturationMix).Default(0))

	ps.bendRange = add(param.SemitoneParameter(0, ParamPitchBendRange, 24).Default(2))
	ps.volume = add(param.GainParameter(0, ParamMasterVolume).Default(-6))
	ps.noiseType = add(param.Choice(0, ParamNoiseType, []param.ChoiceOption{
		{Value: float64(modulation.WhiteNoise), Name: "White"},
		{Value: float64(modulation.PinkNoise), Name: "Pink"},
		{Value: float64(modulation.BrownNoise), Name: "Brown"},
	}))

	if err := reg.Add(all...); err != nil {
		return nil, err
	}
	return ps, nil
}

func choice(p *param.Parameter) int {
	return int(math.Round(p.GetPlainValue()))
}

func toggle(p *param.Parameter) bool {
	return p.GetPlainValue() >= 0.5
}

// snapshot reads every parameter into dst.
func (ps *paramSet) snapshot(dst *blockParams) {
	for i := range ps.osc {
		o := &ps.osc[i]
		dst.osc[i] = oscillator.Params{
			Enabled:  toggle(o.enabled),
			Level:    o.level.GetPlainValue() / 100,
			Pan:      o.pan.GetPlainValue() / 100,
			Position: o.position.GetPlainValue() / 100,
			Coarse:   math.Round(o.coarse.GetPlainValue()),
			Fine:     o.fine.GetPlainValue(),
		}
	}
	for i := range ps.env {
		e := &ps.env[i]
		dst.env[i] = envelope.Params{
			AttackMs:      e.attack.GetPlainValue(),
			HoldMs:        e.hold.GetPlainValue(),
			DecayMs:       e.decay.GetPlainValue(),
			ReleaseMs:     e.release.GetPlainValue(),
			Sustain:       e.sustain.GetPlainValue() / 100,
			AttackCurve:   e.attackCurve.GetPlainValue(),
			DecayCurve:    e.decayCurve.GetPlainValue(),
			ReleaseCurve:  e.releaseCurve.GetPlainValue(),
			VelocityTrack: e.velo.GetPlainValue() / 100,
		}
	}
	for i := range ps.lfo {
		l := &ps.lfo[i]
		dst.lfo[i] = modulation.LFOParams{
			Rate:      l.rate.GetPlainValue(),
			Bipolar:   toggle(l.bipolar),
			Retrigger: toggle(l.retrigger),
			Phase:     l.phase.GetPlainValue(),
		}
	}
	dst.globalLFO = modulation.LFOParams{
		Rate:    ps.globalRate.GetPlainValue(),
		Bipolar: toggle(ps.globalBipolar),
	}

	dst.filterType = filter.Type(choice(ps.filterType))
	dst.filterMode = filter.Mode(choice(ps.filterMode))
	dst.cutoff = ps.cutoff.GetPlainValue()
	dst.resonance = ps.resonance.GetPlainValue()

	dst.satType = distortion.Type(choice(ps.satType))
	dst.drive = ps.drive.GetPlainValue()
	dst.mix = ps.mix.GetPlainValue() / 100

	dst.bendRange = ps.bendRange.GetPlainValue()
	if db := ps.volume.GetPlainValue(); db > ps.volume.Min {
		dst.volume = gain.DbToLinear(db)
	} else {
		dst.volume = 0
	}
	dst.noiseType = modulation.NoiseType(choice(ps.noiseType))
}

// curve returns the parametric shape of LFO slot i.
func (ps *paramSet) curve(i int) modulation.Curve {
	l := &ps.lfo[i]
	return modulation.Curve{
		Peak: l.peak.GetPlainValue(),
		Rise: l.rise.GetPlainValue(),
		Fall: l.fall.GetPlainValue(),
	}
}

// lfoSlotForShapeParam reports which LFO slot a shape parameter belongs to.
func (ps *paramSet) lfoSlotForShapeParam(p *param.Parameter) (int, bool) {
	for i := range ps.lfo {
		l := &ps.lfo[i]
		if p == l.peak || p == l.rise || p == l.fall {
			return i, true
		}
	}
	return 0, false
}
