package synth

import (
	"fmt"
	"math"
	"sync"

	"github.com/justyntemme/wtsynth/pkg/dsp/gain"
	"github.com/justyntemme/wtsynth/pkg/dsp/modulation"
	"github.com/justyntemme/wtsynth/pkg/dsp/oscillator"
	"github.com/justyntemme/wtsynth/pkg/dsp/wavetable"
	"github.com/justyntemme/wtsynth/pkg/framework/debug"
	"github.com/justyntemme/wtsynth/pkg/framework/param"
	"github.com/justyntemme/wtsynth/pkg/framework/process"
	"github.com/justyntemme/wtsynth/pkg/framework/voice"
	"github.com/justyntemme/wtsynth/pkg/midi"
	"github.com/justyntemme/wtsynth/pkg/modmatrix"
)

const (
	volumeSmoothingMs = 20.0
	outputCeiling     = 1.0
)

// Engine owns the voice pool, the event queue and the per-block parameter
// refresh. It is the top-level render entry point.
type Engine struct {
	cfg    Config
	params *param.Registry
	ps     *paramSet
	logger *debug.Logger

	// Shared with the control thread through atomic publication
	matrix      *modmatrix.Matrix
	banks       [NumOscillators]*oscillator.Bank
	shapes      [NumLFOs]*modulation.Shape
	globalShape *modulation.Shape
	builder     *modulation.ShapeBuilder

	// Audio thread state, rebuilt by Prepare
	ac        process.AudioContext
	prepared  bool
	voices    []*Voice
	alloc     *voice.Allocator
	queue     *midi.Queue
	block     blockParams
	seen      uint64
	stale     bool
	globals   globalSources
	globalLFO *modulation.LFO
	noise     *modulation.Noise
	volume    *param.Smoother
	countdown int
	clock     int64

	profiler *debug.BlockProfiler
	diag     diagnostics

	// Wave data of loaded wavetables, kept for patch saving
	defaultSet *wavetable.Set
	wtMu       sync.Mutex
	wtData     [NumOscillators]savedWaves
}

// New creates an engine and registers its parameters in registry. A nil
// registry gets a fresh one. The engine must be prepared before rendering.
func New(cfg Config, registry *param.Registry) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = param.NewRegistry()
	}
	ps, err := registerParams(registry)
	if err != nil {
		return nil, fmt.Errorf("synth: registering parameters: %w", err)
	}

	e := &Engine{
		cfg:         cfg,
		params:      registry,
		ps:          ps,
		logger:      debug.Default(),
		matrix:      modmatrix.New(),
		globalShape: modulation.NewShape(),
		profiler:    debug.NewBlockProfiler(0),
		diag:        newDiagnostics(cfg.DiagnosticCapacity),
	}

	e.defaultSet = wavetable.DefaultSet()
	for i := range e.banks {
		e.banks[i] = oscillator.NewBank(e.defaultSet)
	}
	for i := range e.shapes {
		e.shapes[i] = modulation.NewShape()
		e.shapes[i].SetCurve(ps.curve(i))
	}
	all := make([]*modulation.Shape, 0, NumLFOs+1)
	all = append(all, e.shapes[:]...)
	all = append(all, e.globalShape)
	e.builder = modulation.NewShapeBuilder(all...)

	registry.Listen(e.onParamChange)
	return e, nil
}

// SetLogger replaces the logger used for control-thread messages.
func (e *Engine) SetLogger(logger *debug.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Prepare allocates the voice pool and every sample-rate dependent state
// for ac. It must not run concurrently with ProcessBlock.
func (e *Engine) Prepare(ac process.AudioContext) error {
	if err := ac.Validate(); err != nil {
		return err
	}
	e.ac = ac

	e.voices = make([]*Voice, e.cfg.Polyphony)
	pool := make([]voice.Voice, e.cfg.Polyphony)
	for i := range e.voices {
		e.voices[i] = newVoice(i, ac.SampleRate, e.cfg.QuickKillMs, e.cfg.Tuning, e)
		pool[i] = e.voices[i]
	}
	e.alloc = voice.NewAllocator(pool)
	e.queue = midi.NewQueue(e.cfg.MaxEvents)

	e.globalLFO = modulation.NewLFO(ac.SampleRate, e.globalShape)
	e.noise = modulation.NewNoise(modulation.WhiteNoise, e.cfg.NoiseSeed)
	e.globals = globalSources{}

	e.volume = param.NewSmoother(param.LinearSmoothing, 1)
	e.volume.SetTime(volumeSmoothingMs, ac.SampleRate)

	e.profiler.SetSampleRate(ac.SampleRate)
	e.profiler.Reset()

	e.countdown = 0
	e.clock = 0
	e.stale = true
	e.updateParamsForBlock()
	e.volume.Reset(e.block.volume)
	e.prepared = true

	e.logger.Debug("prepared %d voices at %.0f Hz, block %d", e.cfg.Polyphony, ac.SampleRate, ac.BlockSize)
	return nil
}

// AudioContext returns the prepared stream description.
func (e *Engine) AudioContext() process.AudioContext {
	return e.ac
}

// ProcessBlock renders len(out[0]) samples, capped at the prepared block
// size, after queuing events. Event offsets are relative to the start of
// this block; events past its end are carried into the next block.
// out[0] and out[1] receive left and right, further channels are zeroed and
// a single channel receives the mono sum.
func (e *Engine) ProcessBlock(out [][]float32, events []midi.Event) {
	if !e.prepared {
		clearOutput(out)
		return
	}
	for _, ev := range events {
		e.queueEvent(ev)
	}
	e.render(out, blockLength(out, e.ac.BlockSize))
}

// ProcessBlockRaw is ProcessBlock for raw MIDI messages at sample offsets.
// Messages that do not decode to an engine event are skipped.
func (e *Engine) ProcessBlockRaw(out [][]float32, offsets []int32, messages [][]byte) {
	if !e.prepared {
		clearOutput(out)
		return
	}
	for i, raw := range messages {
		var offset int32
		if i < len(offsets) {
			offset = offsets[i]
		}
		if ev, ok := midi.Decode(offset, raw); ok {
			e.queueEvent(ev)
		}
	}
	e.render(out, blockLength(out, e.ac.BlockSize))
}

// Process renders into a process.Context, consuming its queued events.
func (e *Engine) Process(ctx *process.Context) {
	if !e.prepared {
		ctx.Clear()
		return
	}
	for {
		ev, ok := ctx.Events.Next(math.MaxInt32)
		if !ok {
			break
		}
		e.queueEvent(ev)
	}
	e.render(ctx.Output, ctx.NumSamples())
}

func (e *Engine) queueEvent(ev midi.Event) {
	if !e.queue.Push(ev) {
		e.diag.record(Diagnostic{Kind: DiagEventOverflow, Note: ev.Data1, Voice: -1, Sample: e.clock})
	}
}

func blockLength(out [][]float32, max int) int {
	if len(out) == 0 {
		return 0
	}
	n := len(out[0])
	for _, ch := range out[1:] {
		if len(ch) < n {
			n = len(ch)
		}
	}
	if n > max {
		n = max
	}
	return n
}

func clearOutput(out [][]float32) {
	for _, ch := range out {
		clear(ch)
	}
}

func (e *Engine) render(out [][]float32, n int) {
	start := e.profiler.Begin()
	e.updateParamsForBlock()

	for i := 0; i < n; i++ {
		// Every event due at this sample is applied before it renders
		for {
			ev, ok := e.queue.Next(int32(i))
			if !ok {
				break
			}
			e.handleEvent(ev)
		}

		e.globals.noise = e.noise.Next()
		e.globals.lfo = e.globalLFO.Tick()

		if e.countdown <= 0 {
			table := e.matrix.Table()
			for _, v := range e.voices {
				if v.IsBusy() {
					v.updateModulation(table)
				}
			}
			e.countdown = e.cfg.DestUpdateInterval
		}
		e.countdown--

		var acc [2]float64
		for _, v := range e.voices {
			if v.IsBusy() {
				v.RenderNextSample(&acc)
			}
		}

		g := e.volume.Next()
		e.write(out, i, acc[0]*g, acc[1]*g)
	}

	for _, ch := range out {
		gain.HardClipBuffer(ch[:n], outputCeiling)
	}
	e.queue.Rebase(int32(n))
	e.clock += int64(n)
	e.profiler.End(start, n)
}

func (e *Engine) write(out [][]float32, i int, left, right float64) {
	switch len(out) {
	case 0:
	case 1:
		out[0][i] = float32(0.5 * (left + right))
	default:
		out[0][i] = float32(left)
		out[1][i] = float32(right)
		for _, ch := range out[2:] {
			ch[i] = 0
		}
	}
}

// updateParamsForBlock refreshes the unmodulated parameters of the engine
// and every voice. Blocks in which no parameter changed are skipped.
func (e *Engine) updateParamsForBlock() {
	version := e.params.Version()
	if version == e.seen && !e.stale {
		return
	}
	e.seen = version
	e.stale = false

	e.ps.snapshot(&e.block)
	e.globalLFO.SetParams(e.block.globalLFO)
	e.noise.SetType(e.block.noiseType)
	e.volume.SetTarget(e.block.volume)
	for _, v := range e.voices {
		v.applyBlock(&e.block)
	}
}

func (e *Engine) handleEvent(ev midi.Event) {
	switch ev.Type() {
	case midi.EventTypeNoteOn:
		if ev.Velocity() == 0 {
			e.NoteOff(ev.Note())
			return
		}
		e.NoteOn(ev.Note(), ev.Velocity())
	case midi.EventTypeNoteOff:
		e.NoteOff(ev.Note())
	case midi.EventTypeControlChange:
		switch ev.Controller() {
		case midi.CCModWheel:
			e.SetModWheel(float64(ev.Value()) / 127)
		case midi.CCSustain:
			e.SetSustain(ev.Value() >= 64)
		case midi.CCAllNotesOff:
			e.alloc.AllNotesOff()
		case midi.CCAllSoundOff:
			e.alloc.Reset()
		}
	case midi.EventTypePitchBend:
		e.SetPitchBend(ev.NormalizedBend())
	}
}

// NoteOn starts note on the voice already holding it or on the first free
// voice. With every voice busy the note is dropped and recorded as a
// diagnostic. velocity is MIDI 1..127.
func (e *Engine) NoteOn(note, velocity uint8) {
	if _, ok := e.alloc.NoteOn(note, velocity); !ok {
		e.diag.record(Diagnostic{Kind: DiagNoteDropped, Note: note, Voice: -1, Sample: e.clock})
	}
}

// NoteOff releases the voice holding note, or parks it while the sustain
// pedal is down.
func (e *Engine) NoteOff(note uint8) {
	if !e.alloc.NoteOff(note) {
		e.diag.record(Diagnostic{Kind: DiagNoteOffUnmatched, Note: note, Voice: -1, Sample: e.clock})
	}
}

// SetSustain sets the pedal. Releasing it stops every parked voice.
func (e *Engine) SetSustain(on bool) {
	e.alloc.SetSustainPedal(on)
}

// SetModWheel sets the mod wheel source in [0, 1].
func (e *Engine) SetModWheel(v float64) {
	e.globals.modWheel = v
}

// SetPitchBend sets the pitch bend source in [-1, 1].
func (e *Engine) SetPitchBend(v float64) {
	e.globals.pitchBend = v
}

// AllNotesOff releases every voice.
func (e *Engine) AllNotesOff() {
	e.alloc.AllNotesOff()
}

// Reset silences every voice at once and clears pending events and
// performance state.
func (e *Engine) Reset() {
	if !e.prepared {
		return
	}
	e.alloc.Reset()
	for _, v := range e.voices {
		v.Reset()
	}
	e.queue.Clear()
	e.globals = globalSources{}
	e.globalLFO.Reset()
	e.noise.Reset()
	e.countdown = 0
}

// ActiveVoices returns the number of busy voices.
func (e *Engine) ActiveVoices() int {
	if !e.prepared {
		return 0
	}
	return e.alloc.GetActiveVoiceCount()
}

// Voice returns voice i of the prepared pool.
func (e *Engine) Voice(i int) *Voice {
	return e.voices[i]
}

// Snapshots appends the state of every voice to dst. Call it from the audio
// thread or between blocks.
func (e *Engine) Snapshots(dst []VoiceSnapshot) []VoiceSnapshot {
	for _, v := range e.voices {
		dst = append(dst, v.Snapshot())
	}
	return dst
}

// SourceValues reports the global modulation sources for display.
func (e *Engine) SourceValues() (globalLFO, noise, modWheel, pitchBend float64) {
	g := e.globals
	return g.lfo, g.noise, g.modWheel, g.pitchBend
}

// Params returns the parameter registry.
func (e *Engine) Params() *param.Registry {
	return e.params
}

// Matrix returns the modulation routing.
func (e *Engine) Matrix() *modmatrix.Matrix {
	return e.matrix
}

// Profiler returns the block timer.
func (e *Engine) Profiler() *debug.BlockProfiler {
	return e.profiler
}

// ShapeBuilder returns the worker that rebuilds drawn LFO shapes. Shapes
// 0..NumLFOs-1 are the voice LFO slots, shape NumLFOs is the global LFO.
// Run it on a control goroutine, or call Flush.
func (e *Engine) ShapeBuilder() *modulation.ShapeBuilder {
	return e.builder
}

// LFOShape returns the shape of LFO slot i, or the global LFO for NumLFOs.
func (e *Engine) LFOShape(i int) *modulation.Shape {
	if i == NumLFOs {
		return e.globalShape
	}
	return e.shapes[i]
}

// onParamChange keeps parametric LFO shapes in step with their curve
// parameters. A slot holding a drawn shape is left alone.
func (e *Engine) onParamChange(p *param.Parameter) {
	i, ok := e.ps.lfoSlotForShapeParam(p)
	if !ok || e.shapes[i].Handles() != nil {
		return
	}
	e.shapes[i].SetCurve(e.ps.curve(i))
}

// ResetParameters restores every parameter and LFO shape to its default.
func (e *Engine) ResetParameters() {
	e.params.ResetAll()
	for i, s := range e.shapes {
		s.SetCurve(e.ps.curve(i))
	}
	e.globalShape.SetCurve(modulation.DefaultCurve())
}
