package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/justyntemme/wtsynth/pkg/dsp/modulation"
	"github.com/justyntemme/wtsynth/pkg/dsp/wavetable"
	"github.com/justyntemme/wtsynth/pkg/framework/param"
	"github.com/justyntemme/wtsynth/pkg/framework/state"
	"github.com/justyntemme/wtsynth/pkg/modmatrix"
)

// Patch section names.
const (
	SectionModulation = "modulation"
	SectionLFOShapes  = "lfo_shapes"
	SectionWavetables = "wavetables"
)

const globalShapeName = "global_lfo"

// savedWaves is the source data of a loaded wavetable set.
type savedWaves struct {
	samples   []float32
	tableSize int
}

type wavetableSection struct {
	TableSize int    `json:"table_size"`
	Data      string `json:"data"` // base64 little-endian float32
}

// PatchManager returns a state.Manager that saves the engine's parameters
// together with its routing, drawn LFO shapes and loaded wavetables.
func (e *Engine) PatchManager() *state.Manager {
	m := state.NewManager(e.params)
	m.SetLogger(e.logger)
	e.RegisterPatchSections(m)
	return m
}

// RegisterPatchSections adds the engine's sections to m.
func (e *Engine) RegisterPatchSections(m *state.Manager) {
	m.AddSection(SectionModulation, state.Section{
		Save: func() (any, error) { return e.matrix.Specs(), nil },
		Load: e.loadModulation,
	})
	m.AddSection(SectionLFOShapes, state.Section{
		Save: e.saveShapes,
		Load: e.loadShapes,
	})
	m.AddSection(SectionWavetables, state.Section{
		Save: e.saveWavetables,
		Load: e.loadWavetables,
	})
}

// loadModulation publishes the saved routing. Connections naming unknown
// sources or destinations are skipped so that the rest of the patch still
// loads.
func (e *Engine) loadModulation(raw json.RawMessage) error {
	var specs []modmatrix.ConnectionSpec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return err
	}
	conns := make([]modmatrix.Connection, 0, len(specs))
	for _, s := range specs {
		src, err := modmatrix.ParseSource(s.Source)
		if err != nil {
			e.logger.Warn("patch: skipping connection: %v", err)
			continue
		}
		dest, err := modmatrix.ParseDestination(s.Destination)
		if err != nil {
			e.logger.Warn("patch: skipping connection: %v", err)
			continue
		}
		if math.IsNaN(s.Depth) {
			e.logger.Warn("patch: skipping %s -> %s with NaN depth", s.Source, s.Destination)
			continue
		}
		conns = append(conns, modmatrix.Connection{Source: src, Dest: dest, Depth: s.Depth})
	}
	return e.matrix.Set(conns)
}

func shapeName(i int) string {
	if i == NumLFOs {
		return globalShapeName
	}
	return Slot("lfo", i)
}

func (e *Engine) saveShapes() (any, error) {
	out := make(map[string][]modulation.Handle)
	for i := 0; i <= NumLFOs; i++ {
		if h := e.LFOShape(i).Handles(); h != nil {
			out[shapeName(i)] = h
		}
	}
	return out, nil
}

// loadShapes rebuilds every drawn shape in the patch. Slots the patch does
// not mention return to their parametric curve.
func (e *Engine) loadShapes(raw json.RawMessage) error {
	var shapes map[string][]modulation.Handle
	if err := json.Unmarshal(raw, &shapes); err != nil {
		return err
	}
	var firstErr error
	for i := 0; i <= NumLFOs; i++ {
		handles, ok := shapes[shapeName(i)]
		if !ok {
			e.resetShape(i)
			continue
		}
		if err := e.builder.Submit(i, handles); err != nil {
			e.logger.Warn("patch: %s: %v", shapeName(i), err)
			e.resetShape(i)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", shapeName(i), err)
			}
		}
	}
	e.builder.Flush()
	return firstErr
}

func (e *Engine) resetShape(i int) {
	if i == NumLFOs {
		e.globalShape.SetCurve(modulation.DefaultCurve())
		return
	}
	e.shapes[i].SetCurve(e.ps.curve(i))
}

func (e *Engine) saveWavetables() (any, error) {
	e.wtMu.Lock()
	defer e.wtMu.Unlock()

	out := make(map[string]wavetableSection)
	for i, w := range e.wtData {
		if w.samples == nil {
			continue
		}
		out[Slot("osc", i)] = wavetableSection{
			TableSize: w.tableSize,
			Data:      wavetable.EncodeBase64(w.samples),
		}
	}
	return out, nil
}

func (e *Engine) loadWavetables(raw json.RawMessage) error {
	var tables map[string]wavetableSection
	if err := json.Unmarshal(raw, &tables); err != nil {
		return err
	}
	ctx := context.Background()
	var firstErr error
	for i := 0; i < NumOscillators; i++ {
		t, ok := tables[Slot("osc", i)]
		if !ok {
			e.ResetWavetable(i)
			continue
		}
		samples, err := wavetable.DecodeBase64(t.Data)
		if err != nil {
			err = e.failWavetable(i, err)
		} else {
			err = e.LoadWaves(ctx, i, samples, t.TableSize)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LoadWavetable builds oscillator slot's morph set from concatenated
// little-endian float32 waves of tableSize samples each. Malformed data
// installs the default set and returns the error.
func (e *Engine) LoadWavetable(ctx context.Context, slot int, data []byte, tableSize int) error {
	samples, err := wavetable.DecodeFloat32(data)
	if err != nil {
		return e.failWavetable(slot, err)
	}
	return e.LoadWaves(ctx, slot, samples, tableSize)
}

// LoadWaves is LoadWavetable for decoded samples.
func (e *Engine) LoadWaves(ctx context.Context, slot int, samples []float32, tableSize int) error {
	if slot < 0 || slot >= NumOscillators {
		return fmt.Errorf("synth: oscillator %d out of range", slot+1)
	}
	waves, err := wavetable.SplitWaves(samples, tableSize)
	if err != nil {
		return e.failWavetable(slot, err)
	}
	set, err := wavetable.BuildSet(ctx, waves)
	if err != nil {
		return e.failWavetable(slot, err)
	}
	e.banks[slot].Store(set)

	e.wtMu.Lock()
	e.wtData[slot] = savedWaves{samples: append([]float32(nil), samples...), tableSize: tableSize}
	e.wtMu.Unlock()

	e.logger.Info("oscillator %d: loaded %d waves of %d samples", slot+1, set.Len(), tableSize)
	return nil
}

func (e *Engine) failWavetable(slot int, err error) error {
	if slot >= 0 && slot < NumOscillators {
		e.ResetWavetable(slot)
	}
	e.logger.Warn("oscillator %d: wavetable rejected, using default: %v", slot+1, err)
	return fmt.Errorf("synth: oscillator %d wavetable: %w", slot+1, err)
}

// ResetWavetable installs the default morph set in slot.
func (e *Engine) ResetWavetable(slot int) {
	if slot < 0 || slot >= NumOscillators {
		return
	}
	e.banks[slot].Store(e.defaultSet)
	e.wtMu.Lock()
	e.wtData[slot] = savedWaves{}
	e.wtMu.Unlock()
}

// Wavetable returns the set currently used by oscillator slot.
func (e *Engine) Wavetable(slot int) *wavetable.Set {
	return e.banks[slot].Load()
}

// SetParam sets a parameter by name from the control thread.
func (e *Engine) SetParam(name string, plain float64) error {
	return e.params.Set(name, plain)
}

// Param returns the named parameter, or nil.
func (e *Engine) Param(name string) *param.Parameter {
	return e.params.GetByName(name)
}
