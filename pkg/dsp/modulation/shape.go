// Package modulation provides the LFO and noise sources that feed the
// modulation matrix.
package modulation

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/justyntemme/wtsynth/pkg/dsp"
	"github.com/justyntemme/wtsynth/pkg/dsp/envelope"
)

// ShapeTableSize is the resolution of every LFO lookup table.
const ShapeTableSize = 2048

var (
	// ErrTooFewHandles is returned for a breakpoint list with fewer than two
	// handles.
	ErrTooFewHandles = errors.New("modulation: breakpoint shape needs at least two handles")
	// ErrUnsortedHandles is returned when handle indices are not strictly
	// increasing or fall outside the table.
	ErrUnsortedHandles = errors.New("modulation: breakpoint handles must be sorted by table index")
)

// Curve describes the parametric LFO shape: a rise from 0 to 1 ending at
// Peak, then a fall back to 0. Rise and Fall use the envelope curve
// convention, 0.5 being linear.
type Curve struct {
	Peak float64
	Rise float64
	Fall float64
}

// DefaultCurve is a linear triangle.
func DefaultCurve() Curve {
	return Curve{Peak: 0.5, Rise: 0.5, Fall: 0.5}
}

// Handle is one breakpoint of a drawn LFO shape.
type Handle struct {
	Index int     `json:"index"`
	Level float64 `json:"level"`
}

// ValidateHandles checks the breakpoint invariants.
func ValidateHandles(handles []Handle) error {
	if len(handles) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewHandles, len(handles))
	}
	for i, h := range handles {
		if h.Index < 0 || h.Index >= ShapeTableSize {
			return fmt.Errorf("%w: handle %d index %d outside [0, %d)", ErrUnsortedHandles, i, h.Index, ShapeTableSize)
		}
		if i > 0 && h.Index <= handles[i-1].Index {
			return fmt.Errorf("%w: handle %d index %d after %d", ErrUnsortedHandles, i, h.Index, handles[i-1].Index)
		}
	}
	return nil
}

// CurveTable renders a parametric curve into a new lookup table.
func CurveTable(c Curve) []float64 {
	peak := dsp.Clamp(c.Peak, 0, 1)
	table := make([]float64, ShapeTableSize)
	for i := range table {
		phase := float64(i) / ShapeTableSize
		switch {
		case phase < peak:
			table[i] = envelope.CurveLevel(phase/peak, c.Rise)
		case peak >= 1:
			table[i] = 1
		default:
			table[i] = 1 - envelope.CurveLevel((phase-peak)/(1-peak), c.Fall)
		}
	}
	return table
}

// BreakpointTable resamples handles into a new lookup table by linear
// interpolation. Before the first and after the last handle the shape
// interpolates across the wrap so the cycle is continuous.
func BreakpointTable(handles []Handle) ([]float64, error) {
	if err := ValidateHandles(handles); err != nil {
		return nil, err
	}
	table := make([]float64, ShapeTableSize)
	first, last := handles[0], handles[len(handles)-1]
	wrapLen := float64(first.Index + ShapeTableSize - last.Index)

	for i := range table {
		switch {
		case i < first.Index:
			t := float64(i+ShapeTableSize-last.Index) / wrapLen
			table[i] = dsp.Lerp(last.Level, first.Level, t)
		case i >= last.Index:
			t := float64(i-last.Index) / wrapLen
			table[i] = dsp.Lerp(last.Level, first.Level, t)
		}
	}
	for k := 1; k < len(handles); k++ {
		a, b := handles[k-1], handles[k]
		span := float64(b.Index - a.Index)
		for i := a.Index; i < b.Index; i++ {
			table[i] = dsp.Lerp(a.Level, b.Level, float64(i-a.Index)/span)
		}
	}
	for i := range table {
		table[i] = dsp.Clamp(table[i], 0, 1)
	}
	return table, nil
}

// Shape is a shared LFO lookup table. Voices read it from the audio thread
// while the control thread publishes replacements; a published table is
// never written again.
type Shape struct {
	table   atomic.Pointer[[]float64]
	handles atomic.Pointer[[]Handle]
}

// NewShape creates a shape holding the default curve.
func NewShape() *Shape {
	s := &Shape{}
	s.SetCurve(DefaultCurve())
	return s
}

// SetCurve switches to parametric mode.
func (s *Shape) SetCurve(c Curve) {
	table := CurveTable(c)
	s.handles.Store(nil)
	s.table.Store(&table)
}

// Publish installs a fully built table and the handles it came from. A nil
// handle list marks the table as parametric.
func (s *Shape) Publish(table []float64, handles []Handle) {
	if len(table) != ShapeTableSize {
		return
	}
	if handles != nil {
		h := append([]Handle(nil), handles...)
		s.handles.Store(&h)
	} else {
		s.handles.Store(nil)
	}
	s.table.Store(&table)
}

// Handles returns a copy of the breakpoints, or nil in parametric mode.
func (s *Shape) Handles() []Handle {
	h := s.handles.Load()
	if h == nil {
		return nil
	}
	return append([]Handle(nil), (*h)...)
}

// Lookup reads the table at phase in [0, 1) with linear interpolation.
func (s *Shape) Lookup(phase float64) float64 {
	table := *s.table.Load()
	pos := phase * ShapeTableSize
	i0 := int(pos)
	frac := pos - float64(i0)
	i0 &= ShapeTableSize - 1
	i1 := (i0 + 1) & (ShapeTableSize - 1)
	return table[i0] + (table[i1]-table[i0])*frac
}
