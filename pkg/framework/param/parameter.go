// Package param holds the engine's named controls. Values are stored
// normalized in an atomic word so the audio thread can read them while the
// control thread writes.
package param

import (
	"math"
	"strconv"
	"sync/atomic"
)

// Kind tells a front end how to present a parameter.
type Kind uint8

const (
	Continuous Kind = iota
	Discrete
	Toggle
)

// Parameter is one named control with a plain range [Min, Max].
type Parameter struct {
	ID   uint32
	Name string
	Unit string
	Min  float64
	Max  float64
	// DefaultValue is normalized
	DefaultValue float64
	StepCount    int32
	Kind         Kind
	ReadOnly     bool

	value atomic.Uint64

	format func(plain float64) string
	parse  func(text string) (float64, error)
}

// GetValue returns the normalized value in [0, 1].
func (p *Parameter) GetValue() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue stores a normalized value, clamped to [0, 1].
func (p *Parameter) SetValue(v float64) {
	p.value.Store(math.Float64bits(clamp01(v)))
}

// GetPlainValue returns the value in the parameter's own units.
func (p *Parameter) GetPlainValue() float64 {
	return p.Denormalize(p.GetValue())
}

// SetPlainValue stores a value given in the parameter's own units. Values
// outside the range clamp.
func (p *Parameter) SetPlainValue(plain float64) {
	p.SetValue(p.Normalize(plain))
}

// Normalize maps a plain value into [0, 1].
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	return clamp01((plain - p.Min) / (p.Max - p.Min))
}

// Denormalize maps [0, 1] onto the plain range.
func (p *Parameter) Denormalize(normalized float64) float64 {
	return p.Min + normalized*(p.Max-p.Min)
}

// DefaultPlain returns the default in plain units.
func (p *Parameter) DefaultPlain() float64 {
	return p.Denormalize(p.DefaultValue)
}

// Reset restores the default.
func (p *Parameter) Reset() {
	p.SetValue(p.DefaultValue)
}

// Format renders a plain value for display.
func (p *Parameter) Format(plain float64) string {
	if p.format != nil {
		return p.format(plain)
	}
	if p.Kind == Discrete {
		return strconv.FormatFloat(math.Round(plain), 'f', 0, 64)
	}
	return strconv.FormatFloat(plain, 'f', 2, 64)
}

// String renders the current value.
func (p *Parameter) String() string {
	return p.Format(p.GetPlainValue())
}

// Parse reads display text back into a plain value. Plain numbers are
// always accepted.
func (p *Parameter) Parse(text string) (float64, error) {
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return v, nil
	}
	if p.parse == nil {
		return 0, &strconv.NumError{Func: "Parse", Num: text, Err: strconv.ErrSyntax}
	}
	return p.parse(text)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	}
	return v
}
