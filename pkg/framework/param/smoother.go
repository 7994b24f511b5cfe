package param

import "math"

// SmoothingType selects how a Smoother approaches its target.
type SmoothingType int

const (
	// LinearSmoothing ramps in a fixed number of samples
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing is a one-pole lowpass toward the target
	ExponentialSmoothing
)

const defaultSmoothingEpsilon = 1e-4

// Smoother removes zipper noise from block-rate values applied per sample.
// It is owned by the audio thread.
type Smoother struct {
	kind    SmoothingType
	current float64
	target  float64
	epsilon float64

	// linear
	length    int
	remaining int
	step      float64

	// exponential
	pole float64
}

// NewSmoother creates a smoother. rate is the ramp length in samples for
// LinearSmoothing and the pole (0..1, higher is slower) for
// ExponentialSmoothing.
func NewSmoother(kind SmoothingType, rate float64) *Smoother {
	s := &Smoother{kind: kind, epsilon: defaultSmoothingEpsilon}
	s.SetRate(rate)
	return s
}

// SetRate changes the ramp length or pole. A ramp in progress keeps its
// old slope.
func (s *Smoother) SetRate(rate float64) {
	if s.kind == LinearSmoothing {
		s.length = max(1, int(math.Round(rate)))
		return
	}
	s.pole = math.Max(0, math.Min(rate, 0.999999))
}

// SetTime sets the ramp length, or the exponential time constant, in
// milliseconds.
func (s *Smoother) SetTime(ms, sampleRate float64) {
	samples := ms * sampleRate / 1000
	if s.kind == LinearSmoothing {
		s.SetRate(samples)
		return
	}
	if samples <= 0 {
		s.pole = 0
		return
	}
	s.pole = math.Exp(-1 / samples)
}

// SetThreshold sets the distance below which a target change is ignored and
// an exponential approach snaps to the target.
func (s *Smoother) SetThreshold(epsilon float64) {
	s.epsilon = epsilon
}

// SetTarget starts moving toward target.
func (s *Smoother) SetTarget(target float64) {
	if math.Abs(target-s.target) < s.epsilon {
		return
	}
	s.target = target
	if s.kind == LinearSmoothing {
		s.remaining = s.length
		s.step = (target - s.current) / float64(s.length)
	}
}

// Next advances one sample and returns the smoothed value.
func (s *Smoother) Next() float64 {
	if s.current == s.target {
		return s.current
	}
	switch s.kind {
	case LinearSmoothing:
		s.remaining--
		if s.remaining <= 0 {
			s.current = s.target
		} else {
			s.current += s.step
		}
	case ExponentialSmoothing:
		s.current = s.target + (s.current-s.target)*s.pole
		if math.Abs(s.current-s.target) < s.epsilon {
			s.current = s.target
		}
	}
	return s.current
}

// IsSmoothing reports whether the target has not been reached.
func (s *Smoother) IsSmoothing() bool {
	return s.current != s.target
}

// Reset jumps to value.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.remaining = 0
}

// Current returns the last value produced by Next.
func (s *Smoother) Current() float64 {
	return s.current
}

// Target returns the value being approached.
func (s *Smoother) Target() float64 {
	return s.target
}
