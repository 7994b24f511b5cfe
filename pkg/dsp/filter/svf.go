// Package filter provides the voice filters: a zero-delay-feedback state
// variable filter and a 4-pole ladder, both built from TPT integrators.
package filter

// SVF implements a state variable filter
// Provides simultaneous lowpass, highpass and bandpass outputs
// Zero-delay feedback topology for better analog modeling
type SVF struct {
	// Filter parameters
	g float64 // frequency coefficient
	k float64 // damping coefficient (1/Q)

	a1, a2, a3 float64

	// State variables (per-channel)
	ic1eq [2]float64 // integrator 1 state
	ic2eq [2]float64 // integrator 2 state
}

// SVFOutputs holds all filter outputs
type SVFOutputs struct {
	Lowpass  float64
	Highpass float64
	Bandpass float64
}

// Reset clears the filter state
func (s *SVF) Reset() {
	s.ic1eq = [2]float64{}
	s.ic2eq = [2]float64{}
}

// setCoefficients takes the prewarped frequency g and damping k
func (s *SVF) setCoefficients(g, k float64) {
	s.g = g
	s.k = k
	s.a1 = 1 / (1 + g*(g+k))
	s.a2 = g * s.a1
	s.a3 = g * s.a2
}

// ProcessSample processes a single sample and returns all outputs
func (s *SVF) ProcessSample(input float64, channel int) SVFOutputs {
	ic1eq := s.ic1eq[channel]
	ic2eq := s.ic2eq[channel]

	v3 := input - ic2eq
	v1 := s.a1*ic1eq + s.a2*v3
	v2 := ic2eq + s.a2*ic1eq + s.a3*v3

	s.ic1eq[channel] = 2*v1 - ic1eq
	s.ic2eq[channel] = 2*v2 - ic2eq

	return SVFOutputs{
		Lowpass:  v2,
		Bandpass: v1,
		Highpass: input - s.k*v1 - v2,
	}
}
