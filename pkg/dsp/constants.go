// Package dsp provides digital signal processing utilities and algorithms.
package dsp

import "math"

// Common audio constants used throughout the DSP packages and the engine.
const (
	// Frequency ranges
	MinFrequency = 20.0    // 20 Hz
	MaxFrequency = 20000.0 // 20 kHz

	// Channel counts
	Mono   = 1
	Stereo = 2

	// Common sample rates
	SampleRate44k1 = 44100.0
	SampleRate48k  = 48000.0
	SampleRate96k  = 96000.0

	// Buffer sizes
	MinBufferSize     = 32
	DefaultBufferSize = 512
	MaxBufferSize     = 8192

	// Tuning
	TuningA4    = 440.0
	NoteA4      = 69.0
	MaxMIDINote = 127

	// Phase constants
	TwoPi  = 6.283185307179586
	Pi     = 3.141592653589793
	HalfPi = 1.5707963267948966

	// Small values for comparisons
	Epsilon = 1e-6
)

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Bipolar applies a modulation value in [-1, 1] to base by crossfading it
// toward min (negative mod) or max (positive mod). Zero leaves base unchanged.
func Bipolar(base, mod, min, max float64) float64 {
	if mod > 1 {
		mod = 1
	} else if mod < -1 {
		mod = -1
	}
	if mod >= 0 {
		return base + (max-base)*mod
	}
	return base + (base-min)*mod
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// NoteToFrequency converts a (fractional) MIDI note number to Hz.
func NoteToFrequency(note, tuningA4 float64) float64 {
	if tuningA4 <= 0 {
		tuningA4 = TuningA4
	}
	return tuningA4 * math.Exp2((note-NoteA4)/12.0)
}

// MsToSamples converts a duration in milliseconds to a whole sample count.
func MsToSamples(ms, sampleRate float64) int {
	if ms <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(math.Round(ms * sampleRate / 1000.0))
}

// Wrap folds phase into [0, 1).
func Wrap(phase float64) float64 {
	phase -= math.Floor(phase)
	if phase >= 1.0 {
		return 0
	}
	return phase
}
