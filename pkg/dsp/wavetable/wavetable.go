// Package wavetable builds and samples band-limited single-cycle waveforms.
//
// A Wavetable holds one waveform as a ladder of rungs. Each rung is the
// waveform with every harmonic above a limit removed, and is tagged with the
// range of phase increments (frequency / sampleRate) for which none of its
// remaining harmonics reach Nyquist. Rungs are ordered from the lowest
// frequency range (all harmonics) to the highest (fundamental only) and their
// ranges are contiguous from 0 to 0.5.
package wavetable

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/mjibson/go-dsp/fft"
)

// DefaultTableSize is the number of samples per rung.
const DefaultTableSize = 2048

var (
	// ErrMalformed is returned for wave data whose length is not a power of two
	// or does not match the expected table size.
	ErrMalformed = errors.New("wavetable: malformed wave data")
	// ErrEmpty is returned when no waves are supplied.
	ErrEmpty = errors.New("wavetable: no waves")
)

// Rung is one band-limited variant of a waveform.
type Rung struct {
	Samples   []float32
	Harmonics int     // highest harmonic kept
	MinDelta  float64 // inclusive
	MaxDelta  float64 // exclusive
}

// Contains reports whether the phase increment falls inside the rung's range.
func (r *Rung) Contains(delta float64) bool {
	return delta >= r.MinDelta && delta < r.MaxDelta
}

// Wavetable is an immutable ladder of band-limited rungs for one waveform.
type Wavetable struct {
	size  int
	rungs []Rung
}

// RungCount returns the number of rungs built for a table of the given size.
// Harmonic limits halve from size/2 down to 1.
func RungCount(size int) int {
	if size < 2 {
		return 0
	}
	return bits.Len(uint(size)) - 1
}

// Build decomposes a raw single-cycle waveform with an FFT and produces one
// rung per harmonic limit. len(raw) must be a power of two.
func Build(raw []float32) (*Wavetable, error) {
	n := len(raw)
	if n < 4 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: table size %d is not a power of two", ErrMalformed, n)
	}

	x := make([]float64, n)
	for i, v := range raw {
		x[i] = float64(v)
	}
	spectrum := fft.FFTReal(x)

	count := RungCount(n)
	wt := &Wavetable{
		size:  n,
		rungs: make([]Rung, count),
	}

	bins := make([]complex128, n)
	minDelta := 0.0
	for r := 0; r < count; r++ {
		harmonics := (n / 2) >> r
		copy(bins, spectrum)
		truncate(bins, harmonics)

		rung := &wt.rungs[r]
		rung.Harmonics = harmonics
		rung.Samples = normalize(fft.IFFT(bins))
		rung.MinDelta = minDelta
		rung.MaxDelta = 0.5 / float64(harmonics)
		minDelta = rung.MaxDelta
	}

	return wt, nil
}

// truncate zeroes DC and every bin above the harmonic limit, keeping the
// conjugate-symmetric half consistent so the inverse transform stays real.
func truncate(bins []complex128, harmonics int) {
	n := len(bins)
	bins[0] = 0
	for k := harmonics + 1; k <= n-harmonics-1; k++ {
		bins[k] = 0
	}
	// The Nyquist bin has no conjugate partner and cannot be represented
	// without aliasing at the top of the range.
	if harmonics == n/2 {
		bins[n/2] = 0
	}
}

// normalize takes the real part of the inverse transform and scales it to a
// unit peak. Silent input stays silent.
func normalize(xt []complex128) []float32 {
	out := make([]float32, len(xt))
	peak := 0.0
	for _, c := range xt {
		if a := math.Abs(real(c)); a > peak {
			peak = a
		}
	}
	if peak < 1e-12 {
		return out
	}
	for i, c := range xt {
		out[i] = float32(real(c) / peak)
	}
	return out
}

// Size returns the number of samples per rung.
func (w *Wavetable) Size() int {
	return w.size
}

// NumRungs returns the number of rungs.
func (w *Wavetable) NumRungs() int {
	return len(w.rungs)
}

// Rung returns rung i.
func (w *Wavetable) Rung(i int) *Rung {
	return &w.rungs[i]
}

// RungFor selects the rung whose range contains delta. Increments above the
// top range map to the last rung, which only holds the fundamental.
func (w *Wavetable) RungFor(delta float64) int {
	if delta < 0 {
		delta = -delta
	}
	for i := range w.rungs {
		if delta < w.rungs[i].MaxDelta {
			return i
		}
	}
	return len(w.rungs) - 1
}

// SampleRung reads rung r at phase in [0, 1) with linear interpolation.
func (w *Wavetable) SampleRung(r int, phase float64) float64 {
	samples := w.rungs[r].Samples
	pos := phase * float64(w.size)
	i0 := int(pos)
	frac := pos - float64(i0)
	i0 &= w.size - 1
	i1 := (i0 + 1) & (w.size - 1)
	s0 := float64(samples[i0])
	return s0 + (float64(samples[i1])-s0)*frac
}

// Sample reads the rung appropriate for delta at the given phase.
func (w *Wavetable) Sample(phase, delta float64) float64 {
	return w.SampleRung(w.RungFor(delta), phase)
}
