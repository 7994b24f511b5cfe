// Package gain converts between decibels and linear amplitude and applies
// gain to sample blocks.
package gain

import "math"

// SilenceDb is the level treated as silence by the conversions.
const SilenceDb = -120.0

// DbToLinear converts decibels to amplitude. Levels at or below SilenceDb
// are exactly zero so a fader at its minimum is silent.
func DbToLinear(db float64) float64 {
	if db <= SilenceDb {
		return 0
	}
	return math.Pow(10, db/20)
}

// LinearToDb converts amplitude to decibels, returning SilenceDb for
// non-positive or very small input.
func LinearToDb(amp float64) float64 {
	if amp <= 0 {
		return SilenceDb
	}
	return max(20*math.Log10(amp), SilenceDb)
}

// DbToLinear32 is DbToLinear for float32 callers.
func DbToLinear32(db float32) float32 {
	return float32(DbToLinear(float64(db)))
}

// ApplyBuffer scales buf in place.
func ApplyBuffer(buf []float32, g float32) {
	for i := range buf {
		buf[i] *= g
	}
}

// Fade scales buf by a ramp from start to end. The first sample gets start
// and the last gets end.
func Fade(buf []float32, start, end float32) {
	switch len(buf) {
	case 0:
		return
	case 1:
		buf[0] *= start
		return
	}
	step := (end - start) / float32(len(buf)-1)
	for i := range buf {
		buf[i] *= start + step*float32(i)
	}
}

// HardClipBuffer limits buf to [-ceiling, ceiling] in place. NaN samples
// become zero.
func HardClipBuffer(buf []float32, ceiling float32) {
	for i, s := range buf {
		switch {
		case math.IsNaN(float64(s)):
			buf[i] = 0
		case s > ceiling:
			buf[i] = ceiling
		case s < -ceiling:
			buf[i] = -ceiling
		}
	}
}
