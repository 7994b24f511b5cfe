package wavetable

import (
	"context"
	"math"
)

// Sine returns one cycle of a sine wave.
func Sine(size int) []float32 {
	wave := make([]float32, size)
	for i := range wave {
		wave[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(size)))
	}
	return wave
}

// Triangle returns one cycle of a triangle wave starting at zero.
func Triangle(size int) []float32 {
	wave := make([]float32, size)
	for i := range wave {
		p := float64(i) / float64(size)
		switch {
		case p < 0.25:
			wave[i] = float32(4 * p)
		case p < 0.75:
			wave[i] = float32(2 - 4*p)
		default:
			wave[i] = float32(4*p - 4)
		}
	}
	return wave
}

// Saw returns one cycle of a rising sawtooth.
func Saw(size int) []float32 {
	wave := make([]float32, size)
	for i := range wave {
		wave[i] = float32(2*float64(i)/float64(size) - 1)
	}
	return wave
}

// Square returns one cycle of a 50% pulse.
func Square(size int) []float32 {
	wave := make([]float32, size)
	for i := range wave {
		if i < size/2 {
			wave[i] = 1
		} else {
			wave[i] = -1
		}
	}
	return wave
}

// DefaultSet builds the fallback morph set: sine, triangle, saw, square.
func DefaultSet() *Set {
	set, err := BuildSet(context.Background(), [][]float32{
		Sine(DefaultTableSize),
		Triangle(DefaultTableSize),
		Saw(DefaultTableSize),
		Square(DefaultTableSize),
	})
	if err != nil {
		// Built-in waves have a valid power-of-two size.
		panic(err)
	}
	return set
}
