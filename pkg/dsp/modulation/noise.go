package modulation

import "math/rand"

// NoiseType represents different types of noise.
type NoiseType int

const (
	// WhiteNoise has equal energy at all frequencies
	WhiteNoise NoiseType = iota
	// PinkNoise has equal energy per octave (1/f spectrum)
	PinkNoise
	// BrownNoise has 1/f² spectrum (Brownian noise)
	BrownNoise
)

// Noise is the global random modulation source. It is advanced once per
// sample by the engine and read by every voice.
type Noise struct {
	noiseType NoiseType
	value     float64

	// Voss-McCartney rows
	pinkRows  [16]float64
	pinkSum   float64
	pinkIndex int

	brown float64

	rand *rand.Rand
}

// NewNoise creates a noise source with a fixed seed so renders repeat.
func NewNoise(noiseType NoiseType, seed int64) *Noise {
	n := &Noise{
		noiseType: noiseType,
		rand:      rand.New(rand.NewSource(seed)),
	}
	n.Reset()
	return n
}

// SetType changes the noise type.
func (n *Noise) SetType(noiseType NoiseType) {
	n.noiseType = noiseType
}

// Value returns the most recent sample.
func (n *Noise) Value() float64 {
	return n.value
}

// Next generates the next noise sample in [-1, 1].
func (n *Noise) Next() float64 {
	switch n.noiseType {
	case PinkNoise:
		n.value = n.pink()
	case BrownNoise:
		n.value = n.brownian()
	default:
		n.value = n.white()
	}
	return n.value
}

// Reset resets the generator state.
func (n *Noise) Reset() {
	n.value = 0
	n.brown = 0
	n.pinkIndex = 0
	n.pinkSum = 0
	for i := range n.pinkRows {
		n.pinkRows[i] = n.white()
		n.pinkSum += n.pinkRows[i]
	}
}

func (n *Noise) white() float64 {
	return n.rand.Float64()*2 - 1
}

func (n *Noise) pink() float64 {
	n.pinkIndex = (n.pinkIndex + 1) & 0xffff
	if n.pinkIndex != 0 {
		row := 0
		for idx := n.pinkIndex; idx&1 == 0; idx >>= 1 {
			row++
		}
		n.pinkSum -= n.pinkRows[row]
		n.pinkRows[row] = n.white()
		n.pinkSum += n.pinkRows[row]
	}
	return clampUnit((n.pinkSum + n.white()) / 17)
}

func (n *Noise) brownian() float64 {
	n.brown = (n.brown + n.white()*0.0625) * 0.997
	n.brown = clampUnit(n.brown)
	return n.brown
}

func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
