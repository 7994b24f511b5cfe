package filter

// Ladder is a 4-pole lowpass made of four TPT one-pole stages inside a
// resolved zero-delay feedback loop.
type Ladder struct {
	G float64 // one-pole gain g/(1+g)
	k float64 // feedback, 0..4

	s [2][4]float64
}

// Reset clears the filter state
func (l *Ladder) Reset() {
	l.s = [2][4]float64{}
}

func (l *Ladder) setCoefficients(g, k float64) {
	l.G = g / (1 + g)
	l.k = k
}

// ProcessSample runs one sample through the ladder on channel.
func (l *Ladder) ProcessSample(input float64, channel int) float64 {
	G := l.G
	s := &l.s[channel]

	// Response of the cascade to its own state with zero input
	sigma := (1 - G) * (G*G*G*s[0] + G*G*s[1] + G*s[2] + s[3])
	G4 := G * G * G * G
	u := (input - l.k*sigma) / (1 + l.k*G4)

	y := u
	for i := range s {
		v := (y - s[i]) * G
		y = v + s[i]
		s[i] = y + v
	}
	return y
}
