package filter

import "math"

// DCBlocker removes DC offset from a stereo signal.
// y[n] = x[n] - x[n-1] + R * y[n-1]
type DCBlocker struct {
	x1 [2]float64
	y1 [2]float64
	r  float64
}

// NewDCBlocker creates a DC blocker with the given cutoff, typically 5-20 Hz.
func NewDCBlocker(cutoffHz, sampleRate float64) *DCBlocker {
	dc := &DCBlocker{}
	dc.SetCutoff(cutoffHz, sampleRate)
	return dc
}

// SetCutoff recomputes the pole for a new cutoff or sample rate
func (dc *DCBlocker) SetCutoff(cutoffHz, sampleRate float64) {
	r := 1 - 2*math.Pi*cutoffHz/sampleRate
	// Clamp R to ensure stability
	dc.r = math.Max(0.9, math.Min(0.9999, r))
}

// Process removes DC from one sample on channel 0 or 1
func (dc *DCBlocker) Process(x float64, channel int) float64 {
	y := x - dc.x1[channel] + dc.r*dc.y1[channel]
	dc.x1[channel] = x
	dc.y1[channel] = y
	return y
}

// Reset clears the filter state
func (dc *DCBlocker) Reset() {
	dc.x1 = [2]float64{}
	dc.y1 = [2]float64{}
}
