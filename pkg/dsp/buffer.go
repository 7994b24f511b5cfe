package dsp

// Clear zeroes buf.
func Clear(buf []float32) {
	clear(buf)
}

// Peak returns the largest magnitude in buf.
func Peak(buf []float32) float32 {
	var peak float32
	for _, s := range buf {
		peak = max(peak, s, -s)
	}
	return peak
}
