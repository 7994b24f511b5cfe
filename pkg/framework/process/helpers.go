package process

// Interleave writes the planar output into dst as frames of
// NumOutputChannels samples and returns the number of samples written.
func (c *Context) Interleave(dst []float32) int {
	channels := c.NumOutputChannels()
	n := c.NumSamples()
	if channels == 0 {
		return 0
	}
	if max := len(dst) / channels; n > max {
		n = max
	}
	for s := 0; s < n; s++ {
		for ch := 0; ch < channels; ch++ {
			dst[s*channels+ch] = c.Output[ch][s]
		}
	}
	return n * channels
}
