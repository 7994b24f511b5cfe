// Package process provides the audio context and per-block processing
// buffers shared between the host glue and the engine.
package process

import (
	"errors"
	"fmt"

	"github.com/justyntemme/wtsynth/pkg/framework/param"
	"github.com/justyntemme/wtsynth/pkg/midi"
)

var ErrInvalidContext = errors.New("process: invalid audio context")

// DefaultEventCapacity bounds the events queued for a single block
const DefaultEventCapacity = 512

// AudioContext describes the stream the engine is prepared for. It is
// passed explicitly to everything that depends on sample rate or block
// size.
type AudioContext struct {
	SampleRate float64
	BlockSize  int
	Channels   int
}

// Validate reports whether the context can be prepared
func (a AudioContext) Validate() error {
	if a.SampleRate <= 0 || a.BlockSize <= 0 || a.Channels <= 0 {
		return fmt.Errorf("%w: %.1f Hz, block %d, %d channels", ErrInvalidContext, a.SampleRate, a.BlockSize, a.Channels)
	}
	return nil
}

// Context provides a clean API for audio processing with zero allocations
type Context struct {
	Output     [][]float32
	SampleRate float64

	// Events due in the current block, sorted by sample offset
	Events *midi.Queue

	output     [][]float32
	workBuffer []float32

	// Parameter access
	params *param.Registry
}

// NewContext creates a new process context with pre-allocated buffers
func NewContext(ac AudioContext, params *param.Registry) *Context {
	c := &Context{
		SampleRate: ac.SampleRate,
		Events:     midi.NewQueue(DefaultEventCapacity),
		output:     make([][]float32, ac.Channels),
		workBuffer: make([]float32, ac.BlockSize),
		params:     params,
	}
	for ch := range c.output {
		c.output[ch] = make([]float32, ac.BlockSize)
	}
	c.Output = make([][]float32, ac.Channels)
	c.SetNumSamples(ac.BlockSize)
	return c
}

// SetNumSamples sizes Output for a block of n samples, capped at the
// prepared block size.
func (c *Context) SetNumSamples(n int) {
	if n > len(c.workBuffer) {
		n = len(c.workBuffer)
	}
	if n < 0 {
		n = 0
	}
	for ch := range c.output {
		c.Output[ch] = c.output[ch][:n]
	}
}

// AddEvent queues e for the current block. It returns false when the
// queue is full.
func (c *Context) AddEvent(e midi.Event) bool {
	return c.Events.Push(e)
}

// ParamPlain returns the current plain value of a parameter
func (c *Context) ParamPlain(id uint32) float64 {
	if c.params == nil {
		return 0
	}
	if p := c.params.Get(id); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	if len(c.Output) > 0 {
		return len(c.Output[0])
	}
	return 0
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// WorkBuffer returns a slice of the pre-allocated work buffer
// sized to the current block size - no allocation!
func (c *Context) WorkBuffer() []float32 {
	return c.workBuffer[:c.NumSamples()]
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	for ch := range c.Output {
		clear(c.Output[ch])
	}
}
