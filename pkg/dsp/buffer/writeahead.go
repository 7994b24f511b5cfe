// Package buffer holds the playback ring that decouples engine blocks from
// the sound card callback.
package buffer

import (
	"encoding/binary"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/justyntemme/wtsynth/pkg/dsp"
)

// DefaultLatency is the write-ahead distance used when none is given.
const DefaultLatency = 50 * time.Millisecond

// ErrOverrun is returned by Write when the ring has no room for the block.
var ErrOverrun = errors.New("buffer: overrun")

// WriteAhead is a single-producer single-consumer ring of interleaved
// float32 frames. The reader is kept at least the configured latency behind
// the writer so that a stalled producer (a GC pause, a slow block) plays out
// already rendered audio instead of dropping to silence.
type WriteAhead struct {
	data     []float32
	mask     uint64
	latency  uint64 // samples, all channels
	channels int
	rate     float64

	readPos  atomic.Uint64
	writePos atomic.Uint64

	underruns   atomic.Uint64
	overruns    atomic.Uint64
	adjustments atomic.Uint64

	scratch []float32
}

// Stats reports ring health.
type Stats struct {
	Underruns   uint64
	Overruns    uint64
	Adjustments uint64
	Fill        float32 // 0..1
	Latency     time.Duration
}

// NewWriteAhead creates a ring for the given stream. The capacity is four
// times the latency, rounded up to a power of two.
func NewWriteAhead(sampleRate float64, channels int, latency time.Duration) *WriteAhead {
	if channels < 1 {
		channels = 1
	}
	if latency <= 0 {
		latency = DefaultLatency
	}
	frames := uint64(math.Round(latency.Seconds() * sampleRate))
	lat := frames * uint64(channels)
	size := nextPowerOf2(lat * 4)

	b := &WriteAhead{
		data:     make([]float32, size),
		mask:     size - 1,
		latency:  lat,
		channels: channels,
		rate:     sampleRate,
	}
	b.writePos.Store(lat)
	return b
}

// Channels returns the frame width.
func (b *WriteAhead) Channels() int {
	return b.channels
}

// Space returns how many samples can be written without overrunning.
func (b *WriteAhead) Space() int {
	used := b.writePos.Load() - b.readPos.Load()
	if used >= uint64(len(b.data)) {
		return 0
	}
	return len(b.data) - int(used)
}

// Write appends interleaved samples. The whole block is rejected when it
// does not fit.
func (b *WriteAhead) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	if b.Space() < len(samples) {
		b.overruns.Add(1)
		return ErrOverrun
	}

	w := b.writePos.Load()
	for len(samples) > 0 {
		i := w & b.mask
		n := copy(b.data[i:], samples)
		samples = samples[n:]
		w += uint64(n)
	}
	b.writePos.Store(w)
	return nil
}

// Read fills out with the oldest samples and returns how many were real.
// The rest of out is zeroed and counted as an underrun.
func (b *WriteAhead) Read(out []float32) int {
	if len(out) == 0 {
		return 0
	}
	b.keepDistance()

	r := b.readPos.Load()
	avail := b.writePos.Load() - r
	n := len(out)
	if avail < uint64(n) {
		n = int(avail)
		b.underruns.Add(1)
	}

	dst := out[:n]
	for len(dst) > 0 {
		i := r & b.mask
		c := copy(dst, b.data[i:])
		dst = dst[c:]
		r += uint64(c)
	}
	b.readPos.Store(r)

	dsp.Clear(out[n:])
	return n
}

// ReadBytes implements io.Reader over little-endian float32 samples, the
// layout oto's FormatFloat32LE expects. It always fills p.
func (b *WriteAhead) ReadBytes(p []byte) (int, error) {
	n := len(p) / 4
	if cap(b.scratch) < n {
		b.scratch = make([]float32, n)
	}
	s := b.scratch[:n]
	b.Read(s)
	for i, v := range s {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	clear(p[n*4:])
	return len(p), nil
}

// Reader adapts ReadBytes to io.Reader.
func (b *WriteAhead) Reader() *Reader {
	return &Reader{b}
}

// Reader is the io.Reader view of a WriteAhead ring.
type Reader struct {
	b *WriteAhead
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.b.ReadBytes(p)
}

// keepDistance moves the reader back to the latency mark when it has caught
// up with the writer. Only the consumer moves readPos.
func (b *WriteAhead) keepDistance() {
	r := b.readPos.Load()
	w := b.writePos.Load()
	if w-r >= b.latency || w < b.latency {
		return
	}
	b.readPos.Store(w - b.latency)
	b.adjustments.Add(1)
}

// Stats returns the current counters.
func (b *WriteAhead) Stats() Stats {
	used := b.writePos.Load() - b.readPos.Load()
	frames := float64(used) / float64(b.channels)
	return Stats{
		Underruns:   b.underruns.Load(),
		Overruns:    b.overruns.Load(),
		Adjustments: b.adjustments.Load(),
		Fill:        float32(used) / float32(len(b.data)),
		Latency:     time.Duration(frames / b.rate * float64(time.Second)),
	}
}

// Reset empties the ring. It must not race with Read or Write.
func (b *WriteAhead) Reset() {
	dsp.Clear(b.data)
	b.readPos.Store(0)
	b.writePos.Store(b.latency)
	b.underruns.Store(0)
	b.overruns.Store(0)
	b.adjustments.Store(0)
}

func nextPowerOf2(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}
