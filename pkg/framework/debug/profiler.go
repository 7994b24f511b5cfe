package debug

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler records named timings from control-thread code.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	enabled      atomic.Bool
	maxSamples   int
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	name        string
	count       uint64
	totalTime   time.Duration
	minTime     time.Duration
	maxTime     time.Duration
	lastTime    time.Duration
	samples     []time.Duration
	sampleIndex int
}

// NewProfiler creates a new profiler with the specified sample buffer size.
func NewProfiler(maxSamples int) *Profiler {
	p := &Profiler{
		measurements: make(map[string]*Measurement),
		maxSamples:   maxSamples,
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// IsEnabled returns whether profiling is enabled.
func (p *Profiler) IsEnabled() bool {
	return p.enabled.Load()
}

// Time measures the execution time of a function.
func (p *Profiler) Time(name string, fn func()) {
	if !p.enabled.Load() {
		fn()
		return
	}
	start := time.Now()
	fn()
	p.record(name, time.Since(start))
}

func (p *Profiler) record(name string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		m = &Measurement{
			name:    name,
			minTime: elapsed,
			maxTime: elapsed,
			samples: make([]time.Duration, p.maxSamples),
		}
		p.measurements[name] = m
	}

	m.count++
	m.totalTime += elapsed
	m.lastTime = elapsed
	m.minTime = min(m.minTime, elapsed)
	m.maxTime = max(m.maxTime, elapsed)

	m.samples[m.sampleIndex] = elapsed
	m.sampleIndex = (m.sampleIndex + 1) % p.maxSamples
}

// GetMeasurement returns a copy of the measurement for a named section.
func (p *Profiler) GetMeasurement(name string) (*Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, exists := p.measurements[name]
	if !exists {
		return nil, false
	}
	c := *m
	c.samples = slices.Clone(m.samples)
	return &c, true
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.measurements = make(map[string]*Measurement)
}

// Report generates a performance report sorted by section name.
func (p *Profiler) Report() string {
	p.mu.RLock()
	names := make([]string, 0, len(p.measurements))
	for name := range p.measurements {
		names = append(names, name)
	}
	p.mu.RUnlock()

	if len(names) == 0 {
		return "No measurements recorded"
	}
	slices.Sort(names)

	var sb strings.Builder
	for _, name := range names {
		m, _ := p.GetMeasurement(name)
		fmt.Fprintf(&sb, "%s: count=%d avg=%v min=%v max=%v last=%v\n",
			name, m.count, m.Average(), m.minTime, m.maxTime, m.lastTime)
	}
	return sb.String()
}

// Count returns how many times the section ran.
func (m *Measurement) Count() uint64 {
	return m.count
}

// Last returns the most recent timing.
func (m *Measurement) Last() time.Duration {
	return m.lastTime
}

// Average returns the average time for this measurement.
func (m *Measurement) Average() time.Duration {
	if m.count == 0 {
		return 0
	}
	return m.totalTime / time.Duration(m.count)
}

// Percentile returns the p-th percentile (0-100) of the recent samples.
func (m *Measurement) Percentile(p float64) time.Duration {
	n := min(int(m.count), len(m.samples))
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(m.samples[:n])
	slices.Sort(sorted)
	return sorted[int(float64(n-1)*p/100.0)]
}

// BlockProfiler times audio blocks from the audio thread. Begin and End
// neither lock nor allocate; Stats and Report are read from elsewhere.
type BlockProfiler struct {
	enabled    atomic.Bool
	sampleRate atomic.Uint64 // float64 bits
	count      atomic.Uint64
	total      atomic.Int64
	worst      atomic.Int64
	last       atomic.Int64
	frames     atomic.Uint64
}

// NewBlockProfiler creates an enabled block profiler.
func NewBlockProfiler(sampleRate float64) *BlockProfiler {
	b := &BlockProfiler{}
	b.SetSampleRate(sampleRate)
	b.enabled.Store(true)
	return b
}

// SetSampleRate sets the rate used to convert frames into real time.
func (b *BlockProfiler) SetSampleRate(sampleRate float64) {
	b.sampleRate.Store(math.Float64bits(sampleRate))
}

// SetEnabled enables or disables timing.
func (b *BlockProfiler) SetEnabled(enabled bool) {
	b.enabled.Store(enabled)
}

// Begin returns the start time of a block, or the zero time when disabled.
func (b *BlockProfiler) Begin() time.Time {
	if !b.enabled.Load() {
		return time.Time{}
	}
	return time.Now()
}

// End records a block of frames that started at start.
func (b *BlockProfiler) End(start time.Time, frames int) {
	if start.IsZero() {
		return
	}
	elapsed := int64(time.Since(start))
	b.count.Add(1)
	b.total.Add(elapsed)
	b.last.Store(elapsed)
	b.frames.Add(uint64(frames))
	for {
		w := b.worst.Load()
		if elapsed <= w || b.worst.CompareAndSwap(w, elapsed) {
			break
		}
	}
}

// BlockStats summarizes recorded blocks.
type BlockStats struct {
	Blocks  uint64
	Average time.Duration
	Worst   time.Duration
	Last    time.Duration
	// Load is processing time as a fraction of the audio it produced.
	Load float64
}

// Stats returns a snapshot of the recorded timings.
func (b *BlockProfiler) Stats() BlockStats {
	s := BlockStats{
		Blocks: b.count.Load(),
		Worst:  time.Duration(b.worst.Load()),
		Last:   time.Duration(b.last.Load()),
	}
	total := time.Duration(b.total.Load())
	if s.Blocks > 0 {
		s.Average = total / time.Duration(s.Blocks)
	}
	if sr := math.Float64frombits(b.sampleRate.Load()); sr > 0 {
		if frames := b.frames.Load(); frames > 0 {
			audio := float64(frames) / sr * float64(time.Second)
			s.Load = float64(total) / audio
		}
	}
	return s
}

// Reset clears the recorded timings.
func (b *BlockProfiler) Reset() {
	b.count.Store(0)
	b.total.Store(0)
	b.worst.Store(0)
	b.last.Store(0)
	b.frames.Store(0)
}

// Report formats Stats for logging.
func (b *BlockProfiler) Report() string {
	s := b.Stats()
	return fmt.Sprintf("blocks=%d avg=%v worst=%v load=%.2f%%", s.Blocks, s.Average, s.Worst, s.Load*100)
}
