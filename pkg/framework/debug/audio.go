package debug

import (
	"fmt"
	"math"
)

// Thresholds used by Measure and Issues.
const (
	ClipLevel    = 0.999
	DCLimit      = 0.01
	SilenceLevel = 1e-4
)

// BufferStats summarizes one channel of rendered audio.
type BufferStats struct {
	Samples   int
	Peak      float32
	RMS       float32
	DC        float32
	Clipped   int // samples at or above ClipLevel
	NaN       int // NaN or infinite samples, excluded from the other figures
	Crossings int
}

// Silent reports whether the RMS is below SilenceLevel.
func (s BufferStats) Silent() bool {
	return s.RMS < SilenceLevel
}

// Measure scans buf once.
func Measure(buf []float32) BufferStats {
	s := BufferStats{Samples: len(buf)}
	var sum, squares float64
	finite := 0
	prevNeg, started := false, false
	for _, v := range buf {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			s.NaN++
			continue
		}
		finite++
		a := float32(math.Abs(f))
		s.Peak = max(s.Peak, a)
		if a >= ClipLevel {
			s.Clipped++
		}
		sum += f
		squares += f * f

		neg := v < 0
		if started && neg != prevNeg {
			s.Crossings++
		}
		prevNeg, started = neg, true
	}
	if finite > 0 {
		s.RMS = float32(math.Sqrt(squares / float64(finite)))
		s.DC = float32(sum / float64(finite))
	}
	return s
}

// Issues lists the problems in s, each prefixed with name.
func (s BufferStats) Issues(name string) []string {
	var out []string
	if s.NaN > 0 {
		out = append(out, fmt.Sprintf("%s: %d non-finite samples", name, s.NaN))
	}
	if s.Clipped > 0 {
		out = append(out, fmt.Sprintf("%s: %d clipped samples", name, s.Clipped))
	}
	if math.Abs(float64(s.DC)) > DCLimit {
		out = append(out, fmt.Sprintf("%s: dc offset %.3f", name, s.DC))
	}
	return out
}

// LogBufferStats measures buf and logs the summary at info level and each
// issue as a warning.
func LogBufferStats(logger *Logger, buf []float32, name string) BufferStats {
	s := Measure(buf)
	logger.Info("%s: %d samples, peak %.3f, rms %.3f, dc %.6f", name, s.Samples, s.Peak, s.RMS, s.DC)
	if s.Silent() {
		logger.Warn("%s: silent", name)
	}
	for _, issue := range s.Issues(name) {
		logger.Warn("%s", issue)
	}
	return s
}
