package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinGainDb is the bottom of a gain parameter's range. It reads as silence.
const MinGainDb = -80

// ChoiceOption is one entry of a choice parameter.
type ChoiceOption struct {
	Value   float64
	Name    string
	Aliases []string
}

// Choice creates a discrete parameter whose values are named. Options must
// be in ascending value order.
func Choice(id uint32, name string, options []ChoiceOption) *Builder {
	format := func(v float64) string {
		for _, o := range options {
			if o.Value == math.Round(v) {
				return o.Name
			}
		}
		return "?"
	}
	parse := func(s string) (float64, error) {
		s = strings.TrimSpace(s)
		for _, o := range options {
			if strings.EqualFold(s, o.Name) {
				return o.Value, nil
			}
			for _, a := range o.Aliases {
				if strings.EqualFold(s, a) {
					return o.Value, nil
				}
			}
		}
		return 0, fmt.Errorf("%s: unknown option %q", name, s)
	}

	b := New(id, name).Formatter(format, parse)
	if len(options) > 0 {
		b.Range(options[0].Value, options[len(options)-1].Value).
			Steps(int32(len(options))).
			Default(options[0].Value)
	}
	return b
}

// GainParameter is a level in dB from MinGainDb to +12, default 0 dB.
func GainParameter(id uint32, name string) *Builder {
	return New(id, name).Range(MinGainDb, 12).Default(0).Unit("dB").
		Formatter(func(v float64) string {
			if v <= MinGainDb {
				return "-inf dB"
			}
			return fmt.Sprintf("%.1f dB", v)
		}, func(s string) (float64, error) {
			s = strings.ToLower(trimUnit(s, "db"))
			if strings.Contains(s, "inf") {
				return MinGainDb, nil
			}
			return strconv.ParseFloat(s, 64)
		})
}

// LevelParameter is a 0 to 100 percent amount.
func LevelParameter(id uint32, name string, defaultPercent float64) *Builder {
	return New(id, name).Range(0, 100).Default(defaultPercent).Unit("%").
		Formatter(formatPercent, parseWithUnit("%"))
}

// MixParameter is a wet/dry amount in percent, default fully wet.
func MixParameter(id uint32, name string) *Builder {
	return LevelParameter(id, name, 100)
}

// FrequencyParameter is a frequency in Hz. Text input accepts "kHz".
func FrequencyParameter(id uint32, name string, min, max, defaultHz float64) *Builder {
	return New(id, name).Range(min, max).Default(defaultHz).Unit("Hz").
		Formatter(formatHz, parseHz)
}

// RateParameter is a modulation rate in Hz, shown with more precision below
// 1 Hz.
func RateParameter(id uint32, name string, minHz, maxHz, defaultHz float64) *Builder {
	return New(id, name).Range(minHz, maxHz).Default(defaultHz).Unit("Hz").
		Formatter(func(v float64) string {
			if v < 1 {
				return fmt.Sprintf("%.3f Hz", v)
			}
			return fmt.Sprintf("%.2f Hz", v)
		}, parseHz)
}

// TimeParameter is a duration in milliseconds. Text input accepts "s".
func TimeParameter(id uint32, name string, minMs, maxMs, defaultMs float64) *Builder {
	return New(id, name).Range(minMs, maxMs).Default(defaultMs).Unit("ms").
		Formatter(func(v float64) string {
			if v >= 1000 {
				return fmt.Sprintf("%.2f s", v/1000)
			}
			return fmt.Sprintf("%.1f ms", v)
		}, func(s string) (float64, error) {
			s = strings.ToLower(strings.TrimSpace(s))
			if strings.HasSuffix(s, "ms") {
				return strconv.ParseFloat(trimUnit(s, "ms"), 64)
			}
			v, err := strconv.ParseFloat(trimUnit(s, "s"), 64)
			return v * 1000, err
		})
}

// PanParameter is a stereo position from -100 (left) to 100 (right).
func PanParameter(id uint32, name string) *Builder {
	return New(id, name).Range(-100, 100).Default(0).
		Formatter(func(v float64) string {
			switch {
			case math.Abs(v) < 0.5:
				return "C"
			case v < 0:
				return fmt.Sprintf("%.0fL", -v)
			}
			return fmt.Sprintf("%.0fR", v)
		}, func(s string) (float64, error) {
			s = strings.ToUpper(strings.TrimSpace(s))
			switch {
			case s == "C" || s == "CENTER":
				return 0, nil
			case strings.HasSuffix(s, "L"):
				v, err := strconv.ParseFloat(trimUnit(s, "L"), 64)
				return -v, err
			case strings.HasSuffix(s, "R"):
				return strconv.ParseFloat(trimUnit(s, "R"), 64)
			}
			return strconv.ParseFloat(s, 64)
		})
}

// ResonanceParameter is a normalized resonance amount.
func ResonanceParameter(id uint32, name string) *Builder {
	return New(id, name).Range(0, 1).Default(0).
		Formatter(func(v float64) string { return fmt.Sprintf("%.3f", v) }, nil)
}

// SemitoneParameter is a whole-semitone offset in [-rangeSt, rangeSt].
func SemitoneParameter(id uint32, name string, rangeSt float64) *Builder {
	return New(id, name).Range(-rangeSt, rangeSt).Default(0).Steps(int32(2*rangeSt)).Unit("st").
		Formatter(func(v float64) string { return fmt.Sprintf("%+.0f st", v) }, parseWithUnit("st"))
}

// CentsParameter is a fine tuning offset of up to a semitone either way.
func CentsParameter(id uint32, name string) *Builder {
	return New(id, name).Range(-100, 100).Default(0).Unit("ct").
		Formatter(func(v float64) string { return fmt.Sprintf("%+.1f ct", v) }, parseWithUnit("ct"))
}

// CurveParameter shapes a segment: 0.5 is linear, lower values bow the
// segment down and higher values bow it up.
func CurveParameter(id uint32, name string) *Builder {
	return New(id, name).Range(0.001, 0.999).Default(0.5).
		Formatter(func(v float64) string { return fmt.Sprintf("%.3f", v) }, nil)
}

// DriveParameter is a saturation coefficient.
func DriveParameter(id uint32, name string, min, max, defaultVal float64) *Builder {
	return New(id, name).Range(min, max).Default(defaultVal).
		Formatter(func(v float64) string { return fmt.Sprintf("%.2fx", v) }, parseWithUnit("x"))
}

// ToggleParameter is an on/off switch.
func ToggleParameter(id uint32, name string, on bool) *Builder {
	b := New(id, name).Toggle().Formatter(formatOnOff, parseOnOff)
	if on {
		b.Default(1)
	}
	return b
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}

func formatHz(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.2f kHz", v/1000)
	}
	return fmt.Sprintf("%.1f Hz", v)
}

func parseHz(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasSuffix(s, "khz") {
		v, err := strconv.ParseFloat(trimUnit(s, "khz"), 64)
		return v * 1000, err
	}
	return strconv.ParseFloat(trimUnit(s, "hz"), 64)
}

func formatOnOff(v float64) string {
	if v >= 0.5 {
		return "on"
	}
	return "off"
}

func parseOnOff(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "true":
		return 1, nil
	case "off", "no", "false":
		return 0, nil
	}
	return 0, fmt.Errorf("expected on or off, got %q", s)
}

// parseWithUnit returns a parser for numbers with an optional suffix.
func parseWithUnit(unit string) func(string) (float64, error) {
	return func(s string) (float64, error) {
		return strconv.ParseFloat(trimUnit(s, unit), 64)
	}
}

// trimUnit removes a case-insensitive unit suffix and surrounding space.
func trimUnit(s, unit string) string {
	s = strings.TrimSpace(s)
	if n := len(s) - len(unit); n >= 0 && strings.EqualFold(s[n:], unit) {
		s = s[:n]
	}
	return strings.TrimSpace(s)
}
