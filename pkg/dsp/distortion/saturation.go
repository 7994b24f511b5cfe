// Package distortion provides the stateless saturation stage of a voice.
package distortion

import (
	"math"

	"github.com/justyntemme/wtsynth/pkg/dsp"
)

// Type represents different saturation transfer functions
type Type int

const (
	// TypeLogistic is the shifted logistic sigmoid 2/(1+e^-kx) - 1
	TypeLogistic Type = iota
	// TypeArctangent is (2/π)·atan(kx)
	TypeArctangent
	// TypeExponential is sign(x)·(1 - e^-k|x|)
	TypeExponential
	// TypeAsymmetric saturates positive values exponentially and folds the
	// negative half in softer
	TypeAsymmetric
	// TypeHardClip clips kx at ±1
	TypeHardClip
	// TypeFoldback folds kx back into ±1
	TypeFoldback

	NumTypes
)

var typeNames = [...]string{"Logistic", "Arctangent", "Exponential", "Asymmetric", "Hard Clip", "Foldback"}

func (t Type) String() string {
	if t < 0 || t >= NumTypes {
		return "Unknown"
	}
	return typeNames[t]
}

// Drive limits
const (
	MinDrive = 0.1
	MaxDrive = 20.0
)

// Process applies the transfer function of type t with coefficient k to x.
// Every type maps 0 to 0. Unknown types pass x through.
func Process(t Type, x, k float64) float64 {
	v := k * x
	switch t {
	case TypeLogistic:
		return 2/(1+math.Exp(-v)) - 1
	case TypeArctangent:
		return 2 / math.Pi * math.Atan(v)
	case TypeExponential:
		if v >= 0 {
			return 1 - math.Exp(-v)
		}
		return math.Exp(v) - 1
	case TypeAsymmetric:
		if v >= 0 {
			return 1 - math.Exp(-v)
		}
		return 0.5 * (math.Exp(2*v) - 1)
	case TypeHardClip:
		return dsp.Clamp(v, -1, 1)
	case TypeFoldback:
		return foldback(v)
	default:
		return x
	}
}

// foldback reflects values beyond ±1 back into range
func foldback(x float64) float64 {
	normalized := (x + 1) / 2
	folded := normalized - math.Floor(normalized)
	if int64(math.Floor(normalized))%2 != 0 {
		folded = 1 - folded
	}
	return folded*2 - 1
}

// Saturator applies a saturation curve with drive and dry/wet mix
type Saturator struct {
	curve Type
	drive float64
	mix   float64
}

// NewSaturator creates a fully wet logistic saturator at unity drive
func NewSaturator() *Saturator {
	return &Saturator{
		curve: TypeLogistic,
		drive: 1,
		mix:   1,
	}
}

// SetType changes the saturation curve
func (s *Saturator) SetType(t Type) {
	s.curve = t
}

// Type returns the saturation curve
func (s *Saturator) Type() Type {
	return s.curve
}

// SetDrive sets the curve coefficient
func (s *Saturator) SetDrive(drive float64) {
	s.drive = dsp.Clamp(drive, MinDrive, MaxDrive)
}

// SetMix sets the dry/wet mix (0.0 = dry, 1.0 = wet)
func (s *Saturator) SetMix(mix float64) {
	s.mix = dsp.Clamp(mix, 0, 1)
}

// Process applies saturation to a single sample
func (s *Saturator) Process(input float64) float64 {
	if s.mix == 0 {
		return input
	}
	shaped := Process(s.curve, input, s.drive)
	return input*(1-s.mix) + shaped*s.mix
}

// ProcessStereo applies saturation to a stereo pair
func (s *Saturator) ProcessStereo(left, right float64) (float64, float64) {
	return s.Process(left), s.Process(right)
}
