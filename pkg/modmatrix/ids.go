package modmatrix

import (
	"fmt"

	"github.com/justyntemme/wtsynth/pkg/framework/param"
)

// Per-voice generator counts.
const (
	NumOscillators = 3
	NumEnvelopes   = 3
	NumLFOs        = 3
)

// SourceID names a modulation source.
type SourceID uint8

const (
	SourceEnvelope SourceID = iota // first of NumEnvelopes
	SourceLFO                      = SourceEnvelope + NumEnvelopes
	SourceGlobalLFO                = SourceLFO + NumLFOs
	SourceModWheel                 = SourceGlobalLFO + 1
	SourcePitchBend                = SourceModWheel + 1
	SourceVelocity                 = SourcePitchBend + 1
	SourceKeyTrack                 = SourceVelocity + 1
	SourceNoise                    = SourceKeyTrack + 1

	NumSources = SourceNoise + 1
)

// EnvelopeSource returns the source for envelope i.
func EnvelopeSource(i int) SourceID {
	return SourceEnvelope + SourceID(i)
}

// LFOSource returns the source for voice LFO i.
func LFOSource(i int) SourceID {
	return SourceLFO + SourceID(i)
}

func (s SourceID) Valid() bool {
	return s < NumSources
}

func (s SourceID) String() string {
	switch {
	case s < SourceLFO:
		return indexed("env", int(s-SourceEnvelope))
	case s < SourceGlobalLFO:
		return indexed("lfo", int(s-SourceLFO))
	case s == SourceGlobalLFO:
		return "global_lfo"
	case s == SourceModWheel:
		return "mod_wheel"
	case s == SourcePitchBend:
		return "pitch_bend"
	case s == SourceVelocity:
		return "velocity"
	case s == SourceKeyTrack:
		return "key_track"
	case s == SourceNoise:
		return "noise"
	}
	return fmt.Sprintf("source(%d)", uint8(s))
}

// ParseSource is the inverse of SourceID.String.
func ParseSource(name string) (SourceID, error) {
	for s := SourceID(0); s < NumSources; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSource, name)
}

// DestinationID names a modulated parameter.
type DestinationID uint8

// Oscillator parameters, combined with an oscillator index by
// OscDestination.
const (
	OscLevel = iota
	OscPosition
	OscPan
	OscCoarse
	OscFine
	numOscParams
)

var oscParamNames = [numOscParams]string{"level", "position", "pan", "coarse", "fine"}

const (
	DestFilterCutoff DestinationID = iota
	DestFilterResonance
	DestSaturationDrive
	DestSaturationMix
	destOsc
	destLFORate = destOsc + NumOscillators*numOscParams

	NumDestinations = destLFORate + NumLFOs
)

// OscDestination returns the destination for parameter p of oscillator i.
func OscDestination(i, p int) DestinationID {
	return destOsc + DestinationID(i*numOscParams+p)
}

// LFORateDestination returns the rate destination of voice LFO i.
func LFORateDestination(i int) DestinationID {
	return destLFORate + DestinationID(i)
}

func (d DestinationID) Valid() bool {
	return d < NumDestinations
}

func (d DestinationID) String() string {
	switch {
	case d == DestFilterCutoff:
		return "filter_cutoff"
	case d == DestFilterResonance:
		return "filter_resonance"
	case d == DestSaturationDrive:
		return "saturation_drive"
	case d == DestSaturationMix:
		return "saturation_mix"
	case d >= destOsc && d < destLFORate:
		i := int(d - destOsc)
		return indexed("osc_"+oscParamNames[i%numOscParams], i/numOscParams)
	case d >= destLFORate && d < NumDestinations:
		return indexed("lfo_rate", int(d-destLFORate))
	}
	return fmt.Sprintf("destination(%d)", uint8(d))
}

// ParseDestination is the inverse of DestinationID.String.
func ParseDestination(name string) (DestinationID, error) {
	for d := DestinationID(0); d < NumDestinations; d++ {
		if d.String() == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDestination, name)
}

// indexed gives 1-based names, e.g. indexed("env", 0) is "env_1".
func indexed(base string, i int) string {
	return param.IndexedName(base, i+1)
}
