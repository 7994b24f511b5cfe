package wavetable

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeFloat32 packs samples as little-endian IEEE-754 float32.
func EncodeFloat32(samples []float32) []byte {
	out := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(s))
	}
	return out
}

// DecodeFloat32 unpacks little-endian float32 samples. The byte length must
// be a multiple of four.
func DecodeFloat32(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of float32 samples", ErrMalformed, len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out, nil
}

// EncodeBase64 encodes samples as base64 text for patch files.
func EncodeBase64(samples []float32) string {
	return base64.StdEncoding.EncodeToString(EncodeFloat32(samples))
}

// DecodeBase64 reverses EncodeBase64.
func DecodeBase64(text string) ([]float32, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return DecodeFloat32(data)
}

// SplitWaves cuts concatenated samples into waves of tableSize samples.
func SplitWaves(samples []float32, tableSize int) ([][]float32, error) {
	if tableSize <= 0 || len(samples) == 0 || len(samples)%tableSize != 0 {
		return nil, fmt.Errorf("%w: %d samples do not divide into waves of %d", ErrMalformed, len(samples), tableSize)
	}
	waves := make([][]float32, 0, len(samples)/tableSize)
	for off := 0; off < len(samples); off += tableSize {
		waves = append(waves, samples[off:off+tableSize])
	}
	return waves, nil
}

// LoadSet decodes concatenated float32 wave bytes and builds a set.
func LoadSet(ctx context.Context, data []byte, tableSize int) (*Set, error) {
	samples, err := DecodeFloat32(data)
	if err != nil {
		return nil, err
	}
	waves, err := SplitWaves(samples, tableSize)
	if err != nil {
		return nil, err
	}
	return BuildSet(ctx, waves)
}

// LoadSetOrDefault behaves like LoadSet but substitutes DefaultSet when the
// data is unusable. The error is still returned so the caller can report it.
func LoadSetOrDefault(ctx context.Context, data []byte, tableSize int) (*Set, error) {
	set, err := LoadSet(ctx, data, tableSize)
	if err != nil {
		return DefaultSet(), err
	}
	return set, nil
}
