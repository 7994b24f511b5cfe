package distortion

import (
	"math"
	"testing"
)

var allTypes = []Type{TypeLogistic, TypeArctangent, TypeExponential, TypeAsymmetric, TypeHardClip, TypeFoldback}

func TestSilenceStaysSilent(t *testing.T) {
	for _, typ := range allTypes {
		for _, k := range []float64{0, MinDrive, 0.5, 1, 3.7, MaxDrive, 1000} {
			if got := Process(typ, 0, k); got != 0 {
				t.Errorf("%v: Process(0, %v) = %v, want 0", typ, k, got)
			}
		}
	}
}

func TestBoundedFamilies(t *testing.T) {
	for _, typ := range []Type{TypeLogistic, TypeArctangent} {
		for _, k := range []float64{MinDrive, 1, 5, MaxDrive} {
			for x := -1.0; x <= 1.0; x += 0.01 {
				if y := Process(typ, x, k); y < -1 || y > 1 {
					t.Fatalf("%v: Process(%v, %v) = %v out of [-1, 1]", typ, x, k, y)
				}
			}
		}
	}
}

func TestOddSymmetry(t *testing.T) {
	for _, typ := range []Type{TypeLogistic, TypeArctangent, TypeExponential, TypeHardClip, TypeFoldback} {
		t.Run(typ.String(), func(t *testing.T) {
			for _, x := range []float64{0.1, 0.5, 0.9, 1.7} {
				pos := Process(typ, x, 2)
				neg := Process(typ, -x, 2)
				if math.Abs(pos+neg) > 1e-12 {
					t.Errorf("Expected odd symmetry at %v, got %v and %v", x, pos, neg)
				}
			}
		})
	}
}

func TestMonotonicCurves(t *testing.T) {
	for _, typ := range []Type{TypeLogistic, TypeArctangent, TypeExponential, TypeAsymmetric, TypeHardClip} {
		prev := math.Inf(-1)
		for x := -2.0; x <= 2.0; x += 0.01 {
			y := Process(typ, x, 3)
			if y < prev {
				t.Fatalf("%v: decreased at %v", typ, x)
			}
			prev = y
		}
	}
}

func TestHardClip(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{0.5, 0.5},
		{1.5, 1.0},
		{-1.5, -1.0},
		{0.0, 0.0},
	}

	for _, test := range tests {
		if result := Process(TypeHardClip, test.input, 1); math.Abs(result-test.expected) > 1e-9 {
			t.Errorf("HardClip(%f) = %f, want %f", test.input, result, test.expected)
		}
	}
}

func TestFoldback(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{0.5, 0.5},
		{1.5, 0.5},
		{-1.5, -0.5},
		{2.5, -0.5},
	}

	for _, test := range tests {
		if result := Process(TypeFoldback, test.input, 1); math.Abs(result-test.expected) > 1e-9 {
			t.Errorf("Foldback(%f) = %f, want %f", test.input, result, test.expected)
		}
	}
}

func TestSaturatorMix(t *testing.T) {
	s := NewSaturator()
	s.SetType(TypeArctangent)
	s.SetDrive(4)

	s.SetMix(0)
	if got := s.Process(0.3); got != 0.3 {
		t.Errorf("Expected dry output 0.3, got %f", got)
	}

	s.SetMix(1)
	wet := Process(TypeArctangent, 0.3, 4)
	if got := s.Process(0.3); math.Abs(got-wet) > 1e-12 {
		t.Errorf("Expected wet output %f, got %f", wet, got)
	}

	s.SetMix(0.5)
	if got := s.Process(0.3); math.Abs(got-(0.15+wet/2)) > 1e-12 {
		t.Errorf("Expected half mix, got %f", got)
	}

	l, r := s.ProcessStereo(0, 0)
	if l != 0 || r != 0 {
		t.Errorf("Expected silence, got %f/%f", l, r)
	}
}

func TestTypeString(t *testing.T) {
	if TypeHardClip.String() != "Hard Clip" {
		t.Errorf("Expected Hard Clip, got %s", TypeHardClip)
	}
	if NumTypes.String() != "Unknown" {
		t.Errorf("Expected Unknown, got %s", NumTypes)
	}
}
