package gain

import (
	"math"
	"testing"
)

func TestDbToLinear(t *testing.T) {
	tests := []struct {
		db   float64
		want float64
	}{
		{0, 1},
		{-6.0206, 0.5},
		{6.0206, 2},
		{-20, 0.1},
		{SilenceDb, 0},
		{-500, 0},
	}
	for _, tt := range tests {
		if got := DbToLinear(tt.db); math.Abs(got-tt.want) > 1e-4 {
			t.Errorf("DbToLinear(%f): expected %f, got %f", tt.db, tt.want, got)
		}
	}

	if got := DbToLinear32(-6.0206); math.Abs(float64(got)-0.5) > 1e-4 {
		t.Errorf("Expected 0.5, got %f", got)
	}
}

func TestLinearToDb(t *testing.T) {
	for _, db := range []float64{-60, -12, 0, 3} {
		if got := LinearToDb(DbToLinear(db)); math.Abs(got-db) > 1e-9 {
			t.Errorf("Round trip of %f dB gave %f", db, got)
		}
	}
	if LinearToDb(0) != SilenceDb || LinearToDb(-1) != SilenceDb || LinearToDb(1e-12) != SilenceDb {
		t.Error("Expected SilenceDb for silent input")
	}
}

func TestApplyBuffer(t *testing.T) {
	buf := []float32{1, -0.5, 0.25}
	ApplyBuffer(buf, 2)
	want := []float32{2, -1, 0.5}
	for i := range buf {
		if buf[i] != want[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, want[i], buf[i])
		}
	}
}

func TestFade(t *testing.T) {
	buf := []float32{1, 1, 1, 1, 1}
	Fade(buf, 1, 0)
	want := []float32{1, 0.75, 0.5, 0.25, 0}
	for i := range buf {
		if math.Abs(float64(buf[i]-want[i])) > 1e-6 {
			t.Errorf("Sample %d: expected %f, got %f", i, want[i], buf[i])
		}
	}

	one := []float32{0.8}
	Fade(one, 0.5, 0)
	if one[0] != 0.4 {
		t.Errorf("Expected the start gain on a single sample, got %f", one[0])
	}
	Fade(nil, 1, 0)
}

func TestHardClipBuffer(t *testing.T) {
	buf := []float32{0.5, 1.5, -2, float32(math.NaN()), -0.3}
	HardClipBuffer(buf, 1)
	want := []float32{0.5, 1, -1, 0, -0.3}
	for i := range buf {
		if buf[i] != want[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, want[i], buf[i])
		}
	}
}

func BenchmarkDbToLinear32(b *testing.B) {
	for i := 0; i < b.N; i++ {
		DbToLinear32(float32(i%120) - 100)
	}
}
