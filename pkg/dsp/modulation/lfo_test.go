package modulation

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

func TestCurveTableTriangle(t *testing.T) {
	shape := NewShape()

	testCases := []struct {
		name     string
		phase    float64
		expected float64
	}{
		{"start", 0.0, 0.0},
		{"quarter", 0.25, 0.5},
		{"peak", 0.5, 1.0},
		{"three quarters", 0.75, 0.5},
	}

	for _, tc := range testCases {
		if got := shape.Lookup(tc.phase); math.Abs(got-tc.expected) > 1e-3 {
			t.Errorf("%s: got %f, expected %f", tc.name, got, tc.expected)
		}
	}
}

func TestCurveMidpoints(t *testing.T) {
	table := CurveTable(Curve{Peak: 0.5, Rise: 0.2, Fall: 0.8})
	// Half way up the rise
	if got := table[ShapeTableSize/4]; math.Abs(got-0.2) > 1e-9 {
		t.Errorf("Expected rise midpoint 0.2, got %f", got)
	}
	// Half way down the fall
	if got := table[3*ShapeTableSize/4]; math.Abs(got-(1-0.8)) > 1e-9 {
		t.Errorf("Expected fall midpoint 0.2, got %f", got)
	}
}

func TestBreakpointTable(t *testing.T) {
	table, err := BreakpointTable([]Handle{{0, 0}, {1024, 1}, {1536, 0.5}})
	if err != nil {
		t.Fatalf("BreakpointTable failed: %v", err)
	}

	checks := map[int]float64{
		0:    0,
		512:  0.5,
		1024: 1,
		1280: 0.75,
		1536: 0.5,
		1792: 0.25,
	}
	for i, want := range checks {
		if math.Abs(table[i]-want) > 1e-9 {
			t.Errorf("table[%d]: expected %f, got %f", i, want, table[i])
		}
	}
}

func TestBreakpointWrapsAcrossCycle(t *testing.T) {
	table, err := BreakpointTable([]Handle{{512, 1}, {1536, 0}})
	if err != nil {
		t.Fatalf("BreakpointTable failed: %v", err)
	}
	// Between 1536 and 512+2048 the level climbs from 0 to 1 over 1024 entries.
	if math.Abs(table[2047]-511.0/1024) > 1e-9 {
		t.Errorf("Expected wrap interpolation at end, got %f", table[2047])
	}
	if math.Abs(table[0]-512.0/1024) > 1e-9 {
		t.Errorf("Expected wrap interpolation at start, got %f", table[0])
	}
}

func TestValidateHandles(t *testing.T) {
	tests := []struct {
		name    string
		handles []Handle
		want    error
	}{
		{"empty", nil, ErrTooFewHandles},
		{"single", []Handle{{0, 1}}, ErrTooFewHandles},
		{"unsorted", []Handle{{100, 1}, {50, 0}}, ErrUnsortedHandles},
		{"duplicate", []Handle{{100, 1}, {100, 0}}, ErrUnsortedHandles},
		{"out of range", []Handle{{0, 1}, {ShapeTableSize, 0}}, ErrUnsortedHandles},
		{"valid", []Handle{{0, 1}, {2047, 0}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHandles(tt.handles)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLFOTickAdvancesThenReads(t *testing.T) {
	sampleRate := 48000.0
	lfo := NewLFO(sampleRate, NewShape())
	lfo.SetParams(LFOParams{Rate: 12})

	want := 12 / sampleRate
	v := lfo.Tick()
	if math.Abs(lfo.Phase()-want) > 1e-12 {
		t.Errorf("Expected phase %g after one tick, got %g", want, lfo.Phase())
	}
	if math.Abs(v-2*want) > 1e-6 {
		t.Errorf("Expected triangle value %g, got %g", 2*want, v)
	}
}

func TestLFOPhaseWraps(t *testing.T) {
	lfo := NewLFO(1000, NewShape())
	lfo.SetParams(LFOParams{Rate: 20})
	for i := 0; i < 10000; i++ {
		lfo.Tick()
		if p := lfo.Phase(); p < 0 || p >= 1 {
			t.Fatalf("Tick %d: phase %f outside [0, 1)", i, p)
		}
	}
}

func TestLFOBipolar(t *testing.T) {
	lfo := NewLFO(48000, NewShape())
	lfo.SetParams(LFOParams{Rate: 1, Bipolar: true, Retrigger: true})
	lfo.Start()
	if v := lfo.Tick(); v > -0.99 {
		t.Errorf("Expected bipolar output near -1 at phase 0, got %f", v)
	}
}

func TestLFORateModulation(t *testing.T) {
	lfo := NewLFO(48000, NewShape())
	lfo.SetParams(LFOParams{Rate: 2})
	lfo.SetRateMod(1)
	if math.Abs(lfo.Rate()-MaxRate) > 1e-12 {
		t.Errorf("Expected full positive mod to reach %v Hz, got %v", MaxRate, lfo.Rate())
	}
	lfo.SetRateMod(-1)
	if math.Abs(lfo.Rate()-MinRate) > 1e-12 {
		t.Errorf("Expected full negative mod to reach %v Hz, got %v", MinRate, lfo.Rate())
	}
}

func TestLFOQuickKill(t *testing.T) {
	shape := NewShape()
	shape.SetCurve(Curve{Peak: 1, Rise: 0.5, Fall: 0.5})
	lfo := NewLFO(48000, shape)
	lfo.SetParams(LFOParams{Rate: 0.01})
	lfo.SetQuickKillSamples(10)
	lfo.SetPhase(0.9)

	lfo.QuickKill()
	prev := math.Inf(1)
	for i := 0; i < 10; i++ {
		v := lfo.Tick()
		if v > prev {
			t.Fatalf("Tick %d: kill ramp increased", i)
		}
		prev = v
	}
	if prev != 0 || lfo.IsKilling() {
		t.Errorf("Expected 0 after the ramp, got %f (killing=%v)", prev, lfo.IsKilling())
	}
	if v := lfo.Tick(); v != 0 {
		t.Errorf("Expected killed LFO to stay silent, got %f", v)
	}

	lfo.Start()
	if v := lfo.Tick(); v == 0 {
		t.Error("Expected Start to clear the kill")
	}
}

func TestShapeBuilderPublishes(t *testing.T) {
	shapes := []*Shape{NewShape(), NewShape()}
	b := NewShapeBuilder(shapes...)

	var mu sync.Mutex
	done := make(chan int, 4)
	b.OnBuilt(func(i int) {
		mu.Lock()
		defer mu.Unlock()
		done <- i
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	handles := []Handle{{0, 1}, {2047, 1}}
	if err := b.Submit(1, handles); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case i := <-done:
		if i != 1 {
			t.Fatalf("Expected shape 1 to be rebuilt, got %d", i)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for rebuild")
	}

	if got := shapes[1].Lookup(0.3); got != 1 {
		t.Errorf("Expected flat shape at 1, got %f", got)
	}
	if shapes[0].Handles() != nil {
		t.Error("Shape 0 should still be parametric")
	}
	if len(shapes[1].Handles()) != 2 {
		t.Errorf("Expected 2 handles on shape 1, got %d", len(shapes[1].Handles()))
	}
}

func TestShapeBuilderRejectsInvalid(t *testing.T) {
	b := NewShapeBuilder(NewShape())
	if err := b.Submit(0, []Handle{{0, 1}}); !errors.Is(err, ErrTooFewHandles) {
		t.Errorf("Expected ErrTooFewHandles, got %v", err)
	}
	if err := b.Submit(3, []Handle{{0, 1}, {1, 1}}); err == nil {
		t.Error("Expected error for unknown shape")
	}
}

func TestNoiseRange(t *testing.T) {
	for _, nt := range []NoiseType{WhiteNoise, PinkNoise, BrownNoise} {
		n := NewNoise(nt, 1)
		for i := 0; i < 10000; i++ {
			v := n.Next()
			if v < -1 || v > 1 {
				t.Fatalf("type %d: sample %d out of range: %f", nt, i, v)
			}
			if v != n.Value() {
				t.Fatalf("type %d: Value does not match last sample", nt)
			}
		}
	}
}

func TestNoiseIsSeeded(t *testing.T) {
	a, b := NewNoise(WhiteNoise, 42), NewNoise(WhiteNoise, 42)
	for i := 0; i < 100; i++ {
		if a.Next() != b.Next() {
			t.Fatalf("Sample %d differs for equal seeds", i)
		}
	}
}
