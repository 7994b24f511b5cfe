package modmatrix

import (
	"errors"
	"math"
	"sync"
	"testing"
)

// fixedSources returns the same value per source on every read
type fixedSources [NumSources]float64

func (f *fixedSources) SourceValue(id SourceID) float64 {
	return f[id]
}

func TestEmptyDestinationIsZero(t *testing.T) {
	m := New()
	src := &fixedSources{}
	src[SourceModWheel] = 1

	v, ok := m.Value(DestFilterCutoff, src)
	if !ok || v != 0 {
		t.Errorf("Expected 0 for an unrouted destination, got %f (ok=%v)", v, ok)
	}
}

func TestValueSumsConnections(t *testing.T) {
	m := New()
	err := m.Set([]Connection{
		{Source: EnvelopeSource(1), Dest: DestFilterCutoff, Depth: 0.5},
		{Source: SourceModWheel, Dest: DestFilterCutoff, Depth: -0.25},
		{Source: LFOSource(0), Dest: OscDestination(2, OscPan), Depth: 1},
	})
	if err != nil {
		t.Fatalf("Set error: %v", err)
	}

	src := &fixedSources{}
	src[EnvelopeSource(1)] = 0.8
	src[SourceModWheel] = 1
	src[LFOSource(0)] = -0.3

	tests := []struct {
		dest DestinationID
		want float64
	}{
		{DestFilterCutoff, 0.8*0.5 - 0.25},
		{OscDestination(2, OscPan), -0.3},
		{OscDestination(0, OscPan), 0},
		{DestSaturationDrive, 0},
	}
	for _, tt := range tests {
		v, ok := m.Value(tt.dest, src)
		if !ok || math.Abs(v-tt.want) > 1e-12 {
			t.Errorf("%s: expected %f, got %f", tt.dest, tt.want, v)
		}
	}
}

func TestUnknownDestination(t *testing.T) {
	m := New()
	v, ok := m.Value(DestinationID(200), &fixedSources{})
	if ok || v != 0 {
		t.Errorf("Expected (0, false) for unknown destination, got (%f, %v)", v, ok)
	}
}

func TestNewTableValidates(t *testing.T) {
	_, err := NewTable([]Connection{{Source: NumSources, Dest: DestFilterCutoff, Depth: 1}})
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Expected ErrUnknownSource, got %v", err)
	}
	_, err = NewTable([]Connection{{Source: SourceNoise, Dest: NumDestinations, Depth: 1}})
	if !errors.Is(err, ErrUnknownDestination) {
		t.Errorf("Expected ErrUnknownDestination, got %v", err)
	}

	table, err := NewTable([]Connection{{Source: SourceNoise, Dest: DestSaturationMix, Depth: 3}})
	if err != nil {
		t.Fatalf("NewTable error: %v", err)
	}
	if got := table.Connections()[0].Depth; got != 1 {
		t.Errorf("Expected depth clamped to 1, got %f", got)
	}
}

func TestFailedSetKeepsRouting(t *testing.T) {
	m := New()
	m.Connect(Connection{Source: SourceVelocity, Dest: OscDestination(0, OscLevel), Depth: 1})
	before := m.Table()

	if err := m.Set([]Connection{{Source: NumSources}}); err == nil {
		t.Fatal("Expected error")
	}
	if m.Table() != before {
		t.Error("Expected a failed Set to leave the published table alone")
	}
}

func TestConnectDisconnect(t *testing.T) {
	m := New()
	m.Connect(Connection{Source: SourceNoise, Dest: DestFilterCutoff, Depth: 0.1})
	m.Connect(Connection{Source: SourceVelocity, Dest: DestFilterCutoff, Depth: 0.2})

	if !m.Table().Routed(DestFilterCutoff) || m.Table().Len() != 2 {
		t.Fatalf("Expected 2 connections, got %d", m.Table().Len())
	}
	if !m.Table().Uses(SourceNoise) {
		t.Error("Expected noise to be in use")
	}

	m.Disconnect(SourceNoise, DestFilterCutoff)
	if m.Table().Len() != 1 || m.Table().Uses(SourceNoise) {
		t.Errorf("Expected noise connection removed, got %v", m.Table().Connections())
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{EnvelopeSource(0).String(), "env_1"},
		{LFOSource(2).String(), "lfo_3"},
		{SourcePitchBend.String(), "pitch_bend"},
		{OscDestination(0, OscLevel).String(), "osc_level_1"},
		{OscDestination(2, OscFine).String(), "osc_fine_3"},
		{LFORateDestination(1).String(), "lfo_rate_2"},
		{DestFilterResonance.String(), "filter_resonance"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, tt.got)
		}
	}

	for s := SourceID(0); s < NumSources; s++ {
		if parsed, err := ParseSource(s.String()); err != nil || parsed != s {
			t.Errorf("ParseSource(%s) = %d, %v", s, parsed, err)
		}
	}
	for d := DestinationID(0); d < NumDestinations; d++ {
		if parsed, err := ParseDestination(d.String()); err != nil || parsed != d {
			t.Errorf("ParseDestination(%s) = %d, %v", d, parsed, err)
		}
	}
}

func TestSpecs(t *testing.T) {
	m := New()
	m.Connect(Connection{Source: SourceModWheel, Dest: LFORateDestination(0), Depth: 0.75})

	specs := m.Specs()
	want := ConnectionSpec{Source: "mod_wheel", Destination: "lfo_rate_1", Depth: 0.75}
	if len(specs) != 1 || specs[0] != want {
		t.Fatalf("Expected %v, got %v", want, specs)
	}

	other := New()
	if err := other.LoadSpecs(specs); err != nil {
		t.Fatalf("LoadSpecs error: %v", err)
	}
	if got := other.Table().Connections()[0]; got.Source != SourceModWheel || got.Dest != LFORateDestination(0) {
		t.Errorf("Unexpected connection %v", got)
	}

	err := other.LoadSpecs([]ConnectionSpec{{Source: "mod_wheel", Destination: "osc_width_1"}})
	if !errors.Is(err, ErrUnknownDestination) {
		t.Errorf("Expected ErrUnknownDestination, got %v", err)
	}
}

func TestConcurrentPublish(t *testing.T) {
	m := New()
	src := &fixedSources{}
	src[SourceVelocity] = 1

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			depth := 0.5
			if i%2 == 0 {
				depth = -0.5
			}
			m.Set([]Connection{
				{Source: SourceVelocity, Dest: DestFilterCutoff, Depth: depth},
				{Source: SourceVelocity, Dest: DestFilterCutoff, Depth: depth},
			})
		}
	}()

	// Both connections always come from the same table
	for i := 0; i < 1000; i++ {
		v, _ := m.Value(DestFilterCutoff, src)
		if v != 0 && v != 1 && v != -1 {
			t.Fatalf("Observed a torn table: %f", v)
		}
	}
	wg.Wait()
}

func TestValueDoesNotAllocate(t *testing.T) {
	m := New()
	m.Connect(Connection{Source: SourceVelocity, Dest: DestFilterCutoff, Depth: 0.5})
	src := &fixedSources{}
	allocs := testing.AllocsPerRun(100, func() {
		for d := DestinationID(0); d < NumDestinations; d++ {
			m.Value(d, src)
		}
	})
	if allocs != 0 {
		t.Errorf("Expected no allocations, got %f", allocs)
	}
}
