package midi

import (
	"bytes"
	"testing"
)

func TestNoteOnEvent(t *testing.T) {
	event := NoteOn(100, 0, 60, 64)

	if event.Type() != EventTypeNoteOn {
		t.Errorf("Expected type %v, got %v", EventTypeNoteOn, event.Type())
	}
	if event.Channel != 0 {
		t.Errorf("Expected channel 0, got %d", event.Channel)
	}
	if event.SampleOffset() != 100 {
		t.Errorf("Expected offset 100, got %d", event.SampleOffset())
	}

	expected := "NoteOn{ch:0, note:60, vel:64, offset:100}"
	if event.String() != expected {
		t.Errorf("Expected string %s, got %s", expected, event.String())
	}
}

func TestNormalizedValues(t *testing.T) {
	if v := NoteOn(0, 0, 60, 127).NormalizedVelocity(); v != 1 {
		t.Errorf("Expected velocity 1, got %f", v)
	}
	tests := []struct {
		bend int16
		want float64
	}{
		{0, 0},
		{8191, 1},
		{-8192, -1},
	}
	for _, tt := range tests {
		if got := PitchBend(0, 0, tt.bend).NormalizedBend(); got != tt.want {
			t.Errorf("Bend %d: expected %f, got %f", tt.bend, tt.want, got)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want Event
	}{
		{"note on", []byte{0x91, 60, 100}, NoteOn(5, 1, 60, 100)},
		{"note off", []byte{0x80, 61, 40}, NoteOff(5, 0, 61)},
		{"note on zero velocity", []byte{0x90, 62, 0}, NoteOff(5, 0, 62)},
		{"sustain", []byte{0xB0, CCSustain, 127}, ControlChange(5, 0, CCSustain, 127)},
		{"pitch bend center", []byte{0xE0, 0x00, 0x40}, PitchBend(5, 0, 0)},
		{"pitch bend max", []byte{0xE2, 0x7F, 0x7F}, PitchBend(5, 2, 8191)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decode(5, tt.raw)
			if !ok {
				t.Fatalf("Expected %v to decode", tt.raw)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDecodeIgnoresSystemMessages(t *testing.T) {
	for _, raw := range [][]byte{{0xF8}, {0xFA}, nil} {
		if _, ok := Decode(0, raw); ok {
			t.Errorf("Expected %v to be ignored", raw)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	events := []Event{
		NoteOn(0, 3, 64, 90),
		ControlChange(0, 0, CCModWheel, 12),
		PitchBend(0, 0, -100),
	}
	for _, e := range events {
		raw := Encode(e)
		got, ok := Decode(0, raw)
		if !ok || got != e {
			t.Errorf("Expected %v after round trip, got %v", e, got)
		}
	}
	if !bytes.Equal(Encode(NoteOn(0, 0, 60, 100)), []byte{0x90, 60, 100}) {
		t.Errorf("Unexpected note-on bytes %v", Encode(NoteOn(0, 0, 60, 100)))
	}
}

func TestNoteNumberToName(t *testing.T) {
	tests := map[uint8]string{60: "C4", 69: "A4", 0: "C-1", 127: "G9"}
	for note, want := range tests {
		if got := NoteNumberToName(note); got != want {
			t.Errorf("Note %d: expected %s, got %s", note, want, got)
		}
	}
}
