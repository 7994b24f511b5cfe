package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/justyntemme/wtsynth/pkg/dsp/wavetable"
	"github.com/justyntemme/wtsynth/pkg/framework/debug"
	"github.com/justyntemme/wtsynth/pkg/midi"
	"github.com/justyntemme/wtsynth/pkg/synth"
)

func quietLogger() *debug.Logger {
	return debug.New(io.Discard, "", 0)
}

func parseEngineFlags(t *testing.T, args ...string) *engineFlags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var ef engineFlags
	ef.register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return &ef
}

func TestParamFlag(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"filter_cutoff=1200", false},
		{"osc_level_2=-3.5", false},
		{"filter_type=ladder", false},
		{"filter_cutoff", true},
		{"=1", true},
		{"filter_cutoff=", true},
	}
	for _, tt := range tests {
		var p paramFlag
		err := p.Set(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: expected error %v, got %v", tt.in, tt.wantErr, err)
		}
	}

	var p paramFlag
	p.Set("filter_cutoff=1200")
	p.Set("master_volume=-12")
	if got := p.String(); got != "filter_cutoff=1200,master_volume=-12" {
		t.Errorf("Unexpected String %q", got)
	}
}

func TestWaveFlag(t *testing.T) {
	var w waveFlag
	if err := w.Set("2=waves.f32"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if w[0].slot != 1 || w[0].path != "waves.f32" {
		t.Errorf("Expected slot index 1, got %+v", w[0])
	}
	for _, bad := range []string{"0=a", "4=a", "x=a", "1="} {
		if err := w.Set(bad); err == nil {
			t.Errorf("Expected %q to fail", bad)
		}
	}
}

func TestBuildAppliesFlags(t *testing.T) {
	dir := t.TempDir()
	waves := filepath.Join(dir, "saw.f32")
	if err := os.WriteFile(waves, wavetable.EncodeFloat32(wavetable.Saw(256)), 0o644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.f32")
	if err := os.WriteFile(bad, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	ef := parseEngineFlags(t,
		"-voices", "4", "-block", "64",
		"-set", synth.ParamFilterCutoff+"=900",
		"-set", synth.ParamFilterType+"=ladder",
		"-wavetable", "1="+waves, "-wavetable", "2="+bad,
		"-table-size", "256",
	)
	e, err := ef.build(context.Background(), quietLogger(), 2)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	if got := e.Params().Value(synth.ParamFilterCutoff); math.Abs(got-900) > 1e-6 {
		t.Errorf("Expected cutoff 900, got %f", got)
	}
	if got := e.Param(synth.ParamFilterType).String(); got != "Ladder" {
		t.Errorf("Expected Ladder, got %s", got)
	}
	if got := e.Wavetable(0).TableSize(); got != 256 {
		t.Errorf("Expected the loaded table, got size %d", got)
	}
	if e.Wavetable(1).TableSize() != wavetable.DefaultTableSize {
		t.Error("Expected the malformed file to leave the default set")
	}
	if ac := e.AudioContext(); ac.BlockSize != 64 || ac.Channels != 2 {
		t.Errorf("Unexpected audio context %+v", ac)
	}

	for _, bad := range []string{"no_such_param=1", synth.ParamFilterCutoff + "=loud"} {
		ef = parseEngineFlags(t, "-set", bad)
		if _, err := ef.build(context.Background(), quietLogger(), 2); err == nil {
			t.Errorf("Expected -set %s to fail", bad)
		}
	}
}

func TestPatchFlagRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patch.json")

	ef := parseEngineFlags(t, "-set", synth.ParamMasterVolume+"=-20")
	src, err := ef.build(context.Background(), quietLogger(), 2)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if err := savePatch(src, path); err != nil {
		t.Fatalf("savePatch error: %v", err)
	}

	ef = parseEngineFlags(t, "-patch", path)
	dst, err := ef.build(context.Background(), quietLogger(), 2)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if got := dst.Params().Value(synth.ParamMasterVolume); math.Abs(got+20) > 1e-6 {
		t.Errorf("Expected -20 dB from the patch, got %f", got)
	}
}

func TestKeyboardMapping(t *testing.T) {
	kb := &keyboard{octave: 4, velocity: 90}

	tests := []struct {
		key  byte
		kind midi.EventType
		data uint8
	}{
		{'z', midi.EventTypeNoteOn, 60},
		{'s', midi.EventTypeNoteOn, 61},
		{',', midi.EventTypeNoteOn, 72},
		{'q', midi.EventTypeNoteOn, 72},
		{'p', midi.EventTypeNoteOn, 88},
		{']', midi.EventTypeControlChange, midi.CCModWheel},
		{keyTab, midi.EventTypeControlChange, midi.CCSustain},
		{' ', midi.EventTypeControlChange, midi.CCAllNotesOff},
	}
	for _, tt := range tests {
		ev, ok, err := kb.event(tt.key)
		if err != nil || !ok {
			t.Fatalf("%q: expected an event, got ok=%v err=%v", tt.key, ok, err)
		}
		if ev.Kind != tt.kind || ev.Data1 != tt.data {
			t.Errorf("%q: expected kind %d data %d, got %v", tt.key, tt.kind, tt.data, ev)
		}
	}

	kb.event('=')
	if ev, _, _ := kb.event('z'); ev.Data1 != 72 || ev.Data2 != 90 {
		t.Errorf("Expected C5 at velocity 90 after octave up, got %v", ev)
	}
	if _, ok, _ := kb.event('!'); ok {
		t.Error("Expected unmapped keys to be ignored")
	}
	if _, _, err := kb.event(keyEsc); !errors.Is(err, errQuit) {
		t.Errorf("Expected errQuit, got %v", err)
	}
}

func TestCRLFWriter(t *testing.T) {
	var buf bytes.Buffer
	n, err := crlfWriter{&buf}.Write([]byte("a\nb\n"))
	if err != nil || n != 4 {
		t.Fatalf("Expected 4 bytes written, got %d (%v)", n, err)
	}
	if buf.String() != "a\r\nb\r\n" {
		t.Errorf("Unexpected output %q", buf.String())
	}
}

func writeTestSMF(t *testing.T, path string) {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, gomidi.NoteOn(0, 60, 100))
	tr.Add(960, gomidi.NoteOff(0, 60))
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
}

func TestReadSMF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mid")
	writeTestSMF(t, path)

	messages, err := readSMF(path, 44100)
	if err != nil {
		t.Fatalf("readSMF error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 channel messages, got %d", len(messages))
	}
	if messages[0].frame != 0 {
		t.Errorf("Expected note on at frame 0, got %d", messages[0].frame)
	}
	// One quarter note at 120 BPM
	if d := messages[1].frame - 22050; d < -1 || d > 1 {
		t.Errorf("Expected note off near frame 22050, got %d", messages[1].frame)
	}
	if ev, ok := midi.Decode(0, messages[1].raw); !ok || ev.Kind != midi.EventTypeNoteOff {
		t.Errorf("Expected a note off, got %v", ev)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	song := filepath.Join(dir, "song.mid")
	out := filepath.Join(dir, "out.wav")
	patch := filepath.Join(dir, "resolved.json")
	writeTestSMF(t, song)

	args := []string{"-log", "off", "-bits", "16", "-tail", "250ms", "-save-patch", patch, song, out}
	if err := runRender(context.Background(), args); err != nil {
		t.Fatalf("render error: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if d.NumChans != 2 || d.SampleRate != 44100 || d.BitDepth != 16 {
		t.Errorf("Unexpected format: %d channels, %d Hz, %d bits", d.NumChans, d.SampleRate, d.BitDepth)
	}

	frames := len(buf.Data) / 2
	want := 22050 + 11025
	if frames < want-1 || frames > want+1 {
		t.Errorf("Expected about %d frames, got %d", want, frames)
	}
	var peak int
	for _, v := range buf.Data[:22050*2] {
		peak = max(peak, v, -v)
	}
	if peak == 0 {
		t.Error("Expected sound while the note is held")
	}
	if last := buf.Data[len(buf.Data)-2:]; last[0] != 0 || last[1] != 0 {
		t.Errorf("Expected the fade to end at zero, got %v", last)
	}

	if _, err := os.Stat(patch); err != nil {
		t.Errorf("Expected the resolved patch to be written: %v", err)
	}
}

func TestRenderArguments(t *testing.T) {
	err := runRender(context.Background(), []string{"-log", "off", "only-one.mid"})
	if err == nil || !strings.Contains(err.Error(), "expected") {
		t.Errorf("Expected an argument error, got %v", err)
	}
	err = runRender(context.Background(), []string{"-bits", "12", "a.mid", "b.wav"})
	if err == nil {
		t.Error("Expected an unsupported bit depth to fail")
	}
}

func TestPrintSet(t *testing.T) {
	var buf bytes.Buffer
	if err := printSet(&buf, wavetable.DefaultSet(), 44100, true); err != nil {
		t.Fatalf("printSet error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "harmonics 1") {
		t.Errorf("Expected the fundamental-only rung in %q", out)
	}
	if !strings.Contains(out, "2048") {
		t.Errorf("Expected the table size in output")
	}
}

func TestNoteRange(t *testing.T) {
	if got := noteRange(430, 450); got != "A4 to A4" {
		t.Errorf("Expected A4 to A4, got %q", got)
	}
	if got := noteRange(20000, 22050); got != "-" {
		t.Errorf("Expected no notes, got %q", got)
	}
}

func TestPrintParams(t *testing.T) {
	ef := parseEngineFlags(t, "-set", synth.ParamFilterType+"=moog")
	e, err := ef.build(context.Background(), quietLogger(), 2)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	var buf bytes.Buffer
	if err := printParams(&buf, e.Params(), ""); err != nil {
		t.Fatalf("printParams error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"filter_type", "Ladder", "filter_cutoff", "8.00 kHz", "osc_level_4"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output", want)
		}
	}

	buf.Reset()
	printParams(&buf, e.Params(), "env_")
	if strings.Contains(buf.String(), "filter_") {
		t.Error("Expected the filter to hide filter parameters")
	}
	if !strings.Contains(buf.String(), "env_attack_1") {
		t.Error("Expected envelope parameters")
	}
}
