package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/justyntemme/wtsynth/pkg/dsp/wavetable"
	"github.com/justyntemme/wtsynth/pkg/framework/debug"
	"github.com/justyntemme/wtsynth/pkg/framework/process"
	"github.com/justyntemme/wtsynth/pkg/synth"
)

// paramFlag collects repeated -set name=value flags. Values are parsed by
// the parameter itself, so "ladder" and "1.2 kHz" work as well as numbers.
type paramFlag []paramValue

type paramValue struct {
	name string
	text string
}

func (p *paramFlag) String() string {
	parts := make([]string, len(*p))
	for i, v := range *p {
		parts[i] = v.name + "=" + v.text
	}
	return strings.Join(parts, ",")
}

func (p *paramFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if !ok || name == "" || value == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	*p = append(*p, paramValue{name, value})
	return nil
}

// waveFlag collects repeated -wavetable slot=path flags. Slots are 1-based.
type waveFlag []waveFile

type waveFile struct {
	slot int
	path string
}

func (w *waveFlag) String() string {
	parts := make([]string, len(*w))
	for i, f := range *w {
		parts[i] = fmt.Sprintf("%d=%s", f.slot+1, f.path)
	}
	return strings.Join(parts, ",")
}

func (w *waveFlag) Set(s string) error {
	slot, path, ok := strings.Cut(s, "=")
	if !ok || path == "" {
		return fmt.Errorf("expected slot=path, got %q", s)
	}
	n, err := strconv.Atoi(slot)
	if err != nil || n < 1 || n > synth.NumOscillators {
		return fmt.Errorf("oscillator slot %q must be 1 to %d", slot, synth.NumOscillators)
	}
	*w = append(*w, waveFile{n - 1, path})
	return nil
}

// engineFlags are the flags shared by every command that runs the engine.
type engineFlags struct {
	patch      string
	params     paramFlag
	waves      waveFlag
	tableSize  int
	polyphony  int
	sampleRate float64
	blockSize  int
	logLevel   string
	logFile    string
}

func (f *engineFlags) register(fs *flag.FlagSet) {
	def := synth.DefaultConfig()
	fs.StringVar(&f.patch, "patch", "", "load a JSON patch")
	fs.Var(&f.params, "set", "set a parameter, name=value (repeatable)")
	fs.Var(&f.waves, "wavetable", "load raw float32 waves into an oscillator, slot=path (repeatable)")
	fs.IntVar(&f.tableSize, "table-size", wavetable.DefaultTableSize, "samples per wave in -wavetable files")
	fs.IntVar(&f.polyphony, "voices", def.Polyphony, "voice pool size")
	fs.Float64Var(&f.sampleRate, "rate", 44100, "sample rate in Hz")
	fs.IntVar(&f.blockSize, "block", 256, "block size in samples")
	fs.StringVar(&f.logLevel, "log", "info", "log level: debug, info, warn, error, off")
	fs.StringVar(&f.logFile, "logfile", "", "write the log to a file instead of stderr")
}

// logger builds the command logger. The returned closer releases a log file.
func (f *engineFlags) logger(stderr io.Writer) (*debug.Logger, func(), error) {
	level, err := debug.ParseLevel(f.logLevel)
	if err != nil {
		return nil, nil, err
	}
	flags := debug.FlagTime | debug.FlagLevel
	if f.logFile == "" {
		l := debug.New(stderr, "", flags)
		l.SetLevel(level)
		return l, func() {}, nil
	}

	l, err := debug.NewFileLogger(f.logFile, "wtsynth", flags|debug.FlagPrefix)
	if err != nil {
		return nil, nil, err
	}
	l.SetLevel(level)
	return l, func() {
		if c, ok := l.Output().(io.Closer); ok {
			c.Close()
		}
	}, nil
}

// build creates and prepares an engine from the flags.
func (f *engineFlags) build(ctx context.Context, logger *debug.Logger, channels int) (*synth.Engine, error) {
	cfg := synth.DefaultConfig()
	cfg.Polyphony = f.polyphony

	e, err := synth.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	e.SetLogger(logger)

	if f.patch != "" {
		if err := loadPatch(e, f.patch); err != nil {
			return nil, err
		}
	}
	for _, p := range f.params {
		if err := e.Params().SetText(p.name, p.text); err != nil {
			return nil, err
		}
	}
	for _, w := range f.waves {
		data, err := os.ReadFile(w.path)
		if err != nil {
			return nil, err
		}
		// A malformed file leaves the default set in place.
		err = e.LoadWavetable(ctx, w.slot, data, f.tableSize)
		if err != nil && !errors.Is(err, wavetable.ErrMalformed) {
			return nil, err
		}
	}

	ac := process.AudioContext{SampleRate: f.sampleRate, BlockSize: f.blockSize, Channels: channels}
	if err := e.Prepare(ac); err != nil {
		return nil, err
	}
	logger.Debug("engine ready: %d voices, %.0f Hz, block %d", cfg.Polyphony, ac.SampleRate, ac.BlockSize)
	return e, nil
}

func loadPatch(e *synth.Engine, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := e.PatchManager().Load(file); err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}
	return nil
}

func savePatch(e *synth.Engine, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.PatchManager().Save(file); err != nil {
		file.Close()
		return fmt.Errorf("patch %s: %w", path, err)
	}
	return file.Close()
}
