package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/justyntemme/wtsynth/pkg/dsp/buffer"
	"github.com/justyntemme/wtsynth/pkg/framework/debug"
	"github.com/justyntemme/wtsynth/pkg/framework/process"
	"github.com/justyntemme/wtsynth/pkg/midi"
	"github.com/justyntemme/wtsynth/pkg/synth"
)

var errQuit = errors.New("quit")

const (
	keyCtrlC = 0x03
	keyCtrlD = 0x04
	keyTab   = 0x09
	keyEsc   = 0x1b
)

// Two rows of the computer keyboard laid out as piano keys, tracker style.
// The lower row starts at the current octave, the upper row one above.
const (
	lowerRow = "zsxdcvgbhnjm,l."
	upperRow = "q2w3er5t6y7ui9o0p"
)

type keyboard struct {
	octave   int
	velocity uint8
	modWheel int
	sustain  bool
}

// event maps one key press to an engine event.
func (k *keyboard) event(key byte) (midi.Event, bool, error) {
	if i := bytes.IndexByte([]byte(lowerRow), key); i >= 0 {
		return k.note(i)
	}
	if i := bytes.IndexByte([]byte(upperRow), key); i >= 0 {
		return k.note(12 + i)
	}

	switch key {
	case keyCtrlC, keyCtrlD, keyEsc:
		return midi.Event{}, false, errQuit
	case '-':
		k.octave = max(k.octave-1, -1)
	case '=':
		k.octave = min(k.octave+1, 8)
	case '[':
		k.modWheel = max(k.modWheel-16, 0)
		return midi.ControlChange(0, 0, midi.CCModWheel, uint8(k.modWheel)), true, nil
	case ']':
		k.modWheel = min(k.modWheel+16, 127)
		return midi.ControlChange(0, 0, midi.CCModWheel, uint8(k.modWheel)), true, nil
	case keyTab:
		k.sustain = !k.sustain
		var v uint8
		if k.sustain {
			v = 127
		}
		return midi.ControlChange(0, 0, midi.CCSustain, v), true, nil
	case ' ':
		return midi.ControlChange(0, 0, midi.CCAllNotesOff, 0), true, nil
	}
	return midi.Event{}, false, nil
}

func (k *keyboard) note(semitone int) (midi.Event, bool, error) {
	n := (k.octave+1)*12 + semitone
	if n < 0 || n > 127 {
		return midi.Event{}, false, nil
	}
	return midi.NoteOn(0, 0, uint8(n), k.velocity), true, nil
}

// crlfWriter turns line feeds into CRLF so log lines stay readable while the
// terminal is in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

func runPlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	latency := fs.Duration("latency", buffer.DefaultLatency, "write-ahead distance between engine and sound card")
	gate := fs.Duration("gate", 400*time.Millisecond, "how long a key press holds its note")
	octave := fs.Int("octave", 4, "octave of the lower key row")
	velocity := fs.Int("velocity", 100, "note velocity, 1 to 127")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: wtsynth play [flags]")
		fmt.Fprintln(fs.Output(), "Keys: z-. and q-p play notes, -/= octave, [/] mod wheel, tab sustain, space all notes off, esc quit")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *velocity < 1 || *velocity > 127 {
		return fmt.Errorf("velocity %d out of range", *velocity)
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("play needs a terminal on stdin")
	}

	logger, closeLog, err := ef.logger(crlfWriter{os.Stderr})
	if err != nil {
		return err
	}
	defer closeLog()

	e, err := ef.build(ctx, logger, 2)
	if err != nil {
		return err
	}
	ring := buffer.NewWriteAhead(ef.sampleRate, 2, *latency)

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(ef.sampleRate),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return err
	}
	<-ready
	player := otoCtx.NewPlayer(ring.Reader())
	defer player.Close()

	old, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, old)

	// The stdin reader cannot be interrupted, so it stays outside the group
	// and simply dies with the process.
	keys := make(chan byte, 64)
	go readKeys(os.Stdin, keys)

	kb := &keyboard{octave: *octave, velocity: uint8(*velocity)}
	events := make(chan midi.Event, 64)
	gateFrames := max(int64(gate.Seconds()*ef.sampleRate), 1)

	var active atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.ShapeBuilder().Run(ctx) })
	g.Go(func() error { return dispatchKeys(ctx, kb, keys, events) })
	g.Go(func() error { return stream(ctx, e, ring, events, gateFrames, &active) })
	g.Go(func() error { return monitor(ctx, e, ring, &active, logger) })

	player.Play()
	logger.Info("playing, esc to quit")

	err = g.Wait()
	logger.Info("%s", e.Profiler().Report())
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func readKeys(r io.Reader, keys chan<- byte) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			keys <- b
		}
		if err != nil {
			close(keys)
			return
		}
	}
}

func dispatchKeys(ctx context.Context, kb *keyboard, keys <-chan byte, events chan<- midi.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok {
				return errQuit
			}
			ev, send, err := kb.event(key)
			if err != nil {
				return err
			}
			if !send {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// stream keeps the ring topped up with engine blocks. It is the only
// goroutine that touches the engine's audio side. Notes from the keyboard
// are released gateFrames after their last press. The busy voice count is
// published to active after every block.
func stream(ctx context.Context, e *synth.Engine, ring *buffer.WriteAhead, events <-chan midi.Event, gateFrames int64, active *atomic.Int32) error {
	ac := e.AudioContext()
	pc := process.NewContext(ac, e.Params())
	frames := make([]float32, ac.BlockSize*ac.Channels)
	wait := time.Duration(float64(ac.BlockSize) / ac.SampleRate * float64(time.Second) / 2)

	var release [128]int64
	var clock int64
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if ring.Space() < len(frames) {
			time.Sleep(wait)
			continue
		}

	drain:
		for {
			select {
			case ev := <-events:
				if ev.Kind == midi.EventTypeNoteOn {
					release[ev.Data1] = clock + gateFrames
				}
				pc.AddEvent(ev)
			default:
				break drain
			}
		}
		for note, at := range release {
			if at != 0 && at <= clock {
				pc.AddEvent(midi.NoteOff(0, 0, uint8(note)))
				release[note] = 0
			}
		}

		e.Process(pc)
		active.Store(int32(e.ActiveVoices()))
		n := pc.Interleave(frames)
		if err := ring.Write(frames[:n]); err != nil {
			return err
		}
		clock += int64(ac.BlockSize)
	}
}

// monitor drains engine diagnostics and reports ring health.
func monitor(ctx context.Context, e *synth.Engine, ring *buffer.WriteAhead, active *atomic.Int32, logger *debug.Logger) error {
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()

	var last buffer.Stats
	for {
		select {
		case <-ctx.Done():
			e.FlushDiagnostics(logger)
			return nil
		case <-tick.C:
		}
		e.FlushDiagnostics(logger)

		s := ring.Stats()
		if s.Underruns != last.Underruns || s.Adjustments != last.Adjustments {
			logger.Warn("audio dropout: %d underruns, %d resyncs, latency %v", s.Underruns, s.Adjustments, s.Latency)
		}
		last = s
		logger.Debug("voices %d, %s", active.Load(), e.Profiler().Report())
	}
}
