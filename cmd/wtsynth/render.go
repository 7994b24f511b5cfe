package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/justyntemme/wtsynth/pkg/dsp"
	"github.com/justyntemme/wtsynth/pkg/dsp/gain"
	"github.com/justyntemme/wtsynth/pkg/framework/debug"
	"github.com/justyntemme/wtsynth/pkg/synth"
)

const (
	fadeOutMs    = 10.0
	normalizeDb  = -0.1
	wavChunkSize = 4096
)

// timedMessage is a raw channel message at an absolute frame.
type timedMessage struct {
	frame int64
	raw   []byte
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	bits := fs.Int("bits", 24, "WAV bit depth, 16 or 24")
	tail := fs.Duration("tail", 2*time.Second, "audio rendered after the last event")
	normalize := fs.Bool("normalize", false, "scale the result to a peak of -0.1 dBFS")
	dump := fs.String("save-patch", "", "write the resolved patch to a file")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: wtsynth render [flags] song.mid out.wav")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("expected a MIDI file and an output path")
	}
	if *bits != 16 && *bits != 24 {
		return fmt.Errorf("unsupported bit depth %d", *bits)
	}

	logger, closeLog, err := ef.logger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	messages, err := readSMF(fs.Arg(0), ef.sampleRate)
	if err != nil {
		return err
	}
	logger.Info("%s: %d channel messages", fs.Arg(0), len(messages))

	e, err := ef.build(ctx, logger, 2)
	if err != nil {
		return err
	}
	if *dump != "" {
		if err := savePatch(e, *dump); err != nil {
			return err
		}
	}

	var last int64
	if n := len(messages); n > 0 {
		last = messages[n-1].frame
	}
	frames := last + int64(math.Round(tail.Seconds()*ef.sampleRate))
	left := make([]float32, frames)
	right := make([]float32, frames)

	if err := renderSong(ctx, e, messages, left, right); err != nil {
		return err
	}
	e.FlushDiagnostics(logger)

	fade := dsp.MsToSamples(fadeOutMs, ef.sampleRate)
	if fade > len(left) {
		fade = len(left)
	}
	gain.Fade(left[len(left)-fade:], 1, 0)
	gain.Fade(right[len(right)-fade:], 1, 0)

	peak := max(dsp.Peak(left), dsp.Peak(right))
	if *normalize && peak > 0 {
		logger.Info("normalizing from %.1f dBFS", gain.LinearToDb(float64(peak)))
		g := gain.DbToLinear32(normalizeDb) / peak
		gain.ApplyBuffer(left, g)
		gain.ApplyBuffer(right, g)
	}
	debug.LogBufferStats(logger, left, "left")
	debug.LogBufferStats(logger, right, "right")

	if err := writeWAV(fs.Arg(1), left, right, int(ef.sampleRate), *bits); err != nil {
		return err
	}
	logger.Info("wrote %s: %.2fs, %s", fs.Arg(1), float64(frames)/ef.sampleRate, e.Profiler().Report())
	return nil
}

// readSMF merges every track of a Standard MIDI File into channel messages
// ordered by frame. Tempo changes are applied by the reader.
func readSMF(path string, sampleRate float64) ([]timedMessage, error) {
	var out []timedMessage
	rd := smf.ReadTracks(path).Do(func(te smf.TrackEvent) {
		msg := te.Event.Message
		if !msg.IsPlayable() {
			return
		}
		frame := int64(math.Round(float64(te.AbsMicroSeconds) * sampleRate / 1e6))
		out = append(out, timedMessage{frame: frame, raw: append([]byte(nil), msg...)})
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].frame < out[j].frame })
	return out, nil
}

// renderSong runs the engine over the whole song in prepared-size blocks,
// writing straight into left and right.
func renderSong(ctx context.Context, e *synth.Engine, messages []timedMessage, left, right []float32) error {
	block := e.AudioContext().BlockSize
	out := make([][]float32, 2)
	offsets := make([]int32, 0, 64)
	raws := make([][]byte, 0, 64)
	next := 0

	for pos := 0; pos < len(left); pos += block {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(pos+block, len(left))

		offsets = offsets[:0]
		raws = raws[:0]
		for next < len(messages) && messages[next].frame < int64(end) {
			offsets = append(offsets, int32(messages[next].frame-int64(pos)))
			raws = append(raws, messages[next].raw)
			next++
		}

		out[0] = left[pos:end]
		out[1] = right[pos:end]
		e.ProcessBlockRaw(out, offsets, raws)
	}
	return nil
}

// writeWAV encodes the stereo pair as integer PCM.
func writeWAV(path string, left, right []float32, sampleRate, bits int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(file, sampleRate, bits, 2, 1)
	scale := float64(int(1)<<(bits-1) - 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		SourceBitDepth: bits,
		Data:           make([]int, 2*wavChunkSize),
	}

	data := buf.Data
	for pos := 0; pos < len(left); pos += wavChunkSize {
		n := min(wavChunkSize, len(left)-pos)
		buf.Data = data[:2*n]
		for i := 0; i < n; i++ {
			buf.Data[2*i] = int(math.Round(dsp.Clamp(float64(left[pos+i]), -1, 1) * scale))
			buf.Data[2*i+1] = int(math.Round(dsp.Clamp(float64(right[pos+i]), -1, 1) * scale))
		}
		if err := enc.Write(buf); err != nil {
			file.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
