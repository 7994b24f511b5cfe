package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/justyntemme/wtsynth/pkg/dsp"
	"github.com/justyntemme/wtsynth/pkg/dsp/wavetable"
	"github.com/justyntemme/wtsynth/pkg/framework/debug"
	"github.com/justyntemme/wtsynth/pkg/midi"
)

func runTables(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tables", flag.ContinueOnError)
	size := fs.Int("size", wavetable.DefaultTableSize, "samples per wave")
	rungs := fs.Bool("rungs", false, "list every rung of every wave")
	rate := fs.Float64("rate", 44100, "sample rate used for the frequency columns")
	level := fs.String("log", "info", "log level: debug, info, warn, error, off")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: wtsynth tables [flags] [waves.f32]")
		fmt.Fprintln(fs.Output(), "Without a file the built-in morph set is shown.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return errors.New("expected at most one wave file")
	}

	lvl, err := debug.ParseLevel(*level)
	if err != nil {
		return err
	}
	logger := debug.New(os.Stderr, "", debug.FlagLevel)
	logger.SetLevel(lvl)

	prof := debug.NewProfiler(1)
	var set *wavetable.Set
	if fs.NArg() == 0 {
		prof.Time("build", func() { set = wavetable.DefaultSet() })
	} else {
		data, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			return err
		}
		var loadErr error
		prof.Time("build", func() { set, loadErr = wavetable.LoadSetOrDefault(ctx, data, *size) })
		if loadErr != nil {
			logger.Warn("%s: %v, showing the default set", fs.Arg(0), loadErr)
		}
	}
	if m, ok := prof.GetMeasurement("build"); ok {
		logger.Info("built %d waves in %v", set.Len(), m.Last())
	}

	return printSet(os.Stdout, set, *rate, *rungs)
}

// printSet writes one line per wave and, with rungs, one per rung giving its
// harmonic limit and the fundamental range it serves.
func printSet(w io.Writer, set *wavetable.Set, rate float64, rungs bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "wave\tsamples\trungs\n")
	for i := 0; i < set.Len(); i++ {
		t := set.Table(i)
		fmt.Fprintf(tw, "%d\t%d\t%d\n", i+1, t.Size(), t.NumRungs())
		if !rungs {
			continue
		}
		for r := 0; r < t.NumRungs(); r++ {
			rung := t.Rung(r)
			lo, hi := rung.MinDelta*rate, rung.MaxDelta*rate
			fmt.Fprintf(tw, "\trung %d\tharmonics %d\t%.1f to %.1f Hz\t%s\n", r, rung.Harmonics, lo, hi, noteRange(lo, hi))
		}
	}
	return tw.Flush()
}

// noteRange names the MIDI notes whose fundamentals fall in [lo, hi).
func noteRange(lo, hi float64) string {
	first, last := -1, -1
	for n := 0; n < 128; n++ {
		f := dsp.NoteToFrequency(float64(n), dsp.TuningA4)
		if f >= lo && f < hi {
			if first < 0 {
				first = n
			}
			last = n
		}
	}
	if first < 0 {
		return "-"
	}
	return midi.NoteNumberToName(uint8(first)) + " to " + midi.NoteNumberToName(uint8(last))
}
