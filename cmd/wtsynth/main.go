// Command wtsynth drives the wavetable engine outside a plugin host.
//
//	wtsynth render [flags] song.mid out.wav
//	wtsynth play   [flags]
//	wtsynth tables [flags] [waves.f32]
//	wtsynth params [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string) error
}

var commands = []command{
	{"render", "render a Standard MIDI File to WAV", runRender},
	{"play", "play the engine from the computer keyboard", runPlay},
	{"tables", "build a wavetable set and print its rungs", runTables},
	{"params", "list parameters and their current values", runParams},
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: wtsynth <command> [flags] [args]")
	fmt.Fprintln(os.Stderr)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Run 'wtsynth <command> -h' for the flags of a command.")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		err := c.run(ctx, os.Args[2:])
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "wtsynth %s: %v\n", name, err)
			os.Exit(1)
		}
		return
	}

	if name == "-h" || name == "-help" || name == "help" {
		usage()
		return
	}
	fmt.Fprintf(os.Stderr, "wtsynth: unknown command %q\n", name)
	usage()
	os.Exit(2)
}
