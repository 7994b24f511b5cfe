package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/justyntemme/wtsynth/pkg/framework/param"
)

func runParams(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("params", flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	prefix := fs.String("prefix", "", "only list parameters whose name starts with this")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: wtsynth params [flags]")
		fmt.Fprintln(fs.Output(), "Lists every parameter with its current value after -patch and -set.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, closeLog, err := ef.logger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	e, err := ef.build(ctx, logger, 2)
	if err != nil {
		return err
	}
	e.FlushDiagnostics(logger)
	return printParams(os.Stdout, e.Params(), *prefix)
}

// printParams writes one row per parameter in registration order.
func printParams(w io.Writer, reg *param.Registry, prefix string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\tname\tvalue\tdefault\trange\n")
	for _, p := range reg.All() {
		if !strings.HasPrefix(p.Name, prefix) {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s .. %s\n",
			p.ID, p.Name, p.String(), p.Format(p.DefaultPlain()), p.Format(p.Min), p.Format(p.Max))
	}
	return tw.Flush()
}
