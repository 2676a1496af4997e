package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/tjkj/quantumcore/pkg/register"
)

var errInvalidInput = errors.New("one or more inputs could not be decoded")

// runDecode prints the VGH reading for each hex argument, and with --volts
// the register value for a target voltage.
func runDecode(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() {
		fmt.Fprintf(w, "Usage: quantumcore decode [--volts V] [hex...]\n\nDecode RT6936 VGH register values (VGH = 15V + HEX * 0.2V).\n\nFlags:\n")
		fs.PrintDefaults()
	}
	volts := fs.Float64("volts", 0, "print the register value closest to this VGH voltage")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	voltsSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "volts" {
			voltsSet = true
		}
	})

	if fs.NArg() == 0 && !voltsSet {
		fs.Usage()
		return errors.New("decode: nothing to decode")
	}

	failed := false
	for _, arg := range fs.Args() {
		in := register.Normalize(arg)
		out := register.Display(in)
		if out == register.InvalidHexText {
			failed = true
		}
		fmt.Fprintf(w, "%-6s %s\n", in, out)
	}

	if voltsSet {
		hex, err := register.EncodeVGH(*volts)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%.2f V  0x%s (%s)\n", *volts, hex, register.Display(hex))
	}

	if failed {
		return errInvalidInput
	}
	return nil
}
