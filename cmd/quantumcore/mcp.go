package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tjkj/quantumcore/pkg/atlas"
	"github.com/tjkj/quantumcore/pkg/engine"
	"github.com/tjkj/quantumcore/pkg/toolserver"
)

// runMCP serves the PMIC tools over stdio until the client disconnects.
// Stdout carries the protocol, so logs go to stderr.
func runMCP(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quantumcore mcp [flags]\n\nServe decode_vgh, encode_vgh, chip_info, chip_diff and fault_codes over MCP stdio.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	logLevel := fs.String("log-level", "warn", "stderr log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level, err := engine.ParseLogLevel(*logLevel)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srv := toolserver.New("quantumcore", version, log)
	srv.Register(toolserver.PMICTools(atlas.Default())...)

	log.Info("mcp server starting")

	return srv.Serve(ctx, os.Stdin, os.Stdout)
}
