package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tjkj/quantumcore/pkg/engine"
	"github.com/tjkj/quantumcore/pkg/workdir"
)

// legacyConfigName is read from the working directory when no
// .quantumcore/config.yaml exists.
const legacyConfigName = "quantumcore.yaml"

// resolveConfigPath returns the config file to use. Priority:
// 1. Explicit --config flag (non-empty)
// 2. .quantumcore/config.yaml (if it exists)
// 3. quantumcore.yaml (if it exists)
//
// An empty result means no file was found and the built-in defaults apply.
func resolveConfigPath(explicit string, d workdir.Dir) string {
	if explicit != "" {
		return explicit
	}

	if d.HasConfig() {
		return d.ConfigPath()
	}

	if _, err := os.Stat(legacyConfigName); err == nil {
		return legacyConfigName
	}

	return ""
}

// loadConfig loads the resolved config file, or the built-in Gemini config
// when there is none. A persona.md in the project directory is used when the
// config sets no persona of its own.
func loadConfig(explicit string, d workdir.Dir) (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if path := resolveConfigPath(explicit, d); path != "" {
		loaded, err := engine.LoadConfig(path)
		if err != nil {
			return engine.Config{}, err
		}
		cfg = loaded
	}

	if cfg.Persona.Instructions == "" && cfg.Persona.InstructionsFile == "" && d.HasPersona() {
		cfg.Persona.InstructionsFile = d.PersonaPath()
	}

	return cfg, nil
}

// openLogger creates the structured logger. The TUI owns the terminal, so
// logs go to log_file or nowhere.
func openLogger(cfg engine.Config) (*slog.Logger, io.Closer, error) {
	level, err := engine.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	if cfg.LogFile == "" {
		return slog.New(slog.DiscardHandler), nopCloser{}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // path comes from local configuration
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
