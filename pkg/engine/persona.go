package engine

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

// DefaultPersona is the built-in system instruction for the Quantum Core
// assistant.
//
//go:embed persona.md
var DefaultPersona string

// SystemInstruction resolves the persona: inline instructions, then the
// instructions file, then DefaultPersona.
func (c Config) SystemInstruction() (string, error) {
	if s := strings.TrimSpace(c.Persona.Instructions); s != "" {
		return s, nil
	}

	if c.Persona.InstructionsFile != "" {
		data, err := os.ReadFile(c.Persona.InstructionsFile) //nolint:gosec // path comes from local configuration
		if err != nil {
			return "", fmt.Errorf("engine: persona: %w", err)
		}
		if s := strings.TrimSpace(string(data)); s != "" {
			return s, nil
		}
		return "", fmt.Errorf("engine: persona: %s is empty", c.Persona.InstructionsFile)
	}

	return DefaultPersona, nil
}
