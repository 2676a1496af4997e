package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPersona(t *testing.T) {
	for _, want := range []string{
		"Quantum Core AI",
		"ภาษาไทย",
		"Voltage = 15V + (HexValue × 0.2V)",
		"OFF-ON-ON",
		"165°C",
		"0.18V/step",
		"3.3V only",
	} {
		assert.Contains(t, DefaultPersona, want)
	}
}

func TestSystemInstruction(t *testing.T) {
	s, err := Config{}.SystemInstruction()
	require.NoError(t, err)
	assert.Equal(t, DefaultPersona, s)

	s, err = Config{Persona: PersonaConfig{Instructions: "  be brief  "}}.SystemInstruction()
	require.NoError(t, err)
	assert.Equal(t, "be brief", s)

	path := filepath.Join(t.TempDir(), "persona.md")
	require.NoError(t, os.WriteFile(path, []byte("from file\n"), 0o600))
	s, err = Config{Persona: PersonaConfig{InstructionsFile: path}}.SystemInstruction()
	require.NoError(t, err)
	assert.Equal(t, "from file", s)
}

func TestSystemInstruction_FileErrors(t *testing.T) {
	_, err := Config{Persona: PersonaConfig{InstructionsFile: "/no/such/persona.md"}}.SystemInstruction()
	assert.ErrorContains(t, err, "persona")

	empty := filepath.Join(t.TempDir(), "empty.md")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	_, err = Config{Persona: PersonaConfig{InstructionsFile: empty}}.SystemInstruction()
	assert.ErrorContains(t, err, "empty")
}
