// Package workdir resolves paths inside the .quantumcore/ project directory:
// the config file, an optional persona override, and the gitignored local/
// directory that holds the log file.
package workdir

import (
	"os"
	"path/filepath"
)

// DefaultName is the directory created by "quantumcore init".
const DefaultName = ".quantumcore"

// Dir is a value object that resolves paths within a .quantumcore/ directory.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path. The path is made absolute.
// No I/O is performed.
func New(root string) Dir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// Root returns the absolute path to the directory.
func (d Dir) Root() string { return d.root }

// ConfigPath returns the path to the main config file.
func (d Dir) ConfigPath() string { return filepath.Join(d.root, "config.yaml") }

// PersonaPath returns the path of an optional persona override.
func (d Dir) PersonaPath() string { return filepath.Join(d.root, "persona.md") }

// LocalDir returns the path to the local (gitignored) runtime directory.
func (d Dir) LocalDir() string { return filepath.Join(d.root, "local") }

// LogPath returns the default log file location inside local/.
func (d Dir) LogPath() string { return filepath.Join(d.root, "local", "quantumcore.log") }

// GitignorePath returns the path to the .gitignore file.
func (d Dir) GitignorePath() string { return filepath.Join(d.root, ".gitignore") }

// Exists reports whether the root directory exists on disk.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.root)

	return err == nil && info.IsDir()
}

// HasConfig reports whether config.yaml exists.
func (d Dir) HasConfig() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// HasPersona reports whether persona.md exists.
func (d Dir) HasPersona() bool {
	_, err := os.Stat(d.PersonaPath())
	return err == nil
}
