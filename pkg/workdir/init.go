package workdir

import (
	"errors"
	"fmt"
	"os"
)

const gitignoreContent = "local/\n"

// ErrConfigExists is returned by Bootstrap when config.yaml is already present
// and force is not set.
var ErrConfigExists = errors.New("workdir: config already exists")

// EnsureStructure creates the root, local/ and .gitignore if they are missing.
// It is idempotent.
func EnsureStructure(d Dir) error {
	if err := os.MkdirAll(d.LocalDir(), 0o750); err != nil {
		return fmt.Errorf("workdir: create local dir: %w", err)
	}

	if err := ensureGitignore(d); err != nil {
		return fmt.Errorf("workdir: gitignore: %w", err)
	}

	return nil
}

// Bootstrap creates the directory layout and writes configYAML to
// config.yaml. An existing config is kept unless force is set.
func Bootstrap(d Dir, configYAML []byte, force bool) error {
	if err := EnsureStructure(d); err != nil {
		return err
	}

	if d.HasConfig() && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, d.ConfigPath())
	}

	if err := os.WriteFile(d.ConfigPath(), configYAML, 0o600); err != nil {
		return fmt.Errorf("workdir: write config: %w", err)
	}

	return nil
}

func ensureGitignore(d Dir) error {
	path := d.GitignorePath()

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(gitignoreContent), 0o600)
}
