// Package atlas holds the read-only TJKJ-A1 reference dataset: supported
// PMIC chips with their DIP switch settings and I2C addresses, the module's
// wiring pins, and the LED fault code table.
//
// The dataset is embedded at build time and parsed once on first use.
package atlas

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed atlas.yaml
var atlasYAML []byte

// ErrUnknownChip is returned when a chip model is not in the atlas.
var ErrUnknownChip = errors.New("atlas: unknown chip model")

// Switch is the position of one DIP switch.
type Switch string

const (
	On  Switch = "ON"
	Off Switch = "OFF"
)

// Chip describes one supported PMIC.
type Chip struct {
	Model    string    `yaml:"model"`
	Name     string    `yaml:"name"`
	DIP      [3]Switch `yaml:"dip"`
	Address  string    `yaml:"address"`
	Package  string    `yaml:"package"`
	Features []string  `yaml:"features"`
}

// DIPString renders the switch vector as "ON-OFF-ON".
func (c Chip) DIPString() string {
	parts := make([]string, len(c.DIP))
	for i, s := range c.DIP {
		parts[i] = string(s)
	}
	return strings.Join(parts, "-")
}

// Pin is one signal on the module's programming header.
type Pin struct {
	Signal  string `yaml:"signal"`
	Note    string `yaml:"note"`
	Warning bool   `yaml:"warning"`
}

// Fault is one LED indicator pattern with its meaning and remedy.
// Blinks is zero for the solid-on pattern.
type Fault struct {
	Blinks  int    `yaml:"blinks"`
	Pattern string `yaml:"pattern"`
	Meaning string `yaml:"meaning"`
	Remedy  string `yaml:"remedy"`
}

// Atlas is the parsed dataset.
type Atlas struct {
	Chips  []Chip  `yaml:"chips"`
	Pins   []Pin   `yaml:"pins"`
	Faults []Fault `yaml:"faults"`
}

var (
	loadOnce sync.Once
	loaded   *Atlas
	loadErr  error
)

// Default returns the embedded atlas. It panics if the embedded data is
// malformed, which is a build defect.
func Default() *Atlas {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(atlasYAML)
	})
	if loadErr != nil {
		panic(loadErr)
	}
	return loaded
}

// Parse decodes an atlas document and checks that chip models are unique
// and every DIP switch is ON or OFF.
func Parse(data []byte) (*Atlas, error) {
	var a Atlas
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("atlas: parse: %w", err)
	}

	seen := make(map[string]struct{}, len(a.Chips))
	for _, c := range a.Chips {
		if c.Model == "" {
			return nil, errors.New("atlas: chip model is required")
		}
		if _, dup := seen[c.Model]; dup {
			return nil, fmt.Errorf("atlas: duplicate chip model %q", c.Model)
		}
		seen[c.Model] = struct{}{}

		for i, s := range c.DIP {
			if s != On && s != Off {
				return nil, fmt.Errorf("atlas: chip %q: switch %d: invalid position %q", c.Model, i+1, s)
			}
		}
	}

	return &a, nil
}

// Models returns the chip models in display order.
func (a *Atlas) Models() []string {
	out := make([]string, len(a.Chips))
	for i, c := range a.Chips {
		out[i] = c.Model
	}
	return out
}

// Chip returns the chip with the given model. Lookup is case-insensitive.
func (a *Atlas) Chip(model string) (Chip, error) {
	for _, c := range a.Chips {
		if strings.EqualFold(c.Model, strings.TrimSpace(model)) {
			return c, nil
		}
	}
	return Chip{}, fmt.Errorf("%w: %q", ErrUnknownChip, model)
}

// FindFault returns the fault for the given blink count (0 for solid on).
func (a *Atlas) FindFault(blinks int) (Fault, bool) {
	for _, f := range a.Faults {
		if f.Blinks == blinks {
			return f, true
		}
	}
	return Fault{}, false
}
