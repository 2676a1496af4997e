package atlas

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff between two chip records, for technicians
// migrating a board from one PMIC to another. Identical records produce an
// empty string.
func (a *Atlas) Diff(from, to string) (string, error) {
	fc, err := a.Chip(from)
	if err != nil {
		return "", err
	}
	tc, err := a.Chip(to)
	if err != nil {
		return "", err
	}

	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(fc.Sheet()),
		B:        difflib.SplitLines(tc.Sheet()),
		FromFile: fc.Model,
		ToFile:   tc.Model,
		Context:  1,
	}
	out, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return "", fmt.Errorf("atlas: diff %s..%s: %w", fc.Model, tc.Model, err)
	}
	return out, nil
}

// Sheet renders a chip as one attribute per line so diffs stay readable.
func (c Chip) Sheet() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "name: %s\n", c.Name)
	fmt.Fprintf(&sb, "dip: %s\n", c.DIPString())
	fmt.Fprintf(&sb, "address: %s\n", c.Address)
	fmt.Fprintf(&sb, "package: %s\n", c.Package)
	for _, f := range c.Features {
		fmt.Fprintf(&sb, "feature: %s\n", f)
	}
	return sb.String()
}
