package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/styles"
	"github.com/tjkj/quantumcore/pkg/atlas"
)

// atlasViewModel shows one chip's DIP matrix, the module pinout and the
// chip's features. A chip can be pinned to compare it with the selection.
type atlasViewModel struct {
	atlas    *atlas.Atlas
	selected int
	pinned   int // -1 when nothing is pinned
}

func newAtlasView(a *atlas.Atlas) atlasViewModel {
	return atlasViewModel{atlas: a, pinned: -1}
}

func (m atlasViewModel) Update(msg tea.KeyMsg) atlasViewModel {
	n := len(m.atlas.Chips)
	if n == 0 {
		return m
	}

	switch msg.String() {
	case "left", "h":
		m.selected = (m.selected + n - 1) % n
	case "right", "l":
		m.selected = (m.selected + 1) % n
	case "p":
		if m.pinned == m.selected {
			m.pinned = -1
		} else {
			m.pinned = m.selected
		}
	}

	return m
}

func (m atlasViewModel) chip() atlas.Chip {
	return m.atlas.Chips[m.selected]
}

func (m atlasViewModel) View(s styles.Set, width int) string {
	if len(m.atlas.Chips) == 0 {
		return s.Dim.Render("no chips in atlas")
	}

	half := max((width-4)/2, 30)

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		s.Panel.Width(half).Render(m.viewMatrix(s)),
		s.Panel.Width(half).Render(m.viewPins(s)),
	)

	sections := []string{
		m.viewSelector(s),
		top,
		s.Panel.Width(width - 2).Render(m.viewFeatures(s)),
	}
	if d := m.viewDiff(s); d != "" {
		sections = append(sections, s.Panel.Width(width-2).Render(d))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m atlasViewModel) viewSelector(s styles.Set) string {
	cells := make([]string, 0, len(m.atlas.Chips)+1)
	for i, model := range m.atlas.Models() {
		label := model
		if i == m.pinned {
			label += " 📌"
		}
		if i == m.selected {
			cells = append(cells, s.TabActive[tabAtlas].Render(label))
		} else {
			cells = append(cells, s.TabIdle.Render(label))
		}
	}
	cells = append(cells, s.Dim.Render("  ←/→ select · p pin for migration diff"))

	return lipgloss.JoinHorizontal(lipgloss.Bottom, cells...)
}

func (m atlasViewModel) viewMatrix(s styles.Set) string {
	c := m.chip()

	switches := make([]string, len(c.DIP))
	for i, pos := range c.DIP {
		box := s.SwitchOff
		if pos == atlas.On {
			box = s.SwitchOn
		}
		switches[i] = lipgloss.JoinVertical(lipgloss.Center,
			s.Dim.Render(fmt.Sprintf("SW %d", i+1)),
			box.Render(string(pos)),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.PanelTitle.Render("CONFIGURATION MATRIX")+s.Dim.Render("  การตั้งค่าสวิตช์ DIP"),
		s.Text.Render(c.Name),
		s.Warning.Render("ADDR: "+c.Address)+s.Dim.Render("  PKG: "+c.Package),
		lipgloss.JoinHorizontal(lipgloss.Top, spaced(switches)...),
	)
}

func (m atlasViewModel) viewPins(s styles.Set) string {
	signalWidth := 0
	for _, p := range m.atlas.Pins {
		signalWidth = max(signalWidth, runewidth.StringWidth(p.Signal))
	}

	lines := []string{s.PanelTitle.Render("SIGNAL INTERCONNECTS") + s.Dim.Render("  จุดต่อสัญญาณ")}
	for _, p := range m.atlas.Pins {
		note := s.Dim.Render(p.Note)
		if p.Warning {
			note = s.Danger.Render(p.Note)
		}
		lines = append(lines, s.Text.Render(runewidth.FillRight(p.Signal, signalWidth))+"  "+note)
	}
	return strings.Join(lines, "\n")
}

func (m atlasViewModel) viewFeatures(s styles.Set) string {
	c := m.chip()

	lines := []string{s.PanelTitle.Render("MODULE INTELLIGENCE") + s.Dim.Render("  คุณสมบัติโมดูล")}
	for _, f := range c.Features {
		lines = append(lines, s.Feature.Render("⚡ "+f))
	}
	return strings.Join(lines, "\n")
}

// viewDiff renders the migration diff from the pinned chip to the selected
// one, or "" when no distinct chip is pinned.
func (m atlasViewModel) viewDiff(s styles.Set) string {
	if m.pinned < 0 || m.pinned == m.selected {
		return ""
	}

	from, to := m.atlas.Chips[m.pinned].Model, m.chip().Model
	d, err := m.atlas.Diff(from, to)
	if err != nil {
		return s.Danger.Render(err.Error())
	}

	lines := []string{s.PanelTitle.Render(fmt.Sprintf("MIGRATION %s → %s", from, to))}
	for line := range strings.SplitSeq(strings.TrimRight(d, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			lines = append(lines, s.Dim.Render(line))
		case strings.HasPrefix(line, "+"):
			lines = append(lines, s.OK.Render(line))
		case strings.HasPrefix(line, "-"):
			lines = append(lines, s.Danger.Render(line))
		default:
			lines = append(lines, s.Text.Render(line))
		}
	}
	lines = append(lines, s.Warning.Render("Never copy hex values across chips directly. Run Reset Module before switching."))

	return strings.Join(lines, "\n")
}

// spaced inserts a two-column gap between blocks.
func spaced(blocks []string) []string {
	out := make([]string, 0, len(blocks)*2)
	for i, b := range blocks {
		if i > 0 {
			out = append(out, "  ")
		}
		out = append(out, b)
	}
	return out
}
