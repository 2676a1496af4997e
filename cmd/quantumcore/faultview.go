package main

import (

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/styles"
	"github.com/tjkj/quantumcore/pkg/atlas"
)

// faultViewModel lists the LED fault codes.
type faultViewModel struct {
	table table.Model
}

func newFaultView(a *atlas.Atlas, s styles.Set) faultViewModel {
	rows := make([]table.Row, len(a.Faults))
	for i, f := range a.Faults {
		rows[i] = table.Row{"⚠ " + f.Pattern, f.Meaning, f.Remedy}
	}

	t := table.New(
		table.WithColumns(faultColumns(90)),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)
	m := faultViewModel{table: t}
	m.applyStyles(s)

	return m
}

func faultColumns(width int) []table.Column {
	w := max(width-6, 30) / 3
	return []table.Column{
		{Title: "LED Pattern (รหัสไฟกระพริบ)", Width: w},
		{Title: "Interpretation (ความหมาย)", Width: w},
		{Title: "Resolution (แนวทางแก้ไข)", Width: w},
	}
}

func (m *faultViewModel) applyStyles(s styles.Set) {
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(s.Panel.GetBorderBottomForeground()).
		Foreground(s.PanelTitle.GetForeground()).
		Bold(true)
	ts.Cell = ts.Cell.Foreground(s.Text.GetForeground())
	ts.Selected = ts.Selected.Foreground(s.Danger.GetForeground()).Bold(true)
	m.table.SetStyles(ts)
}

func (m *faultViewModel) setWidth(width int) {
	m.table.SetColumns(faultColumns(width))
	m.table.SetWidth(width - 2)
}

func (m *faultViewModel) focus() { m.table.Focus() }
func (m *faultViewModel) blur()  { m.table.Blur() }

func (m faultViewModel) Update(msg tea.Msg) (faultViewModel, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m faultViewModel) View(s styles.Set) string {
	return s.Panel.Render(m.table.View())
}
