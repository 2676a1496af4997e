package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/styles"
)

// tab identifies one screen of the console.
type tab int

const (
	tabAtlas tab = iota
	tabDecoder
	tabFaults
	tabChat
	tabCount
)

func (t tab) label() string {
	switch t {
	case tabAtlas:
		return "Schematics ผังวงจร"
	case tabDecoder:
		return "Registers คำนวณค่าไฟ"
	case tabFaults:
		return "Diagnostics วิเคราะห์ปัญหา"
	case tabChat:
		return "Quantum AI ระบบอัจฉริยะ"
	}
	return ""
}

// title is the header line shown above the active tab.
func (t tab) title() (string, string) {
	switch t {
	case tabAtlas:
		return "Wiring Atlas", "แผนผังการต่อสาย"
	case tabDecoder:
		return "Voltage Drift", "คำนวณแรงดันไฟ"
	case tabFaults:
		return "Fault Matrix", "รหัสวิเคราะห์อาการเสีย"
	case tabChat:
		return "Quantum_Core_Terminal_v1", "AI Chat"
	}
	return "", ""
}

func (t tab) next() tab { return (t + 1) % tabCount }
func (t tab) prev() tab { return (t + tabCount - 1) % tabCount }

func renderTabBar(s styles.Set, active tab) string {
	cells := make([]string, 0, tabCount)
	for t := range tabCount {
		if t == active {
			cells = append(cells, s.TabActive[t].Render(t.label()))
			continue
		}
		cells = append(cells, s.TabIdle.Render(t.label()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, cells...)
}

func renderHeader(s styles.Set, active tab, width int) string {
	title, sub := active.title()
	left := s.Header.Render(strings.ToUpper(title)) + s.Subtitle.Render(" | "+sub)
	right := s.Online.Render("● ONLINE (ออนไลน์)")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}
