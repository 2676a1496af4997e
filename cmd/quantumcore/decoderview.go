package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/styles"
	"github.com/tjkj/quantumcore/pkg/register"
)

// unsafeVGH is the reading above which panels are at risk.
const unsafeVGH = 45.0

// decoderModel is the VGH register calculator. The reading is computed when
// the user presses Enter.
type decoderModel struct {
	input  textinput.Model
	result string
	note   string
	valid  bool
}

func newDecoder() decoderModel {
	ti := textinput.New()
	ti.Placeholder = "00"
	ti.CharLimit = 4
	ti.Width = 6
	ti.Prompt = "HEX ▸ "
	ti.SetValue("4A")

	return decoderModel{input: ti}
}

func (m decoderModel) Update(msg tea.Msg) (decoderModel, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEnter {
		m.calculate()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != strings.ToUpper(v) {
		m.input.SetValue(strings.ToUpper(v))
	}

	return m, cmd
}

func (m *decoderModel) calculate() {
	v, err := register.DecodeVGH(register.Normalize(m.input.Value()))
	if err != nil {
		m.result = register.InvalidHexText
		m.note = ""
		m.valid = false
		return
	}

	m.result = v.String()
	m.valid = true
	switch {
	case float64(v)-register.VGHMax > 1e-9:
		m.note = "Beyond the 8-bit register range (เกินช่วงรีจิสเตอร์)"
	case float64(v) > unsafeVGH:
		m.note = "Above ~45V is theoretical and unsafe for real panels (อันตรายต่อจอ)"
	default:
		m.note = ""
	}
}

func (m *decoderModel) focus() tea.Cmd { return m.input.Focus() }
func (m *decoderModel) blur()          { m.input.Blur() }

func (m decoderModel) View(s styles.Set, width int) string {
	out := s.Dim.Render("WAITING FOR INPUT...")
	switch {
	case m.result == "":
	case m.valid:
		out = s.Result.Render(m.result)
		if m.note != "" {
			out += "\n" + s.Warning.Render("⚠ "+m.note)
		}
	default:
		out = s.Danger.Render(m.result)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		s.Warning.Bold(true).Render("VGH Register Decoder (RT6936)"),
		"",
		s.Text.Render("Register 00h Value (HEX)")+s.Dim.Render(" | ค่า Hex ที่อ่านได้"),
		m.input.View(),
		s.Dim.Render("Enter: CALCULATE (คำนวณ)"),
		"",
		s.PanelTitle.Render("CALCULATED OUTPUT")+s.Dim.Render(" (แรงดันที่ได้)"),
		out,
		"",
		s.Dim.Render("Formula: VGH = 15V + (HEX_VAL * 0.2V). Applies to RT6936/RT6939 architecture."),
	)

	return s.Panel.Width(min(width-2, 80)).Render(body)
}
