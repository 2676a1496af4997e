package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/styles"
	"github.com/tjkj/quantumcore/pkg/chats/message"
	"github.com/tjkj/quantumcore/pkg/engine"
)

const processingText = "_PROCESSING_QUANTUM_DATA..."

// chatViewModel renders the session history into a scrolling viewport. The
// history is re-read from the session whenever an engine event arrives.
type chatViewModel struct {
	viewport   viewport.Model
	history    []message.Message
	sending    bool
	spinnerIdx int
	md         markdown
	width      int
}

func newChatView() chatViewModel {
	return chatViewModel{viewport: viewport.New(80, 10)}
}

func (m *chatViewModel) setSize(s styles.Set, width, height int) {
	if width != m.width {
		m.md = newMarkdown(s.GlamourStyle(), width-4)
	}
	m.width = width
	m.viewport.Width = width
	m.viewport.Height = height
	m.refresh(s)
}

func (m *chatViewModel) setTheme(s styles.Set) {
	m.md = newMarkdown(s.GlamourStyle(), m.width-4)
	m.refresh(s)
}

func (m *chatViewModel) setHistory(s styles.Set, h []message.Message) {
	m.history = h
	m.refresh(s)
}

func (m *chatViewModel) setSending(s styles.Set, on bool) {
	m.sending = on
	m.refresh(s)
}

func (m *chatViewModel) advanceSpinner(s styles.Set) {
	m.spinnerIdx++
	m.refresh(s)
}

// refresh re-renders the history and keeps the view pinned to the bottom.
func (m *chatViewModel) refresh(s styles.Set) {
	m.viewport.SetContent(m.render(s))
	m.viewport.GotoBottom()
}

func (m chatViewModel) render(s styles.Set) string {
	if len(m.history) == 0 && !m.sending {
		return lipgloss.Place(max(m.viewport.Width, 1), max(m.viewport.Height, 1), lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center,
				s.OK.Render("QUANTUM CORE SYSTEM ONLINE"),
				s.Dim.Render("พร้อมรับคำสั่งทางวิศวกรรม (Ready for Query)..."),
			),
		)
	}

	blocks := make([]string, 0, len(m.history)+1)
	for i, msg := range m.history {
		last := i == len(m.history)-1
		switch msg.Role {
		case message.RoleUser:
			blocks = append(blocks, renderUserMessage(s, msg.Text))
		case message.RoleAssistant:
			blocks = append(blocks, m.renderAssistant(s, msg.Text, last))
		}
	}

	// The placeholder appears with the first fragment; until then show the
	// spinner under the user's message.
	if m.sending {
		if last, ok := lastMessage(m.history); !ok || last.Role == message.RoleUser {
			blocks = append(blocks, m.renderSpinner(s))
		}
	}

	return strings.Join(blocks, "\n\n")
}

func (m chatViewModel) renderAssistant(s styles.Set, text string, last bool) string {
	switch {
	case text == engine.FailureNotice:
		return s.ErrorBlock.Render(text)
	case text == "" && last && m.sending:
		return m.renderSpinner(s)
	}

	return s.AIBlock.Render(s.AIPrefix.Render("⚛ Quantum Core >") + "\n" + m.md.render(text))
}

func (m chatViewModel) renderSpinner(s styles.Set) string {
	frame := spinnerFrames[m.spinnerIdx%len(spinnerFrames)]
	return s.AIBlock.Render(s.Spinner.Render(frame + " " + processingText))
}

func (m chatViewModel) Update(msg tea.Msg) (chatViewModel, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m chatViewModel) View() string {
	return m.viewport.View()
}

// renderUserMessage formats a user message, indenting continuation lines to
// align with the first line.
func renderUserMessage(s styles.Set, text string) string {
	prefix := s.UserPrefix.Render("🧑 You > ")
	lines := strings.Split(text, "\n")
	if len(lines) <= 1 {
		return s.UserBlock.Render(prefix + text)
	}
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(lines[0])
	for _, line := range lines[1:] {
		sb.WriteString("\n  ")
		sb.WriteString(line)
	}
	return s.UserBlock.Render(sb.String())
}

func lastMessage(h []message.Message) (message.Message, bool) {
	if len(h) == 0 {
		return message.Message{}, false
	}
	return h[len(h)-1], true
}
