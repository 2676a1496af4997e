package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/bridge"
	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/msgs"
	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/styles"
	"github.com/tjkj/quantumcore/pkg/atlas"
	"github.com/tjkj/quantumcore/pkg/engine"
)

// appModel is the root bubbletea model: a header, a tab bar, the active tab
// and a status bar.
type appModel struct {
	ctx    context.Context
	sess   *engine.Session
	events *engine.EventBus

	styles    styles.Set
	tab       tab
	atlasView atlasViewModel
	decoder   decoderModel
	faults    faultViewModel
	chatView  chatViewModel
	inputBox  inputModel
	statusBar statusBarModel

	sending      bool
	cancelTurn   context.CancelFunc
	cancelBridge context.CancelFunc
	width        int
	height       int
	sendStart    time.Time
}

func newAppModel(ctx context.Context, eng *engine.Engine, sess *engine.Session, a *atlas.Atlas) appModel {
	s := styles.New(true)

	return appModel{
		ctx:       ctx,
		sess:      sess,
		events:    eng.Events(),
		styles:    s,
		tab:       tabAtlas,
		atlasView: newAtlasView(a),
		decoder:   newDecoder(),
		faults:    newFaultView(a, s),
		chatView:  newChatView(),
		inputBox:  newInput(),
		statusBar: newStatusBar(eng, eng.Provider()),
	}
}

func (m appModel) Init() tea.Cmd {
	// Focus after a short delay so stale terminal escape-sequence responses
	// are drained first.
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return msgs.InitDrainMsg{}
	})
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.inputBox.setWidth(m.width)
		m.faults.setWidth(m.width)
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case msgs.InitDrainMsg:
		cmd := m.focusTab()
		return m, cmd

	case msgs.ProgramReadyMsg:
		m.cancelBridge = bridge.Start(m.ctx, msg.Program, m.sess.ID(), m.events)
		return m, nil

	case msgs.InputSubmitMsg:
		return m.handleSubmit(msg)

	case msgs.EngineEventMsg:
		m.chatView.setHistory(m.styles, m.sess.History())
		m.statusBar.state = m.sess.State()
		return m, nil

	case msgs.SendCompleteMsg:
		m.sending = false
		m.cancelTurn = nil
		m.statusBar.duration = msg.Duration
		m.statusBar.state = m.sess.State()
		m.statusBar.err = ""
		if msg.Err != nil && m.ctx.Err() == nil {
			m.statusBar.err = msg.Err.Error()
		}
		m.chatView.setSending(m.styles, false)
		m.chatView.setHistory(m.styles, m.sess.History())
		var cmd tea.Cmd
		if m.tab == tabChat {
			cmd = m.inputBox.enable()
		}
		return m, cmd

	case msgs.TickMsg:
		if !m.sending {
			return m, nil
		}
		m.chatView.advanceSpinner(m.styles)
		return m, tickCmd()
	}

	if m.tab == tabChat {
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m appModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(m.styles, m.tab, m.width),
		renderTabBar(m.styles, m.tab),
		m.viewTab(),
		m.statusBar.View(m.styles),
	)
}

func (m appModel) viewTab() string {
	var body string
	switch m.tab {
	case tabAtlas:
		body = m.atlasView.View(m.styles, m.width)
	case tabDecoder:
		body = m.decoder.View(m.styles, m.width)
	case tabFaults:
		body = m.faults.View(m.styles)
	case tabChat:
		return lipgloss.JoinVertical(lipgloss.Left, m.chatView.View(), m.inputBox.View(m.styles))
	}

	return lipgloss.NewStyle().Height(m.bodyHeight()).MaxHeight(m.bodyHeight()).Render(body)
}

func (m *appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.cancelTurn != nil {
			m.cancelTurn()
		}
		if m.cancelBridge != nil {
			m.cancelBridge()
		}
		return *m, tea.Quit
	case "tab":
		cmd := m.switchTab(m.tab.next())
		return *m, cmd
	case "shift+tab":
		cmd := m.switchTab(m.tab.prev())
		return *m, cmd
	case "ctrl+t":
		m.toggleTheme()
		return *m, nil
	}

	var cmd tea.Cmd
	switch m.tab {
	case tabAtlas:
		m.atlasView = m.atlasView.Update(msg)
	case tabDecoder:
		m.decoder, cmd = m.decoder.Update(msg)
	case tabFaults:
		m.faults, cmd = m.faults.Update(msg)
	case tabChat:
		switch msg.Type {
		case tea.KeyPgUp, tea.KeyPgDown:
			m.chatView, cmd = m.chatView.Update(msg)
		default:
			m.inputBox, cmd = m.inputBox.Update(msg)
		}
	}

	return *m, cmd
}

// handleSubmit starts a turn. The input stays disabled until the turn
// settles; a submit that races an in-flight turn is dropped.
func (m *appModel) handleSubmit(msg msgs.InputSubmitMsg) (tea.Model, tea.Cmd) {
	if m.sending || m.sess.State().InFlight() {
		return *m, nil
	}

	m.sending = true
	m.inputBox.disable()
	m.chatView.setSending(m.styles, true)
	m.sendStart = time.Now()

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelTurn = cancel

	sess, text, start := m.sess, msg.Text, m.sendStart
	sendCmd := func() tea.Msg {
		defer cancel()
		_, err := sess.Send(ctx, text)
		return msgs.SendCompleteMsg{Err: err, Duration: time.Since(start)}
	}

	return *m, tea.Batch(sendCmd, tickCmd())
}

func (m *appModel) switchTab(t tab) tea.Cmd {
	m.tab = t
	m.recalcLayout()
	return m.focusTab()
}

// focusTab gives keyboard focus to the active tab's widget only.
func (m *appModel) focusTab() tea.Cmd {
	m.decoder.blur()
	m.faults.blur()
	m.inputBox.disable()

	switch m.tab {
	case tabDecoder:
		return m.decoder.focus()
	case tabFaults:
		m.faults.focus()
	case tabChat:
		if !m.sending {
			return m.inputBox.enable()
		}
	}
	return nil
}

func (m *appModel) toggleTheme() {
	m.styles = styles.New(!m.styles.Dark)
	m.faults.applyStyles(m.styles)
	m.chatView.setTheme(m.styles)
}

// bodyHeight is the space left for the active tab below the header and tab
// bar and above the status bar.
func (m appModel) bodyHeight() int {
	chrome := lipgloss.Height(renderHeader(m.styles, m.tab, m.width)) +
		lipgloss.Height(renderTabBar(m.styles, m.tab)) + 1
	return max(m.height-chrome, 1)
}

func (m *appModel) recalcLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	chatHeight := max(m.bodyHeight()-lipgloss.Height(m.inputBox.View(m.styles)), 1)
	m.chatView.setSize(m.styles, m.width, chatHeight)
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return msgs.TickMsg(t)
	})
}
