package msgs

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tjkj/quantumcore/pkg/engine"
)

// --- Bridge → TUI messages ---

// EngineEventMsg delivers an engine event for the active session from the
// bridge goroutine.
type EngineEventMsg struct {
	Event engine.Event
}

// --- Internal messages ---

// InputSubmitMsg carries the text the user submitted from the chat input.
type InputSubmitMsg struct {
	Text string
}

// SendCompleteMsg is returned by the tea.Cmd that calls sess.Send.
type SendCompleteMsg struct {
	Err      error
	Duration time.Duration
}

// ProgramReadyMsg passes the *tea.Program to the model so it can start the
// bridge goroutine.
type ProgramReadyMsg struct {
	Program *tea.Program
}

// InitDrainMsg fires after a short delay so that stale terminal responses
// (e.g. OSC 11 background-color replies) are discarded before focusing input.
type InitDrainMsg struct{}

// TickMsg drives the spinner while a turn is in flight.
type TickMsg time.Time
