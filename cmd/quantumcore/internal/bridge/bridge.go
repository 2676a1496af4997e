package bridge

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/msgs"
	"github.com/tjkj/quantumcore/pkg/engine"
)

// Start forwards the session's engine events to the program. The goroutine
// only calls p.Send; it never touches model state. The returned function
// must not block: Update calls it while p.Send may be waiting on the event
// loop.
func Start(ctx context.Context, p *tea.Program, sessionID string, events *engine.EventBus) context.CancelFunc {
	bridgeCtx, cancel := context.WithCancel(ctx)
	sub := events.Subscribe(64)

	go func() {
		defer events.Unsubscribe(sub)
		for {
			select {
			case <-bridgeCtx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if ev.SessionID != sessionID {
					continue
				}
				p.Send(msgs.EngineEventMsg{Event: ev})
			}
		}
	}()

	return cancel
}
