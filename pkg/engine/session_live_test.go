package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"
	"github.com/tjkj/quantumcore/pkg/providers/gemini"
)

// liveTurnServer acknowledges setup, reads one turn, signals received and
// only answers once release is closed.
func liveTurnServer(t *testing.T, received, release chan struct{}) *gemini.Live {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = c.CloseNow() }()

		ctx := r.Context()
		var frame map[string]any
		if err := wsjson.Read(ctx, c, &frame); err != nil {
			return
		}
		if err := wsjson.Write(ctx, c, map[string]any{"setupComplete": map[string]any{}}); err != nil {
			return
		}
		if err := wsjson.Read(ctx, c, &frame); err != nil {
			return
		}
		close(received)
		<-release

		_ = wsjson.Write(ctx, c, map[string]any{"serverContent": map[string]any{
			"modelTurn": map[string]any{"parts": []map[string]any{{"text": "hi"}}},
		}})
		_ = wsjson.Write(ctx, c, map[string]any{"serverContent": map[string]any{"turnComplete": true}})
	}))
	t.Cleanup(srv.Close)

	return gemini.NewLive(srv.URL, "k", "gemini-live-test")
}

func TestSession_CloseDuringLiveTurn(t *testing.T) {
	received := make(chan struct{})
	release := make(chan struct{})
	s, _ := newTestSession(liveTurnServer(t, received, release))

	sent := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "x")
		sent <- err
	}()
	<-received

	closed := make(chan error, 1)
	go func() { closed <- s.Close() }()
	close(release)

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("Send did not return")
	}

	done := make(chan State, 1)
	go func() { done <- s.State() }()
	select {
	case st := <-done:
		require.Equal(t, StateIdle, st)
	case <-time.After(2 * time.Second):
		t.Fatal("State blocked")
	}
}
