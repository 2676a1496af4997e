package anthropic_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tjkj/quantumcore/pkg/chats/message"
	"github.com/tjkj/quantumcore/pkg/modeladapter"
	"github.com/tjkj/quantumcore/pkg/providers/anthropic"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *anthropic.Adapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return anthropic.New(srv.URL, "ant-key", "claude-test")
}

func writeEvents(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, e := range events {
		var head struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal([]byte(e), &head)
		_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", head.Type, e)
	}
}

func textDelta(text string) string {
	return fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%q}}`, text)
}

const (
	messageStart = `{"type":"message_start","message":{"usage":{"input_tokens":30,"output_tokens":1}}}`
	ping         = `{"type":"ping"}`
	messageDelta = `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":9}}`
	messageStop  = `{"type":"message_stop"}`
)

func TestStreamTurn(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ant-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "persona", req["system"])
		assert.Equal(t, true, req["stream"])
		assert.InDelta(t, 4096, req["max_tokens"], 0)
		assert.Len(t, req["messages"], 1)

		writeEvents(w, messageStart, ping, textDelta("สวัสดี"), textDelta(" VGH"), messageDelta, messageStop)
	})

	cfg := modeladapter.SessionConfig{SystemInstruction: "persona", Temperature: 0.2}

	var got []string
	err := a.StreamTurn(context.Background(), cfg, []message.Message{message.User("hi")}, func(s string) error {
		got = append(got, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"สวัสดี", " VGH"}, got)

	last, ok := a.Usage.Last()
	require.True(t, ok)
	assert.Equal(t, 30, last.InputTokens)
	assert.Equal(t, 9, last.OutputTokens)
}

func TestStreamTurn_ErrorEvent(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEvents(w, messageStart, textDelta("par"), `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	})

	var got []string
	err := a.StreamTurn(context.Background(), modeladapter.SessionConfig{}, nil, func(s string) error {
		got = append(got, s)
		return nil
	})
	require.ErrorContains(t, err, "overloaded_error: Overloaded")
	assert.Equal(t, []string{"par"}, got)
	assert.Equal(t, 0, a.Usage.Count())
}

func TestStreamTurn_NoStop(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEvents(w, messageStart, textDelta("cut"))
	})

	err := a.StreamTurn(context.Background(), modeladapter.SessionConfig{}, nil, func(string) error { return nil })
	require.ErrorContains(t, err, "message_stop")
}

func TestStreamTurn_StatusError(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error"}}`))
	})

	err := a.StreamTurn(context.Background(), modeladapter.SessionConfig{}, nil, func(string) error { return nil })

	var se *modeladapter.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}
