package gemini_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tjkj/quantumcore/pkg/modeladapter"
	"github.com/tjkj/quantumcore/pkg/providers/gemini"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *gemini.Adapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return gemini.New(srv.URL, "test-key", "gemini-test")
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}

	return req
}

func writeEvents(w http.ResponseWriter, chunks ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, c := range chunks {
		_, _ = fmt.Fprintf(w, "data: %s\r\n\r\n", c)
	}
}

func textChunk(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, text)
}

const finalChunk = `{"candidates":[{"content":{"role":"model","parts":[{"text":"!"}]},"finishReason":"STOP"}],` +
	`"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":4,"totalTokenCount":16}}`

func TestNew_Defaults(t *testing.T) {
	a := gemini.New("", "k", "")
	assert.Equal(t, gemini.DefaultBaseURL, a.BaseURL)
	assert.Equal(t, gemini.DefaultModel, a.Name)
	assert.Equal(t, "x-goog-api-key", a.Auth.Header)
}

func TestStream_Fragments(t *testing.T) {
	var calls int
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v1beta/models/gemini-test:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		req := readBody(t, r)

		sys := req["systemInstruction"].(map[string]any)
		parts := sys["parts"].([]any)
		assert.Equal(t, "You are Quantum Core.", parts[0].(map[string]any)["text"])

		gc := req["generationConfig"].(map[string]any)
		assert.InDelta(t, 0.2, gc["temperature"], 1e-9)

		contents := req["contents"].([]any)
		if calls == 2 && assert.Len(t, contents, 3) {
			assert.Equal(t, "model", contents[1].(map[string]any)["role"])
		}
		assert.Equal(t, "user", contents[len(contents)-1].(map[string]any)["role"])

		writeEvents(w, textChunk("Hel"), textChunk("lo"), finalChunk)
	})

	cfg := modeladapter.SessionConfig{SystemInstruction: "You are Quantum Core.", Temperature: 0.2}
	conv, err := a.Open(context.Background(), cfg)
	require.NoError(t, err)

	var got []string
	onFragment := func(s string) error {
		got = append(got, s)
		return nil
	}

	require.NoError(t, conv.Stream(context.Background(), "VGH 4A?", onFragment))
	assert.Equal(t, []string{"Hel", "lo", "!"}, got)

	last, ok := a.Usage.Last()
	require.True(t, ok)
	assert.Equal(t, 12, last.InputTokens)
	assert.Equal(t, 4, last.OutputTokens)

	require.NoError(t, conv.Stream(context.Background(), "and FF?", onFragment))
	assert.Equal(t, 2, calls)
}

func TestStream_SkipsThoughtParts(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEvents(w,
			`{"candidates":[{"content":{"parts":[{"text":"thinking","thought":true},{"text":"answer"}]},"finishReason":"STOP"}]}`)
	})

	var got []string
	err := a.StreamTurn(context.Background(), modeladapter.SessionConfig{}, nil, func(s string) error {
		got = append(got, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"answer"}, got)
}

func TestStream_HTTPError(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	})

	err := a.StreamTurn(context.Background(), modeladapter.SessionConfig{}, nil, func(string) error { return nil })

	var se *modeladapter.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.ErrorContains(t, err, "gemini:")
}

func TestStream_InBandError(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEvents(w, textChunk("par"), `{"error":{"code":500,"status":"INTERNAL","message":"backend died"}}`)
	})

	var got []string
	err := a.StreamTurn(context.Background(), modeladapter.SessionConfig{}, nil, func(s string) error {
		got = append(got, s)
		return nil
	})
	require.ErrorContains(t, err, "backend died")
	assert.Equal(t, []string{"par"}, got)
}

func TestStream_Blocked(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEvents(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	})

	err := a.StreamTurn(context.Background(), modeladapter.SessionConfig{}, nil, func(string) error { return nil })
	require.ErrorContains(t, err, "SAFETY")
}

func TestStream_TruncatedStream(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEvents(w, textChunk("half"))
	})

	err := a.StreamTurn(context.Background(), modeladapter.SessionConfig{}, nil, func(string) error { return nil })
	require.ErrorContains(t, err, "without a finish reason")
	assert.Equal(t, 0, a.Usage.Count())
}

func TestStream_FailedTurnNotReplayed(t *testing.T) {
	var calls int
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		contents := readBody(t, r)["contents"].([]any)
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Len(t, contents, 1)
		writeEvents(w, finalChunk)
	})

	conv, err := a.Open(context.Background(), modeladapter.SessionConfig{})
	require.NoError(t, err)

	nop := func(string) error { return nil }
	require.Error(t, conv.Stream(context.Background(), "first", nop))
	require.NoError(t, conv.Stream(context.Background(), "second", nop))
}
