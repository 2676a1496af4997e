package modeladapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/tjkj/quantumcore/pkg/modeladapter/usage"
)

// maxEventSize bounds a single server-sent event line.
const maxEventSize = 4 << 20

// UsageReporter is implemented by adapters that count tokens. Every adapter
// embedding ModelAdapter does.
type UsageReporter interface {
	UsageTracker() *usage.Tracker
}

// Auth says where the API key goes. With Header empty it is sent as
// "Authorization: Bearer <key>"; otherwise the bare key is sent in Header.
type Auth struct {
	Key    string
	Header string
}

// ModelAdapter is the shared base of every provider: model settings, auth,
// the HTTP client, usage counters and the last rate limit headers seen.
type ModelAdapter struct {
	Name         string // model id, e.g. "gemini-2.5-flash"
	MaxTokens    int    // reply cap; 0 leaves it to the provider
	Auth         Auth
	BaseURL      string // no trailing slash
	Client       *http.Client
	Headers      map[string]string // sent on every request
	Usage        usage.Tracker
	HeaderParser RateLimitHeaderParser

	rateLimitInfo atomic.Pointer[RateLimitInfo]
	clientOnce    sync.Once
	defaultClient *http.Client
}

// UsageTracker returns the adapter's token usage tracker.
func (a *ModelAdapter) UsageTracker() *usage.Tracker { return &a.Usage }

// LastRateLimitInfo returns the most recently observed rate limit info, or nil.
func (a *ModelAdapter) LastRateLimitInfo() *RateLimitInfo { return a.rateLimitInfo.Load() }

// httpClient returns the configured client or a cached default client with a 10-minute timeout.
func (a *ModelAdapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	a.clientOnce.Do(func() {
		a.defaultClient = &http.Client{Timeout: 10 * time.Minute}
	})

	return a.defaultClient
}

// header returns the auth and custom headers for every request and dial.
func (a *ModelAdapter) header() http.Header {
	h := make(http.Header)
	switch {
	case a.Auth.Key == "":
	case a.Auth.Header == "":
		h.Set("Authorization", "Bearer "+a.Auth.Key)
	default:
		h.Set(a.Auth.Header, a.Auth.Key)
	}
	for k, v := range a.Headers {
		h.Set(k, v)
	}
	return h
}

// PostStream marshals payload as JSON, POSTs it to path, and reads the
// response as a server-sent event stream. onEvent is called with the data
// payload of every event in arrival order. The stream ends at EOF or at an
// OpenAI-style "[DONE]" sentinel. An error returned by onEvent aborts the
// stream and is returned as-is.
func (a *ModelAdapter) PostStream(ctx context.Context, path string, payload any, onEvent func(data []byte) error) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header = a.header()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := a.httpClient().Do(req) //nolint:gosec // URL is built from trusted BaseURL config
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := a.checkResponse(resp); err != nil {
		return err
	}

	return readEvents(resp.Body, onEvent)
}

// checkResponse maps non-2xx statuses to typed errors and records rate
// limit headers on success.
func (a *ModelAdapter) checkResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		respBody, _ := io.ReadAll(resp.Body)
		return &RateLimitError{
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       string(respBody),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if a.HeaderParser != nil {
		if info := a.HeaderParser(resp.Header, time.Now()); info != nil {
			a.rateLimitInfo.Store(info)
		}
	}

	return nil
}

// readEvents parses a text/event-stream body. Multi-line data fields are
// joined with "\n"; event, id, retry and comment lines are ignored.
func readEvents(r io.Reader, onEvent func(data []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var data []string
	dispatch := func() (bool, error) {
		if len(data) == 0 {
			return false, nil
		}
		payload := strings.Join(data, "\n")
		data = data[:0]
		if payload == "[DONE]" {
			return true, nil
		}
		return false, onEvent([]byte(payload))
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			done, err := dispatch()
			if done || err != nil {
				return err
			}
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		if field != "data" {
			continue
		}
		data = append(data, strings.TrimPrefix(value, " "))
	}

	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}

	_, err := dispatch()
	return err
}

// wsURL converts the BaseURL to a WebSocket URL and appends the path.
// https becomes wss, http becomes ws. URLs that already use ws/wss are
// left unchanged.
func (a *ModelAdapter) wsURL(path string) string {
	u := a.BaseURL + path

	if rest, ok := strings.CutPrefix(u, "https://"); ok {
		return "wss://" + rest
	}

	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		return "ws://" + rest
	}

	return u
}

// DialWS establishes a WebSocket connection to the given path with auth and
// custom headers applied. The URL scheme is derived from BaseURL: https
// becomes wss, http becomes ws.
func (a *ModelAdapter) DialWS(ctx context.Context, path string) (*websocket.Conn, error) {
	conn, resp, err := websocket.Dial(ctx, a.wsURL(path), &websocket.DialOptions{
		HTTPClient: a.httpClient(),
		HTTPHeader: a.header(),
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}

	return conn, nil
}
