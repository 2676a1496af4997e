package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/tjkj/quantumcore/pkg/chats/message"
	"github.com/tjkj/quantumcore/pkg/modeladapter"
	"github.com/tjkj/quantumcore/pkg/modeladapter/usage"
)

// LivePath is the BidiGenerateContent websocket endpoint.
const LivePath = "/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// liveReadLimit bounds a single server frame.
const liveReadLimit = 4 << 20

var _ modeladapter.Opener = (*Live)(nil)

// Live opens stateful sessions over the Gemini Live websocket API. The
// server remembers the conversation for as long as the socket stays up.
type Live struct {
	modeladapter.ModelAdapter
}

// NewLive creates a Live adapter. An empty baseURL selects DefaultBaseURL,
// which is dialed as wss.
func NewLive(baseURL, apiKey, model string) *Live {
	l := &Live{}
	configure(&l.ModelAdapter, baseURL, apiKey, model)
	return l
}

// Open dials the socket and completes the setup handshake.
func (l *Live) Open(ctx context.Context, cfg modeladapter.SessionConfig) (modeladapter.Conversation, error) {
	c := &liveConversation{live: l, cfg: cfg}
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

type liveConversation struct {
	live *Live
	cfg  modeladapter.SessionConfig

	turnMu  sync.Mutex // serializes Stream
	history []message.Message

	// mu guards the socket only, so Close never waits for a turn.
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	busy   bool
}

// connect dials and performs setup.
func (c *liveConversation) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, err := c.live.DialWS(ctx, LivePath)
	if err != nil {
		return nil, fmt.Errorf("gemini live: %w", err)
	}
	conn.SetReadLimit(liveReadLimit)

	gc := newGenerationConfig(c.cfg, c.live.MaxTokens)
	gc.ResponseModalities = []string{"TEXT"}

	setup := liveClientMessage{Setup: &liveSetup{
		Model:            "models/" + c.live.Name,
		GenerationConfig: gc,
	}}
	if c.cfg.SystemInstruction != "" {
		setup.Setup.SystemInstruction = &apiContent{Parts: []apiPart{{Text: c.cfg.SystemInstruction}}}
	}

	if err := wsjson.Write(ctx, conn, setup); err != nil {
		_ = conn.CloseNow()
		return nil, fmt.Errorf("gemini live: send setup: %w", err)
	}

	var resp liveServerMessage
	if err := readFrame(ctx, conn, &resp); err != nil {
		_ = conn.CloseNow()
		return nil, fmt.Errorf("gemini live: read setup: %w", err)
	}
	if resp.SetupComplete == nil {
		_ = conn.CloseNow()
		return nil, errors.New("gemini live: setup not acknowledged")
	}

	return conn, nil
}

// Stream sends one user turn. A broken socket is replaced on the next call
// and the completed turns are replayed so the model keeps its context.
func (c *liveConversation) Stream(ctx context.Context, text string, onFragment modeladapter.FragmentFunc) error {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()

	conn, err := c.begin()
	if err != nil {
		return err
	}
	defer c.end()

	turns := []message.Message{message.User(text)}
	if conn == nil {
		if conn, err = c.connect(ctx); err != nil {
			return err
		}
		if err := c.adopt(conn); err != nil {
			return err
		}
		turns = append(append([]message.Message{}, c.history...), turns...)
	}

	reply, err := c.exchange(ctx, conn, turns, onFragment)
	if err != nil {
		c.drop(conn)
		return err
	}

	c.history = append(c.history, message.User(text), message.Assistant(reply))

	return nil
}

var errLiveClosed = errors.New("gemini live: conversation closed")

// begin marks a turn in flight and returns the current socket, nil when it
// has to be redialed.
func (c *liveConversation) begin() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errLiveClosed
	}
	c.busy = true
	return c.conn, nil
}

func (c *liveConversation) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// adopt installs a freshly dialed socket unless Close ran meanwhile.
func (c *liveConversation) adopt(conn *websocket.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		_ = conn.CloseNow()
		return errLiveClosed
	}
	c.conn = conn
	return nil
}

func (c *liveConversation) drop(conn *websocket.Conn) {
	_ = conn.CloseNow()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *liveConversation) exchange(ctx context.Context, conn *websocket.Conn, turns []message.Message, onFragment modeladapter.FragmentFunc) (string, error) {
	msg := liveClientMessage{ClientContent: &liveClientContent{
		Turns:        toContents(turns),
		TurnComplete: true,
	}}
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		return "", fmt.Errorf("gemini live: send turn: %w", err)
	}

	var reply []byte
	for {
		var resp liveServerMessage
		if err := readFrame(ctx, conn, &resp); err != nil {
			return "", fmt.Errorf("gemini live: read: %w", err)
		}

		if resp.UsageMetadata != nil {
			c.live.Usage.Add(usage.TokenCount{
				InputTokens:  resp.UsageMetadata.PromptTokenCount,
				OutputTokens: resp.UsageMetadata.ResponseTokenCount,
			})
		}
		if resp.GoAway != nil {
			return "", errors.New("gemini live: server is closing the session")
		}

		sc := resp.ServerContent
		if sc == nil {
			continue
		}
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				if p.Text == "" || p.Thought {
					continue
				}
				reply = append(reply, p.Text...)
				if err := onFragment(p.Text); err != nil {
					return "", err
				}
			}
		}
		if sc.Interrupted {
			return "", errors.New("gemini live: turn interrupted")
		}
		if sc.TurnComplete {
			return string(reply), nil
		}
	}
}

// Close ends the session. An idle socket gets a normal close handshake; a
// socket with a turn in flight is dropped so the pending read fails at once.
func (c *liveConversation) Close() error {
	c.mu.Lock()
	c.closed = true
	conn, busy := c.conn, c.busy
	c.conn = nil
	c.mu.Unlock()

	switch {
	case conn == nil:
		return nil
	case busy:
		return conn.CloseNow()
	}
	return conn.Close(websocket.StatusNormalClosure, "")
}

// readFrame decodes one JSON frame. The server may send JSON in binary
// frames, so the frame type is ignored.
func readFrame(ctx context.Context, conn *websocket.Conn, v any) error {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// --- live wire types ---

type liveClientMessage struct {
	Setup         *liveSetup         `json:"setup,omitempty"`
	ClientContent *liveClientContent `json:"clientContent,omitempty"`
}

type liveSetup struct {
	Model             string           `json:"model"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SystemInstruction *apiContent      `json:"systemInstruction,omitempty"`
}

type liveClientContent struct {
	Turns        []apiContent `json:"turns"`
	TurnComplete bool         `json:"turnComplete"`
}

type liveServerMessage struct {
	SetupComplete *struct{}          `json:"setupComplete,omitempty"`
	ServerContent *liveServerContent `json:"serverContent,omitempty"`
	UsageMetadata *liveUsage         `json:"usageMetadata,omitempty"`
	GoAway        *struct{}          `json:"goAway,omitempty"`
}

type liveServerContent struct {
	ModelTurn    *apiContent `json:"modelTurn,omitempty"`
	TurnComplete bool        `json:"turnComplete"`
	Interrupted  bool        `json:"interrupted"`
}

type liveUsage struct {
	PromptTokenCount   int `json:"promptTokenCount"`
	ResponseTokenCount int `json:"responseTokenCount"`
}
