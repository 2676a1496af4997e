package modeladapter

import (
	"context"
	"strings"
	"sync"

	"github.com/tjkj/quantumcore/pkg/chats/message"
)

// FragmentFunc receives one piece of streamed reply text. Returning an error
// aborts the stream.
type FragmentFunc func(text string) error

// SessionConfig is fixed for the lifetime of a conversation.
type SessionConfig struct {
	SystemInstruction string
	Temperature       float64
}

// Opener creates conversation sessions against a remote model.
type Opener interface {
	Open(ctx context.Context, cfg SessionConfig) (Conversation, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, cfg SessionConfig) (Conversation, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, cfg SessionConfig) (Conversation, error) {
	return f(ctx, cfg)
}

// Conversation is a live session. Stream sends one user turn and delivers
// the reply as ordered fragments; it returns nil only when the reply
// completed normally. The remote side keeps its own memory of prior turns.
type Conversation interface {
	Stream(ctx context.Context, text string, onFragment FragmentFunc) error
	Close() error
}

// TurnStreamer is implemented by stateless APIs that take the whole history
// on every request. history ends with the new user message.
type TurnStreamer interface {
	StreamTurn(ctx context.Context, cfg SessionConfig, history []message.Message, onFragment FragmentFunc) error
}

// HistoryConversation turns a TurnStreamer into a Conversation by keeping the
// exchanged turns locally. A turn is remembered only when it completes, so a
// failed exchange is never replayed to the model.
type HistoryConversation struct {
	streamer TurnStreamer
	cfg      SessionConfig

	mu      sync.Mutex
	history []message.Message
}

// NewHistoryConversation creates a conversation with empty memory.
func NewHistoryConversation(s TurnStreamer, cfg SessionConfig) *HistoryConversation {
	return &HistoryConversation{streamer: s, cfg: cfg}
}

// HistoryOpener returns an Opener that starts a fresh HistoryConversation
// over s on every Open.
func HistoryOpener(s TurnStreamer) Opener {
	return OpenerFunc(func(_ context.Context, cfg SessionConfig) (Conversation, error) {
		return NewHistoryConversation(s, cfg), nil
	})
}

// Stream implements Conversation.
func (c *HistoryConversation) Stream(ctx context.Context, text string, onFragment FragmentFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	turn := make([]message.Message, len(c.history), len(c.history)+1)
	copy(turn, c.history)
	turn = append(turn, message.User(text))

	var reply strings.Builder
	err := c.streamer.StreamTurn(ctx, c.cfg, turn, func(fragment string) error {
		reply.WriteString(fragment)
		return onFragment(fragment)
	})
	if err != nil {
		return err
	}

	c.history = append(c.history, message.User(text), message.Assistant(reply.String()))

	return nil
}

// History returns a copy of the remembered turns.
func (c *HistoryConversation) History() []message.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]message.Message, len(c.history))
	copy(out, c.history)

	return out
}

// Close releases nothing; the underlying API holds no connection.
func (c *HistoryConversation) Close() error { return nil }
