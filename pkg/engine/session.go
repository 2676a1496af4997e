package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tjkj/quantumcore/pkg/chats/chat"
	"github.com/tjkj/quantumcore/pkg/chats/message"
	"github.com/tjkj/quantumcore/pkg/modeladapter"
)

// FailureNotice is the assistant text recorded when a turn fails before any
// reply text arrived.
const FailureNotice = "CRITICAL SYSTEM FAILURE: Link to Quantum Core severed. (การเชื่อมต่อล้มเหลว)"

var (
	// ErrBusy is returned by Send while another turn is in flight.
	ErrBusy = errors.New("engine: a turn is already in flight")
	// ErrTransport wraps every failure of the model transport, including
	// context cancellation.
	ErrTransport = errors.New("engine: transport failure")
	// ErrSessionClosed is returned by Send after Close.
	ErrSessionClosed = errors.New("engine: session closed")
)

// State is the phase of the current turn.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// InFlight reports whether a turn is being sent or streamed.
func (s State) InFlight() bool {
	return s == StateSending || s == StateStreaming
}

// Session aggregates one conversation. It owns the chat history and the
// remote conversation, which is opened on the first Send and reused until
// Close. Only one Send may be in flight at a time.
type Session struct {
	id     string
	opener modeladapter.Opener
	cfg    modeladapter.SessionConfig
	events *EventBus
	chat   *chat.Chat
	log    *slog.Logger

	mu     sync.Mutex
	state  State
	conv   modeladapter.Conversation
	closed bool
}

func newSession(id string, opener modeladapter.Opener, cfg modeladapter.SessionConfig, events *EventBus, log *slog.Logger) *Session {
	return &Session{
		id:     id,
		opener: opener,
		cfg:    cfg,
		events: events,
		chat:   chat.New(),
		log:    log.With("session", id),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Chat returns the live history for observers (Wait, Since, Changed).
func (s *Session) Chat() *chat.Chat { return s.chat }

// History returns a snapshot of the conversation.
func (s *Session) History() []message.Message { return s.chat.Messages() }

// State returns the phase of the current turn.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Send appends text as a user message and streams the reply into a new
// assistant message. Every accepted call adds exactly two entries to the
// history. On failure the returned error wraps ErrTransport and the
// returned message is the assistant entry as it was left: the partial reply,
// or FailureNotice when nothing arrived. A Send while another is in flight
// returns ErrBusy and leaves the history untouched.
func (s *Session) Send(ctx context.Context, text string) (message.Message, error) {
	if err := s.acquire(); err != nil {
		return message.Message{}, err
	}
	defer s.setState(StateIdle)

	start := time.Now()
	s.chat.Append(message.User(text))
	s.publish(EventTurnStart, text)
	s.log.InfoContext(ctx, "turn started", "chars", len(text))

	conv, err := s.conversation(ctx)
	if err != nil {
		return s.fail(ctx, err, false, start)
	}

	streaming := false
	err = conv.Stream(ctx, text, func(fragment string) error {
		if fragment == "" {
			return nil
		}

		if !streaming {
			streaming = true
			s.chat.Append(message.Assistant(""))
			s.setState(StateStreaming)
			s.publish(EventStreamStart, nil)
		}

		m, err := s.chat.ExtendLast(fragment)
		if err != nil {
			return err
		}
		s.publish(EventFragment, m.Text)

		return nil
	})
	if err != nil {
		return s.fail(ctx, err, streaming, start)
	}

	if !streaming {
		s.chat.Append(message.Assistant(""))
	}

	reply, _ := s.chat.Last()
	s.setState(StateSucceeded)
	s.publish(EventTurnEnd, TurnResult{State: StateSucceeded, Reply: reply.Text, Duration: time.Since(start)})
	s.log.InfoContext(ctx, "turn finished",
		"duration", time.Since(start),
		"chars", len(reply.Text),
	)

	return reply, nil
}

// fail settles the turn as failed. Partial reply text is left as-is; a turn
// with no reply text gets FailureNotice.
func (s *Session) fail(ctx context.Context, cause error, streaming bool, start time.Time) (message.Message, error) {
	if !streaming {
		s.chat.Append(message.Assistant(FailureNotice))
	}

	reply, _ := s.chat.Last()
	s.setState(StateFailed)
	s.publish(EventError, cause)
	s.publish(EventTurnEnd, TurnResult{State: StateFailed, Reply: reply.Text, Duration: time.Since(start)})
	s.log.ErrorContext(ctx, "turn finished with error",
		"duration", time.Since(start),
		"partial", streaming,
		"error", cause,
	)

	return reply, fmt.Errorf("%w: %w", ErrTransport, cause)
}

// conversation returns the open conversation, opening it on first use. A
// failed open is retried on the next Send.
func (s *Session) conversation(ctx context.Context) (modeladapter.Conversation, error) {
	s.mu.Lock()
	conv := s.conv
	s.mu.Unlock()

	if conv != nil {
		return conv, nil
	}

	// Only the in-flight Send reaches here, so Open runs unlocked.
	conv, err := s.opener.Open(ctx, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("open conversation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		_ = conv.Close()
		return nil, ErrSessionClosed
	}
	s.conv = conv
	s.log.DebugContext(ctx, "conversation opened")

	return conv, nil
}

// Close discards the remote conversation. The history stays readable. A
// turn in flight is not waited for; it fails once its transport is closed.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	conv := s.conv
	s.conv = nil
	s.mu.Unlock()

	// The in-flight turn takes s.mu from its fragment callback, so the
	// conversation must be closed unlocked.
	if conv == nil {
		return nil
	}
	return conv.Close()
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StateIdle {
		return ErrBusy
	}
	s.state = StateSending

	return nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = st
}

func (s *Session) publish(kind EventKind, data any) {
	s.events.Publish(Event{
		Kind:      kind,
		SessionID: s.id,
		Data:      data,
	})
}
