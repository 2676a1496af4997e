// Package chat provides the conversation history container.
package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/tjkj/quantumcore/pkg/chats/message"
)

// ErrNoAssistantTail is returned when the trailing message cannot be extended
// because it is missing or not from the assistant.
var ErrNoAssistantTail = errors.New("chat: last message is not an assistant message")

// Chat is an ordered conversation history. Entries are never reordered or
// removed; the only mutation besides Append is extending the text of a
// trailing assistant message while it streams in. The zero value is ready to
// use and Chat is safe for concurrent use.
type Chat struct {
	mu       sync.Mutex
	messages []message.Message
	changed  chan struct{}
}

// New creates a Chat pre-populated with the given messages.
func New(msgs ...message.Message) *Chat {
	return &Chat{messages: msgs}
}

// Append adds one or more messages to the conversation.
func (c *Chat) Append(msgs ...message.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msgs...)
	c.notifyLocked()
}

// ExtendLast appends fragment to the text of the trailing assistant message
// and returns the updated message.
func (c *Chat) ExtendLast(fragment string) (message.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.messages)
	if n == 0 || c.messages[n-1].Role != message.RoleAssistant {
		return message.Message{}, ErrNoAssistantTail
	}
	c.messages[n-1] = c.messages[n-1].Extend(fragment)
	c.notifyLocked()
	return c.messages[n-1], nil
}

// Len returns the number of messages in the conversation.
func (c *Chat) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.messages)
}

// At returns the message at the given index.
// It panics if the index is out of range.
func (c *Chat) At(index int) message.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.messages[index]
}

// Last returns the most recent message and true, or a zero Message and false
// if the conversation is empty.
func (c *Chat) Last() (message.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.messages) == 0 {
		return message.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Messages returns a copy of all messages in the conversation.
func (c *Chat) Messages() []message.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := make([]message.Message, len(c.messages))
	copy(cp, c.messages)
	return cp
}

// Since returns a copy of the messages from index cursor onwards.
func (c *Chat) Since(cursor int) []message.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(c.messages) {
		return nil
	}
	cp := make([]message.Message, len(c.messages)-cursor)
	copy(cp, c.messages[cursor:])
	return cp
}

// Each iterates over messages, calling fn for each one. If fn returns false,
// iteration stops early. fn runs on a snapshot and may call back into c.
func (c *Chat) Each(fn func(int, message.Message) bool) {
	for i, m := range c.Messages() {
		if !fn(i, m) {
			return
		}
	}
}

// Changed returns a channel that is closed on the next mutation.
func (c *Chat) Changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.changedLocked()
}

// Wait blocks until the conversation holds more than cursor messages or ctx
// is done. It returns the current length.
func (c *Chat) Wait(ctx context.Context, cursor int) (int, error) {
	for {
		c.mu.Lock()
		n := len(c.messages)
		ch := c.changedLocked()
		c.mu.Unlock()

		if n > cursor {
			return n, nil
		}

		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case <-ch:
		}
	}
}

func (c *Chat) changedLocked() chan struct{} {
	if c.changed == nil {
		c.changed = make(chan struct{})
	}
	return c.changed
}

func (c *Chat) notifyLocked() {
	if c.changed != nil {
		close(c.changed)
		c.changed = nil
	}
}
