// Package message defines a single conversation entry and who sent it.
package message

// Role is the sender of a message. Only the operator and the model take
// part in a console conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) String() string { return string(r) }

// Message is a value type; copies never share state with the history.
type Message struct {
	Role Role
	Text string
}

// User creates an operator message.
func User(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// Assistant creates a model reply.
func Assistant(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}

// Extend returns m with more text appended.
func (m Message) Extend(fragment string) Message {
	m.Text += fragment
	return m
}
