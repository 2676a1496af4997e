// Package anthropic streams chat replies from the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tjkj/quantumcore/pkg/chats/message"
	"github.com/tjkj/quantumcore/pkg/modeladapter"
	"github.com/tjkj/quantumcore/pkg/modeladapter/usage"
)

// DefaultBaseURL is the public Anthropic endpoint.
const DefaultBaseURL = "https://api.anthropic.com"

// defaultMaxTokens is sent when none is configured; the API requires one.
const defaultMaxTokens = 4096

const messagesPath = "/v1/messages"

var (
	_ modeladapter.TurnStreamer = (*Adapter)(nil)
	_ modeladapter.Opener       = (*Adapter)(nil)
)

// Adapter streams turns through the Messages API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter. An empty baseURL selects DefaultBaseURL.
func New(baseURL, apiKey, model string) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	a := &Adapter{}
	a.BaseURL = baseURL
	a.Auth = modeladapter.Auth{
		Key:    apiKey,
		Header: "x-api-key",
	}
	a.Name = model
	a.MaxTokens = defaultMaxTokens
	a.Headers = map[string]string{
		"anthropic-version": "2023-06-01",
	}
	a.HeaderParser = modeladapter.ParseAnthropicRateLimitHeaders

	return a
}

// Open starts a conversation whose history is kept locally.
func (a *Adapter) Open(ctx context.Context, cfg modeladapter.SessionConfig) (modeladapter.Conversation, error) {
	return modeladapter.HistoryOpener(a).Open(ctx, cfg)
}

// StreamTurn implements modeladapter.TurnStreamer.
func (a *Adapter) StreamTurn(ctx context.Context, cfg modeladapter.SessionConfig, history []message.Message, onFragment modeladapter.FragmentFunc) error {
	req := a.buildRequest(cfg, history)

	var (
		tokens  usage.TokenCount
		stopped bool
	)
	err := a.PostStream(ctx, messagesPath, req, func(data []byte) error {
		var ev apiEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}

		switch ev.Type {
		case "message_start":
			tokens.InputTokens = ev.Message.Usage.InputTokens
		case "content_block_delta":
			if ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				return onFragment(ev.Delta.Text)
			}
		case "message_delta":
			tokens.OutputTokens = ev.Usage.OutputTokens
		case "message_stop":
			stopped = true
		case "error":
			return fmt.Errorf("%s: %s", ev.Error.Type, ev.Error.Message)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("anthropic: %w", err)
	}
	if !stopped {
		return errors.New("anthropic: stream ended before message_stop")
	}

	a.Usage.Add(tokens)

	return nil
}

// --- wire types ---

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	System      string       `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	Stream      bool         `json:"stream"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiEvent struct {
	Type    string          `json:"type"`
	Message apiMessageStart `json:"message"`
	Delta   apiDelta        `json:"delta"`
	Usage   apiUsage        `json:"usage"`
	Error   apiError        `json:"error"`
}

type apiMessageStart struct {
	Usage apiUsage `json:"usage"`
}

type apiDelta struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	StopReason string `json:"stop_reason"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(cfg modeladapter.SessionConfig, history []message.Message) apiRequest {
	msgs := make([]apiMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, apiMessage{Role: apiRole(m.Role), Content: m.Text})
	}

	maxTokens := a.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return apiRequest{
		Model:       a.Name,
		MaxTokens:   maxTokens,
		System:      cfg.SystemInstruction,
		Messages:    msgs,
		Temperature: cfg.Temperature,
		Stream:      true,
	}
}

func apiRole(r message.Role) string {
	if r == message.RoleAssistant {
		return "assistant"
	}
	return "user"
}
