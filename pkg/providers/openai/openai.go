// Package openai streams chat replies from the OpenAI Chat Completions API
// and compatible services.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tjkj/quantumcore/pkg/chats/message"
	"github.com/tjkj/quantumcore/pkg/modeladapter"
	"github.com/tjkj/quantumcore/pkg/modeladapter/usage"
)

// DefaultBaseURL is the public OpenAI endpoint.
const DefaultBaseURL = "https://api.openai.com"

const completionsPath = "/v1/chat/completions"

var (
	_ modeladapter.TurnStreamer = (*Adapter)(nil)
	_ modeladapter.Opener       = (*Adapter)(nil)
)

// Adapter streams turns through the chat completions endpoint.
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
	a.Auth = modeladapter.Auth{Key: apiKey}
	a.Name = model
	a.HeaderParser = modeladapter.ParseOpenAIRateLimitHeaders

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
		tokens   usage.TokenCount
		finished bool
	)
	err := a.PostStream(ctx, completionsPath, req, func(data []byte) error {
		var chunk apiChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return fmt.Errorf("decode chunk: %w", err)
		}
		if chunk.Error != nil {
			return errors.New(chunk.Error.Message)
		}
		if chunk.Usage != nil {
			tokens = usage.TokenCount{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
			}
		}

		for _, ch := range chunk.Choices {
			if ch.Delta.Content != "" {
				if err := onFragment(ch.Delta.Content); err != nil {
					return err
				}
			}
			if ch.FinishReason != "" {
				finished = true
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("openai: %w", err)
	}
	if !finished {
		return errors.New("openai: stream ended without a finish reason")
	}

	a.Usage.Add(tokens)

	return nil
}

// --- wire types ---

type apiRequest struct {
	Model         string         `json:"model"`
	Messages      []apiMessage   `json:"messages"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Temperature   float64        `json:"temperature"`
	Stream        bool           `json:"stream"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiChunk struct {
	Choices []apiChoice `json:"choices"`
	Usage   *apiUsage   `json:"usage,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiChoice struct {
	Delta        apiDelta `json:"delta"`
	FinishReason string   `json:"finish_reason"`
}

type apiDelta struct {
	Content string `json:"content"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type apiError struct {
	Message string `json:"message"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(cfg modeladapter.SessionConfig, history []message.Message) apiRequest {
	msgs := make([]apiMessage, 0, len(history)+1)
	if cfg.SystemInstruction != "" {
		msgs = append(msgs, apiMessage{Role: "system", Content: cfg.SystemInstruction})
	}
	for _, m := range history {
		msgs = append(msgs, apiMessage{Role: apiRole(m.Role), Content: m.Text})
	}

	return apiRequest{
		Model:         a.Name,
		Messages:      msgs,
		MaxTokens:     a.MaxTokens,
		Temperature:   cfg.Temperature,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	}
}

func apiRole(r message.Role) string {
	if r == message.RoleAssistant {
		return "assistant"
	}
	return "user"
}
