// Package gemini streams chat replies from the Google Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tjkj/quantumcore/pkg/chats/message"
	"github.com/tjkj/quantumcore/pkg/modeladapter"
	"github.com/tjkj/quantumcore/pkg/modeladapter/usage"
)

// DefaultBaseURL is the public Gemini endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

var (
	_ modeladapter.TurnStreamer = (*Adapter)(nil)
	_ modeladapter.Opener       = (*Adapter)(nil)
)

// Adapter streams turns through streamGenerateContent. It is stateless;
// Open wraps it in a HistoryConversation.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter. An empty baseURL selects DefaultBaseURL.
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	configure(&a.ModelAdapter, baseURL, apiKey, model)
	return a
}

func configure(m *modeladapter.ModelAdapter, baseURL, apiKey, model string) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	m.BaseURL = baseURL
	m.Auth = modeladapter.Auth{
		Key:    apiKey,
		Header: "x-goog-api-key",
	}
	m.Name = model

	// Gemini sends no rate limit headers, so HeaderParser stays nil.
}

// Open starts a conversation whose history is kept locally.
func (a *Adapter) Open(ctx context.Context, cfg modeladapter.SessionConfig) (modeladapter.Conversation, error) {
	return modeladapter.HistoryOpener(a).Open(ctx, cfg)
}

// StreamTurn implements modeladapter.TurnStreamer.
func (a *Adapter) StreamTurn(ctx context.Context, cfg modeladapter.SessionConfig, history []message.Message, onFragment modeladapter.FragmentFunc) error {
	req := a.buildRequest(cfg, history)
	path := fmt.Sprintf("/v1beta/models/%s:streamGenerateContent?alt=sse", a.Name)

	var (
		meta     apiUsageMeta
		finished bool
	)
	err := a.PostStream(ctx, path, req, func(data []byte) error {
		var chunk apiResponse
		if err := json.Unmarshal(data, &chunk); err != nil {
			return fmt.Errorf("decode chunk: %w", err)
		}
		if chunk.Error != nil {
			return chunk.Error
		}
		if chunk.PromptFeedback.BlockReason != "" {
			return fmt.Errorf("prompt blocked: %s", chunk.PromptFeedback.BlockReason)
		}
		if chunk.UsageMetadata.TotalTokenCount > 0 {
			meta = chunk.UsageMetadata
		}

		for _, cand := range chunk.Candidates {
			for _, p := range cand.Content.Parts {
				if p.Text == "" || p.Thought {
					continue
				}
				if err := onFragment(p.Text); err != nil {
					return err
				}
			}
			if cand.FinishReason != "" {
				finished = true
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	if !finished {
		return errors.New("gemini: stream ended without a finish reason")
	}

	a.Usage.Add(usage.TokenCount{
		InputTokens:  meta.PromptTokenCount,
		OutputTokens: meta.CandidatesTokenCount,
	})

	return nil
}

// --- wire types ---

type apiRequest struct {
	Contents          []apiContent     `json:"contents"`
	SystemInstruction *apiContent      `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type generationConfig struct {
	Temperature        *float64 `json:"temperature,omitempty"`
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type apiResponse struct {
	Candidates     []apiCandidate    `json:"candidates"`
	UsageMetadata  apiUsageMeta      `json:"usageMetadata"`
	PromptFeedback apiPromptFeedback `json:"promptFeedback"`
	Error          *apiError         `json:"error,omitempty"`
}

type apiCandidate struct {
	Content      apiContent `json:"content"`
	FinishReason string     `json:"finishReason"`
}

type apiUsageMeta struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type apiPromptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Code, e.Status, e.Message)
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(cfg modeladapter.SessionConfig, history []message.Message) apiRequest {
	req := apiRequest{
		Contents:         toContents(history),
		GenerationConfig: newGenerationConfig(cfg, a.MaxTokens),
	}

	if cfg.SystemInstruction != "" {
		req.SystemInstruction = &apiContent{
			Parts: []apiPart{{Text: cfg.SystemInstruction}},
		}
	}

	return req
}

func newGenerationConfig(cfg modeladapter.SessionConfig, maxTokens int) generationConfig {
	t := cfg.Temperature
	return generationConfig{
		Temperature:     &t,
		MaxOutputTokens: maxTokens,
	}
}

func toContents(history []message.Message) []apiContent {
	out := make([]apiContent, 0, len(history))
	for _, m := range history {
		out = append(out, apiContent{
			Role:  apiRole(m.Role),
			Parts: []apiPart{{Text: m.Text}},
		})
	}
	return out
}

func apiRole(r message.Role) string {
	if r == message.RoleAssistant {
		return "model"
	}
	return "user"
}
