// Package grok configures the openai adapter for xAI's Grok models, which
// serve the same chat completions protocol.
package grok

import (
	"net/http"

	"github.com/tjkj/quantumcore/pkg/providers/openai"
)

// DefaultBaseURL is the base URL for the xAI API.
const DefaultBaseURL = "https://api.x.ai"

// DefaultModel is used when no model is configured.
const DefaultModel = "grok-3-mini"

// New creates an openai.Adapter pointed at xAI. An empty baseURL selects
// DefaultBaseURL. A nil client falls back to the adapter default.
func New(baseURL, apiKey, model string, client *http.Client) *openai.Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	a := openai.New(baseURL, apiKey, model)
	a.Client = client

	return a
}
