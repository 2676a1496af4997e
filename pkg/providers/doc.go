// Package providers groups the hosted model backends a session can stream
// from. Each sub-package builds on [github.com/tjkj/quantumcore/pkg/modeladapter.ModelAdapter]
// and returns a [github.com/tjkj/quantumcore/pkg/modeladapter.Opener]:
//   - gemini: generateContent over server-sent events, and the Live websocket API
//   - anthropic: the Messages API
//   - openai: chat completions
//   - grok: the openai adapter pointed at xAI
package providers
