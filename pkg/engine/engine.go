package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tjkj/quantumcore/pkg/modeladapter"
	"github.com/tjkj/quantumcore/pkg/modeladapter/usage"
	"github.com/tjkj/quantumcore/pkg/paramstore"
)

// Engine assembles the configured model adapter and persona and hands out
// Sessions.
type Engine struct {
	cfg      Config
	provider ProviderConfig
	opener   modeladapter.Opener
	session  modeladapter.SessionConfig
	events   *EventBus
	log      *slog.Logger
	params   paramstore.Getter

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithParamStore sets the secret store used for api_key_param. Without it
// an SSM-backed store is created on demand from the default AWS config.
func WithParamStore(g paramstore.Getter) Option {
	return func(e *Engine) { e.params = g }
}

// New creates an Engine from the given configuration. It fills defaults,
// validates, resolves the active provider's API key, and builds its adapter.
// No network connection is made until the first Send.
func New(ctx context.Context, cfg Config, opts ...Option) (*Engine, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		events:   NewEventBus(),
		log:      slog.New(slog.DiscardHandler),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(e)
	}

	pc, ok := cfg.Provider()
	if !ok {
		return nil, fmt.Errorf("engine: active provider %q not found", cfg.ActiveProvider)
	}

	key, err := e.resolveAPIKey(ctx, pc)
	if err != nil {
		return nil, err
	}
	if key == "" {
		e.log.WarnContext(ctx, "provider has no api key; sends will fail", "provider", pc.Name)
	}
	pc.APIKey = key

	e.opener, err = buildOpener(pc)
	if err != nil {
		return nil, err
	}

	instr, err := cfg.SystemInstruction()
	if err != nil {
		return nil, err
	}
	e.session = modeladapter.SessionConfig{
		SystemInstruction: instr,
		Temperature:       cfg.Temperature(),
	}

	pc.APIKey = ""
	e.provider = pc

	e.log.InfoContext(ctx, "engine ready",
		"provider", pc.Name,
		"kind", pc.Kind,
		"model", pc.Model,
		"transport", pc.Transport,
	)

	return e, nil
}

func (e *Engine) resolveAPIKey(ctx context.Context, pc ProviderConfig) (string, error) {
	if pc.APIKeyParam == "" {
		return pc.APIKey, nil
	}

	if e.params == nil {
		store, err := paramstore.NewFromEnv(ctx)
		if err != nil {
			return "", fmt.Errorf("engine: provider %q: %w", pc.Name, err)
		}
		e.params = store
	}

	key, err := e.params.Get(ctx, pc.APIKeyParam)
	if err != nil {
		return "", fmt.Errorf("engine: provider %q: %w", pc.Name, err)
	}

	return key, nil
}

// Events returns the engine's event bus.
func (e *Engine) Events() *EventBus { return e.events }

// Provider returns the active provider config with the API key removed.
func (e *Engine) Provider() ProviderConfig { return e.provider }

// SessionConfig returns the persona and temperature every session uses.
func (e *Engine) SessionConfig() modeladapter.SessionConfig { return e.session }

// Usage returns the adapter's token tracker, or nil when the adapter does
// not report usage.
func (e *Engine) Usage() *usage.Tracker {
	if r, ok := e.opener.(modeladapter.UsageReporter); ok {
		return r.UsageTracker()
	}
	return nil
}

// RateLimit returns the last rate limit info seen by the adapter, if any.
func (e *Engine) RateLimit() *modeladapter.RateLimitInfo {
	if r, ok := e.opener.(modeladapter.RateLimitInfoReporter); ok {
		return r.LastRateLimitInfo()
	}
	return nil
}

// NewSession creates a conversation. Its remote side is opened on the first
// Send.
func (e *Engine) NewSession() *Session {
	id := uuid.NewString()
	s := newSession(id, e.opener, e.session, e.events, e.log)

	e.mu.Lock()
	e.sessions[id] = s
	e.mu.Unlock()

	e.log.Debug("session created", "session", id)

	return s
}

// Session returns an existing session by ID.
func (e *Engine) Session(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	return s, ok
}

// CloseSession closes and forgets one session.
func (e *Engine) CloseSession(id string) error {
	e.mu.Lock()
	s, ok := e.sessions[id]
	delete(e.sessions, id)
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("engine: session %q not found", id)
	}

	return s.Close()
}

// Close closes every session.
func (e *Engine) Close() error {
	e.mu.Lock()
	sessions := e.sessions
	e.sessions = make(map[string]*Session)
	e.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
