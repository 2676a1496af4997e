package engine

import (
	"fmt"
	"sync"

	"github.com/tjkj/quantumcore/pkg/modeladapter"
	"github.com/tjkj/quantumcore/pkg/providers/anthropic"
	"github.com/tjkj/quantumcore/pkg/providers/gemini"
	"github.com/tjkj/quantumcore/pkg/providers/grok"
	"github.com/tjkj/quantumcore/pkg/providers/openai"
)

// ProviderFactory creates an Opener from a ProviderConfig whose API key has
// already been resolved.
type ProviderFactory func(cfg ProviderConfig) (modeladapter.Opener, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]ProviderFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories["gemini"] = newGemini
		factories["anthropic"] = newAnthropic
		factories["openai"] = newOpenAI
		factories["grok"] = newGrok
	})
}

// RegisterProvider registers a custom provider factory under the given kind.
// It can be called before New to extend the engine with additional providers.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

// getFactory returns the factory for the given kind.
func getFactory(kind string) (ProviderFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

func newGemini(cfg ProviderConfig) (modeladapter.Opener, error) {
	if cfg.Transport == TransportLive {
		l := gemini.NewLive(cfg.BaseURL, cfg.APIKey, cfg.Model)
		l.MaxTokens = cfg.MaxTokens
		return l, nil
	}

	a := gemini.New(cfg.BaseURL, cfg.APIKey, cfg.Model)
	a.MaxTokens = cfg.MaxTokens

	return a, nil
}

func newAnthropic(cfg ProviderConfig) (modeladapter.Opener, error) {
	a := anthropic.New(cfg.BaseURL, cfg.APIKey, cfg.Model)
	if cfg.MaxTokens > 0 {
		a.MaxTokens = cfg.MaxTokens
	}

	return a, nil
}

func newOpenAI(cfg ProviderConfig) (modeladapter.Opener, error) {
	a := openai.New(cfg.BaseURL, cfg.APIKey, cfg.Model)
	a.MaxTokens = cfg.MaxTokens

	return a, nil
}

func newGrok(cfg ProviderConfig) (modeladapter.Opener, error) {
	a := grok.New(cfg.BaseURL, cfg.APIKey, cfg.Model, nil)
	a.MaxTokens = cfg.MaxTokens

	return a, nil
}

// buildOpener creates an Opener from a ProviderConfig using the registered
// factory for its Kind.
func buildOpener(cfg ProviderConfig) (modeladapter.Opener, error) {
	factory, ok := getFactory(cfg.Kind)
	if !ok {
		return nil, fmt.Errorf("engine: unknown provider kind %q", cfg.Kind)
	}

	o, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: provider %q: %w", cfg.Name, err)
	}

	return o, nil
}
