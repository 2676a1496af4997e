package engine

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Normalize.
const (
	DefaultTemperature = 0.2
	DefaultKind        = "gemini"
	DefaultModel       = "gemini-2.5-flash"
	DefaultAPIKeyEnv   = "GEMINI_API_KEY"
)

// Transport values for gemini providers.
const (
	TransportSSE  = "sse"
	TransportLive = "live"
)

// Config is the top-level engine configuration.
type Config struct {
	Providers      []ProviderConfig `yaml:"providers"`
	ActiveProvider string           `yaml:"active_provider"`
	Persona        PersonaConfig    `yaml:"persona"`
	LogFile        string           `yaml:"log_file"`
	LogLevel       string           `yaml:"log_level"`
}

// ProviderConfig describes a model provider instance.
type ProviderConfig struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`       //nolint:gosec // configuration field, not a hardcoded secret
	APIKeyParam string `yaml:"api_key_param"` // SSM parameter name; wins over APIKey.
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	Transport   string `yaml:"transport"` // gemini only: sse (default) or live.
}

// PersonaConfig overrides the built-in system instruction.
type PersonaConfig struct {
	Instructions     string   `yaml:"instructions"`
	InstructionsFile string   `yaml:"instructions_file"`
	Temperature      *float64 `yaml:"temperature"`
}

// DefaultConfig is used when no config file exists: a single Gemini
// provider reading its key from GEMINI_API_KEY.
func DefaultConfig() Config {
	return Config{
		Providers: []ProviderConfig{{
			Name:   "gemini",
			Kind:   DefaultKind,
			APIKey: os.Getenv(DefaultAPIKeyEnv),
			Model:  DefaultModel,
		}},
	}
}

// LoadConfig reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so API keys can live in the environment or a .env file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig expands environment variables in data and decodes it.
func ParseConfig(data []byte) (Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg, nil
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Normalize fills defaults: provider kind and model, gemini transport, and
// the active provider.
func (c *Config) Normalize() {
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.Kind == "" {
			p.Kind = DefaultKind
		}
		if p.Name == "" {
			p.Name = p.Kind
		}
		if p.Model == "" && p.Kind == DefaultKind {
			p.Model = DefaultModel
		}
		if p.Transport == "" && p.Kind == DefaultKind {
			p.Transport = TransportSSE
		}
	}

	if c.ActiveProvider == "" && len(c.Providers) > 0 {
		c.ActiveProvider = c.Providers[0].Name
	}
}

// Temperature returns the configured temperature or DefaultTemperature.
func (c Config) Temperature() float64 {
	if c.Persona.Temperature != nil {
		return *c.Persona.Temperature
	}
	return DefaultTemperature
}

// Provider returns the active provider config.
func (c Config) Provider() (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == c.ActiveProvider {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("engine: config: at least one provider is required")
	}

	names := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return errors.New("engine: config: provider name is required")
		}
		if p.Kind == "" {
			return fmt.Errorf("engine: config: provider %q: kind is required", p.Name)
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("engine: config: duplicate provider name %q", p.Name)
		}
		names[p.Name] = struct{}{}

		switch p.Transport {
		case "", TransportSSE:
		case TransportLive:
			if p.Kind != "gemini" {
				return fmt.Errorf("engine: config: provider %q: transport %q requires kind gemini", p.Name, p.Transport)
			}
		default:
			return fmt.Errorf("engine: config: provider %q: unknown transport %q", p.Name, p.Transport)
		}

		if p.MaxTokens < 0 {
			return fmt.Errorf("engine: config: provider %q: max_tokens must not be negative", p.Name)
		}
	}

	if c.ActiveProvider != "" {
		if _, ok := names[c.ActiveProvider]; !ok {
			return fmt.Errorf("engine: config: active_provider %q not found in providers", c.ActiveProvider)
		}
	}

	if t := c.Temperature(); t < 0 || t > 2 {
		return fmt.Errorf("engine: config: temperature %v out of range [0, 2]", t)
	}

	if c.Persona.Instructions != "" && c.Persona.InstructionsFile != "" {
		return errors.New("engine: config: persona: set instructions or instructions_file, not both")
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}
