package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/tjkj/quantumcore/pkg/engine"
	"github.com/tjkj/quantumcore/pkg/workdir"
)

// wizardAnswers collects the init wizard's form values.
type wizardAnswers struct {
	Kind        string
	Name        string
	APIKey      string //nolint:gosec // env var reference, not a secret
	UseParam    bool
	APIKeyParam string
	Model       string
	Transport   string
	Temperature string
	LogFile     string
}

type providerDefault struct {
	APIKey string //nolint:gosec // env var reference template, not a secret
	Model  string
}

//nolint:gosec // env var reference templates, not hardcoded secrets
var providerDefaults = map[string]providerDefault{
	"gemini":    {APIKey: "${GEMINI_API_KEY}", Model: engine.DefaultModel},
	"anthropic": {APIKey: "${ANTHROPIC_API_KEY}", Model: "claude-sonnet-4-5"},
	"openai":    {APIKey: "${OPENAI_API_KEY}", Model: "gpt-4o-mini"},
	"grok":      {APIKey: "${GROK_API_KEY}", Model: "grok-3-mini"},
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: quantumcore init [flags]\n\nCreate %s/config.yaml interactively.\n\nFlags:\n", workdir.DefaultName)
		fs.PrintDefaults()
	}
	dir := fs.String("dir", workdir.DefaultName, "path to the project directory")
	force := fs.Bool("force", false, "overwrite an existing config")
	defaults := fs.Bool("defaults", false, "write the default Gemini config without prompting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d := workdir.New(*dir)
	if d.HasConfig() && !*force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", workdir.ErrConfigExists, d.ConfigPath())
	}

	answers := defaultAnswers("gemini")
	if !*defaults {
		var err error
		if answers, err = runWizard(d.LogPath()); err != nil {
			return err
		}
	}

	cfg, err := buildWizardConfig(answers)
	if err != nil {
		return err
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	if err := workdir.Bootstrap(d, data, *force); err != nil {
		return err
	}

	fmt.Printf("Initialized %s\n", d.Root())

	return nil
}

func defaultAnswers(kind string) wizardAnswers {
	def := providerDefaults[kind]
	return wizardAnswers{
		Kind:        kind,
		Name:        kind,
		APIKey:      def.APIKey,
		Model:       def.Model,
		Transport:   engine.TransportSSE,
		Temperature: strconv.FormatFloat(engine.DefaultTemperature, 'f', -1, 64),
	}
}

// runWizard asks for the provider settings. logPath prefills the log file.
func runWizard(logPath string) (wizardAnswers, error) {
	var kind string
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Provider kind").
			Options(
				huh.NewOption("Gemini (Google)", "gemini"),
				huh.NewOption("Anthropic", "anthropic"),
				huh.NewOption("OpenAI", "openai"),
				huh.NewOption("Grok", "grok"),
			).
			Value(&kind),
	)).Run(); err != nil {
		return wizardAnswers{}, err
	}

	a := defaultAnswers(kind)
	a.LogFile = logPath

	fields := []huh.Field{
		huh.NewInput().Title("Provider name").Value(&a.Name).Validate(validateRequired),
		huh.NewInput().Title("Model").Value(&a.Model).Validate(validateRequired),
	}
	if kind == "gemini" {
		fields = append(fields, huh.NewSelect[string]().
			Title("Transport").
			Options(
				huh.NewOption("Streaming REST (sse)", engine.TransportSSE),
				huh.NewOption("Live websocket session (live)", engine.TransportLive),
			).
			Value(&a.Transport))
	}
	fields = append(fields,
		huh.NewInput().Title("Temperature (0-2)").Value(&a.Temperature).Validate(validateTemperature),
		huh.NewConfirm().Title("Read the API key from AWS SSM Parameter Store?").Value(&a.UseParam),
	)

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return a, err
	}

	keyField := huh.NewInput().Title("API key env var").Value(&a.APIKey)
	if a.UseParam {
		a.APIKeyParam = "/quantumcore/" + a.Name + "/api-key"
		keyField = huh.NewInput().Title("SSM parameter name").Value(&a.APIKeyParam).Validate(validateRequired)
	}

	if err := huh.NewForm(huh.NewGroup(
		keyField,
		huh.NewInput().Title("Log file (empty = no logging)").Value(&a.LogFile),
	)).Run(); err != nil {
		return a, err
	}

	return a, nil
}

// buildWizardConfig turns wizard answers into a validated config.
func buildWizardConfig(a wizardAnswers) (engine.Config, error) {
	temp, err := strconv.ParseFloat(strings.TrimSpace(a.Temperature), 64)
	if err != nil {
		return engine.Config{}, fmt.Errorf("temperature: %w", err)
	}

	p := engine.ProviderConfig{
		Name:  strings.TrimSpace(a.Name),
		Kind:  a.Kind,
		Model: strings.TrimSpace(a.Model),
	}
	if a.UseParam {
		p.APIKeyParam = strings.TrimSpace(a.APIKeyParam)
	} else {
		p.APIKey = strings.TrimSpace(a.APIKey)
	}
	if a.Kind == "gemini" {
		p.Transport = a.Transport
	}

	cfg := engine.Config{
		Providers:      []engine.ProviderConfig{p},
		ActiveProvider: p.Name,
		Persona:        engine.PersonaConfig{Temperature: &temp},
		LogFile:        strings.TrimSpace(a.LogFile),
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}

	return cfg, nil
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func validateTemperature(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("must be a number")
	}
	if v < 0 || v > 2 {
		return errors.New("must be between 0 and 2")
	}
	return nil
}
