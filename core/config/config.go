// Package config loads and validates the pipeline configuration from YAML,
// with defaults suitable for a zero-config run against OpenAI.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fluxion-eng/fluxion/core/providers"
)

// Config is the full runtime configuration.
type Config struct {
	// Provider selects the LLM backend: openai, openrouter, ollama, google
	// or anthropic.
	Provider string `yaml:"llm_provider"`

	// QuickThinkModel serves the routine drafting agents.
	QuickThinkModel string `yaml:"quick_think_llm"`
	// DeepThinkModel serves the estimation and final review agents.
	DeepThinkModel string `yaml:"deep_think_llm"`

	// QuickTemperature and DeepTemperature apply per model tier.
	QuickTemperature float64 `yaml:"quick_think_temperature"`
	DeepTemperature  float64 `yaml:"deep_think_temperature"`

	// BaseURL overrides the provider endpoint (ollama hosts, proxies).
	BaseURL string `yaml:"backend_url"`

	// PropertyBackendURL points the property lookup tool at a service.
	PropertyBackendURL string `yaml:"property_backend_url"`

	// DelayTime is the pacing pause between pipeline nodes, in seconds.
	DelayTime float64 `yaml:"delay_time"`

	// MaxRecurLimit bounds total agent executions per run.
	MaxRecurLimit int `yaml:"max_recur_limit"`

	// MaxTokens caps completion length per call; zero uses provider defaults.
	MaxTokens int `yaml:"max_tokens"`

	// SaveDir is the root for run logs (eval_results tree).
	SaveDir string `yaml:"save_dir"`

	// CheckpointDir, when set, receives per-node state snapshots.
	CheckpointDir string `yaml:"checkpoint_dir"`

	// ReferenceDoc is an optional .docx style template for Word output.
	ReferenceDoc string `yaml:"reference_doc"`
}

// Default returns the zero-config defaults.
func Default() Config {
	return Config{
		Provider:         string(providers.TypeOpenAI),
		QuickThinkModel:  "gpt-4o-mini",
		DeepThinkModel:   "gpt-4o",
		QuickTemperature: 0.7,
		DeepTemperature:  0.4,
		DelayTime:        0.5,
		MaxRecurLimit:    100,
		SaveDir:          "eval_results",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch providers.Type(c.Provider) {
	case providers.TypeOpenAI, providers.TypeOpenRouter, providers.TypeOllama,
		providers.TypeGoogle, providers.TypeAnthropic:
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.QuickThinkModel == "" || c.DeepThinkModel == "" {
		return fmt.Errorf("config: quick_think_llm and deep_think_llm are required")
	}
	if c.QuickTemperature < 0 || c.QuickTemperature > 2 ||
		c.DeepTemperature < 0 || c.DeepTemperature > 2 {
		return fmt.Errorf("config: temperatures must be in [0, 2]")
	}
	if c.DelayTime < 0 {
		return fmt.Errorf("config: delay_time must not be negative")
	}
	if c.MaxRecurLimit <= 0 {
		return fmt.Errorf("config: max_recur_limit must be positive")
	}
	return nil
}

// Delay returns the node pacing pause as a duration. Zero maps to the
// orchestrator's pacing-disabled sentinel.
func (c *Config) Delay() time.Duration {
	if c.DelayTime == 0 {
		return -1
	}
	return time.Duration(c.DelayTime * float64(time.Second))
}

// ProviderConfig builds the provider-level settings for one model tier.
func (c *Config) ProviderConfig(model string, temperature float64) providers.Config {
	pc := providers.DefaultConfig()
	pc.Model = model
	pc.Temperature = temperature
	pc.BaseURL = c.BaseURL
	if c.MaxTokens > 0 {
		pc.MaxTokens = c.MaxTokens
	}
	return pc
}
