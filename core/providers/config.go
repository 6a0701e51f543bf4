package providers

import (
	"fmt"
	"os"
	"time"
)

// Type identifies a supported LLM backend.
type Type string

const (
	TypeOpenAI     Type = "openai"
	TypeOpenRouter Type = "openrouter"
	TypeOllama     Type = "ollama"
	TypeGoogle     Type = "google"
	TypeAnthropic  Type = "anthropic"
)

// Default base URLs for the OpenAI-compatible backends.
const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	ollamaBaseURL     = "http://localhost:11434/v1"
)

// Config configures one provider instance. One instance is constructed per
// (model, provider) pair; the orchestrator owns them and hands them to
// agents at wiring time.
type Config struct {
	// APIKey authenticates against the backend. Resolved from the
	// provider's environment variable when empty.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Model is the opaque model identifier.
	Model string `json:"model" yaml:"model"`

	// BaseURL overrides the provider base URL (openrouter/ollama use
	// their well-known defaults when empty).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Temperature is the default sampling temperature in [0, 2].
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens caps generation length.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout for a single API request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultConfig returns sensible defaults; the model must still be set.
func DefaultConfig() Config {
	return Config{
		Temperature: 0.7,
		MaxTokens:   8192,
		Timeout:     5 * time.Minute,
	}
}

// Validate checks the configuration for a given backend type.
func (c *Config) Validate(t Type) error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f outside [0, 2]", c.Temperature)
	}
	if t != TypeOllama && c.APIKey == "" {
		return fmt.Errorf("api key is required for provider %q (set %s)", t, CredentialEnvVar(t))
	}
	return nil
}

// CredentialEnvVar names the environment variable holding the API key for a
// backend type.
func CredentialEnvVar(t Type) string {
	switch t {
	case TypeOpenAI:
		return "OPENAI_API_KEY"
	case TypeOpenRouter:
		return "OPENROUTER_API_KEY"
	case TypeGoogle:
		return "GOOGLE_API_KEY"
	case TypeAnthropic:
		return "ANTHROPIC_API_KEY"
	case TypeOllama:
		return ""
	default:
		return ""
	}
}

// ResolveCredential fills APIKey from the environment when unset. Ollama
// needs no credential; every other backend treats a missing key as a fatal
// startup error.
func (c *Config) ResolveCredential(t Type) error {
	if c.APIKey != "" || t == TypeOllama {
		return nil
	}
	envVar := CredentialEnvVar(t)
	if envVar == "" {
		return fmt.Errorf("unknown provider type %q", t)
	}
	key := os.Getenv(envVar)
	if key == "" && t == TypeGoogle {
		// The Gemini SDK historically used GEMINI_API_KEY.
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		return fmt.Errorf("missing credential for provider %q: %s is not set", t, envVar)
	}
	c.APIKey = key
	return nil
}

// New constructs a provider for the given backend type. The OpenAI-compatible
// backends (openai, openrouter, ollama) share one adapter parameterized by
// base URL.
func New(t Type, cfg Config) (Provider, error) {
	if err := cfg.ResolveCredential(t); err != nil {
		return nil, err
	}
	switch t {
	case TypeOpenAI:
		return NewOpenAIProvider(cfg, string(t), "")
	case TypeOpenRouter:
		return NewOpenAIProvider(cfg, string(t), openRouterBaseURL)
	case TypeOllama:
		return NewOpenAIProvider(cfg, string(t), ollamaBaseURL)
	case TypeGoogle:
		return NewGoogleProvider(cfg)
	case TypeAnthropic:
		return NewAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown provider type %q", t)
	}
}
