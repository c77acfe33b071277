// Package llm talks to the language model behind the assistant. It holds the provider
// clients (Gemini, OpenRouter) and the collaborator services built on them: chat completion,
// resume analysis and text-to-resume structuring.
package llm

import "fmt"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short conversational replies
	TierLite ModelTier = "lite"
	// TierStandard is for structured output such as chat patches and resume structuring
	TierStandard ModelTier = "standard"
	// TierAdvanced is for scoring a resume against job descriptions
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

const (
	// ProviderGemini is the Google Gemini API
	ProviderGemini Provider = "gemini"
	// ProviderOpenRouter is the OpenRouter chat completions API
	ProviderOpenRouter Provider = "openrouter"
)

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// BaseURL overrides the provider endpoint; empty uses the provider default
	BaseURL string
}

// DefaultConfig returns the default configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// DefaultOpenRouterConfig returns the default OpenRouter configuration
func DefaultOpenRouterConfig() *Config {
	return &Config{
		Provider: ProviderOpenRouter,
		Models: map[ModelTier]string{
			TierLite:     "openai/gpt-4o-mini",
			TierStandard: "openai/gpt-4o-mini",
			TierAdvanced: "openai/gpt-4o",
		},
	}
}

// ConfigFor returns the default configuration of a provider name. Empty selects Gemini.
func ConfigFor(provider string) (*Config, error) {
	switch Provider(provider) {
	case "", ProviderGemini:
		return DefaultGeminiConfig(), nil
	case ProviderOpenRouter:
		return DefaultOpenRouterConfig(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider: c.Provider,
		BaseURL:  c.BaseURL,
		Models:   make(map[ModelTier]string),
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
