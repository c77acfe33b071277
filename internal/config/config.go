// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Duration is a time.Duration written as a string such as "2s" in config files
type Duration time.Duration

// UnmarshalJSON accepts Go duration strings and plain millisecond counts
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// MarshalJSON writes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config holds the settings shared by the API server and the CLI.
// Values come from an optional JSON file, then the environment.
type Config struct {
	// Server
	Port       int    `json:"port,omitempty" validate:"min=1,max=65535"`
	APIBaseURL string `json:"api_base_url,omitempty" validate:"omitempty,url"`

	// Storage
	DatabaseURL string `json:"database_url,omitempty"`

	// LLM
	Provider         string `json:"provider,omitempty" validate:"omitempty,oneof=gemini openrouter"`
	GeminiAPIKey     string `json:"gemini_api_key,omitempty"`
	OpenRouterAPIKey string `json:"openrouter_api_key,omitempty"`
	LLMBaseURL       string `json:"llm_base_url,omitempty" validate:"omitempty,url"`

	// Editing
	AutosaveDebounce Duration `json:"autosave_debounce,omitempty" validate:"min=0"`
	IdleTimeout      Duration `json:"idle_timeout,omitempty" validate:"min=0"`
	JobCacheTTL      Duration `json:"job_cache_ttl,omitempty" validate:"min=0"`

	// Logging
	LogFile    string `json:"log_file,omitempty"`
	Production bool   `json:"production,omitempty"`
	Verbose    bool   `json:"verbose,omitempty"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Port:             8080,
		Provider:         "gemini",
		AutosaveDebounce: Duration(2 * time.Second),
		IdleTimeout:      Duration(time.Hour),
		JobCacheTTL:      Duration(6 * time.Hour),
		LogFile:          "logs/resume-builder.log",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: defaults, then the file at path
// (optional), then a .env file and the process environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := *Default()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DATABASE_URL":       &c.DatabaseURL,
		"API_BASE_URL":       &c.APIBaseURL,
		"LLM_PROVIDER":       &c.Provider,
		"GEMINI_API_KEY":     &c.GeminiAPIKey,
		"OPENROUTER_API_KEY": &c.OpenRouterAPIKey,
		"LLM_BASE_URL":       &c.LLMBaseURL,
		"LOG_FILE":           &c.LogFile,
	}
	for key, field := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*field = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: PORT must be a number: %w", err)
		}
		c.Port = port
	}

	durations := map[string]*Duration{
		"AUTOSAVE_DEBOUNCE": &c.AutosaveDebounce,
		"IDLE_TIMEOUT":      &c.IdleTimeout,
	}
	for key, field := range durations {
		if v, ok := lookup(key); ok && v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config error: %s: %w", key, err)
			}
			*field = Duration(parsed)
		}
	}
	return nil
}

// Validate checks that the configuration has valid values. Credentials are
// checked separately by the commands that need them.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// APIKey returns the key of the configured LLM provider
func (c *Config) APIKey() string {
	if c.Provider == "openrouter" {
		return c.OpenRouterAPIKey
	}
	return c.GeminiAPIKey
}

// RequireLLM reports a missing API key for the configured provider
func (c *Config) RequireLLM() error {
	if c.APIKey() == "" {
		return fmt.Errorf("config error: an API key for provider %q is required", c.Provider)
	}
	return nil
}

// RequireDatabase reports a missing database URL
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: database_url (or DATABASE_URL) is required")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.APIBaseURL == "" {
		result.APIBaseURL = defaults.APIBaseURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.OpenRouterAPIKey == "" {
		result.OpenRouterAPIKey = defaults.OpenRouterAPIKey
	}
	if result.LLMBaseURL == "" {
		result.LLMBaseURL = defaults.LLMBaseURL
	}
	if result.AutosaveDebounce == 0 {
		result.AutosaveDebounce = defaults.AutosaveDebounce
	}
	if result.IdleTimeout == 0 {
		result.IdleTimeout = defaults.IdleTimeout
	}
	if result.JobCacheTTL == 0 {
		result.JobCacheTTL = defaults.JobCacheTTL
	}
	if result.LogFile == "" {
		result.LogFile = defaults.LogFile
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}
