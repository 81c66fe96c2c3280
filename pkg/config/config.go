package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout applies to providers that do not configure one.
const DefaultTimeout = 60 * time.Second

// ProviderConfig holds the declarative per-provider settings consumed by both
// adapters and the registry. Loaded once at process start; read-only after.
type ProviderConfig struct {
	ID             string `yaml:"id"`
	Enabled        bool   `yaml:"enabled"`
	Priority       int    `yaml:"priority"`
	APIKey         string `yaml:"api_key,omitempty"`
	BaseURL        string `yaml:"base_url,omitempty"`
	DefaultModel   string `yaml:"default_model,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
	MaxRetries     int    `yaml:"max_retries,omitempty"`
}

// Timeout returns the configured per-call timeout, or DefaultTimeout.
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// DefaultProviderConfig is what an adapter with no matching config entry
// receives: enabled, priority 0, default timeout.
func DefaultProviderConfig(id string) ProviderConfig {
	return ProviderConfig{ID: id, Enabled: true}
}

// SelectionConfig holds the registry's global selection settings.
type SelectionConfig struct {
	// DefaultText and DefaultImage are the provider ids probed when the
	// caller expresses no preference.
	DefaultText  string `yaml:"default_text"`
	DefaultImage string `yaml:"default_image"`
	// FallbackEnabled allows selection to walk the priority-ordered fallback
	// chain after preferred and default providers fail their probes.
	FallbackEnabled bool `yaml:"fallback_enabled"`
}

// Config is the application configuration.
type Config struct {
	Providers []ProviderConfig `yaml:"providers"`
	Selection SelectionConfig  `yaml:"selection"`
}

// Load reads configuration from the given YAML file, then applies environment
// variable overrides for credentials. Environment variables take precedence
// over file values, as API keys should not normally live on disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault loads configuration from ~/.quizforge/config.yaml, returning the
// built-in defaults if the file does not exist.
func LoadDefault() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	path := filepath.Join(home, ".quizforge", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		return cfg, nil
	}
	return Load(path)
}

// DefaultConfig returns the built-in configuration: every known provider
// enabled, text defaulting to openai and image to swarm, with fallback on.
func DefaultConfig() *Config {
	return &Config{
		Providers: []ProviderConfig{
			{ID: "openai", Enabled: true, Priority: 10},
			{ID: "anthropic", Enabled: true, Priority: 5},
			{ID: "google", Enabled: true, Priority: 5},
			{ID: "swarm", Enabled: true, Priority: 10, BaseURL: "http://localhost:7801"},
			{ID: "dalle", Enabled: true, Priority: 5},
		},
		Selection: SelectionConfig{
			DefaultText:     "openai",
			DefaultImage:    "swarm",
			FallbackEnabled: true,
		},
	}
}

// Provider returns the config entry for the given id, or the default config
// for an adapter that has no matching entry.
func (c *Config) Provider(id string) ProviderConfig {
	for _, p := range c.Providers {
		if p.ID == id {
			return p
		}
	}
	return DefaultProviderConfig(id)
}

// envKeyOverrides maps provider ids to the environment variable that
// supersedes the file-configured API key.
var envKeyOverrides = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"google":    "GOOGLE_API_KEY",
	"dalle":     "OPENAI_API_KEY",
}

func applyEnvOverrides(cfg *Config) {
	for i := range cfg.Providers {
		envVar, ok := envKeyOverrides[cfg.Providers[i].ID]
		if !ok {
			continue
		}
		if val := os.Getenv(envVar); val != "" {
			cfg.Providers[i].APIKey = val
		}
	}
}
