package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete papertrader configuration.
type Config struct {
	Store StoreConfig `json:"store" yaml:"store"`
	Quote QuoteConfig `json:"quote" yaml:"quote"`
	Redis RedisConfig `json:"redis" yaml:"redis"`
}

// StoreConfig selects and parameterizes the portfolio store.
type StoreConfig struct {
	Type string `json:"type" yaml:"type"`                     // "memory", "sqlite" or "postgres"
	Path string `json:"path,omitempty" yaml:"path,omitempty"` // sqlite file
	DSN  string `json:"dsn,omitempty" yaml:"dsn,omitempty"`   // postgres DSN
}

// QuoteConfig parameterizes the previous-close quote client. The API
// key itself comes from the environment (see KeyEnv), never the file.
type QuoteConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	KeyEnv  string `json:"key_env" yaml:"key_env"`
}

// APIKey resolves the quote API key from the configured env var.
func (q QuoteConfig) APIKey() string {
	return strings.TrimSpace(os.Getenv(q.KeyEnv))
}

// RedisConfig enables the shared quote cache when Addr is set.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Store.Type {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for sqlite store")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn required for postgres store")
		}
	default:
		return fmt.Errorf("store.type must be 'memory', 'sqlite' or 'postgres'")
	}
	if c.Quote.BaseURL == "" {
		return fmt.Errorf("quote.base_url is required")
	}
	if c.Quote.KeyEnv == "" {
		return fmt.Errorf("quote.key_env is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Type: "sqlite",
			Path: "./papertrader.sqlite",
		},
		Quote: QuoteConfig{
			BaseURL: "https://api.massive.com",
			KeyEnv:  "MASSIVE_API_KEY",
		},
	}
}
