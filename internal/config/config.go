// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Secrets come from the
// environment; an optional YAML overlay adjusts the non-secret tunables.
type Config struct {
	BotToken    string // main bot credential, also the webhook path secret
	BaseURL     string // externally reachable base URL for the webhook
	Port        string
	OpenAIKey   string
	OpenAIBase  string // optional, for OpenAI-compatible endpoints
	AuditToken  string // separate credential for the audit channel
	AuditChatID int64

	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
	Welcome      string // fixed greeting text; empty = built-in default
	Apology      string // fixed user-safe failure text; empty = built-in default
}

// Overlay is the optional YAML tunables file. Pointer fields distinguish
// "absent" from an explicit zero.
type Overlay struct {
	Model        string   `yaml:"model"`
	MaxTokens    *int     `yaml:"max_tokens"`
	Temperature  *float64 `yaml:"temperature"`
	SystemPrompt string   `yaml:"system_prompt"`
	Welcome      string   `yaml:"welcome_message"`
	Apology      string   `yaml:"apology_message"`
}

// Load reads configuration from environment variables, applies the YAML
// overlay at overlayPath when non-empty, and validates the result.
func Load(overlayPath string) (*Config, error) {
	cfg := &Config{
		BotToken:     os.Getenv("TELEGRAM_TOKEN"),
		BaseURL:      os.Getenv("WEBHOOK_URL"),
		Port:         getEnv("PORT", "8080"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBase:   getEnv("OPENAI_API_BASE", ""),
		AuditToken:   os.Getenv("LOG_BOT_TOKEN"),
		AuditChatID:  getEnvInt64("LOG_CHAT_ID", 0),
		Model:        getEnv("MODEL", "gpt-3.5-turbo"),
		MaxTokens:    getEnvInt("MAX_TOKENS", 1000),
		Temperature:  getEnvFloat("TEMPERATURE", 1.0),
		SystemPrompt: getEnv("SYSTEM_PROMPT", ""),
	}

	if overlayPath != "" {
		if err := cfg.applyOverlay(overlayPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	var o Overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", path, err)
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.MaxTokens != nil {
		c.MaxTokens = *o.MaxTokens
	}
	if o.Temperature != nil {
		c.Temperature = *o.Temperature
	}
	if o.SystemPrompt != "" {
		c.SystemPrompt = o.SystemPrompt
	}
	if o.Welcome != "" {
		c.Welcome = o.Welcome
	}
	if o.Apology != "" {
		c.Apology = o.Apology
	}
	return nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	var errs []string

	if c.BotToken == "" {
		errs = append(errs, "TELEGRAM_TOKEN is required")
	}
	if c.BaseURL == "" {
		errs = append(errs, "WEBHOOK_URL is required")
	} else if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		errs = append(errs, "WEBHOOK_URL must be an http(s) URL")
	}
	if c.OpenAIKey == "" {
		errs = append(errs, "OPENAI_API_KEY is required")
	}
	if c.AuditToken == "" {
		errs = append(errs, "LOG_BOT_TOKEN is required")
	}
	if c.AuditChatID == 0 {
		errs = append(errs, "LOG_CHAT_ID is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, "PORT must be numeric")
	}
	if c.MaxTokens < 1 {
		errs = append(errs, "MAX_TOKENS must be >= 1")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, "TEMPERATURE must be between 0 and 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
