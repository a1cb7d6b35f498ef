package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is read from an optional JSON file; the API key comes from the
// environment (or a .env file) unless set inline.
type Config struct {
	LLM               LLMConfig `json:"llm"`
	ServerAddr        string    `json:"server_addr,omitempty"`
	LogFile           string    `json:"log_file,omitempty"`
	Production        bool      `json:"production,omitempty"`
	CatalogPath       string    `json:"catalog_path,omitempty"`
	HistoryWindow     *int      `json:"history_window,omitempty"`
	SessionTTLMinutes int       `json:"session_ttl_minutes,omitempty"`
}

type LLMConfig struct {
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	APIKeyEnv      string `json:"api_key_env,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

const (
	DefaultProvider      = "openai"
	DefaultModel         = "gpt-4o"
	DefaultAPIKeyEnv     = "OPENAI_API_KEY"
	DefaultServerAddr    = ":8080"
	DefaultLogFile       = "consult.log"
	DefaultTimeout       = 60
	DefaultHistoryWindow = 20
	DefaultSessionTTL    = 60
)

// Load reads .env (if present) and then path (if non-empty). A missing
// config file at the default location is not an error: defaults apply.
func Load(path string, required bool) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return Config{}, err
		}
	}

	cfg.applyDefaults()
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(cfg.LLM.APIKeyEnv)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = DefaultProvider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = DefaultTimeout
	}
	if c.ServerAddr == "" {
		c.ServerAddr = DefaultServerAddr
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.HistoryWindow == nil {
		w := DefaultHistoryWindow
		c.HistoryWindow = &w
	}
	if c.SessionTTLMinutes == 0 {
		c.SessionTTLMinutes = DefaultSessionTTL
	}
}

// Validate checks values that defaults cannot repair. It does not require an
// API key: the mock provider runs without one and the OpenAI client reports
// its absence itself.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "mock":
	case "deepseek":
		// DeepSeek speaks the OpenAI protocol but has no default endpoint.
		if c.LLM.BaseURL == "" {
			return errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	if c.LLM.TimeoutSeconds < 0 {
		return errors.New("llm.timeout_seconds must not be negative")
	}
	if c.HistoryWindow != nil && *c.HistoryWindow < 0 {
		return errors.New("history_window must not be negative")
	}
	if c.SessionTTLMinutes < 0 {
		return errors.New("session_ttl_minutes must not be negative")
	}
	return nil
}

func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c Config) Window() int {
	if c.HistoryWindow == nil {
		return DefaultHistoryWindow
	}
	return *c.HistoryWindow
}
