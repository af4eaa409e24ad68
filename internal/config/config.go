// Package config handles application configuration using Viper.
// Values come from defaults, an optional YAML file, a .env file and environment
// variables, merged in that priority order (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported LLM providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config is the root configuration struct.
// `mapstructure` tags tell Viper how to map YAML/env keys to struct fields.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type LLMConfig struct {
	// Provider selects the backend used by every task: gemini, anthropic or openai.
	Provider  string          `mapstructure:"provider"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
}

// BaseURL fields override the provider endpoint, e.g. for a proxy.

type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
	BaseURL   string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// EngineConfig tunes the request executor. The defaults favour unattended
// reliability on free-tier quotas over latency.
type EngineConfig struct {
	MinInterval  time.Duration `mapstructure:"min_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	MaxPageChars int           `mapstructure:"max_page_chars"`
}

type ScraperConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	// Render fetches pages through headless Chrome instead of a plain GET.
	Render bool `mapstructure:"render"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	ExportDir    string `mapstructure:"export_dir"`
	// Audit enables the llm_calls table. Only call metadata is written.
	Audit bool `mapstructure:"audit"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type AuthConfig struct {
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
// A .env file in the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash-lite")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.anthropic.max_tokens", 4096)
	v.SetDefault("llm.openai.model", "gpt-4o")
	v.SetDefault("engine.min_interval", 6*time.Second)
	v.SetDefault("engine.max_attempts", 15)
	v.SetDefault("engine.cooldown", 65*time.Second)
	v.SetDefault("engine.max_page_chars", 8000)
	v.SetDefault("scraper.timeout", 10*time.Second)
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (compatible; market-creation/1.0)")
	v.SetDefault("scraper.render", false)
	v.SetDefault("storage.database_path", "./storage/market-creation.db")
	v.SetDefault("storage.export_dir", "./exports")
	v.SetDefault("storage.audit", true)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.write_timeout", 20*time.Minute)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("rate_limit.requests_per_second", 1)
	v.SetDefault("rate_limit.burst", 3)
	v.SetDefault("log.level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// A missing default config file is fine; an explicit path must exist.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// MARKET_ENGINE_COOLDOWN=30s → engine.cooldown
	v.SetEnvPrefix("MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider SDKs document these names, so accept them as-is.
	_ = v.BindEnv("llm.gemini.api_key", "MARKET_LLM_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("llm.anthropic.api_key", "MARKET_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("llm.openai.api_key", "MARKET_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside the engine.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	if c.Engine.MinInterval < 0 {
		return fmt.Errorf("engine.min_interval must not be negative")
	}
	if c.Engine.MaxAttempts <= 0 {
		return fmt.Errorf("engine.max_attempts must be positive")
	}
	if c.Engine.Cooldown < 0 {
		return fmt.Errorf("engine.cooldown must not be negative")
	}
	if c.Engine.MaxPageChars <= 0 {
		return fmt.Errorf("engine.max_page_chars must be positive")
	}
	return nil
}

// APIKey returns the credential for the selected provider.
func (l LLMConfig) APIKey() string {
	switch l.Provider {
	case ProviderAnthropic:
		return l.Anthropic.APIKey
	case ProviderOpenAI:
		return l.OpenAI.APIKey
	default:
		return l.Gemini.APIKey
	}
}

// SetAPIKey stores a credential for the selected provider, e.g. one typed at a prompt.
func (l *LLMConfig) SetAPIKey(key string) {
	switch l.Provider {
	case ProviderAnthropic:
		l.Anthropic.APIKey = key
	case ProviderOpenAI:
		l.OpenAI.APIKey = key
	default:
		l.Gemini.APIKey = key
	}
}

// Model returns the model identifier for the selected provider.
func (l LLMConfig) Model() string {
	switch l.Provider {
	case ProviderAnthropic:
		return l.Anthropic.Model
	case ProviderOpenAI:
		return l.OpenAI.Model
	default:
		return l.Gemini.Model
	}
}

// SetModel overrides the model for the selected provider.
func (l *LLMConfig) SetModel(model string) {
	switch l.Provider {
	case ProviderAnthropic:
		l.Anthropic.Model = model
	case ProviderOpenAI:
		l.OpenAI.Model = model
	default:
		l.Gemini.Model = model
	}
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
