// Package config loads the runtime configuration from the environment,
// an optional YAML file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nullvoyager/voyager/pkg/persistence"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// DefaultMaxSteps is the per-turn cap on model calls.
const DefaultMaxSteps = 10

// Config holds all configuration values.
type Config struct {
	// Model provider.
	AIProvider string `mapstructure:"AI_PROVIDER"`
	AIAPIKey   string `mapstructure:"AI_PROVIDER_API_KEY"`
	ModelID    string `mapstructure:"MODEL_ID"`

	// Tool providers.
	AmadeusClientID     string `mapstructure:"AMADEUS_CLIENT_ID"`
	AmadeusClientSecret string `mapstructure:"AMADEUS_CLIENT_SECRET"`
	AmadeusBaseURL      string `mapstructure:"AMADEUS_BASE_URL"`
	GooglePlacesAPIKey  string `mapstructure:"GOOGLE_PLACES_API_KEY"`

	// Server.
	Port      int    `mapstructure:"VOYAGER_PORT"`
	LogLevel  string `mapstructure:"VOYAGER_LOG_LEVEL"`
	LogFormat string `mapstructure:"VOYAGER_LOG_FORMAT"`
	LogFile   string `mapstructure:"VOYAGER_LOG_FILE"`

	// Storage.
	Store             string        `mapstructure:"VOYAGER_STORE"`
	StoreDir          string        `mapstructure:"VOYAGER_STORE_DIR"`
	StoreTTL          time.Duration `mapstructure:"VOYAGER_STORE_TTL"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int           `mapstructure:"REDIS_DB"`
	RedisPrefix       string        `mapstructure:"REDIS_PREFIX"`
	DistributedLock   bool          `mapstructure:"VOYAGER_DISTRIBUTED_LOCK"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	StateKey          string        `mapstructure:"VOYAGER_STATE_KEY"`
	StateFallbackKeys []string      `mapstructure:"VOYAGER_STATE_FALLBACK_KEYS"`

	// Conversation limits.
	MaxSteps          int           `mapstructure:"VOYAGER_MAX_STEPS"`
	ToolTimeout       time.Duration `mapstructure:"VOYAGER_TOOL_TIMEOUT"`
	ToolRatePerMinute int           `mapstructure:"VOYAGER_TOOL_RATE_PER_MINUTE"`
}

// defaults lists every recognized key so that environment variables are picked up
// by Unmarshal even without a config file.
var defaults = map[string]any{
	"AI_PROVIDER":                  ProviderOpenAI,
	"AI_PROVIDER_API_KEY":          "",
	"MODEL_ID":                     "",
	"AMADEUS_CLIENT_ID":            "",
	"AMADEUS_CLIENT_SECRET":        "",
	"AMADEUS_BASE_URL":             "https://test.api.amadeus.com",
	"GOOGLE_PLACES_API_KEY":        "",
	"VOYAGER_PORT":                 8787,
	"VOYAGER_LOG_LEVEL":            "info",
	"VOYAGER_LOG_FORMAT":           "text",
	"VOYAGER_LOG_FILE":             "",
	"VOYAGER_STORE":                StoreMemory,
	"VOYAGER_STORE_DIR":            ".voyager/sessions",
	"VOYAGER_STORE_TTL":            "0s",
	"REDIS_ADDR":                   "localhost:6379",
	"REDIS_PASSWORD":               "",
	"REDIS_DB":                     0,
	"REDIS_PREFIX":                 "voyager:",
	"VOYAGER_DISTRIBUTED_LOCK":     false,
	"DATABASE_URL":                 "",
	"VOYAGER_STATE_KEY":            "",
	"VOYAGER_STATE_FALLBACK_KEYS":  []string{},
	"VOYAGER_MAX_STEPS":            DefaultMaxSteps,
	"VOYAGER_TOOL_TIMEOUT":         "10s",
	"VOYAGER_TOOL_RATE_PER_MINUTE": 60,
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"port":      "VOYAGER_PORT",
	"log-level": "VOYAGER_LOG_LEVEL",
	"log-file":  "VOYAGER_LOG_FILE",
	"store":     "VOYAGER_STORE",
	"store-dir": "VOYAGER_STORE_DIR",
	"provider":  "AI_PROVIDER",
	"model":     "MODEL_ID",
	"max-steps": "VOYAGER_MAX_STEPS",
}

// Load reads configuration. Precedence: flags that were set, environment, file, defaults.
// configFile may be empty, in which case "voyager.yaml" is looked up in the working
// directory and silently skipped when absent.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("voyager")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.AIProvider = strings.ToLower(strings.TrimSpace(cfg.AIProvider))
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	return &cfg, nil
}

// Validate checks enumerations and cross-field requirements.
func (c *Config) Validate() error {
	switch c.AIProvider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q (want openai, anthropic or gemini)", c.AIProvider)
	}

	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("VOYAGER_STORE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown VOYAGER_STORE %q", c.Store)
	}

	if c.DistributedLock && c.Store != StoreRedis {
		return errors.New("VOYAGER_DISTRIBUTED_LOCK requires VOYAGER_STORE=redis")
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("VOYAGER_MAX_STEPS must be at least 1, got %d", c.MaxSteps)
	}
	if c.ToolRatePerMinute < 0 {
		return fmt.Errorf("VOYAGER_TOOL_RATE_PER_MINUTE must not be negative, got %d", c.ToolRatePerMinute)
	}
	if _, err := c.Encryption(); err != nil {
		return err
	}
	return nil
}

// Encryption returns the at-rest encryption keys, or nil when encryption is off.
func (c *Config) Encryption() (*persistence.EncryptionConfig, error) {
	if c.StateKey == "" {
		return nil, nil
	}
	active, err := persistence.DecodeKey(c.StateKey)
	if err != nil {
		return nil, fmt.Errorf("VOYAGER_STATE_KEY: %w", err)
	}
	enc := &persistence.EncryptionConfig{ActiveKey: active}
	for i, s := range c.StateFallbackKeys {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		k, err := persistence.DecodeKey(s)
		if err != nil {
			return nil, fmt.Errorf("VOYAGER_STATE_FALLBACK_KEYS[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, k)
	}
	return enc, nil
}

// HasAmadeus reports whether Amadeus credentials are configured.
func (c *Config) HasAmadeus() bool {
	return c.AmadeusClientID != "" && c.AmadeusClientSecret != ""
}
