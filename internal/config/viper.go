// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"

	"fjacquet/merchant-resolver/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override: MERCHANT_LOG_LEVEL, ...
const EnvPrefix = "MERCHANT"

// Backend names accepted in ai.backend.
const (
	BackendGenerativeAI = "generative-ai"
	BackendGenAI        = "genai"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	AI struct {
		Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
		Backend           string `mapstructure:"backend" yaml:"backend"`
		Model             string `mapstructure:"model" yaml:"model"`
		RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
		TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey            string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Resolver struct {
		BatchSize           int     `mapstructure:"batch_size" yaml:"batch_size"`
		MaxRetries          int     `mapstructure:"max_retries" yaml:"max_retries"`
		BackoffBase         float64 `mapstructure:"backoff_base" yaml:"backoff_base"`
		BackoffCapSeconds   int     `mapstructure:"backoff_cap_seconds" yaml:"backoff_cap_seconds"`
		FallbackConcurrency int     `mapstructure:"fallback_concurrency" yaml:"fallback_concurrency"`
	} `mapstructure:"resolver" yaml:"resolver"`

	Rules struct {
		AutoLearn bool   `mapstructure:"auto_learn" yaml:"auto_learn"`
		SeedFile  string `mapstructure:"seed_file" yaml:"seed_file"`
	} `mapstructure:"rules" yaml:"rules"`

	Signs struct {
		Enabled        bool     `mapstructure:"enabled" yaml:"enabled"`
		FlipThreshold  float64  `mapstructure:"flip_threshold" yaml:"flip_threshold"`
		CreditKeywords []string `mapstructure:"credit_keywords" yaml:"credit_keywords"`
	} `mapstructure:"signs" yaml:"signs"`

	Import struct {
		DateFormats []string `mapstructure:"date_formats" yaml:"date_formats"`
	} `mapstructure:"import" yaml:"import"`

	Debug struct {
		Addr string `mapstructure:"addr" yaml:"addr"`
	} `mapstructure:"debug" yaml:"debug"`
}

// DelimiterRune returns the configured CSV delimiter, falling back to a comma.
func (c *Config) DelimiterRune() rune {
	if c.CSV.Delimiter == "" {
		return ','
	}
	return []rune(c.CSV.Delimiter)[0]
}

// InitializeConfig loads configuration from the default locations.
func InitializeConfig() (*Config, error) {
	return LoadConfig("")
}

// LoadConfig loads configuration with hierarchical precedence: defaults,
// then the config file, then MERCHANT_* environment variables. An explicit
// configFile must exist; otherwise config.yaml is searched for and optional.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.merchant-resolver")
		v.AddConfigPath(".merchant-resolver")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. The API key also comes from the unprefixed variable
	if err := v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.path", "finance.db")
	v.SetDefault("csv.delimiter", ",")

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.backend", BackendGenerativeAI)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.requests_per_minute", 60)
	v.SetDefault("ai.timeout_seconds", 120)

	v.SetDefault("resolver.batch_size", 40)
	v.SetDefault("resolver.max_retries", 3)
	v.SetDefault("resolver.backoff_base", 1.6)
	v.SetDefault("resolver.backoff_cap_seconds", 30)
	v.SetDefault("resolver.fallback_concurrency", 4)

	v.SetDefault("rules.auto_learn", true)
	v.SetDefault("rules.seed_file", "")

	v.SetDefault("signs.enabled", true)
	v.SetDefault("signs.flip_threshold", 0.5)
	v.SetDefault("signs.credit_keywords", []string{})

	v.SetDefault("import.date_formats", []string{"2006-01-02", "01/02/2006", "1/2/2006", "01/02/06", "02.01.2006"})

	v.SetDefault("debug.addr", ":8089")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len(config.CSV.Delimiter) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	if strings.TrimSpace(config.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}

	switch config.AI.Backend {
	case BackendGenerativeAI, BackendGenAI:
	default:
		return fmt.Errorf("unknown ai.backend: %s (must be '%s' or '%s')", config.AI.Backend, BackendGenerativeAI, BackendGenAI)
	}

	if config.AI.RequestsPerMinute < 1 {
		return fmt.Errorf("ai.requests_per_minute must be at least 1, got: %d", config.AI.RequestsPerMinute)
	}

	if config.AI.TimeoutSeconds < 1 {
		return fmt.Errorf("ai.timeout_seconds must be at least 1, got: %d", config.AI.TimeoutSeconds)
	}

	if config.Resolver.BatchSize < 1 {
		return fmt.Errorf("resolver.batch_size must be at least 1, got: %d", config.Resolver.BatchSize)
	}

	if config.Resolver.MaxRetries < 0 {
		return fmt.Errorf("resolver.max_retries must not be negative, got: %d", config.Resolver.MaxRetries)
	}

	if config.Resolver.BackoffBase < 1 {
		return fmt.Errorf("resolver.backoff_base must be at least 1, got: %f", config.Resolver.BackoffBase)
	}

	if config.Resolver.BackoffCapSeconds < 0 {
		return fmt.Errorf("resolver.backoff_cap_seconds must not be negative, got: %d", config.Resolver.BackoffCapSeconds)
	}

	if config.Signs.FlipThreshold < 0.0 || config.Signs.FlipThreshold > 1.0 {
		return fmt.Errorf("signs.flip_threshold must be between 0.0 and 1.0, got: %f", config.Signs.FlipThreshold)
	}

	if len(config.Import.DateFormats) == 0 {
		return fmt.Errorf("import.date_formats must list at least one layout")
	}

	return nil
}

// NewLogger builds the application logger from the log section.
func NewLogger(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(config.Log.Level, config.Log.Format)
}
