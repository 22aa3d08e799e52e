// Package config loads bkctl configuration from a YAML file and BUILDKITE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/buildkite-client/pkg/buildkite"
	"github.com/Sternrassler/buildkite-client/pkg/client"
	"github.com/Sternrassler/buildkite-client/pkg/logging"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. BUILDKITE_API_TOKEN.
const EnvPrefix = "BUILDKITE"

// Config is the complete bkctl configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
}

// APIConfig configures access to the Buildkite REST API.
type APIConfig struct {
	Token         string        `mapstructure:"token" validate:"required"`
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	UserAgent     string        `mapstructure:"user_agent" validate:"required"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	PageSize      int           `mapstructure:"page_size" validate:"gte=1,lte=100"`
	EnableTracing bool          `mapstructure:"enable_tracing"`
}

// RateLimitConfig configures client-side request pacing.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

// RedisConfig configures the shared rate limit store. An empty address keeps
// rate limit state in process memory.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// Enabled reports whether a redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error disabled"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration from path, or from bkctl.yaml in the working
// directory or $HOME/.config/bkctl when path is empty. A missing default file
// is not an error. Environment variables override file values and overrides
// (keyed like "api.token") override both.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bkctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "bkctl"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	_ = v.BindEnv("api.token")
	_ = v.BindEnv("redis.password")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", client.DefaultBaseURL)
	v.SetDefault("api.user_agent", "bkctl/1.0")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.page_size", 25)
	v.SetDefault("api.enable_tracing", false)

	v.SetDefault("rate_limit.requests_per_second", 3.0)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", string(logging.LevelInfo))
	v.SetDefault("log.pretty", false)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Buildkite returns the library configuration described by c.
func (c *Config) Buildkite() buildkite.Config {
	return buildkite.Config{
		Client: client.Config{
			Token:         c.API.Token,
			BaseURL:       c.API.BaseURL,
			UserAgent:     c.API.UserAgent,
			RateLimit:     c.RateLimit.RequestsPerSecond,
			Burst:         c.RateLimit.Burst,
			Timeout:       c.API.Timeout,
			EnableTracing: c.API.EnableTracing,
		},
		PageSize: c.API.PageSize,
	}
}

// Logging returns the logger configuration described by c.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:  logging.LogLevel(c.Log.Level),
		Pretty: c.Log.Pretty,
	}
}
