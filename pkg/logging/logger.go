// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"

	// LevelDisabled turns logging off.
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel `validate:"oneof=debug info warn error disabled"`

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("logger config validation error: %w", err)
	}
	return nil
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) (zerolog.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = LevelInfo
	}
	cfg.Level = LogLevel(strings.ToLower(string(cfg.Level)))
	if cfg.Level == "warning" {
		cfg.Level = LevelWarn
	}
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), err
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger, nil
}

// ParseLevel converts LogLevel to zerolog.Level. Unknown values map to info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: request flow and iteration detail
//   - Outgoing requests (method, path, request id)
//   - Page fetches and short-page termination
//   - Rate limit state updates (healthy)
//
// Info: normal operation events
//   - CLI startup, configuration source
//
// Warn: conditions that end or slow work without failing the process
//   - Non-2xx responses
//   - Paging sequences ended by a failed fetch
//   - Rate limit throttling, failed rate limit state writes
//
// Error: conditions requiring attention
//   - Transport failures (DNS, TLS, connection reset, timeout)
//   - Requests refused because the rate limit budget is critical
//
// Context Fields:
//   - component: package emitting the line (buildkite-client, pagination, ratelimit)
//   - path: API path without host
//   - status: HTTP status code
//   - error_class: network, client, server, rate_limit, decode
//   - request_id: X-Request-Id sent with the request
//   - sequence: paging sequence name (organizations, pipelines, builds, agents)
//   - page: page number being fetched
//   - remaining: RateLimit-Remaining value
