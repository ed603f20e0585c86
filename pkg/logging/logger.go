// Package logging configures the process-wide zerolog logger used by every
// collector component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

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
)

// Component names attached as the "component" field.
const (
	ComponentCLI       = "cli"
	ComponentCollector = "collector"
	ComponentFetcher   = "fetcher"
	ComponentPacer     = "pacer"
	ComponentStore     = "partition-store"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

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

// ParseLevel validates a level name as read from configuration.
// An empty name means info.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", name)
	}
}

// Setup configures the global zerolog logger. It must run before components
// are constructed, since they derive their loggers from the global one.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(zerologLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
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
// Debug: per-request detail
//   - Cache hit/miss and TTL
//   - Request payload and endpoint
//   - Pacing waits
//
// Info: run progress
//   - Run start and summary
//   - Per-day fetch and parsed record count
//   - Partition saves (incoming, replaced, rows)
//
// Warn: a day yielded no data
//   - Timeouts, non-200 statuses, undecodable bodies
//   - Cache errors (the request still goes upstream)
//
// Error: the run cannot complete
//   - Partition read/write failures
//   - Invalid configuration or date range
//
// Context Fields:
//   - component: cli, collector, fetcher, pacer, partition-store
//   - fund: fund identifier
//   - date: trading date being fetched (YYYY-MM-DD)
//   - month: partition key (YYYY-MM)
//   - error_class: network, client, server, parse
//   - records / rows: record counts
