// Package config reads the collector configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Sternrassler/fund-holdings-collector/pkg/client"
	"github.com/Sternrassler/fund-holdings-collector/pkg/daterange"
	"github.com/Sternrassler/fund-holdings-collector/pkg/logging"
	"github.com/Sternrassler/fund-holdings-collector/pkg/ratelimit"
	"github.com/joho/godotenv"
)

// Defaults not owned by another package.
const (
	DefaultDataDir   = "docs/data"
	DefaultStartDate = "2025-05-02"
)

// Config holds all collector configuration
type Config struct {
	API     APIConfig
	Storage StorageConfig
	Redis   RedisConfig
	Log     LogConfig

	// StartDate is the first date collected when no -start flag is given
	StartDate time.Time

	// Pacing is the pause between consecutive requests
	Pacing time.Duration

	// MetricsFile receives a Prometheus textfile after each run (optional)
	MetricsFile string
}

// APIConfig holds upstream API configuration
type APIConfig struct {
	Endpoint    string
	FundID      string
	Timeout     time.Duration
	MaxAttempts int
}

// StorageConfig holds partition storage configuration
type StorageConfig struct {
	DataDir string
}

// RedisConfig holds response cache configuration. An empty URL disables the cache.
type RedisConfig struct {
	URL string
	TTL time.Duration
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  logging.LogLevel
	Pretty bool
}

// LoadDotEnv loads variables from a .env file without overriding the
// environment. A missing default file is not an error; a missing explicit
// path is.
func LoadDotEnv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		API: APIConfig{
			Endpoint:    getEnv("HOLDINGS_API_URL", client.DefaultEndpoint),
			FundID:      getEnv("HOLDINGS_FUND_ID", client.DefaultFundID),
			Timeout:     getDuration("HOLDINGS_TIMEOUT", client.DefaultTimeout, &errs),
			MaxAttempts: getInt("HOLDINGS_MAX_ATTEMPTS", 1, &errs),
		},
		Storage: StorageConfig{
			DataDir: getEnv("HOLDINGS_DATA_DIR", DefaultDataDir),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
			TTL: getDuration("HOLDINGS_CACHE_TTL", client.DefaultCacheTTL, &errs),
		},
		Log: LogConfig{
			Pretty: getBool("LOG_PRETTY", false, &errs),
		},
		Pacing:      getDuration("HOLDINGS_PACING", ratelimit.DefaultInterval, &errs),
		MetricsFile: getEnv("HOLDINGS_METRICS_FILE", ""),
	}

	level, err := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	cfg.Log.Level = level

	start, err := daterange.ParseDate(getEnv("HOLDINGS_START_DATE", DefaultStartDate))
	if err != nil {
		errs = append(errs, fmt.Errorf("HOLDINGS_START_DATE: %w", err))
	}
	cfg.StartDate = start

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that parse but cannot work.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return fmt.Errorf("HOLDINGS_DATA_DIR must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("HOLDINGS_TIMEOUT must be positive (got %s)", c.API.Timeout)
	}
	if c.API.MaxAttempts < 1 {
		return fmt.Errorf("HOLDINGS_MAX_ATTEMPTS must be >= 1 (got %d)", c.API.MaxAttempts)
	}
	if c.Pacing < 0 {
		return fmt.Errorf("HOLDINGS_PACING must not be negative (got %s)", c.Pacing)
	}
	if c.Redis.URL != "" && c.Redis.TTL <= 0 {
		return fmt.Errorf("HOLDINGS_CACHE_TTL must be positive when REDIS_URL is set")
	}
	return nil
}

// ClientConfig derives the fetcher configuration. The cache is attached by
// the caller.
func (c *Config) ClientConfig() client.Config {
	cc := client.DefaultConfig()
	cc.Endpoint = c.API.Endpoint
	cc.FundID = c.API.FundID
	cc.Timeout = c.API.Timeout
	cc.Retry.MaxAttempts = c.API.MaxAttempts
	cc.CacheTTL = c.Redis.TTL
	return cc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}
