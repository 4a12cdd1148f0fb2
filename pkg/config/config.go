// Package config loads the settings of the urlview tool from a JSON file that
// may contain comments and trailing commas.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/href"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/jaxron/urlview/pkg/query"
	"github.com/tailscale/hujson"
)

// FileName is the config file looked up in the working directory.
const FileName = ".urlview.json"

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

// Duration is a time.Duration written as a string such as "250ms".
type Duration time.Duration

// UnmarshalJSON parses a quoted duration string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// Config holds all configuration options.
type Config struct {
	// ArrayFormat enables multi-valued query keys. Empty keeps the strict codec.
	ArrayFormat string          `json:"array_format,omitempty"` //nolint:tagliatelle // snake_case for config file
	Stable      *bool           `json:"stable,omitempty"`
	Start       string          `json:"start,omitempty"`
	StateFile   string          `json:"state_file,omitempty"` //nolint:tagliatelle // snake_case for config file
	Redis       RedisConfig     `json:"redis"`
	RateLimit   RateLimitConfig `json:"rate_limit"` //nolint:tagliatelle // snake_case for config file
	Retry       RetryConfig     `json:"retry"`
	LogLevel    string          `json:"log_level,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// RedisConfig selects the Redis-backed shared address.
type RedisConfig struct {
	Addr      string `json:"addr,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// RateLimitConfig throttles navigations. Zero disables it.
type RateLimitConfig struct {
	PerSecond float64 `json:"per_second,omitempty"` //nolint:tagliatelle // snake_case for config file
	Burst     int     `json:"burst,omitempty"`
}

// RetryConfig retries temporary navigation failures. Zero attempts disables it.
type RetryConfig struct {
	MaxAttempts     uint64   `json:"max_attempts,omitempty"`     //nolint:tagliatelle // snake_case for config file
	InitialInterval Duration `json:"initial_interval,omitempty"` //nolint:tagliatelle // snake_case for config file
	MaxInterval     Duration `json:"max_interval,omitempty"`     //nolint:tagliatelle // snake_case for config file
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Start:     address.DefaultStart,
		StateFile: ".urlview-state.json",
		Redis:     RedisConfig{Namespace: "default"},
		Retry: RetryConfig{
			InitialInterval: Duration(100 * time.Millisecond),
			MaxInterval:     Duration(2 * time.Second),
		},
		LogLevel: "warn",
	}
}

// Load reads the file at path over the defaults and validates the result.
// When mustExist is false a missing file yields the defaults.
func Load(path string, mustExist bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Config{}, fmt.Errorf("%w: %s", errors.ErrConfigFileNotFound, path)
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("%w: %s: %w", errors.ErrConfigFileRead, path, err)
	}

	if err := Parse(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes JSONC data into cfg, keeping the values of cfg for keys the
// data does not set, and validates the result.
func Parse(data []byte, cfg *Config) error {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("%w: invalid JSONC: %w", errors.ErrConfigInvalid, err)
	}
	if err := strictJSON.Unmarshal(standardized, cfg); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConfigInvalid, err)
	}
	return cfg.Validate()
}

// Validate checks every option and fails with errors.ErrConfigInvalid.
func (c *Config) Validate() error {
	if _, err := c.Codec(); err != nil {
		return fmt.Errorf("%w: array_format: %w", errors.ErrConfigInvalid, err)
	}
	if _, err := href.Split(c.Start); err != nil {
		return fmt.Errorf("%w: start: %w", errors.ErrConfigInvalid, err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: log_level: %w", errors.ErrConfigInvalid, err)
	}
	if c.Redis.Addr == "" && c.StateFile == "" {
		return fmt.Errorf("%w: one of state_file or redis.addr is required", errors.ErrConfigInvalid)
	}
	if c.Redis.Addr != "" && c.Redis.Namespace == "" {
		return fmt.Errorf("%w: redis.namespace must not be empty", errors.ErrConfigInvalid)
	}
	if c.RateLimit.PerSecond < 0 {
		return fmt.Errorf("%w: rate_limit.per_second must not be negative", errors.ErrConfigInvalid)
	}
	if c.RateLimit.PerSecond > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("%w: rate_limit.burst must be at least 1", errors.ErrConfigInvalid)
	}
	if c.Retry.MaxAttempts > 0 && (c.Retry.InitialInterval <= 0 || c.Retry.MaxInterval < c.Retry.InitialInterval) {
		return fmt.Errorf("%w: retry intervals must be positive and max_interval at least initial_interval", errors.ErrConfigInvalid)
	}
	return nil
}

// Codec returns the query options described by array_format and stable.
func (c *Config) Codec() (query.Options, error) {
	opts := query.StrictOptions
	if c.ArrayFormat != "" {
		f, err := query.ParseFormat(c.ArrayFormat)
		if err != nil {
			return query.Options{}, err
		}
		opts = query.Permissive(f)
	}
	if c.Stable != nil {
		opts.Stable = *c.Stable
	}
	return opts, nil
}

// Level returns the minimum log level.
func (c *Config) Level() (logger.Level, error) {
	return logger.ParseLevel(c.LogLevel)
}
