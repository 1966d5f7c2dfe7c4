// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package config

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"

	"github.com/spf13/viper"
)

// Config is the top-level watchdeck configuration.
type Config struct {
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Networking NetworkingConfig `mapstructure:"networking"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
	Storage    StorageConfig    `mapstructure:"storage"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

// UpstreamConfig points watchdeck at the metrics API it renders.
type UpstreamConfig struct {
	URL             string        `mapstructure:"url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryAttempts   uint          `mapstructure:"retry_attempts"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
	HealthCooldown  time.Duration `mapstructure:"health_cooldown"`
	PollRate        float64       `mapstructure:"poll_rate"`
	PollBurst       int           `mapstructure:"poll_burst"`
}

// NetworkingConfig controls how watchdeck listens for connections.
type NetworkingConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// TrustedProxies lists CIDR ranges whose X-Forwarded-For headers are
	// honored. Empty means forwarded headers are ignored.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// DashboardConfig controls dashboard view behavior.
type DashboardConfig struct {
	// PerPage is the default page size for target tables.
	PerPage int `mapstructure:"per_page"`
	// PoolLimit is the pool count above which the board defaults to the
	// first pool and flags the page as limited.
	PoolLimit int `mapstructure:"pool_limit"`
	// PollInterval is the refresh interval for the SSE stream and TUI.
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// StorageConfig selects the UI-state backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig configures per-IP request limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	MaxVisitors       int     `mapstructure:"max_visitors"`
}

// AuthConfig holds API bearer tokens. Empty means unauthenticated.
type AuthConfig struct {
	Tokens []string `mapstructure:"tokens"`
}

// SetDefaults installs watchdeck's default values on the given Viper.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("upstream.url", "http://127.0.0.1:9090")
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.retry_attempts", 3)
	v.SetDefault("upstream.breaker_failures", 5)
	v.SetDefault("upstream.breaker_timeout", "30s")
	v.SetDefault("upstream.health_cooldown", "30s")

	v.SetDefault("networking.listen", "127.0.0.1:9464")

	v.SetDefault("dashboard.per_page", 20)
	v.SetDefault("dashboard.pool_limit", 20)
	v.SetDefault("dashboard.poll_interval", "10s")

	v.SetDefault("storage.backend", "memory")
}

// SetupEnv binds WATCHDECK_* environment variables.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("WATCHDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix WATCHDECK_).
func Load(path string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, deckerr.Errorf(deckerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, deckerr.Errorf(deckerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// FromViper unmarshals and validates a configuration from an existing Viper,
// used by the CLI where flag/env/file precedence is already resolved.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, deckerr.Errorf(deckerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}
	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a slice
// of all validation errors found, collecting all issues rather than
// stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateUpstream()...)
	errs = append(errs, c.validateNetworking()...)
	errs = append(errs, c.validateDashboard()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateRateLimit()...)

	return errs
}

func (c *Config) validateUpstream() []error {
	var errs []error

	if c.Upstream.URL == "" {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue, "config: upstream.url must not be empty"))
	} else {
		u, err := url.Parse(c.Upstream.URL)
		switch {
		case err != nil:
			errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
				"config: upstream.url is not a valid URL, got %q: %w", c.Upstream.URL, err))
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
				"config: upstream.url scheme must be http or https, got %q", u.Scheme))
		case u.Host == "":
			errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
				"config: upstream.url must include a host, got %q", c.Upstream.URL))
		}
	}

	if c.Upstream.Timeout < 0 {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: upstream.timeout must not be negative, got %s", c.Upstream.Timeout))
	}
	if c.Upstream.PollRate < 0 {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: upstream.poll_rate must not be negative, got %g", c.Upstream.PollRate))
	}

	return errs
}

func (c *Config) validateNetworking() []error {
	var errs []error

	if c.Networking.Listen == "" {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue, "config: networking.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Networking.Listen)
	if err != nil {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: networking.listen must be a valid host:port address, got %q: %w",
			c.Networking.Listen, err))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: networking.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: networking.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateDashboard() []error {
	var errs []error

	if c.Dashboard.PerPage <= 0 {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: dashboard.per_page must be greater than 0, got %d", c.Dashboard.PerPage))
	}
	if c.Dashboard.PoolLimit <= 0 {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: dashboard.pool_limit must be greater than 0, got %d", c.Dashboard.PoolLimit))
	}
	if c.Dashboard.PollInterval < time.Second {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: dashboard.poll_interval must be at least 1s, got %s", c.Dashboard.PollInterval))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [memory, sqlite], got %q", c.Storage.Backend))
	}
	if c.Storage.Backend == "sqlite" && c.Storage.Path == "" {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: storage.path is required for the sqlite backend"))
	}

	return errs
}

func (c *Config) validateRateLimit() []error {
	var errs []error

	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: ratelimit.requests_per_second must not be negative, got %g", c.RateLimit.RequestsPerSecond))
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: ratelimit.burst must be positive when a rate is set, got %d", c.RateLimit.Burst))
	}
	if c.RateLimit.MaxVisitors < 0 {
		errs = append(errs, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue,
			"config: ratelimit.max_visitors must not be negative, got %d", c.RateLimit.MaxVisitors))
	}

	return errs
}
