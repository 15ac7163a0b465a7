// Package config describes the server configuration and loads it from
// defaults, an optional YAML document and RAWR_ environment variables, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Keksclan/goRawrStrategy/breaker"
	"github.com/Keksclan/goRawrStrategy/retry"
	"github.com/Keksclan/goRawrStrategy/security"
)

// LogFormat selects the log encoder.
type LogFormat int

const (
	LogTextFormat LogFormat = iota
	LogJSONFormat
)

func (f LogFormat) String() string {
	if f == LogJSONFormat {
		return "json"
	}
	return "text"
}

// UnmarshalText accepts "text" and "json".
func (f *LogFormat) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "text", "":
		*f = LogTextFormat
	case "json":
		*f = LogJSONFormat
	default:
		return fmt.Errorf("unknown log format %q", text)
	}
	return nil
}

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Retry     retry.Config    `koanf:"retry"`
	IPBlock   IPBlockConfig   `koanf:"ip_block"`
	Tracing   ToggleConfig    `koanf:"tracing"`
	Metrics   ToggleConfig    `koanf:"metrics"`
}

type LogConfig struct {
	Format LogFormat     `koanf:"format"`
	Level  zerolog.Level `koanf:"level"`
}

type ServerConfig struct {
	Address  string `koanf:"address"`
	Recovery bool   `koanf:"recovery"`
	WhoAmI   bool   `koanf:"whoami"`
}

// AuthConfig configures how strategies are run for every call.
type AuthConfig struct {
	// DefaultStrategies run for methods whose policy names none.
	DefaultStrategies []string `koanf:"default_strategies"`
	// Required rejects calls no strategy authenticated.
	Required bool `koanf:"required"`
	// Timeout bounds the wait for a single strategy.
	Timeout  time.Duration  `koanf:"timeout"`
	Policies []PolicyConfig `koanf:"policies"`
}

// PolicyConfig is one method group and its policy.
type PolicyConfig struct {
	Name         string         `koanf:"name"`
	Exact        []string       `koanf:"exact"`
	Prefix       []string       `koanf:"prefix"`
	Regex        []string       `koanf:"regex"`
	Strategies   []string       `koanf:"strategies"`
	AuthRequired bool           `koanf:"auth_required"`
	Timeout      time.Duration  `koanf:"timeout"`
	Options      map[string]any `koanf:"options"`
}

type CacheConfig struct {
	// L1MaxCost is the entry capacity of the in-process cache; zero
	// disables it.
	L1MaxCost int64       `koanf:"l1_max_cost"`
	Redis     RedisConfig `koanf:"redis"`
	// AuthTTL caches successful strategy outcomes for this long; zero
	// disables outcome caching.
	AuthTTL time.Duration `koanf:"auth_ttl"`
}

// RedisConfig enables the Redis layer when Addr is set.
type RedisConfig struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// RateLimitConfig limits authentication attempts per client address. A
// zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// BreakerConfig guards every strategy with its own circuit breaker.
type BreakerConfig struct {
	Enabled            bool          `koanf:"enabled"`
	FailureThreshold   int           `koanf:"failure_threshold"`
	OpenTimeout        time.Duration `koanf:"open_timeout"`
	HalfOpenMaxSuccess int           `koanf:"half_open_max_success"`
}

// Breaker converts c for breaker.New.
func (c BreakerConfig) Breaker() breaker.Config {
	return breaker.Config{
		FailureThreshold:   c.FailureThreshold,
		OpenTimeout:        c.OpenTimeout,
		HalfOpenMaxSuccess: c.HalfOpenMaxSuccess,
	}
}

// IPBlockConfig checks client addresses before any strategy runs.
type IPBlockConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Mode           security.Mode `koanf:"mode"`
	CIDRs          []string      `koanf:"cidrs"`
	TrustedProxies []string      `koanf:"trusted_proxies"`
	HeaderPriority []string      `koanf:"header_priority"`
}

// Blocker converts c for security.NewIPBlocker.
func (c IPBlockConfig) Blocker() security.Config {
	return security.Config{
		Mode:           c.Mode,
		CIDRs:          c.CIDRs,
		TrustedProxies: c.TrustedProxies,
		HeaderPriority: c.HeaderPriority,
	}
}

type ToggleConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the configuration used for every key the loaded sources
// leave unset.
func Default() Config {
	return Config{
		Log: LogConfig{Format: LogTextFormat, Level: zerolog.InfoLevel},
		Server: ServerConfig{
			Address:  ":50051",
			Recovery: true,
		},
		Cache: CacheConfig{L1MaxCost: 10_000},
		Breaker: BreakerConfig{
			FailureThreshold:   5,
			OpenTimeout:        30 * time.Second,
			HalfOpenMaxSuccess: 1,
		},
		Retry: retry.Config{
			MaxAttempts: 1,
			BaseDelay:   50 * time.Millisecond,
			MaxDelay:    time.Second,
			Jitter:      0.2,
		},
	}
}

var (
	ErrInvalidPolicy = errors.New("invalid policy")
	ErrInvalidValue  = errors.New("invalid value")
)

// Validate reports every problem found in c.
func (c *Config) Validate() error {
	var errs []error

	seen := make(map[string]bool, len(c.Auth.Policies))
	for i, p := range c.Auth.Policies {
		switch {
		case p.Name == "":
			errs = append(errs, fmt.Errorf("%w: auth.policies[%d] has no name", ErrInvalidPolicy, i))
		case seen[p.Name]:
			errs = append(errs, fmt.Errorf("%w: duplicate policy %q", ErrInvalidPolicy, p.Name))
		}
		seen[p.Name] = true

		if len(p.Exact)+len(p.Prefix)+len(p.Regex) == 0 {
			errs = append(errs, fmt.Errorf("%w: policy %q matches no method", ErrInvalidPolicy, p.Name))
		}
		for _, expr := range p.Regex {
			if _, err := regexp.Compile(expr); err != nil {
				errs = append(errs, fmt.Errorf("%w: policy %q: %w", ErrInvalidPolicy, p.Name, err))
			}
		}
	}

	if c.RateLimit.RPS < 0 || (c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1) {
		errs = append(errs, fmt.Errorf("%w: rate_limit needs rps >= 0 and burst >= 1", ErrInvalidValue))
	}
	if c.Cache.AuthTTL > 0 && c.Cache.L1MaxCost <= 0 && c.Cache.Redis.Addr == "" {
		errs = append(errs, fmt.Errorf("%w: cache.auth_ttl needs l1_max_cost or redis.addr", ErrInvalidValue))
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		errs = append(errs, fmt.Errorf("%w: retry.jitter must be within [0, 1]", ErrInvalidValue))
	}

	return errors.Join(errs...)
}
