/*
config.go - Process configuration

PURPOSE:
  Builds the single Config value used by the server and CLI. The value is
  constructed once at startup, validated, and passed explicitly to every
  collaborator that needs it. Nothing reads the environment after Load.

SOURCES (highest precedence first):
  1. Process environment
  2. .env file (never overrides variables already set)
  3. YAML file named by CONFIG_FILE
  4. Defaults()

ENVIRONMENT:
  APP_ENV               development | production | test
  ADDR / PORT           listen address (PORT=8080 becomes ":8080")
  PUBLIC_URL            externally visible base URL, used for OAuth redirects
  API_URL               account API base URL (required)
  SESSION_SECRET        cookie signing key, at least 32 bytes (required)
  SESSION_TTL           session lifetime, Go duration
  SESSION_STORE_DSN     sqlite DSN for sessions, "memory" for the map store
  COOKIE_SECURE         mark cookies Secure
  CORS_ALLOWED_ORIGINS  comma separated
  OAUTH_PROVIDERS       comma separated provider names
  LOG_LEVEL             debug | info | warn | error
  LOG_FORMAT            json | console
  REQUEST_TIMEOUT       per-request timeout, Go duration

VALIDATION:
  Every violation is collected (multierr) so a misconfigured deployment
  reports all problems at once instead of one per restart.

SEE ALSO:
  - dotenv.go: .env loading
  - cmd/laborcalc/checkenv.go: CLI entry point for validation
*/
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// MemoryStoreDSN selects the in-process session store.
const MemoryStoreDSN = "memory"

// MinSessionSecretLen is the minimum length of SESSION_SECRET in bytes.
const MinSessionSecretLen = 32

// ErrInvalidConfig is wrapped by every FieldError.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application settings.
type Config struct {
	Env       string `yaml:"env"`
	Addr      string `yaml:"addr"`
	PublicURL string `yaml:"public_url"`

	// External account API
	APIURL string `yaml:"api_url"`

	// Sessions
	SessionSecret   string        `yaml:"session_secret"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	SessionStoreDSN string        `yaml:"session_store_dsn"`
	CookieSecure    bool          `yaml:"cookie_secure"`

	// HTTP
	AllowedOrigins []string      `yaml:"allowed_origins"`
	OAuthProviders []string      `yaml:"oauth_providers"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// FieldError describes one invalid setting.
type FieldError struct {
	Key    string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidConfig
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Env:             EnvDevelopment,
		Addr:            ":8080",
		PublicURL:       "http://localhost:8080",
		SessionTTL:      12 * time.Hour,
		SessionStoreDSN: ":memory:",
		AllowedOrigins:  []string{"http://localhost:8080"},
		RequestTimeout:  30 * time.Second,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load reads dotenvPath (if it exists), then CONFIG_FILE (if set), applies
// the process environment and validates the result.
func Load(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := LoadDotEnv(dotenvPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	return LoadFrom(os.LookupEnv, os.Getenv("CONFIG_FILE"))
}

// LoadFrom builds a Config from an optional YAML file and an environment
// lookup function, then validates it.
func LoadFrom(lookup func(string) (string, bool), yamlPath string) (*Config, error) {
	cfg := Defaults()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	err := cfg.applyEnv(lookup)
	err = multierr.Append(err, cfg.Validate())
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from the environment. Parse failures are
// returned as FieldErrors.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = splitList(v)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = multierr.Append(errs, &FieldError{Key: key, Reason: "not a duration"})
				return
			}
			*dst = d
		}
	}

	str("APP_ENV", &c.Env)
	str("PUBLIC_URL", &c.PublicURL)
	str("API_URL", &c.APIURL)
	str("SESSION_SECRET", &c.SessionSecret)
	str("SESSION_STORE_DSN", &c.SessionStoreDSN)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	list("CORS_ALLOWED_ORIGINS", &c.AllowedOrigins)
	list("OAUTH_PROVIDERS", &c.OAuthProviders)
	dur("SESSION_TTL", &c.SessionTTL)
	dur("REQUEST_TIMEOUT", &c.RequestTimeout)

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			errs = multierr.Append(errs, &FieldError{Key: "PORT", Reason: "must be an integer between 1 and 65535"})
		} else {
			c.Addr = fmt.Sprintf(":%d", port)
		}
	}
	str("ADDR", &c.Addr)

	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = multierr.Append(errs, &FieldError{Key: "COOKIE_SECURE", Reason: "must be a boolean"})
		} else {
			c.CookieSecure = b
		}
	}

	return errs
}

// Validate checks every setting and returns all violations combined.
func (c *Config) Validate() error {
	var errs error
	fail := func(key, reason string) {
		errs = multierr.Append(errs, &FieldError{Key: key, Reason: reason})
	}

	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		fail("APP_ENV", "must be one of development, production, test")
	}

	if c.Addr == "" {
		fail("ADDR", "required")
	}

	if c.APIURL == "" {
		fail("API_URL", "required")
	} else if !isHTTPURL(c.APIURL) {
		fail("API_URL", "must be an absolute http(s) URL")
	}

	if c.PublicURL != "" && !isHTTPURL(c.PublicURL) {
		fail("PUBLIC_URL", "must be an absolute http(s) URL")
	}

	if c.SessionSecret == "" {
		fail("SESSION_SECRET", "required")
	} else if len(c.SessionSecret) < MinSessionSecretLen {
		fail("SESSION_SECRET", fmt.Sprintf("must be at least %d characters", MinSessionSecretLen))
	}

	if c.SessionTTL <= 0 {
		fail("SESSION_TTL", "must be positive")
	}
	if c.SessionStoreDSN == "" {
		fail("SESSION_STORE_DSN", "required")
	}
	if c.RequestTimeout <= 0 {
		fail("REQUEST_TIMEOUT", "must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		fail("LOG_LEVEL", "must be one of debug, info, warn, error")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		fail("LOG_FORMAT", "must be json or console")
	}

	for _, origin := range c.AllowedOrigins {
		if origin != "*" && !isHTTPURL(origin) {
			fail("CORS_ALLOWED_ORIGINS", fmt.Sprintf("%q is not an absolute http(s) URL", origin))
		}
	}

	if c.Env == EnvProduction && !c.CookieSecure {
		fail("COOKIE_SECURE", "must be true in production")
	}

	return errs
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Violations flattens a Load/Validate error into its individual parts.
func Violations(err error) []error {
	return multierr.Errors(err)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
