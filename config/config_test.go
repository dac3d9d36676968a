package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func validEnv() map[string]string {
	return map[string]string{
		"API_URL":        "https://accounts.example.com",
		"SESSION_SECRET": testSecret,
	}
}

func TestLoadFrom_DefaultsWithRequiredValues(t *testing.T) {
	cfg, err := LoadFrom(lookupMap(validEnv()), "")
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "https://accounts.example.com", cfg.APIURL)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, ":memory:", cfg.SessionStoreDSN)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	env := validEnv()
	env["PORT"] = "3000"
	env["SESSION_TTL"] = "90m"
	env["COOKIE_SECURE"] = "true"
	env["APP_ENV"] = "production"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.example.com, https://b.example.com"
	env["OAUTH_PROVIDERS"] = "google,github"
	env["LOG_FORMAT"] = "console"

	cfg, err := LoadFrom(lookupMap(env), "")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"google", "github"}, cfg.OAuthProviders)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadFrom_ReportsAllViolations(t *testing.T) {
	env := map[string]string{
		"API_URL":        "not a url",
		"SESSION_SECRET": "short",
		"LOG_LEVEL":      "verbose",
		"SESSION_TTL":    "forever",
		"PORT":           "99999",
	}

	_, err := LoadFrom(lookupMap(env), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	keys := map[string]bool{}
	for _, v := range Violations(err) {
		var fe *FieldError
		require.ErrorAs(t, v, &fe)
		keys[fe.Key] = true
	}
	for _, k := range []string{"API_URL", "SESSION_SECRET", "LOG_LEVEL", "SESSION_TTL", "PORT"} {
		assert.True(t, keys[k], "expected violation for %s", k)
	}
}

func TestLoadFrom_MissingRequired(t *testing.T) {
	_, err := LoadFrom(lookupMap(map[string]string{}), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_URL: required")
	assert.Contains(t, err.Error(), "SESSION_SECRET: required")
}

func TestLoadFrom_ProductionRequiresSecureCookies(t *testing.T) {
	env := validEnv()
	env["APP_ENV"] = "production"

	_, err := LoadFrom(lookupMap(env), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COOKIE_SECURE")
}

func TestLoadFrom_YAMLFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
api_url: "https://yaml.example.com"
session_ttl: 2h
log_level: debug
oauth_providers: [google]
`), 0o600))

	env := map[string]string{
		"SESSION_SECRET": testSecret,
		"API_URL":        "https://env.example.com",
	}
	cfg, err := LoadFrom(lookupMap(env), path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "https://env.example.com", cfg.APIURL)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"google"}, cfg.OAuthProviders)
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`
# comment
LHC_TEST_FROM_FILE="from file"
export LHC_TEST_EXPORTED=yes
LHC_TEST_ALREADY_SET=file
not-a-pair
`), 0o600))

	t.Setenv("LHC_TEST_ALREADY_SET", "env")
	t.Setenv("LHC_TEST_FROM_FILE", "")
	os.Unsetenv("LHC_TEST_FROM_FILE")
	t.Setenv("LHC_TEST_EXPORTED", "")
	os.Unsetenv("LHC_TEST_EXPORTED")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from file", os.Getenv("LHC_TEST_FROM_FILE"))
	assert.Equal(t, "yes", os.Getenv("LHC_TEST_EXPORTED"))
	assert.Equal(t, "env", os.Getenv("LHC_TEST_ALREADY_SET"))
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
