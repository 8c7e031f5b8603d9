package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	require.Equal(t, "dev", c.App.Env)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "cache", c.Session.Store)
	require.Equal(t, DevSessionSecret, c.Session.Secret)
	require.Equal(t, "generated", c.SecondFactor.Policy)
	require.Equal(t, 6, c.SecondFactor.CodeLength)
	require.Equal(t, 12*time.Hour, Duration(c.Session.TTL))
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	p := writeYAML(t, `
app:
  env: staging
storage:
  driver: postgres
  dsn: postgres://yaml
cache:
  kind: redis
  redis:
    addr: localhost:6379
second_factor:
  code_length: 8
`)
	t.Setenv("STORAGE_DSN", "postgres://env")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("SERVER_TRUSTED_PROXIES", "10.0.0.0/8, ,192.168.1.10")

	c, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	require.Equal(t, "staging", c.App.Env)
	require.Equal(t, "postgres://env", c.Storage.DSN)
	require.Equal(t, "redis", c.Cache.Kind)
	require.Equal(t, 8, c.SecondFactor.CodeLength)
	require.True(t, c.Session.Cookie.Secure)
	require.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, c.Server.TrustedProxies)
}

func TestValidate_Prod(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("STORAGE_DSN", "postgres://x")

	c, err := Load("")
	require.NoError(t, err)
	require.Error(t, c.Validate(), "prod without a secret")

	c.Session.Secret = DevSessionSecret
	require.ErrorContains(t, c.Validate(), "development secret")

	c.Session.Secret = "a-real-secret-for-production-use-0123"
	require.NoError(t, c.Validate())

	c.SecondFactor.Policy = "fixed"
	c.SecondFactor.FixedCode = "123456"
	c.SecondFactor.AllowInsecure = true
	require.ErrorContains(t, c.Validate(), "not allowed in prod")
}

func TestValidate_Errors(t *testing.T) {
	cases := map[string]func(*Config){
		"code too short":     func(c *Config) { c.SecondFactor.CodeLength = 3 },
		"code too long":      func(c *Config) { c.SecondFactor.CodeLength = 11 },
		"fixed w/o allow":    func(c *Config) { c.SecondFactor.Policy = "fixed"; c.SecondFactor.FixedCode = "1234" },
		"fixed w/o code":     func(c *Config) { c.SecondFactor.Policy = "fixed"; c.SecondFactor.AllowInsecure = true },
		"bad ttl":            func(c *Config) { c.Session.TTL = "forever" },
		"cookie short key":   func(c *Config) { c.Session.Store = "cookie"; c.Session.Secret = "0123456789abcdef" },
		"unknown store":      func(c *Config) { c.Session.Store = "disk" },
		"redis without addr": func(c *Config) { c.Cache.Kind = "redis" },
		"pg without dsn":     func(c *Config) { c.Storage.Driver = "postgres" },
		"bad samesite":       func(c *Config) { c.Session.Cookie.SameSite = "sometimes" },
	}
	for name, mutate := range cases {
		c, err := Load("")
		require.NoError(t, err)
		mutate(c)
		require.Error(t, c.Validate(), name)
	}
}

func TestValidate_FixedPolicyOutsideProd(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	c.SecondFactor.Policy = "fixed"
	c.SecondFactor.FixedCode = "1234"
	c.SecondFactor.AllowInsecure = true
	require.NoError(t, c.Validate())
}
