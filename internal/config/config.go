// Package config carga la configuración del servicio desde YAML y la pisa con
// variables de entorno.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DevSessionSecret es el secreto por defecto para desarrollo. Validate lo
// rechaza en prod.
const DevSessionSecret = "dev-only-session-secret-change-me-0123456789"

type Config struct {
	App struct {
		// dev | staging | prod
		Env  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		// IPs o CIDRs de los proxies cuyo X-Forwarded-For se acepta. Vacío =
		// el header se ignora.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
			BcryptCost      int    `yaml:"bcrypt_cost"`
		} `yaml:"postgres"`
		// Migrate aplica las migraciones embebidas al arrancar.
		Migrate bool `yaml:"migrate"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Session struct {
		// cache | cookie
		Store  string `yaml:"store"`
		Secret string `yaml:"secret"`
		TTL    string `yaml:"ttl"`
		Cookie struct {
			Name     string `yaml:"name"`
			Domain   string `yaml:"domain"`
			SameSite string `yaml:"samesite"` // lax | strict | none
			Secure   bool   `yaml:"secure"`
		} `yaml:"cookie"`
	} `yaml:"session"`

	SecondFactor struct {
		// generated | fixed
		Policy        string `yaml:"policy"`
		CodeLength    int    `yaml:"code_length"`
		FixedCode     string `yaml:"fixed_code"`
		AllowInsecure bool   `yaml:"allow_insecure"`
	} `yaml:"second_factor"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		From               string `yaml:"from"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		TLS                string `yaml:"tls"` // auto | ssl | starttls | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Email struct {
		Subject string `yaml:"subject"`
		AppName string `yaml:"app_name"`
	} `yaml:"email"`

	Rate struct {
		Enabled      bool      `yaml:"enabled"`
		Login        RateLimit `yaml:"login"`
		SecondFactor RateLimit `yaml:"second_factor"`
		Register     RateLimit `yaml:"register"`
	} `yaml:"rate"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

type RateLimit struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"`
}

// Load lee path (si no es vacío), aplica defaults y overrides de entorno.
// No valida: llamar Validate.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "School Directory"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Storage.Postgres.ConnMaxLifetime == "" {
		c.Storage.Postgres.ConnMaxLifetime = "30m"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "schooldir:"
	}
	if c.Session.Store == "" {
		c.Session.Store = "cache"
	}
	if c.Session.Secret == "" && c.App.Env != "prod" {
		c.Session.Secret = DevSessionSecret
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "12h"
	}
	if c.Session.Cookie.Name == "" {
		c.Session.Cookie.Name = "schooldir_session"
	}
	if c.Session.Cookie.SameSite == "" {
		c.Session.Cookie.SameSite = "lax"
	}
	if c.SecondFactor.Policy == "" {
		c.SecondFactor.Policy = "generated"
	}
	if c.SecondFactor.CodeLength == 0 {
		c.SecondFactor.CodeLength = 6
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Email.Subject == "" {
		c.Email.Subject = "Tu código de verificación"
	}
	if c.Email.AppName == "" {
		c.Email.AppName = c.App.Name
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.SecondFactor.Limit == 0 {
		c.Rate.SecondFactor.Limit = 5
	}
	if c.Rate.SecondFactor.Window == "" {
		c.Rate.SecondFactor.Window = "1m"
	}
	if c.Rate.Register.Limit == 0 {
		c.Rate.Register.Limit = 5
	}
	if c.Rate.Register.Window == "" {
		c.Rate.Register.Window = "10m"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// splitList parte una lista separada por comas, sin vacíos.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("APP_NAME"); ok {
		c.App.Name = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_TRUSTED_PROXIES"); ok {
		c.Server.TrustedProxies = splitList(v)
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MIN_CONNS"); ok {
		c.Storage.Postgres.MinConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}
	if v, ok := getEnvBool("STORAGE_MIGRATE"); ok {
		c.Storage.Migrate = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// SESSION
	if v, ok := getEnvStr("SESSION_STORE"); ok {
		c.Session.Store = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SESSION_SECRET"); ok {
		c.Session.Secret = v
	}
	if v, ok := getEnvStr("SESSION_TTL"); ok {
		c.Session.TTL = v
	}
	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Session.Cookie.Name = v
	}
	if v, ok := getEnvStr("SESSION_COOKIE_DOMAIN"); ok {
		c.Session.Cookie.Domain = v
	}
	if v, ok := getEnvStr("SESSION_COOKIE_SAMESITE"); ok {
		c.Session.Cookie.SameSite = strings.ToLower(v)
	}
	if v, ok := getEnvBool("SESSION_COOKIE_SECURE"); ok {
		c.Session.Cookie.Secure = v
	}

	// SECOND FACTOR
	if v, ok := getEnvStr("SECOND_FACTOR_POLICY"); ok {
		c.SecondFactor.Policy = strings.ToLower(v)
	}
	if v, ok := getEnvInt("SECOND_FACTOR_CODE_LENGTH"); ok {
		c.SecondFactor.CodeLength = v
	}
	if v, ok := getEnvStr("SECOND_FACTOR_FIXED_CODE"); ok {
		c.SecondFactor.FixedCode = v
	}
	if v, ok := getEnvBool("SECOND_FACTOR_ALLOW_INSECURE"); ok {
		c.SecondFactor.AllowInsecure = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = strings.ToLower(v)
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}

	// EMAIL
	if v, ok := getEnvStr("EMAIL_SUBJECT"); ok {
		c.Email.Subject = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvStr("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}
	if v, ok := getEnvInt("RATE_SECOND_FACTOR_LIMIT"); ok {
		c.Rate.SecondFactor.Limit = v
	}
	if v, ok := getEnvStr("RATE_SECOND_FACTOR_WINDOW"); ok {
		c.Rate.SecondFactor.Window = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

// IsProd indica APP_ENV=prod.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }

// Validate revisa valores críticos. En prod además exige un secreto propio y
// rechaza la política de código fijo.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory":
		if c.IsProd() {
			errs = append(errs, errors.New("storage.driver=memory is not allowed in prod"))
		}
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown %q", c.Storage.Driver))
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind: unknown %q", c.Cache.Kind))
	}

	switch c.Session.Store {
	case "cache":
		if len(c.Session.Secret) < 16 {
			errs = append(errs, errors.New("session.secret must be at least 16 bytes"))
		}
	case "cookie":
		if len(c.Session.Secret) < 32 {
			errs = append(errs, errors.New("session.secret must be at least 32 bytes for the cookie store"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.store: unknown %q", c.Session.Store))
	}
	if c.IsProd() && c.Session.Secret == DevSessionSecret {
		errs = append(errs, errors.New("session.secret: the development secret is not allowed in prod"))
	}
	switch c.Session.Cookie.SameSite {
	case "lax", "strict", "none":
	default:
		errs = append(errs, fmt.Errorf("session.cookie.samesite: unknown %q", c.Session.Cookie.SameSite))
	}

	switch c.SecondFactor.Policy {
	case "generated":
		if c.SecondFactor.CodeLength < 4 || c.SecondFactor.CodeLength > 10 {
			errs = append(errs, errors.New("second_factor.code_length must be between 4 and 10"))
		}
	case "fixed":
		if c.IsProd() {
			errs = append(errs, errors.New("second_factor.policy=fixed is not allowed in prod"))
		}
		if c.SecondFactor.FixedCode == "" {
			errs = append(errs, errors.New("second_factor.fixed_code is required for the fixed policy"))
		}
		if !c.SecondFactor.AllowInsecure {
			errs = append(errs, errors.New("second_factor.policy=fixed requires allow_insecure"))
		}
	default:
		errs = append(errs, fmt.Errorf("second_factor.policy: unknown %q", c.SecondFactor.Policy))
	}

	for name, d := range map[string]string{
		"server.read_timeout":                c.Server.ReadTimeout,
		"server.write_timeout":               c.Server.WriteTimeout,
		"server.shutdown_timeout":            c.Server.ShutdownTimeout,
		"storage.postgres.conn_max_lifetime": c.Storage.Postgres.ConnMaxLifetime,
		"session.ttl":                        c.Session.TTL,
		"rate.login.window":                  c.Rate.Login.Window,
		"rate.second_factor.window":          c.Rate.SecondFactor.Window,
		"rate.register.window":               c.Rate.Register.Window,
	} {
		if v, err := time.ParseDuration(d); err != nil || v <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, d))
		}
	}

	return errors.Join(errs...)
}

// Duration parsea s; usar después de Validate.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
