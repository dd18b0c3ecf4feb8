package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret  string
	TokenTTL    time.Duration
	CORSOrigins []string

	EnableGuestAuth   bool
	GuestCleanupEvery time.Duration
}

// fileConfig mirrors the optional YAML config file. Env vars override it.
type fileConfig struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Auth struct {
		Secret   string `yaml:"secret"`
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"auth"`
	CORSOrigins []string `yaml:"cors_origins"`
	Guests      struct {
		Enabled      *bool  `yaml:"enabled"`
		CleanupEvery string `yaml:"cleanup_every"`
	} `yaml:"guests"`
}

// Load builds the effective config: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:          ":8080",
		DBDriver:          "sqlite",
		DBDSN:             "",
		AuthSecret:        "quizforge-dev-secret",
		TokenTTL:          8 * time.Hour,
		CORSOrigins:       []string{"http://localhost:3000"},
		EnableGuestAuth:   true,
		GuestCleanupEvery: 24 * time.Hour,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var fc fileConfig
	if err := yaml.NewDecoder(f).Decode(&fc); err != nil {
		return err
	}
	if fc.Server.Addr != "" {
		c.HTTPAddr = fc.Server.Addr
	}
	if fc.Database.Driver != "" {
		c.DBDriver = fc.Database.Driver
	}
	if fc.Database.DSN != "" {
		c.DBDSN = fc.Database.DSN
	}
	if fc.Auth.Secret != "" {
		c.AuthSecret = fc.Auth.Secret
	}
	if fc.Auth.TokenTTL != "" {
		if d, err := time.ParseDuration(fc.Auth.TokenTTL); err == nil {
			c.TokenTTL = d
		}
	}
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}
	if fc.Guests.Enabled != nil {
		c.EnableGuestAuth = *fc.Guests.Enabled
	}
	if fc.Guests.CleanupEvery != "" {
		if d, err := time.ParseDuration(fc.Guests.CleanupEvery); err == nil {
			c.GuestCleanupEvery = d
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.DBDriver = envOr("DB_DRIVER", c.DBDriver)
	c.DBDSN = envOr("DB_DSN", c.DBDSN)
	c.AuthSecret = envOr("AUTH_HMAC_SECRET", c.AuthSecret)
	c.TokenTTL = envDuration("AUTH_TOKEN_TTL", c.TokenTTL)
	c.CORSOrigins = csvOr("CORS_ORIGINS", c.CORSOrigins)
	c.EnableGuestAuth = envBool("ENABLE_GUEST_AUTH", c.EnableGuestAuth)
	c.GuestCleanupEvery = envDuration("GUEST_CLEANUP_EVERY", c.GuestCleanupEvery)
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
