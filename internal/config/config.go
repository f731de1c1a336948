package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config keeps runtime settings for the server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Session   SessionConfig   `koanf:"session"`
	GitHub    GitHubConfig    `koanf:"github"`
	App       AppConfig       `koanf:"app"`
	Limiter   LimiterConfig   `koanf:"limiter"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	DSN string `koanf:"dsn"`
}

type SessionConfig struct {
	Secret string `koanf:"secret"`
	// Secure marks the cookie HTTPS-only; enable it in production.
	Secure bool `koanf:"secure"`
}

type GitHubConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	CallbackURL  string `koanf:"callback_url"`
}

type AppConfig struct {
	DefaultTimezone string `koanf:"default_timezone"`
	Locale          string `koanf:"locale"`
}

type LimiterConfig struct {
	Max    int           `koanf:"max"`
	Window time.Duration `koanf:"window"`
	// RedisURL switches limiter counters from memory to Redis when set.
	RedisURL string `koanf:"redis_url"`
}

type SchedulerConfig struct {
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

var sections = map[string]bool{
	"server":    true,
	"database":  true,
	"session":   true,
	"github":    true,
	"app":       true,
	"limiter":   true,
	"scheduler": true,
	"log":       true,
}

// Load reads the optional YAML file at path, then environment overrides such
// as SESSION_SECRET or SERVER_ADDR, and fills defaults.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// envKey maps SECTION_FIELD_NAME to section.field_name and drops variables
// outside the known sections.
func envKey(s string) string {
	parts := strings.SplitN(strings.ToLower(s), "_", 2)
	if len(parts) != 2 || !sections[parts[0]] {
		return ""
	}
	return parts[0] + "." + parts[1]
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "loose_ends.db"
	}
	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = "http://localhost" + cfg.Server.Addr + "/auth/github/callback"
	}
	if cfg.App.DefaultTimezone == "" {
		cfg.App.DefaultTimezone = "UTC"
	}
	if cfg.App.Locale == "" {
		cfg.App.Locale = "en"
	}
	if cfg.Limiter.Max == 0 {
		cfg.Limiter.Max = 120
	}
	if cfg.Limiter.Window == 0 {
		cfg.Limiter.Window = time.Minute
	}
	if cfg.Scheduler.SweepInterval == 0 {
		cfg.Scheduler.SweepInterval = 10 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Validate reports every out-of-range setting at once. Credentials only the
// HTTP server needs are checked by ValidateServer.
func (c Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.App.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid app.default_timezone %q", c.App.DefaultTimezone))
	}
	if c.Limiter.Max < 0 || c.Limiter.Window < 0 {
		errs = append(errs, errors.New("limiter.max and limiter.window must not be negative"))
	}
	if c.Server.ShutdownTimeout < 0 || c.Scheduler.SweepInterval < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log.format %q, expected console or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ValidateServer reports the secrets that serving requires.
func (c Config) ValidateServer() error {
	var errs []error
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.GitHub.ClientID == "" || c.GitHub.ClientSecret == "" {
		errs = append(errs, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required"))
	}
	return errors.Join(errs...)
}

// Location resolves the default timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
