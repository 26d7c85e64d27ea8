// Package config loads the webdesk server configuration.
//
// Configuration is read from one YAML file. Values missing from the file keep their defaults,
// and a small set of environment variables override the file:
//   - WEBDESK_LISTEN
//   - WEBDESK_LOG_LEVEL
//   - WEBDESK_DATABASE_DSN
package config

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/webdesk/log"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	EnvListen      = "WEBDESK_LISTEN"
	EnvLogLevel    = "WEBDESK_LOG_LEVEL"
	EnvDatabaseDSN = "WEBDESK_DATABASE_DSN"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Interaction InteractionConfig `yaml:"interaction"`
	Home        HomeConfig        `yaml:"home"`
	Auth        AuthConfig        `yaml:"auth"`
}

type ServerConfig struct {
	// Listen is the HTTP address, e.g. ":8080"
	Listen string `yaml:"listen"`

	// RateLimit is the sustained number of terminal requests per second and session
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`

	// CookieSecure marks the session cookie as HTTPS only
	CookieSecure bool `yaml:"cookie_secure"`

	// LockTimeout bounds the wait for a concurrent request of the same session
	LockTimeout time.Duration `yaml:"lock_timeout"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	JSON    bool   `yaml:"json"`
	NoColor bool   `yaml:"no_color"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver string `yaml:"driver"`

	// DSN is a file path for sqlite and a connection string for postgres
	DSN string `yaml:"dsn"`
}

type InteractionConfig struct {
	// Store is "memory", "sqlite" or "consul"
	Store string `yaml:"store"`

	// Path is the sqlite database file of the "sqlite" store
	Path string `yaml:"path"`

	// Key is an optional hex encoded 32 byte key sealing stored records
	Key string `yaml:"key"`

	Consul ConsulConfig `yaml:"consul"`
}

type ConsulConfig struct {
	Address    string `yaml:"address"`
	Token      string `yaml:"token"`
	Datacenter string `yaml:"datacenter"`
	Prefix     string `yaml:"prefix"`
}

type HomeConfig struct {
	// Backend is "memory", "local" or "s3"
	Backend string `yaml:"backend"`

	// Root is the directory of the "local" backend
	Root string `yaml:"root"`

	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type AuthConfig struct {
	// Quota is the per-user storage limit, e.g. "100 MiB"; "0" disables it
	Quota      string `yaml:"quota"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

// Default returns a configuration that runs a single node with local storage.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":8080",
			RateLimit:       5,
			Burst:           10,
			LockTimeout:     5 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "webdesk.db",
		},
		Interaction: InteractionConfig{
			Store: "sqlite",
			Path:  "webdesk.db",
			Consul: ConsulConfig{
				Address: "127.0.0.1:8500",
				Prefix:  "webdesk/interaction",
			},
		},
		Home: HomeConfig{
			Backend: "local",
			Root:    "homes",
		},
		Auth: AuthConfig{
			Quota:      "100 MiB",
			BcryptCost: bcrypt.DefaultCost,
		},
	}
}

// Load reads the file at path over the defaults and applies environment overrides.
// An empty path only applies the overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.decode(buf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(buf []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(buf))
	decoder.KnownFields(true)

	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides values from the environment lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvListen); ok && v != "" {
		c.Server.Listen = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvDatabaseDSN); ok && v != "" {
		c.Database.DSN = v
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	errs := make([]error, 0)

	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen is required"))
	}
	if c.Server.RateLimit <= 0 || c.Server.Burst <= 0 {
		errs = append(errs, errors.New("server.rate_limit and server.burst must be positive"))
	}
	if c.Server.LockTimeout <= 0 {
		errs = append(errs, errors.New("server.lock_timeout must be positive"))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver))
	}

	switch c.Interaction.Store {
	case "memory", "consul":
	case "sqlite":
		if c.Interaction.Path == "" {
			errs = append(errs, errors.New("interaction.path is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("interaction.store: unknown store %q", c.Interaction.Store))
	}
	if _, err := c.StateKey(); err != nil {
		errs = append(errs, err)
	}

	switch c.Home.Backend {
	case "memory":
	case "local":
		if c.Home.Root == "" {
			errs = append(errs, errors.New("home.root is required for the local backend"))
		}
	case "s3":
		if c.Home.S3.Endpoint == "" || c.Home.S3.Bucket == "" {
			errs = append(errs, errors.New("home.s3.endpoint and home.s3.bucket are required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("home.backend: unknown backend %q", c.Home.Backend))
	}

	if _, err := c.QuotaBytes(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	return errors.Join(errs...)
}

// StateKey decodes the interaction sealing key. An empty key returns nil.
func (c *Config) StateKey() ([]byte, error) {
	if c.Interaction.Key == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.Interaction.Key)
	if err != nil || len(key) != 32 {
		return nil, errors.New("interaction.key must be 64 hex characters")
	}
	return key, nil
}

// QuotaBytes parses the per-user quota.
func (c *Config) QuotaBytes() (int64, error) {
	if c.Auth.Quota == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.Auth.Quota)
	if err != nil {
		return 0, fmt.Errorf("auth.quota: %w", err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("auth.quota: %s is too large", c.Auth.Quota)
	}
	return int64(n), nil
}

// LogLevel returns the parsed log level, falling back to info.
func (c *Config) LogLevel() log.LogLevel {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.Info
	}
	return level
}
