// Package config loads application configuration from a YAML file and
// JAST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FranksOps/jast/internal/fingerprint"
	"github.com/FranksOps/jast/internal/serp"
	"github.com/FranksOps/jast/pkg/ratelimit"
	"github.com/spf13/viper"
)

// Version is reported in the default User-Agent.
const Version = "0.3.0"

// Backends accepted for store.backend.
const (
	BackendJSON     = "json"
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Search  SearchConfig  `mapstructure:"search"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

type SearchConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Pacing   time.Duration `mapstructure:"pacing"`
	Jitter   float64       `mapstructure:"jitter"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type HTTPConfig struct {
	TLSProfile string `mapstructure:"tls_profile"`
	Proxy      string `mapstructure:"proxy"`
	UserAgent  string `mapstructure:"user_agent"`
}

type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Dir returns the per-user directory holding jast.yaml and the default store.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "jast")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", BackendJSON)
	v.SetDefault("store.dsn", "")
	v.SetDefault("search.endpoint", serp.DefaultEndpoint)
	v.SetDefault("search.pacing", 600*time.Millisecond)
	v.SetDefault("search.jitter", 0.0)
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("http.tls_profile", string(fingerprint.ProfileGo))
	v.SetDefault("http.proxy", "")
	v.SetDefault("http.user_agent", "jast/"+Version)
	v.SetDefault("metrics.port", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// DefaultDSN returns the store file under Dir() for the file-based backends.
// Postgres has no default and memory needs none.
func DefaultDSN(backend string) string {
	switch backend {
	case BackendJSON:
		return filepath.Join(Dir(), "store.ndjson")
	case BackendCSV:
		return filepath.Join(Dir(), "store.csv")
	case BackendSQLite:
		return filepath.Join(Dir(), "jast.db")
	}
	return ""
}

// Load reads path, or jast.yaml from Dir() when path is empty, then applies
// JAST_* environment overrides. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("JAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("jast")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = DefaultDSN(cfg.Store.Backend)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values that would fail later at wiring time.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendJSON, BackendCSV, BackendSQLite, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	if c.Store.Backend != BackendMemory && c.Store.DSN == "" {
		return errors.New("config: store.dsn is required")
	}
	if c.Search.Pacing < ratelimit.DefaultInterval {
		return fmt.Errorf("config: search.pacing must be at least %s, got %s", ratelimit.DefaultInterval, c.Search.Pacing)
	}
	if c.Search.Jitter < 0 || c.Search.Jitter > 1 {
		return fmt.Errorf("config: search.jitter must be in [0,1], got %v", c.Search.Jitter)
	}
	if _, err := fingerprint.ParseProfile(c.HTTP.TLSProfile); err != nil {
		return fmt.Errorf("config: http.tls_profile: %w", err)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// SlogLevel maps log.level to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log.level: %w", err)
	}
	return lvl, nil
}
