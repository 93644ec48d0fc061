// Package config loads service configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/complyon/kycengine/internal/watchlist"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Screening ScreeningConfig `mapstructure:"screening"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Report    ReportConfig    `mapstructure:"report"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ScreeningConfig holds screening defaults translated into engine
// parameters by the API layer.
type ScreeningConfig struct {
	Fuzzy              bool          `mapstructure:"fuzzy"`
	SanctionsThreshold float64       `mapstructure:"sanctions_threshold"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
}

// WatchlistConfig holds reference-data settings.
type WatchlistConfig struct {
	Driver          string             `mapstructure:"driver"`
	DSN             string             `mapstructure:"dsn"`
	Files           []FileSource       `mapstructure:"files"`
	Sources         []watchlist.Source `mapstructure:"sources"`
	RefreshInterval time.Duration      `mapstructure:"refresh_interval"`
}

// FileSource is a local reference file loaded at startup.
type FileSource struct {
	Path   string           `mapstructure:"path"`
	Format watchlist.Format `mapstructure:"format"`
}

// RedisConfig holds the optional shared result cache settings.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RiskConfig points at an optional risk-tables override file.
type RiskConfig struct {
	TablesPath string `mapstructure:"tables_path"`
}

// ReportConfig controls file export of finished reports. Export is off
// when Dir is empty.
type ReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads configuration from the given file (optional) with KYC_*
// environment variables taking precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KYC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("screening.fuzzy", true)
	v.SetDefault("screening.sanctions_threshold", 0.85)
	v.SetDefault("screening.cache_ttl", 15*time.Minute)
	v.SetDefault("watchlist.driver", "sqlite")
	v.SetDefault("watchlist.dsn", "kycengine.db")
	v.SetDefault("watchlist.refresh_interval", 24*time.Hour)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Screening.SanctionsThreshold <= 0 || c.Screening.SanctionsThreshold > 1 {
		return fmt.Errorf("screening.sanctions_threshold must be in (0,1], got %v", c.Screening.SanctionsThreshold)
	}
	switch c.Watchlist.Driver {
	case "sqlite", "postgres", "":
	default:
		return fmt.Errorf("watchlist.driver must be sqlite or postgres, got %q", c.Watchlist.Driver)
	}
	for _, f := range c.Watchlist.Files {
		if f.Format != watchlist.FormatPEP && f.Format != watchlist.FormatSanctions {
			return fmt.Errorf("watchlist file %s: unknown format %q", f.Path, f.Format)
		}
	}
	return nil
}
