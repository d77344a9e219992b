// Package config loads runtime settings from a config file,
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration. Every field can come from
// joygrow.yaml, a JOYGROW_* environment variable or a .env file, in
// that order of increasing precedence for the environment.
type Config struct {
	// DataDir holds the working database file, the blob backend and
	// the offline flag.
	DataDir string `mapstructure:"data_dir"`

	// RemoteDSN is the PostgreSQL connection string of the
	// authoritative data service. Empty means offline-only operation.
	RemoteDSN string `mapstructure:"remote_dsn"`

	// RemoteTimeout bounds each remote call.
	RemoteTimeout time.Duration `mapstructure:"remote_timeout"`

	// SyncInterval is the periodic sync cadence of the daemon.
	SyncInterval time.Duration `mapstructure:"sync_interval"`

	// ProbeInterval is the connectivity probe cadence.
	ProbeInterval time.Duration `mapstructure:"probe_interval"`

	// ListenAddr serves the daemon's health and metrics endpoints.
	ListenAddr string `mapstructure:"listen_addr"`

	// UserID is the active account whose queue the daemon drains.
	UserID string `mapstructure:"user_id"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogFile, when set, receives rotated log output instead of
	// stderr.
	LogFile string `mapstructure:"log_file"`
}

// Load reads configuration. A missing config file or .env is fine;
// defaults cover everything except the remote DSN.
func Load(configPath string) (*Config, error) {
	// .env values become process env vars, which viper then picks up.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("remote_timeout", 10*time.Second)
	v.SetDefault("sync_interval", 30*time.Second)
	v.SetDefault("probe_interval", 30*time.Second)
	v.SetDefault("listen_addr", "127.0.0.1:9180")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("JOYGROW")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("joygrow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultDataDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// DatabasePath is the working SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "joygrow.db")
}

// BlobDir is the durable image backend directory.
func (c *Config) BlobDir() string {
	return filepath.Join(c.DataDir, "blob")
}

// FlagPath is the manual offline override flag file.
func (c *Config) FlagPath() string {
	return filepath.Join(c.DataDir, "offline.flag")
}

func defaultDataDir() string {
	return filepath.Join(".", ".joygrow")
}
