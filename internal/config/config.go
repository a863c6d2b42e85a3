package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration.
// Values come from defaults, .xbelmarks.yaml, XBELMARKS_* env vars and CLI flags.
type Config struct {
	DBPath    string `mapstructure:"db"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	IconSize  int    `mapstructure:"icon_size"`
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	return &Config{
		DBPath:    getDefaultDBPath(),
		LogLevel:  "info",
		LogFormat: "text",
		IconSize:  16,
	}
}

// Load reads configuration from v, falling back to the defaults of NewConfig
// for anything not set by a config file, the environment or flags.
func Load(v *viper.Viper) (*Config, error) {
	def := NewConfig()
	v.SetDefault("db", def.DBPath)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("icon_size", def.IconSize)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = def.DBPath
	}
	return &cfg, nil
}

// WithDBPath sets a custom database path
func (c *Config) WithDBPath(path string) *Config {
	c.DBPath = path
	return c
}

func getDefaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "xbelmarks.db"
	}
	return filepath.Join(homeDir, ".bookmarks", "xbelmarks.db")
}
