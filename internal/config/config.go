// Package config loads server configuration from a YAML file and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Port is the primary listening port.
	Port int `mapstructure:"port" yaml:"port"`

	// FallbackPort is tried when the primary port is already bound.
	FallbackPort int `mapstructure:"fallback_port" yaml:"fallback_port"`
}

// DatabaseConfig holds the persistent-store settings.
type DatabaseConfig struct {
	// Path is the SQLite database path (":memory:" for ephemeral).
	Path string `mapstructure:"path" yaml:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	LogLevel string         `mapstructure:"log_level" yaml:"log_level"`
}

// defaultConfig returns a sensible default configuration.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         5000,
			FallbackPort: 5001,
		},
		Database: DatabaseConfig{
			Path: "taskboard.db",
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with TASKBOARD_ override file values
// (e.g. TASKBOARD_SERVER_PORT, TASKBOARD_DATABASE_PATH). A missing
// file yields the defaults rather than an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.fallback_port", 5001)
	v.SetDefault("database.path", "taskboard.db")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("taskboard")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env vars still apply.
		_, pathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !pathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
