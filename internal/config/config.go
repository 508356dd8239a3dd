// Package config loads the server configuration from an optional file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppName is used for the config file name, its search path and the env prefix.
const AppName = "docs-mcp"

// Config contains all server configuration values.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Listing     ListingConfig     `mapstructure:"listing"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// ServerConfig is the identity announced to MCP clients.
type ServerConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // zerolog level name
	Format string `mapstructure:"format"` // "console" or "json"
}

// ListingConfig tunes list-directory.
type ListingConfig struct {
	Concurrency int `mapstructure:"concurrency"` // max concurrent per-entry stats
}

// FetchConfig tunes fetch-webpage.
type FetchConfig struct {
	MaxChars  int           `mapstructure:"max_chars"`
	Timeout   time.Duration `mapstructure:"timeout"` // 0 disables the timeout
	UserAgent string        `mapstructure:"user_agent"`
}

// DiagnosticsConfig enables the operator HTTP listener when Addr is set.
type DiagnosticsConfig struct {
	Addr string `mapstructure:"addr"`
}

// TelemetryConfig enables OTLP/HTTP trace export when OTLPEndpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "docs")
	v.SetDefault("server.version", "1.0.0")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("listing.concurrency", 8)

	v.SetDefault("fetch.max_chars", 2000)
	v.SetDefault("fetch.timeout", "0s")
	v.SetDefault("fetch.user_agent", "")

	v.SetDefault("diagnostics.addr", "")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.insecure", false)
}

// Load reads configuration from configPath, or from docs-mcp.yaml in the
// default search path when configPath is empty. A missing default file is not
// an error. Environment variables prefixed DOCS_MCP_ override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
	}

	v.SetEnvPrefix("DOCS_MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Name == "":
		return errors.New("config: server.name must not be empty")
	case c.Listing.Concurrency <= 0:
		return fmt.Errorf("config: listing.concurrency must be positive, got %d", c.Listing.Concurrency)
	case c.Fetch.MaxChars <= 0:
		return fmt.Errorf("config: fetch.max_chars must be positive, got %d", c.Fetch.MaxChars)
	case c.Fetch.Timeout < 0:
		return fmt.Errorf("config: fetch.timeout must not be negative, got %s", c.Fetch.Timeout)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be \"console\" or \"json\", got %q", c.Log.Format)
	}
	return nil
}
