// Package conf loads the application configuration. Everything has a
// working default; a config file only needs the keys it wants to
// change.
package conf

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/openshelf/bookdiscovery/internal/analytics"
	"github.com/openshelf/bookdiscovery/internal/pkg/logger"
	"github.com/openshelf/bookdiscovery/internal/search/engine"
	"github.com/openshelf/bookdiscovery/internal/search/source"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

type Config struct {
	Log       logger.Config    `mapstructure:"log"`
	Search    engine.Config    `mapstructure:"search"`
	Sources   SourcesConfig    `mapstructure:"sources"`
	Analytics analytics.Config `mapstructure:"analytics"`
}

// SourcesConfig overrides per-backend settings. Zero fields keep the
// backend's built-in defaults.
type SourcesConfig struct {
	OpenLibrary     SourceOverride `mapstructure:"openlibrary"`
	InternetArchive SourceOverride `mapstructure:"internetarchive"`
	Gutenberg       SourceOverride `mapstructure:"gutenberg"`
}

type SourceOverride struct {
	APIHost       string `mapstructure:"api_host"`
	Timeout       int    `mapstructure:"timeout"`
	MaxRetries    int    `mapstructure:"max_retries"`
	MaxCandidates int    `mapstructure:"max_candidates"`
}

// Apply layers the override onto a backend config.
func (o SourceOverride) Apply(base *types.SourceConfig) *types.SourceConfig {
	if o.APIHost != "" {
		base.APIHost = o.APIHost
	}
	if o.Timeout > 0 {
		base.Timeout = o.Timeout
	}
	if o.MaxRetries > 0 {
		base.MaxRetries = o.MaxRetries
	}
	if o.MaxCandidates > 0 {
		base.MaxCandidates = o.MaxCandidates
	}
	return base
}

// SourceConfig resolves the effective config for one backend.
func (c *Config) SourceConfig(id types.SourceID) *types.SourceConfig {
	base := source.DefaultConfig(id)
	if base == nil {
		return nil
	}
	switch id {
	case types.SourceOpenLibrary:
		return c.Sources.OpenLibrary.Apply(base)
	case types.SourceInternetArchive:
		return c.Sources.InternetArchive.Apply(base)
	case types.SourceGutenberg:
		return c.Sources.Gutenberg.Apply(base)
	}
	return base
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Log:       *logger.DefaultConfig(),
		Search:    *engine.DefaultConfig(),
		Analytics: *analytics.DefaultConfig(),
	}
}

// LoadConfig reads a config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Log.Validate(); err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}

	return config, nil
}
