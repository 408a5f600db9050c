package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete teehrview configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Results ResultsConfig `mapstructure:"results"`
	TUI     TUIConfig     `mapstructure:"tui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig points at the TEEHR dataset API
type APIConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:8000"
	BaseURL string `mapstructure:"base_url"`
	// TimeoutSeconds bounds each HTTP request
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// MaxRetries is how often a transient failure (5xx, 429, network) is retried
	MaxRetries int `mapstructure:"max_retries"`
}

// ResultsConfig controls the results table
type ResultsConfig struct {
	// MaxRows is how many rows are visible at once
	MaxRows int `mapstructure:"max_rows"`
}

// TUIConfig controls the terminal UI
type TUIConfig struct {
	// ThemeFile is an optional YAML palette, reloaded when it changes
	ThemeFile string `mapstructure:"theme_file"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where debug.log is written. Empty means <config dir>/logs.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
			MaxRetries:     2,
		},
		Results: ResultsConfig{
			MaxRows: 50,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Timeout returns the request timeout as a duration
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ResolveLogDir returns the log directory, defaulting under ConfigDir
func (c *LoggingConfig) ResolveLogDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return filepath.Join(ConfigDir(), "logs")
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("api.base_url", defaults.API.BaseURL)
	viper.SetDefault("api.timeout_seconds", defaults.API.TimeoutSeconds)
	viper.SetDefault("api.max_retries", defaults.API.MaxRetries)

	viper.SetDefault("results.max_rows", defaults.Results.MaxRows)

	viper.SetDefault("tui.theme_file", defaults.TUI.ThemeFile)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return load(viper.GetViper())
}

func load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// CheckSetting validates the configuration that would result from setting
// key to value. The global viper state is not modified.
func CheckSetting(key string, value any) error {
	v := viper.New()
	if err := v.MergeConfigMap(viper.AllSettings()); err != nil {
		return err
	}
	v.Set(key, value)
	_, err := load(v)
	return err
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "teehrview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".teehrview"
	}
	return filepath.Join(home, ".config", "teehrview")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
