package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/teehrview/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify teehrview configuration",
	Long: `View or modify teehrview configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  teehrview config set api.base_url https://teehr.example.org
  teehrview config set results.max_rows 100

Valid keys:
  api.base_url           - TEEHR dataset API root
  api.timeout_seconds    - Per-request timeout
  api.max_retries        - Retries for transient failures
  results.max_rows       - Rows visible in the results table
  tui.theme_file         - YAML palette, reloaded on change
  logging.enabled        - Write a debug log (true/false)
  logging.level          - debug, info, warn or error
  logging.dir            - Log directory
  logging.max_size_mb    - Rotate debug.log at this size
  logging.max_backups    - Rotated files to keep`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// settableKeys maps each key accepted by 'config set' to its value type.
var settableKeys = map[string]string{
	"api.base_url":        "string",
	"api.timeout_seconds": "int",
	"api.max_retries":     "int",
	"results.max_rows":    "int",
	"tui.theme_file":      "string",
	"logging.enabled":     "bool",
	"logging.level":       "string",
	"logging.dir":         "string",
	"logging.max_size_mb": "int",
	"logging.max_backups": "int",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	settings := viper.AllSettings()
	delete(settings, "config")
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if _, err := config.Load(); err != nil {
		fmt.Fprintf(out, "\n# WARNING: %v\n", err)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	keyType, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'teehrview config set --help' to see valid keys", key)
	}

	var typedValue any
	switch keyType {
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = b
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		typedValue = n
	default:
		typedValue = value
	}

	if err := config.CheckSetting(key, typedValue); err != nil {
		return err
	}
	viper.Set(key, typedValue)

	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	configFile := config.ConfigFile()
	if used := viper.ConfigFileUsed(); used != "" {
		configFile = used
	}
	if err := writeSettings(configFile); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

// writeSettings writes the effective settings, minus the --config flag, as
// YAML to path.
func writeSettings(path string) error {
	settings := viper.AllSettings()
	delete(settings, "config")
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

const configTemplate = `# teehrview configuration

# TEEHR dataset API
api:
  base_url: http://localhost:8000
  # Per-request timeout in seconds
  timeout_seconds: 30
  # Retries for 5xx, 429 and network failures
  max_retries: 2

# Results table
results:
  # Rows visible at once
  max_rows: 50

# Terminal UI
tui:
  # Optional YAML palette; edits are picked up while running
  theme_file: ""

# Debug log (debug.log, JSON lines)
logging:
  enabled: true
  # debug, info, warn, error
  level: info
  # Empty means <config dir>/logs
  dir: ""
  max_size_mb: 10
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'teehrview config set' to modify values", configFile)
	}
	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", config.ConfigFile())
	fmt.Fprintln(out, "  2. ./config.yaml (current directory)")
	fmt.Fprintln(out, "\nEnvironment variables: TEEHRVIEW_* (e.g., TEEHRVIEW_API_BASE_URL)")
	return nil
}
