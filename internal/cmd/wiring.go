package cmd

import (
	"fmt"

	"github.com/Iron-Ham/teehrview/internal/config"
	"github.com/Iron-Ham/teehrview/internal/logging"
	"github.com/Iron-Ham/teehrview/internal/teehr"
)

// newLogger opens the debug log described by cfg, or a no-op logger when
// logging is disabled.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	logger, err := logging.NewLoggerWithRotation(
		cfg.Logging.ResolveLogDir(),
		logging.ParseLevel(cfg.Logging.Level),
		logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return logger, nil
}

func newClient(cfg *config.Config, logger *logging.Logger) (*teehr.Client, error) {
	return teehr.NewClient(
		cfg.API.BaseURL,
		cfg.API.Timeout(),
		teehr.WithMaxRetries(cfg.API.MaxRetries),
		teehr.WithLogger(logger),
	)
}
