package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/teehrview/internal/config"
	"github.com/Iron-Ham/teehrview/internal/tui"
	"github.com/Iron-Ham/teehrview/internal/tui/styles"
	"github.com/Iron-Ham/teehrview/internal/workflow"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Launch the query workflow",
	Long: `Launch the interactive query workflow.

The dataset list is fetched once on launch; the steps are blocked until it
arrives. If it cannot be fetched the error is shown instead of the steps.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	if !isTerminal(cmd.OutOrStdout()) {
		return fmt.Errorf("start needs an interactive terminal; use 'teehrview datasets' in scripts")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.TUI.ThemeFile != "" {
		theme, err := styles.LoadThemeFile(cfg.TUI.ThemeFile)
		if err != nil {
			return err
		}
		styles.Apply(theme.Palette())
	}

	shell := workflow.New(client, workflow.WithLogger(logger))
	logger.Info("starting tui", "session_id", shell.SessionID(), "api", cfg.API.BaseURL)

	app := tui.New(cmd.Context(), shell, client, tui.AppOptions{
		Options: tui.Options{
			MaxRows: cfg.Results.MaxRows,
		},
		ThemeFile: cfg.TUI.ThemeFile,
	})
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
