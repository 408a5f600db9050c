package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teehrview/internal/config"
	"github.com/Iron-Ham/teehrview/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the debug log",
	Long: `View and filter the debug log, including rotated files.

Examples:
  # Last 50 entries
  teehrview logs

  # Everything from one workflow run
  teehrview logs -s 1b2c3d4e -n 0

  # Warnings and errors from the last hour
  teehrview logs --level warn --since 1h`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsSessionID string
	logsStep      string
	logsComponent string
	logsTail      int
	logsLevel     string
	logsSince     time.Duration
	logsGrep      string
	logsJSON      bool
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVarP(&logsSessionID, "session", "s", "", "Session ID or prefix")
	logsCmd.Flags().StringVar(&logsStep, "step", "", "Step label (Query, Filters, Results)")
	logsCmd.Flags().StringVar(&logsComponent, "component", "", "Component (workflow, loader, teehr-client, tui)")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Minimum level (debug/info/warn/error)")
	logsCmd.Flags().DurationVar(&logsSince, "since", 0, "Only entries newer than this (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Only entries whose message contains this text")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "Print entries as JSON")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	entries, err := logging.ReadLogDir(cfg.Logging.ResolveLogDir())
	if err != nil {
		return err
	}

	filter := logging.LogFilter{
		Level:           logsLevel,
		SessionID:       logsSessionID,
		Step:            logsStep,
		Component:       logsComponent,
		MessageContains: logsGrep,
	}
	if logsSince > 0 {
		filter.Since = time.Now().Add(-logsSince)
	}
	entries = logging.FilterLogs(entries, filter)

	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if logsJSON {
		return logging.WriteJSON(cmd.OutOrStdout(), entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching log entries.")
		return nil
	}
	return logging.WriteText(cmd.OutOrStdout(), entries)
}
