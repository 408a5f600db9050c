package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teehrview/internal/config"
	"github.com/Iron-Ham/teehrview/internal/event"
	"github.com/Iron-Ham/teehrview/internal/teehr"
	"github.com/Iron-Ham/teehrview/internal/workflow"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets the API offers",
	Long: `Run the dataset bootstrap without the TUI and print the result.

This goes through the same mount and bootstrap path as 'start', so it is a
quick way to check that the API is reachable.`,
	Args: cobra.NoArgs,
	RunE: runDatasets,
}

var (
	datasetsJSON    bool
	datasetsVerbose bool
	datasetsTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(datasetsCmd)

	datasetsCmd.Flags().BoolVar(&datasetsJSON, "json", false, "Print datasets as JSON")
	datasetsCmd.Flags().BoolVarP(&datasetsVerbose, "verbose", "v", false, "Print bootstrap state changes to stderr")
	datasetsCmd.Flags().DurationVar(&datasetsTimeout, "timeout", time.Minute, "Give up after this long")
}

func runDatasets(cmd *cobra.Command, args []string) error {
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

	shell := workflow.New(client, workflow.WithLogger(logger))
	defer shell.Unmount()

	if datasetsVerbose {
		shell.Bus().Subscribe(event.TypeLoaderStatusChanged, func(e event.Event) {
			if ch, ok := e.(event.LoaderStatusChangedEvent); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s -> %s\n", ch.Loader, ch.From, ch.To)
			}
		})
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), datasetsTimeout)
	defer cancel()

	ch := shell.Mount(ctx)
	select {
	case o := <-ch:
		if err := shell.HandleBootstrap(o); err != nil {
			return err
		}
	case <-ctx.Done():
		return fmt.Errorf("waiting for datasets: %w", ctx.Err())
	}

	return printDatasets(cmd, shell.Session().Datasets())
}

func printDatasets(cmd *cobra.Command, datasets []teehr.Dataset) error {
	out := cmd.OutOrStdout()
	if datasetsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(datasets)
	}

	if len(datasets) == 0 {
		fmt.Fprintln(out, "No datasets available.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "DESCRIPTION")
	for _, d := range datasets {
		t.Row(strconv.Itoa(d.ID), d.Name, d.Description)
	}
	fmt.Fprintln(out, t.Render())
	return nil
}
