package tui

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/teehrview/internal/logging"
	"github.com/Iron-Ham/teehrview/internal/tui/styles"
	"github.com/Iron-Ham/teehrview/internal/workflow"
)

// App wraps the Bubbletea program
type App struct {
	ctx       context.Context
	program   *tea.Program
	model     Model
	shell     *workflow.Shell
	logger    *logging.Logger
	themeFile string
}

// AppOptions configures an App.
type AppOptions struct {
	Options
	// ThemeFile, if set, is watched and re-applied on change.
	ThemeFile string
}

// New creates a new TUI application
func New(ctx context.Context, shell *workflow.Shell, client Client, opts AppOptions) *App {
	model := NewModel(ctx, shell, client, opts.Options)
	return &App{
		ctx:       ctx,
		model:     model,
		shell:     shell,
		logger:    model.logger,
		themeFile: opts.ThemeFile,
	}
}

// Run starts the TUI application
func (a *App) Run() error {
	// the session is disposed however the program exits
	defer a.shell.Unmount()

	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
		tea.WithContext(a.ctx),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		if _, ok := <-sigChan; ok && a.program != nil {
			a.program.Send(tea.Quit())
		}
	}()

	if a.themeFile != "" {
		w, err := styles.WatchThemeFile(a.themeFile, func(t *styles.ThemeFile, err error) {
			a.program.Send(themeChangedMsg{theme: t, err: err})
		})
		if err != nil {
			a.logger.Warn("theme watcher disabled", "path", a.themeFile, "error", err.Error())
		} else {
			defer func() { _ = w.Close() }()
		}
	}

	_, err := a.program.Run()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}
