package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/teehrview/internal/logging"
	"github.com/Iron-Ham/teehrview/internal/session"
	"github.com/Iron-Ham/teehrview/internal/tui/styles"
	"github.com/Iron-Ham/teehrview/internal/workflow"
)

const (
	defaultWidth   = 100
	defaultMaxRows = 50
)

// Options configures the Model.
type Options struct {
	// MaxRows caps the rows shown in the results table.
	MaxRows int
	Logger  *logging.Logger
}

// Model is the bubbletea model for the staged query workflow. The shell owns
// all workflow state; the model only renders it and routes input.
type Model struct {
	ctx    context.Context
	shell  *workflow.Shell
	client Client
	logger *logging.Logger

	// one per workflow step, by index
	steps   []step
	spinner spinner.Model

	width    int
	height   int
	notice   string
	quitting bool
}

// NewModel creates a model around an unmounted shell. Init mounts it.
func NewModel(ctx context.Context, shell *workflow.Shell, client Client, opts Options) Model {
	if opts.MaxRows <= 0 {
		opts.MaxRows = defaultMaxRows
	}
	if opts.Logger == nil {
		opts.Logger = shell.Logger()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Primary

	return Model{
		ctx:    ctx,
		shell:  shell,
		client: client,
		logger: opts.Logger.WithComponent("tui"),
		steps: []step{
			newQueryStep(ctx, client),
			newFiltersStep(ctx, client),
			newResultsStep(ctx, client, opts.MaxRows),
		},
		spinner: sp,
	}
}

// Init attaches the workflow so the first frame shows the steps under the
// loading overlay. The bootstrap starts once startBootstrapMsg comes back
// through Update, after that frame.
func (m Model) Init() tea.Cmd {
	m.shell.Attach(m.ctx)
	return tea.Batch(m.spinner.Tick, startBootstrap)
}

// Update handles messages and user input.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeypress(msg)

	case startBootstrapMsg:
		return m, waitForBootstrap(m.shell.StartBootstrap())

	case bootstrapMsg:
		if err := m.shell.HandleBootstrap(msg.outcome); err != nil {
			m.logger.Warn("dataset bootstrap failed", "error", err.Error())
			return m, nil
		}
		if sess := m.shell.Session(); sess != nil {
			m.logger.Info("datasets loaded", "count", len(sess.Datasets()))
			if s := m.activeStep(); s != nil {
				return m, s.enter(sess)
			}
		}
		return m, nil

	case spinner.TickMsg:
		// the spinner stops once the bootstrap settles
		if !m.shell.View().Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case themeChangedMsg:
		if msg.err != nil {
			m.logger.Warn("theme reload failed", "error", msg.err.Error())
			m.notice = "theme: " + msg.err.Error()
			return m, nil
		}
		styles.Apply(msg.theme.Palette())
		m.spinner.Style = styles.Primary
		m.notice = ""
		m.logger.Info("theme applied", "name", msg.theme.Name)
		return m, nil
	}

	return m, m.broadcast(msg)
}

// broadcast delivers async results to every step. Steps only act on input
// while active, so they get no callbacks here.
func (m Model) broadcast(msg tea.Msg) tea.Cmd {
	sess := m.shell.Session()
	if sess == nil || sess.Disposed() {
		return nil
	}
	var cmds []tea.Cmd
	for _, s := range m.steps {
		if cmd := s.update(msg, sess, workflow.StepCallbacks{}); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) handleKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	vs := m.shell.View()
	if !vs.Mounted || vs.Busy {
		return m, nil
	}

	if vs.Mode == workflow.ModeError {
		switch msg.String() {
		case "q", "esc", "enter":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	sess := m.shell.Session()
	active := m.activeStep()
	if active == nil {
		return m, nil
	}
	cmd := active.update(msg, sess, m.shell.Callbacks())

	if after := m.shell.View().StepIndex; after != vs.StepIndex {
		m.logger.Debug("step changed", "from", vs.StepIndex, "to", after)
		if s := m.stepAt(after); s != nil {
			cmd = tea.Batch(cmd, s.enter(sess))
		}
	}
	return m, cmd
}

func (m Model) activeStep() step {
	return m.stepAt(m.shell.View().StepIndex)
}

func (m Model) stepAt(i int) step {
	if i < 0 || i >= len(m.steps) {
		return nil
	}
	return m.steps[i]
}

func (m Model) contentWidth() int {
	w := m.width
	if w <= 0 {
		w = defaultWidth
	}
	return max(w-4, 20)
}

// View renders the workflow.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	vs := m.shell.View()
	if !vs.Mounted {
		return "Loading..."
	}
	if vs.Mode == workflow.ModeError {
		return m.renderError(vs)
	}

	sess := m.shell.Session()
	var b strings.Builder
	b.WriteString(styles.Title.Render("teehrview"))
	b.WriteString("\n")
	b.WriteString(m.renderStepIndicator(vs))
	b.WriteString("\n")

	var body string
	if s := m.stepAt(vs.StepIndex); s != nil && sess != nil {
		body = s.view(sess, m.contentWidth()-4)
	}
	b.WriteString(styles.ContentBox.Width(m.contentWidth()).Render(strings.TrimRight(body, "\n")))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(styles.Warning.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHelp(sess))

	if vs.Busy {
		return m.renderOverlay(b.String())
	}
	return b.String()
}

// renderStepIndicator renders "Query › Filters (optional) › Results" with
// the active step highlighted.
func (m Model) renderStepIndicator(vs workflow.ViewState) string {
	parts := make([]string, len(vs.Steps))
	for i, s := range vs.Steps {
		var label string
		switch {
		case i == vs.StepIndex:
			label = styles.StepActive.Render(s.Label)
		case i < vs.StepIndex:
			label = styles.StepDone.Render(s.Label)
		default:
			label = styles.StepPending.Render(s.Label)
		}
		if s.Optional {
			label += styles.OptionalCaption.Render(" (optional)")
		}
		parts[i] = label
	}
	return strings.Join(parts, styles.StepSeparator.Render(" › "))
}

func (m Model) renderHelp(sess *session.Context) string {
	var items []helpItem
	if s := m.activeStep(); s != nil && sess != nil {
		items = s.help(m.shell.Callbacks())
	}
	items = append(items, helpItem{"ctrl+c", "quit"})

	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = styles.HelpKey.Render(it.key) + " " + it.desc
	}
	return styles.HelpBar.Render(strings.Join(parts, "  "))
}

// renderOverlay centres the loading box over the base view. The base stays
// visible above and below it.
func (m Model) renderOverlay(base string) string {
	box := styles.Overlay.Render(m.spinner.View() + " Loading datasets...")

	lines := strings.Split(base, "\n")
	boxLines := strings.Split(box, "\n")
	width := m.contentWidth() + 4

	start := max((len(lines)-len(boxLines))/2, 0)
	for i, l := range boxLines {
		placed := lipgloss.PlaceHorizontal(width, lipgloss.Center, l)
		if idx := start + i; idx < len(lines) {
			lines[idx] = placed
		} else {
			lines = append(lines, placed)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderError(vs workflow.ViewState) string {
	msg := "unknown error"
	if vs.Err != nil {
		msg = vs.Err.Error()
	}
	body := styles.Error.Bold(true).Render("Could not load datasets") + "\n\n" +
		msg + "\n\n" +
		styles.Muted.Render("Press q to quit.")
	return styles.ErrorBox.Width(m.contentWidth()).Render(body)
}
