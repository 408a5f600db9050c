package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/teehrview/internal/errors"
	"github.com/Iron-Ham/teehrview/internal/session"
	"github.com/Iron-Ham/teehrview/internal/teehr"
	"github.com/Iron-Ham/teehrview/internal/tui/styles"
	"github.com/Iron-Ham/teehrview/internal/util"
	"github.com/Iron-Ham/teehrview/internal/workflow"
)

type querySection int

const (
	sectionDatasets querySection = iota
	sectionMetrics
	sectionGroupBy
	numSections
)

func (s querySection) String() string {
	switch s {
	case sectionMetrics:
		return "Metrics"
	case sectionGroupBy:
		return "Group by"
	default:
		return "Dataset"
	}
}

const listHeight = 8

// queryStep picks the dataset, the metrics and the group-by fields.
type queryStep struct {
	ctx    context.Context
	client Client

	section querySection
	cursor  [numSections]int
	filter  *util.GlobFilter
	input   textinput.Model
	typing  bool

	loading   bool
	loaded    bool // options are in the session for dataset loadedFor
	loadedFor int
	err       error
}

func newQueryStep(ctx context.Context, client Client) *queryStep {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "glob, e.g. *_efficiency"
	ti.CharLimit = 64
	ti.Cursor.SetMode(cursor.CursorStatic)
	return &queryStep{ctx: ctx, client: client, input: ti}
}

func (q *queryStep) enter(sess *session.Context) tea.Cmd {
	if !sess.FormData().HasDataset() {
		q.section = sectionDatasets
		q.cursor = [numSections]int{}
		q.loaded = false
		q.clearFilter()
	}
	q.err = nil
	return nil
}

// names returns the option names of a section, in session order.
func (q *queryStep) names(sess *session.Context, s querySection) []string {
	var out []string
	switch s {
	case sectionDatasets:
		for _, d := range sess.Datasets() {
			out = append(out, d.Name)
		}
	case sectionMetrics:
		for _, m := range sess.Metrics() {
			out = append(out, m.Name)
		}
	case sectionGroupBy:
		for _, f := range sess.GroupByFields() {
			out = append(out, f.Name)
		}
	}
	return out
}

// visible returns the indices of the current section that pass the filter.
func (q *queryStep) visible(sess *session.Context) []int {
	return q.filter.Indices(q.names(sess, q.section))
}

func (q *queryStep) update(msg tea.Msg, sess *session.Context, cb workflow.StepCallbacks) tea.Cmd {
	switch msg := msg.(type) {
	case optionsLoadedMsg:
		return q.handleOptions(msg, sess)
	case tea.KeyMsg:
		if q.typing {
			return q.handleFilterKey(msg)
		}
		return q.handleKey(msg, sess, cb)
	}
	return nil
}

func (q *queryStep) handleOptions(msg optionsLoadedMsg, sess *session.Context) tea.Cmd {
	if form := sess.FormData(); !form.HasDataset() || msg.datasetID != form.DatasetID {
		return nil
	}
	q.loading = false
	if msg.err != nil {
		q.err = fmt.Errorf("loading options: %w", msg.err)
		return nil
	}
	sess.SetMetrics(msg.metrics)
	sess.SetGroupByFields(msg.groupBy)
	sess.SetOperatorOptions(msg.operators)
	q.loaded, q.loadedFor = true, msg.datasetID
	q.section = sectionMetrics
	q.cursor[sectionMetrics], q.cursor[sectionGroupBy] = 0, 0
	q.clearFilter()
	return nil
}

func (q *queryStep) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		f, err := util.NewGlobFilter(q.input.Value())
		if err != nil {
			q.err = err
			return nil
		}
		q.filter = f
		q.cursor[q.section] = 0
		q.typing = false
		q.input.Blur()
		return nil
	case "esc":
		q.clearFilter()
		return nil
	}
	var cmd tea.Cmd
	q.input, cmd = q.input.Update(msg)
	return cmd
}

func (q *queryStep) clearFilter() {
	q.filter = nil
	q.typing = false
	q.input.SetValue("")
	q.input.Blur()
}

func (q *queryStep) handleKey(msg tea.KeyMsg, sess *session.Context, cb workflow.StepCallbacks) tea.Cmd {
	vis := q.visible(sess)
	cur := &q.cursor[q.section]

	switch msg.String() {
	case "up", "k":
		*cur = clamp(*cur-1, len(vis))
	case "down", "j":
		*cur = clamp(*cur+1, len(vis))
	case "tab":
		q.moveSection(1)
	case "shift+tab":
		q.moveSection(-1)
	case "/":
		q.typing = true
		q.err = nil
		return q.input.Focus()
	case "g":
		form := sess.FormData()
		form.IncludeGeometry = !form.IncludeGeometry
		sess.SetFormData(form)
	case "enter", " ":
		if len(vis) == 0 {
			return nil
		}
		return q.choose(sess, vis[clamp(*cur, len(vis))])
	case "n", "ctrl+n":
		if err := q.validate(sess.FormData()); err != nil {
			q.err = err
			return nil
		}
		q.err = nil
		if cb.OnNext != nil {
			cb.OnNext()
		}
	}
	return nil
}

// moveSection cycles sections; metrics and group-by need loaded options.
func (q *queryStep) moveSection(delta int) {
	if !q.loaded {
		q.section = sectionDatasets
		return
	}
	q.section = querySection((int(q.section) + delta + int(numSections)) % int(numSections))
	q.clearFilter()
}

func (q *queryStep) choose(sess *session.Context, idx int) tea.Cmd {
	form := sess.FormData()
	switch q.section {
	case sectionDatasets:
		ds := sess.Datasets()[idx]
		if form.HasDataset() && ds.ID == form.DatasetID && q.loaded && q.loadedFor == ds.ID {
			q.section = sectionMetrics
			return nil
		}
		// fields differ between datasets, so everything downstream resets
		sess.SetFormData(teehr.DefaultQueryForm().WithDataset(ds.ID))
		sess.SetMetrics(nil)
		sess.SetGroupByFields(nil)
		sess.SetOperatorOptions(nil)
		sess.SetFieldOptions(nil)
		sess.SetResultData(nil)
		q.loading = true
		q.loaded = false
		q.err = nil
		return loadOptions(q.ctx, q.client, ds.ID)
	case sectionMetrics:
		form.IncludeMetrics = toggle(form.IncludeMetrics, sess.Metrics()[idx].Name)
	case sectionGroupBy:
		name := sess.GroupByFields()[idx].Name
		form.GroupBy = toggle(form.GroupBy, name)
		form.OrderBy = slices.DeleteFunc(form.OrderBy, func(s string) bool {
			return !slices.Contains(form.GroupBy, s)
		})
	}
	sess.SetFormData(form)
	return nil
}

func (q *queryStep) validate(form teehr.QueryForm) error {
	if !form.HasDataset() {
		return errors.NewValidationError("choose a dataset").WithField("dataset")
	}
	if q.loading {
		return errors.NewValidationError("options are still loading").WithField("dataset")
	}
	return form.MetricQuery().Validate()
}

func (q *queryStep) view(sess *session.Context, width int) string {
	form := sess.FormData()
	var b strings.Builder

	selected := map[querySection][]string{
		sectionMetrics: form.IncludeMetrics,
		sectionGroupBy: form.GroupBy,
	}
	for s := querySection(0); s < numSections; s++ {
		names := q.names(sess, s)
		head := s.String()
		if s != sectionDatasets {
			head = fmt.Sprintf("%s (%d selected)", head, len(selected[s]))
		}
		b.WriteString(styles.SectionHead.Render(head))
		b.WriteString("\n")

		switch {
		case s != sectionDatasets && q.loading:
			b.WriteString(styles.Muted.Render("  loading options..."))
			b.WriteString("\n\n")
			continue
		case s != sectionDatasets && !q.loaded:
			b.WriteString(styles.Muted.Render("  choose a dataset first"))
			b.WriteString("\n\n")
			continue
		}

		// the filter only narrows the focused section
		idx := q.filter.Indices(names)
		if s != q.section {
			idx = allIndices(len(names))
		}
		if len(idx) == 0 {
			b.WriteString(styles.Muted.Render("  (none)"))
			b.WriteString("\n")
		}
		cur := clamp(q.cursor[s], len(idx))
		start, end := window(cur, len(idx), listHeight)
		for row := start; row < end; row++ {
			name := names[idx[row]]
			mark := "  "
			if s == q.section && row == cur {
				mark = styles.Cursor.Render("> ")
			}
			box := "[ ]"
			isSel := false
			if s == sectionDatasets {
				isSel = form.HasDataset() && sess.Datasets()[idx[row]].ID == form.DatasetID
			} else {
				isSel = slices.Contains(selected[s], name)
			}
			if isSel {
				box = styles.Selected.Render("[x]")
			}
			b.WriteString(mark + box + " " + util.TruncateANSI(name, max(width-8, 10)) + "\n")
		}
		b.WriteString("\n")
	}

	geo := "no"
	if form.IncludeGeometry {
		geo = "yes"
	}
	b.WriteString(styles.Muted.Render("Include geometry: ") + geo + "\n")

	if q.typing {
		b.WriteString("\n" + q.input.View() + "\n")
	} else if q.filter != nil && q.filter.Pattern() != "" {
		b.WriteString("\n" + styles.Muted.Render("filter: "+q.filter.Pattern()) + "\n")
	}
	if q.err != nil {
		b.WriteString("\n" + styles.Error.Render(q.err.Error()) + "\n")
	}
	return b.String()
}

func (q *queryStep) help(cb workflow.StepCallbacks) []helpItem {
	if q.typing {
		return []helpItem{{"enter", "apply filter"}, {"esc", "clear"}}
	}
	return []helpItem{
		{"↑/↓", "move"},
		{"tab", "section"},
		{"enter", "select"},
		{"/", "filter"},
		{"g", "geometry"},
		{"n", "next"},
	}
}
