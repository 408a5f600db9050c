package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/teehrview/internal/session"
	"github.com/Iron-Ham/teehrview/internal/teehr"
	"github.com/Iron-Ham/teehrview/internal/tui/styles"
	"github.com/Iron-Ham/teehrview/internal/util"
	"github.com/Iron-Ham/teehrview/internal/workflow"
)

// maxColumnWidth caps a result column.
const maxColumnWidth = 24

// resultsStep runs the query and shows the metric table. It is the
// terminal step and the only one that can reset the workflow.
type resultsStep struct {
	ctx     context.Context
	client  Client
	maxRows int

	seq     int
	running bool
	offset  int
	err     error
}

func newResultsStep(ctx context.Context, client Client, maxRows int) *resultsStep {
	if maxRows <= 0 {
		maxRows = 50
	}
	return &resultsStep{ctx: ctx, client: client, maxRows: maxRows}
}

func (r *resultsStep) enter(sess *session.Context) tea.Cmd {
	return r.run(sess)
}

// run starts the query for the current form. Results of earlier runs are
// discarded when they arrive.
func (r *resultsStep) run(sess *session.Context) tea.Cmd {
	form := sess.FormData()
	q := form.MetricQuery()
	r.seq++
	r.offset = 0
	sess.SetResultData(nil)

	if err := q.Validate(); err != nil {
		r.running = false
		r.err = err
		return nil
	}
	r.running = true
	r.err = nil
	return runQuery(r.ctx, r.client, r.seq, form.DatasetID, q)
}

func (r *resultsStep) update(msg tea.Msg, sess *session.Context, cb workflow.StepCallbacks) tea.Cmd {
	switch msg := msg.(type) {
	case resultsMsg:
		if msg.seq != r.seq {
			return nil
		}
		r.running = false
		if msg.err != nil {
			r.err = msg.err
			return nil
		}
		sess.SetResultData(msg.result)
		return nil
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			r.offset = max(r.offset-1, 0)
		case "down", "j":
			if n := sess.ResultData().Len(); r.offset < n-1 {
				r.offset++
			}
		case "r":
			if !r.running {
				return r.run(sess)
			}
		case "b", "esc":
			if cb.OnBack != nil {
				r.seq++ // drop the in-flight result
				r.running = false
				cb.OnBack()
			}
		case "R", "ctrl+r":
			if cb.OnReset != nil {
				r.seq++
				r.running = false
				cb.OnReset()
			}
		}
	}
	return nil
}

func (r *resultsStep) view(sess *session.Context, width int) string {
	var b strings.Builder
	form := sess.FormData()

	b.WriteString(styles.SectionHead.Render("Query"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  dataset   %s\n", datasetName(sess, form.DatasetID)))
	b.WriteString(fmt.Sprintf("  metrics   %s\n", strings.Join(form.IncludeMetrics, ", ")))
	b.WriteString(fmt.Sprintf("  group by  %s\n", strings.Join(form.GroupBy, ", ")))
	b.WriteString("  " + styles.SQL.Render(teehr.FiltersToSQL(form.Filters)) + "\n\n")

	switch result := sess.ResultData(); {
	case r.running:
		b.WriteString(styles.Muted.Render("Running query..."))
	case r.err != nil:
		b.WriteString(styles.Error.Render(r.err.Error()))
	case result == nil:
		b.WriteString(styles.Muted.Render("No results yet. Press r to run."))
	case result.Len() == 0:
		b.WriteString(styles.Muted.Render("The query returned no rows."))
	default:
		b.WriteString(r.table(result, width))
	}
	b.WriteString("\n")
	return b.String()
}

func (r *resultsStep) table(result *teehr.MetricResult, width int) string {
	widths := make([]int, len(result.Columns))
	for i, c := range result.Columns {
		w := lipgloss.Width(c)
		for row := range result.Rows {
			w = max(w, lipgloss.Width(result.Cell(row, c)))
		}
		widths[i] = min(w, maxColumnWidth)
	}

	var lines []string
	var head []string
	for i, c := range result.Columns {
		head = append(head, styles.TableHeader.Render(util.PadRight(c, widths[i])))
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, head...))

	start := min(r.offset, result.Len())
	end := min(start+r.maxRows, result.Len())
	for row := start; row < end; row++ {
		var cells []string
		for i, c := range result.Columns {
			cells = append(cells, styles.TableCell.Render(util.PadRight(result.Cell(row, c), widths[i])))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	for i, l := range lines {
		lines[i] = util.TruncateANSI(l, max(width, 20))
	}
	footer := styles.Muted.Render(fmt.Sprintf("rows %d-%d of %d", start+1, end, result.Len()))
	return strings.Join(lines, "\n") + "\n" + footer
}

func datasetName(sess *session.Context, id int) string {
	for _, d := range sess.Datasets() {
		if d.ID == id {
			return d.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}

func (r *resultsStep) help(cb workflow.StepCallbacks) []helpItem {
	items := []helpItem{{"↑/↓", "scroll"}, {"r", "rerun"}}
	if cb.OnBack != nil {
		items = append(items, helpItem{"b", "back"})
	}
	if cb.OnReset != nil {
		items = append(items, helpItem{"R", "new query"})
	}
	return items
}
