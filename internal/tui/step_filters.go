package tui

import (
	"context"
	"fmt"
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

type filterFocus int

const (
	focusColumn filterFocus = iota
	focusOperator
	focusValue
	numFocus
)

// maxValueHints is how many unique values are shown under the editor.
const maxValueHints = 5

// filtersStep edits FormData.Filters. It can be left without adding any
// filter.
type filtersStep struct {
	ctx    context.Context
	client Client

	focus    filterFocus
	column   int
	operator int
	value    textinput.Model

	pending map[valuesKey]bool // field values in flight
	err     error
}

// valuesKey names one unique-values request.
type valuesKey struct {
	datasetID int
	field     string
}

func newFiltersStep(ctx context.Context, client Client) *filtersStep {
	ti := textinput.New()
	ti.Placeholder = "value (comma-separated for in)"
	ti.CharLimit = 256
	ti.Cursor.SetMode(cursor.CursorStatic)
	return &filtersStep{ctx: ctx, client: client, value: ti, pending: map[valuesKey]bool{}}
}

func (f *filtersStep) enter(sess *session.Context) tea.Cmd {
	f.err = nil
	f.column = clamp(f.column, len(sess.GroupByFields()))
	f.operator = clamp(f.operator, len(sess.OperatorOptions()))
	return f.ensureValues(sess)
}

func (f *filtersStep) currentField(sess *session.Context) (teehr.FieldOption, bool) {
	fields := sess.GroupByFields()
	if len(fields) == 0 {
		return teehr.FieldOption{}, false
	}
	return fields[clamp(f.column, len(fields))], true
}

func (f *filtersStep) currentOperator(sess *session.Context) (teehr.OperatorOption, bool) {
	ops := sess.OperatorOptions()
	if len(ops) == 0 {
		return teehr.OperatorOption{}, false
	}
	return ops[clamp(f.operator, len(ops))], true
}

// ensureValues loads the unique values of the selected field once.
func (f *filtersStep) ensureValues(sess *session.Context) tea.Cmd {
	field, ok := f.currentField(sess)
	if !ok {
		return nil
	}
	key := valuesKey{datasetID: sess.FormData().DatasetID, field: field.Name}
	if f.pending[key] {
		return nil
	}
	if _, loaded := sess.FieldOptions()[field.Name]; loaded {
		return nil
	}
	f.pending[key] = true
	return loadFieldValues(f.ctx, f.client, key.datasetID, key.field)
}

func (f *filtersStep) update(msg tea.Msg, sess *session.Context, cb workflow.StepCallbacks) tea.Cmd {
	switch msg := msg.(type) {
	case fieldValuesMsg:
		delete(f.pending, valuesKey{datasetID: msg.datasetID, field: msg.field})
		if form := sess.FormData(); !form.HasDataset() || msg.datasetID != form.DatasetID {
			return nil
		}
		if msg.err != nil {
			f.err = fmt.Errorf("loading values for %s: %w", msg.field, msg.err)
			return nil
		}
		opts := sess.FieldOptions()
		opts[msg.field] = msg.values
		sess.SetFieldOptions(opts)
		return nil
	case tea.KeyMsg:
		return f.handleKey(msg, sess, cb)
	}
	return nil
}

func (f *filtersStep) handleKey(msg tea.KeyMsg, sess *session.Context, cb workflow.StepCallbacks) tea.Cmd {
	key := msg.String()
	switch key {
	case "tab":
		return f.setFocus((f.focus + 1) % numFocus)
	case "shift+tab":
		return f.setFocus((f.focus + numFocus - 1) % numFocus)
	case "enter":
		f.add(sess)
		return nil
	case "ctrl+n":
		f.next(cb)
		return nil
	case "esc":
		f.back(cb)
		return nil
	case "ctrl+d":
		f.removeLast(sess)
		return nil
	}

	if f.focus == focusValue {
		var cmd tea.Cmd
		f.value, cmd = f.value.Update(msg)
		return cmd
	}

	switch key {
	case "left", "h":
		return f.cycle(sess, -1)
	case "right", "l":
		return f.cycle(sess, 1)
	case "n":
		f.next(cb)
	case "b":
		f.back(cb)
	case "x":
		f.removeLast(sess)
	}
	return nil
}

func (f *filtersStep) setFocus(focus filterFocus) tea.Cmd {
	f.focus = focus
	if focus == focusValue {
		return f.value.Focus()
	}
	f.value.Blur()
	return nil
}

func (f *filtersStep) cycle(sess *session.Context, delta int) tea.Cmd {
	switch f.focus {
	case focusColumn:
		if n := len(sess.GroupByFields()); n > 0 {
			f.column = (f.column + delta + n) % n
			return f.ensureValues(sess)
		}
	case focusOperator:
		if n := len(sess.OperatorOptions()); n > 0 {
			f.operator = (f.operator + delta + n) % n
		}
	}
	return nil
}

func (f *filtersStep) add(sess *session.Context) {
	field, ok := f.currentField(sess)
	if !ok {
		f.err = errors.New("no fields to filter on")
		return
	}
	op, ok := f.currentOperator(sess)
	if !ok {
		f.err = errors.New("no operators available")
		return
	}
	if strings.TrimSpace(f.value.Value()) == "" {
		f.err = errors.NewValidationError("enter a value").WithField("value")
		return
	}
	filter := teehr.Filter{
		Column:   field.Name,
		Operator: op.Symbol,
		Value:    teehr.ParseFilterValue(op.Symbol, f.value.Value()),
	}
	if err := filter.Validate(); err != nil {
		f.err = err
		return
	}
	form := sess.FormData()
	form.Filters = append(form.Filters, filter)
	sess.SetFormData(form)
	f.value.SetValue("")
	f.err = nil
}

func (f *filtersStep) removeLast(sess *session.Context) {
	form := sess.FormData()
	if len(form.Filters) == 0 {
		return
	}
	form.Filters = form.Filters[:len(form.Filters)-1]
	sess.SetFormData(form)
}

func (f *filtersStep) next(cb workflow.StepCallbacks) {
	f.setFocus(focusColumn)
	if cb.OnNext != nil {
		cb.OnNext()
	}
}

func (f *filtersStep) back(cb workflow.StepCallbacks) {
	f.setFocus(focusColumn)
	if cb.OnBack != nil {
		cb.OnBack()
	}
}

func (f *filtersStep) view(sess *session.Context, width int) string {
	var b strings.Builder
	form := sess.FormData()

	b.WriteString(styles.SectionHead.Render(fmt.Sprintf("Filters (%d)", len(form.Filters))))
	b.WriteString("\n")
	if len(form.Filters) == 0 {
		b.WriteString(styles.Muted.Render("  none; every row is used"))
		b.WriteString("\n")
	}
	for i, flt := range form.Filters {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, util.TruncateANSI(flt.String(), max(width-6, 10))))
	}
	b.WriteString("\n")

	field, _ := f.currentField(sess)
	op, _ := f.currentOperator(sess)
	b.WriteString(f.control("Column", focusColumn, "‹ "+field.Name+" ›"))
	b.WriteString(f.control("Operator", focusOperator, "‹ "+string(op.Symbol)+" ›"))
	b.WriteString(f.control("Value", focusValue, f.value.View()))

	switch values, loaded := sess.FieldOptions()[field.Name]; {
	case f.pending[valuesKey{datasetID: form.DatasetID, field: field.Name}]:
		b.WriteString(styles.Muted.Render("  loading values..."))
		b.WriteString("\n")
	case loaded && len(values) > 0:
		hints := make([]string, 0, maxValueHints)
		for _, v := range values[:min(len(values), maxValueHints)] {
			hints = append(hints, string(v))
		}
		more := ""
		if len(values) > maxValueHints {
			more = fmt.Sprintf(" (+%d more)", len(values)-maxValueHints)
		}
		b.WriteString(styles.Muted.Render("  e.g. " + strings.Join(hints, ", ") + more))
		b.WriteString("\n")
	}

	if f.err != nil {
		b.WriteString("\n" + styles.Error.Render(f.err.Error()) + "\n")
	}
	return b.String()
}

func (f *filtersStep) control(label string, focus filterFocus, body string) string {
	mark := "  "
	if f.focus == focus {
		mark = styles.Cursor.Render("> ")
	}
	return fmt.Sprintf("%s%-9s %s\n", mark, label+":", body)
}

func (f *filtersStep) help(cb workflow.StepCallbacks) []helpItem {
	items := []helpItem{
		{"tab", "next control"},
		{"←/→", "change"},
		{"enter", "add filter"},
		{"ctrl+d", "remove last"},
		{"ctrl+n", "next"},
	}
	if cb.OnBack != nil {
		items = append(items, helpItem{"esc", "back"})
	}
	return items
}
