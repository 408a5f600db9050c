// Package session holds the shared, mutable query configuration that every
// workflow step reads and writes.
//
// A Context is owned by exactly one workflow. Steps receive a pointer for the
// duration of their active lifetime and must not retain it. Each setter
// replaces its field wholesale and publishes an event.SessionFieldChangedEvent
// before returning, so subscribers observe every write without polling.
package session

import (
	"slices"
	"sync"

	"github.com/Iron-Ham/teehrview/internal/event"
	"github.com/Iron-Ham/teehrview/internal/logging"
	"github.com/Iron-Ham/teehrview/internal/teehr"
)

// Field names carried by SessionFieldChangedEvent.
const (
	FieldFormData        = "form_data"
	FieldDatasets        = "datasets"
	FieldMetrics         = "metrics"
	FieldGroupByFields   = "group_by_fields"
	FieldOperatorOptions = "operator_options"
	FieldFieldOptions    = "field_options"
	FieldResultData      = "result_data"
)

// Context is the single source of truth for an in-progress query.
type Context struct {
	mu       sync.RWMutex
	bus      *event.Bus
	logger   *logging.Logger
	disposed bool

	formData        teehr.QueryForm
	datasets        []teehr.Dataset
	metrics         []teehr.MetricOption
	groupByFields   []teehr.FieldOption
	operatorOptions []teehr.OperatorOption
	fieldOptions    map[string][]teehr.FieldValue
	resultData      *teehr.MetricResult
}

// New creates a Context holding default values. A nil bus gets a private
// one; a nil logger discards output.
func New(bus *event.Bus, logger *logging.Logger) *Context {
	if bus == nil {
		bus = event.NewBus(logger)
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Context{
		bus:             bus,
		logger:          logger.WithComponent("session"),
		formData:        teehr.DefaultQueryForm(),
		datasets:        []teehr.Dataset{},
		metrics:         []teehr.MetricOption{},
		groupByFields:   []teehr.FieldOption{},
		operatorOptions: []teehr.OperatorOption{},
		fieldOptions:    map[string][]teehr.FieldValue{},
	}
}

// Bus returns the bus setters publish on.
func (c *Context) Bus() *event.Bus {
	return c.bus
}

// -----------------------------------------------------------------------------
// Getters
// -----------------------------------------------------------------------------

// FormData returns a copy of the current form.
func (c *Context) FormData() teehr.QueryForm {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.formData.Clone()
}

// Datasets returns the datasets available for selection.
func (c *Context) Datasets() []teehr.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.datasets)
}

func (c *Context) Metrics() []teehr.MetricOption {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.metrics)
}

func (c *Context) GroupByFields() []teehr.FieldOption {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.groupByFields)
}

func (c *Context) OperatorOptions() []teehr.OperatorOption {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.operatorOptions)
}

// FieldOptions returns field name → unique values. The map and its slices
// are copies.
func (c *Context) FieldOptions() map[string][]teehr.FieldValue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneFieldOptions(c.fieldOptions)
}

// ResultData returns the last computed result, or nil.
func (c *Context) ResultData() *teehr.MetricResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resultData
}

// Disposed reports whether Dispose has been called.
func (c *Context) Disposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}

// -----------------------------------------------------------------------------
// Setters
// -----------------------------------------------------------------------------

// SetFormData replaces the form.
func (c *Context) SetFormData(v teehr.QueryForm) {
	c.set(FieldFormData, func() { c.formData = v.Clone() })
}

// ResetFormData restores the default form.
func (c *Context) ResetFormData() {
	c.SetFormData(teehr.DefaultQueryForm())
}

func (c *Context) SetDatasets(v []teehr.Dataset) {
	c.set(FieldDatasets, func() { c.datasets = nonNil(slices.Clone(v)) })
}

func (c *Context) SetMetrics(v []teehr.MetricOption) {
	c.set(FieldMetrics, func() { c.metrics = nonNil(slices.Clone(v)) })
}

func (c *Context) SetGroupByFields(v []teehr.FieldOption) {
	c.set(FieldGroupByFields, func() { c.groupByFields = nonNil(slices.Clone(v)) })
}

func (c *Context) SetOperatorOptions(v []teehr.OperatorOption) {
	c.set(FieldOperatorOptions, func() { c.operatorOptions = nonNil(slices.Clone(v)) })
}

func (c *Context) SetFieldOptions(v map[string][]teehr.FieldValue) {
	c.set(FieldFieldOptions, func() { c.fieldOptions = cloneFieldOptions(v) })
}

// SetResultData replaces the result; nil clears it.
func (c *Context) SetResultData(v *teehr.MetricResult) {
	c.set(FieldResultData, func() { c.resultData = v })
}

// Dispose marks the context as torn down. Later setters are dropped.
func (c *Context) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
}

// set applies write under the lock, then publishes outside it so handlers
// may read the new value.
func (c *Context) set(field string, write func()) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		c.logger.Debug("dropping write to disposed session", "field", field)
		return
	}
	write()
	c.mu.Unlock()

	c.bus.Publish(event.NewSessionFieldChangedEvent(field))
}

func cloneFieldOptions(in map[string][]teehr.FieldValue) map[string][]teehr.FieldValue {
	out := make(map[string][]teehr.FieldValue, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
