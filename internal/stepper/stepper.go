// Package stepper implements the linear step sequence of the workflow:
// the current position plus advance, retreat and reset.
//
// The controller is domain-agnostic. It performs no per-step validation
// before Advance; the active step validates its own inputs before invoking
// its callback. Step.Optional is presentation metadata only and never
// changes transition behavior.
package stepper

import (
	"slices"
	"sync"

	"github.com/Iron-Ham/teehrview/internal/event"
)

// Step describes one position in the sequence.
type Step struct {
	Label    string
	Optional bool
}

// Indices of DefaultSteps.
const (
	StepQuery = iota
	StepFilters
	StepResults
)

// DefaultSteps returns the query workflow: Query, Filters (optional), Results.
func DefaultSteps() []Step {
	return []Step{
		{Label: "Query"},
		{Label: "Filters", Optional: true},
		{Label: "Results"},
	}
}

// Controller tracks the active step. The step list is fixed at construction.
type Controller struct {
	mu    sync.RWMutex
	steps []Step
	index int
	bus   *event.Bus
}

// New creates a controller positioned on the first step. With no steps
// given it uses DefaultSteps.
func New(steps ...Step) *Controller {
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	return &Controller{steps: slices.Clone(steps)}
}

// WithBus attaches a bus that receives an event.StepChangedEvent on every
// index change. It returns c for chaining.
func (c *Controller) WithBus(bus *event.Bus) *Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus = bus
	return c
}

// Advance moves to the next step. At the last step it does nothing and
// returns false.
func (c *Controller) Advance() bool {
	return c.move(func(i, n int) int { return min(i+1, n-1) })
}

// Retreat moves to the previous step. At the first step it does nothing and
// returns false.
func (c *Controller) Retreat() bool {
	return c.move(func(i, _ int) int { return max(i-1, 0) })
}

// Reset returns to the first step. It reports whether the index changed.
func (c *Controller) Reset() bool {
	return c.move(func(int, int) int { return 0 })
}

func (c *Controller) move(next func(i, n int) int) bool {
	c.mu.Lock()
	from := c.index
	to := next(from, len(c.steps))
	if to == from {
		c.mu.Unlock()
		return false
	}
	c.index = to
	bus, label := c.bus, c.steps[to].Label
	c.mu.Unlock()

	if bus != nil {
		bus.Publish(event.NewStepChangedEvent(from, to, label))
	}
	return true
}

// Index returns the active step index.
func (c *Controller) Index() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// Current returns the active step.
func (c *Controller) Current() Step {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.steps[c.index]
}

// Steps returns a copy of the step list.
func (c *Controller) Steps() []Step {
	return slices.Clone(c.steps)
}

func (c *Controller) Len() int {
	return len(c.steps)
}

func (c *Controller) IsFirst() bool {
	return c.Index() == 0
}

func (c *Controller) IsLast() bool {
	return c.Index() == len(c.steps)-1
}

// IsOptional reports the Optional flag of step i; out of range is false.
func (c *Controller) IsOptional(i int) bool {
	if i < 0 || i >= len(c.steps) {
		return false
	}
	return c.steps[i].Optional
}
