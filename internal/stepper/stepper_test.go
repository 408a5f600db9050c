package stepper

import (
	"testing"

	"github.com/Iron-Ham/teehrview/internal/event"
)

// seek moves a fresh default controller to index i.
func seek(t *testing.T, i int) *Controller {
	t.Helper()
	c := New()
	for c.Index() < i {
		if !c.Advance() {
			t.Fatalf("could not advance to %d", i)
		}
	}
	return c
}

func TestDefaultSteps(t *testing.T) {
	c := New()

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	labels := []string{"Query", "Filters", "Results"}
	for i, s := range c.Steps() {
		if s.Label != labels[i] {
			t.Errorf("step %d label = %q, want %q", i, s.Label, labels[i])
		}
	}
	if c.IsOptional(StepQuery) || !c.IsOptional(StepFilters) || c.IsOptional(StepResults) {
		t.Error("only Filters should be optional")
	}
	if c.IsOptional(-1) || c.IsOptional(3) {
		t.Error("out-of-range steps should not be optional")
	}
	if c.Index() != 0 || !c.IsFirst() || c.IsLast() {
		t.Error("controller should start on the first step")
	}
}

func TestAdvance(t *testing.T) {
	n := New().Len()
	for i := 0; i < n; i++ {
		c := seek(t, i)
		moved := c.Advance()
		want := min(i+1, n-1)
		if c.Index() != want {
			t.Errorf("Advance from %d: index = %d, want %d", i, c.Index(), want)
		}
		if moved != (i < n-1) {
			t.Errorf("Advance from %d: moved = %v", i, moved)
		}
	}
}

func TestRetreat(t *testing.T) {
	n := New().Len()
	for i := 0; i < n; i++ {
		c := seek(t, i)
		moved := c.Retreat()
		want := max(i-1, 0)
		if c.Index() != want {
			t.Errorf("Retreat from %d: index = %d, want %d", i, c.Index(), want)
		}
		if moved != (i > 0) {
			t.Errorf("Retreat from %d: moved = %v", i, moved)
		}
	}
}

func TestRetreatAtFirstIsIdempotent(t *testing.T) {
	c := New()
	for i := 0; i < 10; i++ {
		if c.Retreat() {
			t.Fatal("Retreat at index 0 should report no move")
		}
		if c.Index() != 0 {
			t.Fatalf("index = %d after retreat %d, want 0", c.Index(), i)
		}
	}
}

func TestAdvanceAtLastNeverPanics(t *testing.T) {
	c := seek(t, 2)
	for i := 0; i < 5; i++ {
		c.Advance()
	}
	if !c.IsLast() || c.Current().Label != "Results" {
		t.Errorf("expected to stay on Results, got %+v", c.Current())
	}
}

func TestReset(t *testing.T) {
	for i := 0; i < 3; i++ {
		c := seek(t, i)
		c.Reset()
		if c.Index() != 0 {
			t.Errorf("Reset from %d: index = %d, want 0", i, c.Index())
		}
	}
}

func TestOptionalDoesNotAffectTransitions(t *testing.T) {
	c := New(Step{Label: "a"}, Step{Label: "b", Optional: true}, Step{Label: "c", Optional: true}, Step{Label: "d"})
	c.Advance()
	if c.Index() != 1 {
		t.Fatalf("Advance should visit optional step, index = %d", c.Index())
	}
	c.Advance()
	c.Advance()
	if c.Index() != 3 {
		t.Errorf("index = %d, want 3", c.Index())
	}
}

func TestStepsAreImmutable(t *testing.T) {
	input := []Step{{Label: "a"}, {Label: "b"}}
	c := New(input...)
	input[0].Label = "changed"

	out := c.Steps()
	out[1].Label = "changed"

	if c.Steps()[0].Label != "a" || c.Steps()[1].Label != "b" {
		t.Errorf("Steps() = %v, want the construction-time list", c.Steps())
	}
}

func TestPublishesStepChanged(t *testing.T) {
	bus := event.NewBus(nil)
	c := New().WithBus(bus)

	var got []event.StepChangedEvent
	bus.Subscribe(event.TypeStepChanged, func(e event.Event) {
		got = append(got, e.(event.StepChangedEvent))
		_ = c.Index()
	})

	c.Retreat() // no-op, no event
	c.Advance()
	c.Advance()
	c.Advance() // no-op at last
	c.Reset()

	want := []struct {
		from, to int
		label    string
	}{
		{0, 1, "Filters"},
		{1, 2, "Results"},
		{2, 0, "Query"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].From != w.from || got[i].To != w.to || got[i].Label != w.label {
			t.Errorf("event %d = %d->%d %q, want %d->%d %q",
				i, got[i].From, got[i].To, got[i].Label, w.from, w.to, w.label)
		}
	}
}
