package session

import (
	"sync"
	"testing"

	"github.com/Iron-Ham/teehrview/internal/event"
	"github.com/Iron-Ham/teehrview/internal/teehr"
)

func TestNew_Defaults(t *testing.T) {
	c := New(nil, nil)

	form := c.FormData()
	if form.HasDataset() {
		t.Error("default form should have no dataset")
	}
	if len(form.IncludeMetrics) != 0 || form.GroupBy == nil {
		t.Errorf("unexpected default form: %+v", form)
	}
	if got := c.Datasets(); got == nil || len(got) != 0 {
		t.Errorf("Datasets() = %v, want empty non-nil", got)
	}
	if c.ResultData() != nil {
		t.Error("ResultData should be nil until computed")
	}
	if c.FieldOptions() == nil {
		t.Error("FieldOptions should be non-nil")
	}
	if c.Disposed() {
		t.Error("new context should not be disposed")
	}
}

func TestSetters_PublishFieldChanged(t *testing.T) {
	bus := event.NewBus(nil)
	c := New(bus, nil)

	var fields []string
	bus.Subscribe(event.TypeSessionFieldChanged, func(e event.Event) {
		fields = append(fields, e.(event.SessionFieldChangedEvent).Field)
	})

	c.SetFormData(teehr.QueryForm{DatasetID: 1})
	c.SetDatasets([]teehr.Dataset{{ID: 1, Name: "sales"}})
	c.SetMetrics([]teehr.MetricOption{{Name: "primary_count"}})
	c.SetGroupByFields([]teehr.FieldOption{{Name: "primary_location_id"}})
	c.SetOperatorOptions(teehr.DefaultOperatorOptions())
	c.SetFieldOptions(map[string][]teehr.FieldValue{"a": {"x"}})
	c.SetResultData(&teehr.MetricResult{})

	want := []string{
		FieldFormData, FieldDatasets, FieldMetrics, FieldGroupByFields,
		FieldOperatorOptions, FieldFieldOptions, FieldResultData,
	}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestSetter_HandlerSeesNewValue(t *testing.T) {
	bus := event.NewBus(nil)
	c := New(bus, nil)

	var seen []teehr.Dataset
	bus.Subscribe(event.TypeSessionFieldChanged, func(e event.Event) {
		seen = c.Datasets()
	})

	c.SetDatasets([]teehr.Dataset{{ID: 1, Name: "sales"}})

	if len(seen) != 1 || seen[0].Name != "sales" {
		t.Errorf("handler saw %v, want the new datasets", seen)
	}
}

func TestGetters_ReturnCopies(t *testing.T) {
	c := New(nil, nil)

	input := []teehr.Dataset{{ID: 1, Name: "sales"}}
	c.SetDatasets(input)
	input[0].Name = "mutated"
	if c.Datasets()[0].Name != "sales" {
		t.Error("setter should copy its input")
	}

	out := c.Datasets()
	out[0].Name = "mutated"
	if c.Datasets()[0].Name != "sales" {
		t.Error("getter should return a copy")
	}

	form := teehr.DefaultQueryForm()
	form.GroupBy = append(form.GroupBy, "primary_location_id")
	c.SetFormData(form)
	got := c.FormData()
	got.GroupBy[0] = "mutated"
	if c.FormData().GroupBy[0] != "primary_location_id" {
		t.Error("FormData should not alias the stored form")
	}

	c.SetFieldOptions(map[string][]teehr.FieldValue{"f": {"a"}})
	opts := c.FieldOptions()
	opts["f"][0] = "mutated"
	opts["g"] = nil
	fresh := c.FieldOptions()
	if fresh["f"][0] != "a" {
		t.Error("FieldOptions slices should be copies")
	}
	if _, ok := fresh["g"]; ok {
		t.Error("FieldOptions map should be a copy")
	}
}

func TestSetters_ReplaceWholesale(t *testing.T) {
	c := New(nil, nil)
	c.SetMetrics([]teehr.MetricOption{{Name: "a"}, {Name: "b"}})
	c.SetMetrics([]teehr.MetricOption{{Name: "c"}})

	got := c.Metrics()
	if len(got) != 1 || got[0].Name != "c" {
		t.Errorf("Metrics() = %v, want only c", got)
	}

	c.SetMetrics(nil)
	if got := c.Metrics(); got == nil || len(got) != 0 {
		t.Errorf("Metrics() after nil = %v, want empty non-nil", got)
	}
}

func TestResetFormData(t *testing.T) {
	c := New(nil, nil)
	c.SetFormData(teehr.DefaultQueryForm().WithDataset(9))
	form := c.FormData()
	form.IncludeMetrics = []string{"x"}
	c.SetFormData(form)
	c.SetDatasets([]teehr.Dataset{{ID: 9}})

	c.ResetFormData()

	form = c.FormData()
	if form.HasDataset() || form.DatasetID != 0 || len(form.IncludeMetrics) != 0 {
		t.Errorf("form after reset = %+v, want default", form)
	}
	if len(c.Datasets()) != 1 {
		t.Error("ResetFormData should not touch datasets")
	}
}

func TestDispose_DropsWrites(t *testing.T) {
	bus := event.NewBus(nil)
	c := New(bus, nil)
	c.SetDatasets([]teehr.Dataset{{ID: 1}})

	published := 0
	bus.SubscribeAll(func(event.Event) { published++ })

	c.Dispose()
	c.SetDatasets([]teehr.Dataset{{ID: 2}, {ID: 3}})
	c.ResetFormData()

	if !c.Disposed() {
		t.Error("Disposed() should be true")
	}
	if got := c.Datasets(); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Datasets() = %v, want the pre-dispose value", got)
	}
	if published != 0 {
		t.Errorf("published %d events after dispose, want 0", published)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.SetDatasets([]teehr.Dataset{{ID: i}})
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Datasets()
			_ = c.FormData()
		}()
	}
	wg.Wait()

	if len(c.Datasets()) != 1 {
		t.Errorf("Datasets() = %v, want exactly one entry", c.Datasets())
	}
}
