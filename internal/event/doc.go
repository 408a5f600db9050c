// Package event provides the synchronous publish/subscribe bus that carries
// state changes from the workflow core to its readers.
//
// Every session field setter, step transition and loader transition publishes
// an event before it returns. Readers subscribe by event type (or to all
// events) instead of polling:
//
//	bus := event.NewBus(logger)
//	bus.Subscribe(event.TypeSessionFieldChanged, func(e event.Event) {
//	    changed := e.(event.SessionFieldChangedEvent)
//	    refresh(changed.Field)
//	})
//
// The bus is owned by a single workflow instance; tests construct their own.
package event
