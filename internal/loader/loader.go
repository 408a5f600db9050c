// Package loader runs a single asynchronous operation and exposes its
// lifecycle as a four-state machine: idle, pending, succeeded, failed.
//
// A Loader executes its operation at most once. Transitions are monotonic
// (idle → pending → succeeded|failed) and enforced by a looplab/fsm machine;
// nothing leaves a terminal state. The operation runs off the caller's loop
// but only delivers its Outcome; the caller settles the loader with it.
// Failures, including panics, are captured as data and never escape the
// loader.
package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/looplab/fsm"

	"github.com/Iron-Ham/teehrview/internal/errors"
	"github.com/Iron-Ham/teehrview/internal/event"
	"github.com/Iron-Ham/teehrview/internal/logging"
)

// Status is a loader lifecycle state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether s is succeeded or failed.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

const (
	eventStart   = "start"
	eventResolve = "resolve"
	eventReject  = "reject"
)

// Operation is the asynchronous work a Loader tracks.
type Operation[T any] func(ctx context.Context) (T, error)

// Outcome is delivered once when the operation settles. Value is the zero
// value when Err is set.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Option configures a Loader.
type Option func(*options)

type options struct {
	bus *event.Bus
}

// WithBus publishes an event.LoaderStatusChangedEvent on every transition.
func WithBus(bus *event.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// Loader tracks one asynchronous operation.
type Loader[T any] struct {
	name   string
	bus    *event.Bus
	logger *logging.Logger

	mu      sync.RWMutex
	machine *fsm.FSM
	result  T
	err     error
}

// New creates an idle loader. name identifies it in logs and events.
func New[T any](name string, logger *logging.Logger, opts ...Option) *Loader[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	l := &Loader[T]{
		name:   name,
		bus:    o.bus,
		logger: logger.WithComponent("loader").With("loader", name),
	}
	l.machine = fsm.NewFSM(
		string(StatusIdle),
		fsm.Events{
			{Name: eventStart, Src: []string{string(StatusIdle)}, Dst: string(StatusPending)},
			{Name: eventResolve, Src: []string{string(StatusPending)}, Dst: string(StatusSucceeded)},
			{Name: eventReject, Src: []string{string(StatusPending)}, Dst: string(StatusFailed)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				l.logger.Debug("loader transition", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return l
}

// Name returns the loader's name.
func (l *Loader[T]) Name() string {
	return l.name
}

// Start moves the loader to pending and runs op on its own goroutine. The
// returned channel receives exactly one Outcome and is then closed. The
// loader stays pending until the consumer hands that outcome to Settle, so
// the transition lands on the consumer's loop together with whatever the
// consumer does with the value.
//
// Start returns errors.ErrAlreadyInProgress while pending and
// errors.ErrAlreadySettled once terminal; in both cases nothing changes.
func (l *Loader[T]) Start(ctx context.Context, op Operation[T]) (<-chan Outcome[T], error) {
	if op == nil {
		return nil, fmt.Errorf("loader %s: nil operation", l.name)
	}

	l.mu.Lock()
	switch Status(l.machine.Current()) {
	case StatusPending:
		l.mu.Unlock()
		return nil, errors.ErrAlreadyInProgress
	case StatusSucceeded, StatusFailed:
		l.mu.Unlock()
		return nil, errors.ErrAlreadySettled
	}
	if err := l.machine.Event(context.Background(), eventStart); err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("loader %s: %w", l.name, err)
	}
	l.mu.Unlock()
	l.publish(StatusIdle, StatusPending)

	out := make(chan Outcome[T], 1)
	go l.run(ctx, op, out)
	return out, nil
}

func (l *Loader[T]) run(ctx context.Context, op Operation[T], out chan<- Outcome[T]) {
	defer close(out)

	value, err := l.invoke(ctx, op)
	if err != nil {
		var zero T
		value = zero
	}
	out <- Outcome[T]{Value: value, Err: err}
}

func (l *Loader[T]) invoke(ctx context.Context, op Operation[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader %s: operation panicked: %v", l.name, r)
		}
	}()
	return op(ctx)
}

// Settle records o and moves the loader to succeeded or failed. It returns
// errors.ErrAlreadySettled once terminal and an error when the loader was
// never started; the state is unchanged in both cases.
func (l *Loader[T]) Settle(o Outcome[T]) error {
	to, name := StatusSucceeded, eventResolve
	if o.Err != nil {
		to, name = StatusFailed, eventReject
	}

	l.mu.Lock()
	switch Status(l.machine.Current()) {
	case StatusIdle:
		l.mu.Unlock()
		return fmt.Errorf("loader %s: settle before start", l.name)
	case StatusSucceeded, StatusFailed:
		l.mu.Unlock()
		return errors.ErrAlreadySettled
	}
	if err := l.machine.Event(context.Background(), name); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("loader %s: %w", l.name, err)
	}
	if o.Err != nil {
		l.err = o.Err
	} else {
		l.result = o.Value
	}
	l.mu.Unlock()

	if o.Err != nil {
		l.logger.Warn("operation failed", "error", o.Err.Error())
	}
	l.publish(StatusPending, to)
	return nil
}

func (l *Loader[T]) publish(from, to Status) {
	if l.bus == nil {
		return
	}
	l.bus.Publish(event.NewLoaderStatusChangedEvent(l.name, string(from), string(to)))
}

// Status returns the current state.
func (l *Loader[T]) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Status(l.machine.Current())
}

// IsLoading reports whether the operation is in flight.
func (l *Loader[T]) IsLoading() bool {
	return l.Status() == StatusPending
}

// Err returns the failure, or nil unless the loader failed.
func (l *Loader[T]) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Result returns the value and true once the loader succeeded.
func (l *Loader[T]) Result() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if Status(l.machine.Current()) != StatusSucceeded {
		var zero T
		return zero, false
	}
	return l.result, true
}
