// Package workflow composes the staged query workflow: it owns the session
// context and the step controller, bootstraps the dataset list once per
// mount, and projects the whole thing into a ViewState for rendering.
//
// The Shell is headless. internal/tui drives it from the bubbletea event
// loop, and the datasets command drives it directly.
package workflow

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Iron-Ham/teehrview/internal/bootstrap"
	"github.com/Iron-Ham/teehrview/internal/errors"
	"github.com/Iron-Ham/teehrview/internal/event"
	"github.com/Iron-Ham/teehrview/internal/loader"
	"github.com/Iron-Ham/teehrview/internal/logging"
	"github.com/Iron-Ham/teehrview/internal/session"
	"github.com/Iron-Ham/teehrview/internal/stepper"
	"github.com/Iron-Ham/teehrview/internal/teehr"
)

// Mode selects what the presentation layer shows.
type Mode int

const (
	// ModeSteps shows the step sequence.
	ModeSteps Mode = iota
	// ModeError replaces the step sequence after a failed bootstrap.
	ModeError
)

func (m Mode) String() string {
	if m == ModeError {
		return "error"
	}
	return "steps"
}

// ViewState is everything the presentation layer needs for one frame.
type ViewState struct {
	Mounted   bool
	Mode      Mode
	Busy      bool // bootstrap not yet handled; block all interaction
	StepIndex int
	Step      stepper.Step
	Steps     []stepper.Step
	Err       error // set in ModeError
}

// StepCallbacks are handed to the active step. OnBack is nil on the first
// step and OnReset is nil everywhere except the terminal step.
type StepCallbacks struct {
	OnNext  func()
	OnBack  func()
	OnReset func()
}

// Option configures a Shell.
type Option func(*Shell)

// WithLogger sets the logger; every record carries the session id.
func WithLogger(l *logging.Logger) Option {
	return func(s *Shell) { s.logger = l }
}

// WithBus sets the bus that session, controller and loader events go to.
func WithBus(b *event.Bus) Option {
	return func(s *Shell) { s.bus = b }
}

// WithSteps replaces DefaultSteps.
func WithSteps(steps ...stepper.Step) Option {
	return func(s *Shell) { s.steps = steps }
}

// Shell owns one workflow run. Its lifecycle is New, Mount, Unmount; a
// Shell is mounted at most once and a fresh run needs a fresh Shell.
type Shell struct {
	lister teehr.DatasetLister
	logger *logging.Logger
	bus    *event.Bus
	steps  []stepper.Step

	mu        sync.RWMutex
	id        string
	mounted   bool
	unmounted bool
	mctx      context.Context
	cancel    context.CancelFunc
	sess      *session.Context
	ctrl      *stepper.Controller
	boot      *bootstrap.Bootstrapper
}

// New creates an unmounted shell that lists datasets through lister.
func New(lister teehr.DatasetLister, opts ...Option) *Shell {
	s := &Shell{
		lister: lister,
		id:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NopLogger()
	}
	s.logger = s.logger.WithSession(s.id).WithComponent("workflow")
	if s.bus == nil {
		s.bus = event.NewBus(s.logger)
	}
	return s
}

// Mount attaches the shell and starts the dataset bootstrap in one call,
// for callers with no first frame to render in between. The returned
// channel delivers the bootstrap outcome, which the caller hands back to
// HandleBootstrap on its own loop. Mount returns nil if the shell was
// already mounted.
func (s *Shell) Mount(ctx context.Context) <-chan bootstrap.Outcome {
	if !s.Attach(ctx) {
		return nil
	}
	return s.StartBootstrap()
}

// Attach constructs the session context and step controller with default
// values without starting the bootstrap. View reports Busy from here until
// the bootstrap outcome is handled. Attach returns false if the shell was
// already mounted.
func (s *Shell) Attach(ctx context.Context) bool {
	s.mu.Lock()
	if s.mounted || s.unmounted {
		s.mu.Unlock()
		s.logger.Debug("ignoring repeated mount")
		return false
	}
	s.mctx, s.cancel = context.WithCancel(ctx)
	s.sess = session.New(s.bus, s.logger)
	s.ctrl = stepper.New(s.steps...).WithBus(s.bus)
	s.boot = bootstrap.New(
		s.lister,
		loader.New[[]teehr.Dataset]("datasets", s.logger, loader.WithBus(s.bus)),
		s.logger,
	)
	s.mounted = true
	s.mu.Unlock()

	s.logger.Info("workflow mounted", "steps", len(s.ctrl.Steps()))
	return true
}

// StartBootstrap issues the dataset listing. Only the first call after
// Attach does anything; otherwise it returns nil.
func (s *Shell) StartBootstrap() <-chan bootstrap.Outcome {
	s.mu.RLock()
	boot, mctx, live := s.boot, s.mctx, s.mounted
	s.mu.RUnlock()
	if !live {
		return nil
	}
	return boot.Start(mctx)
}

// HandleBootstrap applies a bootstrap outcome and settles the bootstrap
// loader. Call it on the loop that owns the session: View stays busy until
// it runs. The returned error is the *errors.BootstrapError for a failed
// listing; after Unmount it is always nil and nothing is written.
func (s *Shell) HandleBootstrap(o bootstrap.Outcome) error {
	s.mu.RLock()
	sess, boot, live := s.sess, s.boot, s.mounted
	s.mu.RUnlock()
	if boot == nil {
		return nil
	}
	if !live {
		_ = boot.Apply(sess, o)
		s.logger.Debug("dropping bootstrap outcome for unmounted workflow")
		return nil
	}

	err := boot.Apply(sess, o)
	if !sess.Disposed() {
		s.bus.Publish(event.NewWorkflowBootstrappedEvent(s.id, len(o.Value), err))
	}
	return err
}

// View projects the current state. It has no side effects.
func (s *Shell) View() ViewState {
	s.mu.RLock()
	live, ctrl, boot := s.mounted, s.ctrl, s.boot
	s.mu.RUnlock()
	if !live {
		return ViewState{}
	}

	ld := boot.Loader()
	vs := ViewState{
		Mounted:   true,
		Mode:      ModeSteps,
		Busy:      !ld.Status().IsTerminal(),
		StepIndex: ctrl.Index(),
		Step:      ctrl.Current(),
		Steps:     ctrl.Steps(),
	}
	if ld.Status() == loader.StatusFailed {
		vs.Mode = ModeError
		vs.Err = errors.NewBootstrapError(ld.Err())
	}
	return vs
}

// Callbacks returns the callbacks for the active step.
func (s *Shell) Callbacks() StepCallbacks {
	ctrl := s.controller()
	if ctrl == nil {
		return StepCallbacks{}
	}
	cb := StepCallbacks{OnNext: s.next}
	if !ctrl.IsFirst() {
		cb.OnBack = s.back
	}
	if ctrl.IsLast() {
		cb.OnReset = s.Reset
	}
	return cb
}

func (s *Shell) next() {
	if ctrl := s.controller(); ctrl != nil && ctrl.Advance() {
		s.logger.WithStep(ctrl.Current().Label).Debug("advanced")
	}
}

func (s *Shell) back() {
	if ctrl := s.controller(); ctrl != nil && ctrl.Retreat() {
		s.logger.WithStep(ctrl.Current().Label).Debug("retreated")
	}
}

// Reset returns to the first step and restores the default form. Loaded
// datasets and options are kept.
func (s *Shell) Reset() {
	ctrl := s.controller()
	if ctrl == nil {
		return
	}
	s.mu.RLock()
	sess := s.sess
	s.mu.RUnlock()

	ctrl.Reset()
	sess.ResetFormData()
	s.bus.Publish(event.NewWorkflowResetEvent(s.id))
	s.logger.Info("workflow reset")
}

// Unmount cancels the bootstrap and disposes the session. A bootstrap
// outcome arriving later is dropped.
func (s *Shell) Unmount() {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = false
	s.unmounted = true
	cancel, sess := s.cancel, s.sess
	s.mu.Unlock()

	cancel()
	sess.Dispose()
	s.logger.Info("workflow unmounted")
}

// controller returns the step controller while mounted, else nil.
func (s *Shell) controller() *stepper.Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.mounted {
		return nil
	}
	return s.ctrl
}

// Session returns the session context, or nil before Mount.
func (s *Shell) Session() *session.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

// SessionID identifies this run in logs and events.
func (s *Shell) SessionID() string {
	return s.id
}

// Bus returns the shell's event bus.
func (s *Shell) Bus() *event.Bus {
	return s.bus
}

// Status returns the bootstrap loader's state; idle before Mount.
func (s *Shell) Status() loader.Status {
	s.mu.RLock()
	boot := s.boot
	s.mu.RUnlock()
	if boot == nil {
		return loader.StatusIdle
	}
	return boot.Loader().Status()
}

// Logger returns the session-scoped logger.
func (s *Shell) Logger() *logging.Logger {
	return s.logger
}
