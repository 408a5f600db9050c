package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier, e.g. "step.changed".
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeSessionFieldChanged  = "session.field_changed"
	TypeStepChanged          = "step.changed"
	TypeLoaderStatusChanged  = "loader.status_changed"
	TypeWorkflowReset        = "workflow.reset"
	TypeWorkflowBootstrapped = "workflow.bootstrapped"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Session Events
// -----------------------------------------------------------------------------

// SessionFieldChangedEvent is published after a session field setter returns
// the new value to every reader.
type SessionFieldChangedEvent struct {
	baseEvent
	Field string // e.g. "form_data", "datasets"
}

// NewSessionFieldChangedEvent creates a SessionFieldChangedEvent.
func NewSessionFieldChangedEvent(field string) SessionFieldChangedEvent {
	return SessionFieldChangedEvent{
		baseEvent: newBaseEvent(TypeSessionFieldChanged),
		Field:     field,
	}
}

// -----------------------------------------------------------------------------
// Workflow Events
// -----------------------------------------------------------------------------

// StepChangedEvent is published when the step index moves.
type StepChangedEvent struct {
	baseEvent
	From  int
	To    int
	Label string // label of the step now active
}

// NewStepChangedEvent creates a StepChangedEvent.
func NewStepChangedEvent(from, to int, label string) StepChangedEvent {
	return StepChangedEvent{
		baseEvent: newBaseEvent(TypeStepChanged),
		From:      from,
		To:        to,
		Label:     label,
	}
}

// LoaderStatusChangedEvent is published on every loader state transition.
type LoaderStatusChangedEvent struct {
	baseEvent
	Loader string
	From   string
	To     string
}

// NewLoaderStatusChangedEvent creates a LoaderStatusChangedEvent.
func NewLoaderStatusChangedEvent(loader, from, to string) LoaderStatusChangedEvent {
	return LoaderStatusChangedEvent{
		baseEvent: newBaseEvent(TypeLoaderStatusChanged),
		Loader:    loader,
		From:      from,
		To:        to,
	}
}

// WorkflowResetEvent is published after the compound workflow reset.
type WorkflowResetEvent struct {
	baseEvent
	SessionID string
}

// NewWorkflowResetEvent creates a WorkflowResetEvent.
func NewWorkflowResetEvent(sessionID string) WorkflowResetEvent {
	return WorkflowResetEvent{
		baseEvent: newBaseEvent(TypeWorkflowReset),
		SessionID: sessionID,
	}
}

// WorkflowBootstrappedEvent is published once the dataset bootstrap settles.
type WorkflowBootstrappedEvent struct {
	baseEvent
	SessionID string
	Datasets  int
	Err       error
}

// NewWorkflowBootstrappedEvent creates a WorkflowBootstrappedEvent.
func NewWorkflowBootstrappedEvent(sessionID string, datasets int, err error) WorkflowBootstrappedEvent {
	return WorkflowBootstrappedEvent{
		baseEvent: newBaseEvent(TypeWorkflowBootstrapped),
		SessionID: sessionID,
		Datasets:  datasets,
		Err:       err,
	}
}
