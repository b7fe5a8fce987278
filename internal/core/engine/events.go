package engine

import "time"

// EventType defines the type of engine event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventCommand     EventType = "command"
	EventCountdown   EventType = "countdown"
	EventPause       EventType = "pause"
	EventResume      EventType = "resume"
	EventReset       EventType = "reset"
	EventComplete    EventType = "complete"
)

// Event represents an engine update for listeners.
type Event struct {
	Type      EventType
	State     string
	Command   string
	StepID    string
	Countdown *int
	Timestamp time.Time
}

// Status is the lifecycle position of an engine run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Listener receives engine events. A returned error counts as a listener failure.
type Listener interface {
	HandleEvent(event Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(event Event) error

// HandleEvent calls fn(event).
func (fn ListenerFunc) HandleEvent(event Event) error {
	return fn(event)
}

// ListenerID identifies a registered listener for removal.
type ListenerID uint64
