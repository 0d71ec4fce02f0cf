package download

import (
	"github.com/ytget/ytin/internal/model"
)

// EventKind identifies a run notification
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventProgress  EventKind = "progress"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
	EventStopped   EventKind = "stopped"
)

// Event is emitted by an orchestrator to its subscribers
type Event struct {
	RunID    string         `json:"runId"`
	Kind     EventKind      `json:"kind"`
	RecordID string         `json:"recordId"`
	Title    string         `json:"title,omitempty"`
	State    model.RunState `json:"state"`
	Progress model.Progress `json:"progress"`
	Message  string         `json:"message,omitempty"`
}

// Subscriber receives orchestrator events. It is invoked synchronously from
// the process I/O context and must not block.
type Subscriber func(Event)
