package engine

import "context"

// Engine is the provider-agnostic interface to the real-time call engine.
//
// Rules:
// - No provider SDK or wire details outside engine adapters.
// - Lifecycle events are delivered through a single handler as a closed
//   set of Event kinds; there is no string-keyed event registration.
type Engine interface {
	// Start asks the engine to begin a call against the given assistant
	// configuration. The returned call ID identifies the session at the
	// provider and in the record API.
	Start(ctx context.Context, assistantID string) (StartedCall, error)

	// Stop hangs up the active call. Safe to call when no call is active.
	Stop(ctx context.Context) error
}

// StartedCall is the engine's acknowledgment of a start command.
type StartedCall struct {
	ID string `json:"id"`
}

// EventKind enumerates every lifecycle event the engine can emit.
type EventKind int

const (
	EventSpeechStart EventKind = iota
	EventSpeechEnd
	EventCallStart
	EventCallEnd
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventSpeechStart:
		return "speech-start"
	case EventSpeechEnd:
		return "speech-end"
	case EventCallStart:
		return "call-start"
	case EventCallEnd:
		return "call-end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a lifecycle event emitted by the engine.
// Message is populated for EventError only.
type Event struct {
	Kind    EventKind
	Message string
}

// Handler receives engine events in emission order.
// Implementations must be safe to call from the adapter's read goroutine.
type Handler func(Event)
