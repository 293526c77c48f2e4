package collect

import "fmt"

// EventKind enumerates the inputs understood by the Machine.
type EventKind int

const (
	// EventNone means nothing happened this tick.
	EventNone EventKind = iota
	// EventTrigger requests a recording for Event.Label.
	EventTrigger
	// EventStop ends the current recording and persists it.
	EventStop
	// EventQuit terminates collection without persisting.
	EventQuit
	// EventClear is only meaningful to interpreter loops; the Machine ignores it.
	EventClear
)

// Event is one discrete control input.
type Event struct {
	Kind  EventKind
	Label int
}

// Trigger returns a trigger event for label.
func Trigger(label int) Event {
	return Event{Kind: EventTrigger, Label: label}
}

// Stop returns a stop event.
func Stop() Event { return Event{Kind: EventStop} }

// Quit returns a quit event.
func Quit() Event { return Event{Kind: EventQuit} }

// Clear returns a clear event.
func Clear() Event { return Event{Kind: EventClear} }

func (e Event) String() string {
	switch e.Kind {
	case EventNone:
		return "none"
	case EventTrigger:
		return fmt.Sprintf("trigger(%d)", e.Label)
	case EventStop:
		return "stop"
	case EventQuit:
		return "quit"
	case EventClear:
		return "clear"
	}
	return fmt.Sprintf("event(%d)", int(e.Kind))
}
