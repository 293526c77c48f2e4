package tray

import (
	"fmt"

	"github.com/ayusman/signbridge/internal/collect"
	"github.com/ayusman/signbridge/internal/labels"
)

// StatusLine formats st the way the tray and the terminal collector show it.
func StatusLine(st collect.Status) string {
	switch st.State {
	case collect.Countdown:
		return fmt.Sprintf("Starting in %d: %s", st.Countdown, st.Name)
	case collect.Recording:
		return fmt.Sprintf("RECORDING: %s (%d frames)", st.Name, st.Buffered)
	case collect.Terminated:
		return "Stopped"
	}
	if st.Summary != nil {
		return fmt.Sprintf("Saved %d frames for %s (total %d)", st.Summary.Saved, st.Summary.Name, st.Summary.Total)
	}
	return "Idle"
}

// Announce returns the terminal line for st when it differs from the prev
// state or carries a summary. Countdown ticks and frame counts within a state
// are not announced.
func Announce(prev collect.State, st collect.Status) (string, bool) {
	switch {
	case st.Summary != nil:
		return StatusLine(st), true
	case st.State == prev:
		return "", false
	case st.State == collect.Countdown:
		return "STARTING: " + st.Name, true
	case st.State == collect.Recording:
		return "RECORDING: " + st.Name, true
	}
	return StatusLine(st), true
}

func recordTitle(l labels.Label, count int) string {
	return fmt.Sprintf("[%s] Record %s (%d)", l.Key, l.Name, count)
}
