// Package tray provides a system tray control surface for sample collection.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/signbridge/internal/collect"
	"github.com/ayusman/signbridge/internal/labels"
)

// Sink receives the events produced by menu clicks. *control.Latch
// satisfies it.
type Sink interface {
	Push(ev collect.Event)
}

// Tray represents the system tray application.
type Tray struct {
	labels []labels.Label
	sink   Sink
	mu     sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuCounts map[int]*systray.MenuItem
}

// New creates a Tray with one record item per label.
func New(set *labels.Set, sink Sink) *Tray {
	return &Tray{
		labels:     set.All(),
		sink:       sink,
		menuCounts: make(map[int]*systray.MenuItem),
	}
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops the tray loop started by Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("SignBridge")
	systray.SetTooltip("SignBridge sample collection")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem("Idle", "Collection state")
	t.menuStatus.Disable()
	systray.AddSeparator()

	for _, l := range t.labels {
		item := systray.AddMenuItem(recordTitle(l, 0), "Start a recording for "+l.Name)
		t.menuCounts[l.Code] = item
		go t.forward(item.ClickedCh, collect.Trigger(l.Code))
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuStop := systray.AddMenuItem("Stop", "Stop and save the current recording")
	go t.forward(menuStop.ClickedCh, collect.Stop())
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit without saving")
	go func() {
		<-menuQuit.ClickedCh
		t.handleQuit()
	}()
}

func (t *Tray) forward(clicks <-chan struct{}, ev collect.Event) {
	for range clicks {
		t.sink.Push(ev)
	}
}

func (t *Tray) handleQuit() {
	t.sink.Push(collect.Quit())
}

// SetStatus renders a machine status in the status line.
func (t *Tray) SetStatus(st collect.Status) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(StatusLine(st))
	}
}

// SetCounts refreshes the per-label sample totals on the record items.
func (t *Tray) SetCounts(counts map[int]int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, l := range t.labels {
		if item, ok := t.menuCounts[l.Code]; ok {
			item.SetTitle(recordTitle(l, counts[l.Code]))
		}
	}
}
