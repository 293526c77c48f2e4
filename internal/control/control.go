// Package control turns key presses and menu clicks into collection events.
package control

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ayusman/signbridge/internal/collect"
	"github.com/ayusman/signbridge/internal/labels"
)

// Reserved keys.
const (
	KeyStop  = "s"
	KeyQuit  = "q"
	KeyClear = "c"
)

// Keymap maps single keys to events.
type Keymap struct {
	events map[string]collect.Event
}

// NewCollectKeymap maps every label key to a trigger for that label plus
// the stop and quit keys. Label keys may not shadow the reserved keys.
func NewCollectKeymap(set *labels.Set) (*Keymap, error) {
	km := &Keymap{events: map[string]collect.Event{
		KeyStop: collect.Stop(),
		KeyQuit: collect.Quit(),
	}}
	for _, l := range set.All() {
		key := strings.ToLower(l.Key)
		if key == "" {
			continue
		}
		if _, taken := km.events[key]; taken {
			return nil, fmt.Errorf("label %q: key %q is reserved", l.Name, key)
		}
		km.events[key] = collect.Trigger(l.Code)
	}
	return km, nil
}

// NewInterpretKeymap maps quit and clear-sentence.
func NewInterpretKeymap() *Keymap {
	return &Keymap{events: map[string]collect.Event{
		KeyQuit:  collect.Quit(),
		KeyClear: collect.Clear(),
	}}
}

// Lookup returns the event bound to key. Keys are case-insensitive.
func (k *Keymap) Lookup(key string) (collect.Event, bool) {
	ev, ok := k.events[strings.ToLower(strings.TrimSpace(key))]
	return ev, ok
}

// Latch holds at most one pending event. A newer event replaces an
// unconsumed older one.
type Latch struct {
	mu      sync.Mutex
	pending collect.Event
}

// Push records ev as the pending event.
func (l *Latch) Push(ev collect.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = ev
}

// Take returns the pending event and clears it. It returns an EventNone
// event when nothing is pending.
func (l *Latch) Take() collect.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev := l.pending
	l.pending = collect.Event{}
	return ev
}

// ReadKeys reads r line by line and pushes the first mapped key of each
// line into latch. It returns when r is exhausted or ctx is done. Unmapped
// input is ignored.
func ReadKeys(ctx context.Context, r io.Reader, km *Keymap, latch *Latch) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case line := <-lines:
			for _, ch := range line {
				if ev, ok := km.Lookup(string(ch)); ok {
					latch.Push(ev)
					break
				}
			}
		}
	}
}
