package collect

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/features"
	"github.com/ayusman/signbridge/internal/labels"
)

// DefaultCountdown is the get-ready delay between a trigger and recording.
const DefaultCountdown = 3 * time.Second

var (
	// ErrTerminated is returned by Tick after a quit event was processed.
	ErrTerminated = errors.New("collect: machine terminated")
	// ErrPersist wraps storage failures on stop. The session's samples are lost.
	ErrPersist = errors.New("collect: persist samples")
)

// SampleWriter is the append-only labeled sample storage.
type SampleWriter interface {
	// Append stores samples in order. It must be all-or-nothing.
	Append(session string, samples []LabeledSample) error
	// Counts returns the number of stored samples per label.
	Counts() (map[int]int, error)
}

// State is the recording lifecycle state.
type State int

const (
	Idle State = iota
	Countdown
	Recording
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Countdown:
		return "countdown"
	case Recording:
		return "recording"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config holds the collection timing.
type Config struct {
	Countdown    time.Duration
	TrailingDrop int
}

// DefaultConfig returns the stock timing: 3 s countdown, 10 frames dropped.
func DefaultConfig() Config {
	return Config{
		Countdown:    DefaultCountdown,
		TrailingDrop: DefaultTrailingDrop,
	}
}

// Summary describes a recording that was stopped and persisted.
type Summary struct {
	Session string
	Label   int
	Name    string
	Saved   int
	Total   int
}

// Status is the observable state after a tick.
type Status struct {
	State State
	Label int
	Name  string
	// Countdown is the get-ready number to show, only set in Countdown.
	Countdown int
	Buffered  int
	// Summary is set on the tick that stopped a recording.
	Summary *Summary
}

// session is the in-progress recording.
type session struct {
	id      string
	label   int
	name    string
	started time.Time
	buffer  Buffer
}

// Machine is the collection state machine. A process runs at most one, fed
// from a single capture loop; it is not safe for concurrent use.
type Machine struct {
	cfg     Config
	labels  *labels.Set
	writer  SampleWriter
	log     *slog.Logger
	state   State
	session *session
	counts  map[int]int
}

// NewMachine creates an idle Machine and loads the existing per-label counts.
func NewMachine(cfg Config, set *labels.Set, w SampleWriter, logger *slog.Logger) (*Machine, error) {
	if set == nil {
		return nil, errors.New("collect: label set is required")
	}
	if w == nil {
		return nil, errors.New("collect: sample writer is required")
	}
	if cfg.Countdown < 0 {
		cfg.Countdown = 0
	}
	if cfg.TrailingDrop < 0 {
		cfg.TrailingDrop = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	counts, err := w.Counts()
	if err != nil {
		return nil, fmt.Errorf("load sample counts: %w", err)
	}
	if counts == nil {
		counts = make(map[int]int)
	}

	return &Machine{
		cfg:    cfg,
		labels: set,
		writer: w,
		log:    logger.With("component", "collect.Machine"),
		state:  Idle,
		counts: counts,
	}, nil
}

// Tick consumes at most one event and the current observation. Within a
// tick the trigger is handled first, then the countdown, then stop, then
// buffering, then quit.
func (m *Machine) Tick(now time.Time, ev Event, obs detector.LandmarkSet) (Status, error) {
	if m.state == Terminated {
		return m.status(now, nil), ErrTerminated
	}

	if ev.Kind == EventTrigger && m.state == Idle {
		m.startCountdown(now, ev.Label)
	}

	if m.state == Countdown && now.Sub(m.session.started) >= m.cfg.Countdown {
		m.state = Recording
		m.session.buffer.Discard()
		m.log.Info("STARTING", "label", m.session.name, "session", m.session.id)
	}

	var summary *Summary
	var err error
	if ev.Kind == EventStop && m.state == Recording {
		summary, err = m.stop()
	}

	if m.state == Recording {
		m.session.buffer.Append(m.session.label, features.Normalize(obs))
	}

	if ev.Kind == EventQuit {
		if m.session != nil {
			m.log.Info("quit with unsaved recording", "label", m.session.name, "discarded", m.session.buffer.Len())
			m.session.buffer.Discard()
		}
		m.session = nil
		m.state = Terminated
	}

	return m.status(now, summary), err
}

func (m *Machine) startCountdown(now time.Time, label int) {
	l, ok := m.labels.Lookup(label)
	if !ok {
		m.log.Warn("ignoring trigger for unknown label", "label", label)
		return
	}
	m.session = &session{
		id:      uuid.NewString(),
		label:   l.Code,
		name:    l.Name,
		started: now,
	}
	m.state = Countdown
}

func (m *Machine) stop() (*Summary, error) {
	s := m.session
	m.session = nil
	m.state = Idle

	samples := s.buffer.Flush(m.cfg.TrailingDrop)
	if len(samples) > 0 {
		if err := m.writer.Append(s.id, samples); err != nil {
			m.log.Error("failed to persist recording", "label", s.name, "session", s.id, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}

	m.counts[s.label] += len(samples)
	summary := &Summary{
		Session: s.id,
		Label:   s.label,
		Name:    s.name,
		Saved:   len(samples),
		Total:   m.counts[s.label],
	}
	m.log.Info("STOPPED", "label", summary.Name, "saved", summary.Saved,
		"total", summary.Total, "session", summary.Session)
	return summary, nil
}

func (m *Machine) status(now time.Time, summary *Summary) Status {
	st := Status{State: m.state, Summary: summary}
	if m.session != nil {
		st.Label = m.session.label
		st.Name = m.session.name
		st.Buffered = m.session.buffer.Len()
	}
	if m.state == Countdown {
		elapsed := now.Sub(m.session.started)
		if elapsed < 0 {
			elapsed = 0
		}
		st.Countdown = int((m.cfg.Countdown + time.Second - elapsed).Seconds())
	}
	return st
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	return m.state
}

// Counts returns a copy of the per-label stored sample counts.
func (m *Machine) Counts() map[int]int {
	out := make(map[int]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}
