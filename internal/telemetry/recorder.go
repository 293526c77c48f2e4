// Package telemetry keeps process-wide counters for prediction streams and
// sample collection.
package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ayusman/signbridge/internal/labels"
)

// Recorder tracks cumulative counters. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	log *slog.Logger

	totalConnections  atomic.Uint64
	activeConnections atomic.Int64
	totalObservations atomic.Uint64
	totalNoHands      atomic.Uint64
	totalTokens       atomic.Uint64
	totalSamples      atomic.Uint64
	totalSessions     atomic.Uint64
}

// Snapshot captures cumulative metrics recorded so far.
type Snapshot struct {
	TotalConnections  uint64 `json:"total_connections"`
	ActiveConnections int64  `json:"active_connections"`
	TotalObservations uint64 `json:"total_observations"`
	TotalNoHands      uint64 `json:"total_no_hands"`
	TotalTokens       uint64 `json:"total_tokens"`
	TotalSamples      uint64 `json:"total_samples"`
	TotalSessions     uint64 `json:"total_sessions"`
}

// NewRecorder constructs a Recorder using the provided logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log: logger.With("component", "telemetry.Recorder"),
	}
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		TotalConnections:  r.totalConnections.Load(),
		ActiveConnections: r.activeConnections.Load(),
		TotalObservations: r.totalObservations.Load(),
		TotalNoHands:      r.totalNoHands.Load(),
		TotalTokens:       r.totalTokens.Load(),
		TotalSamples:      r.totalSamples.Load(),
		TotalSessions:     r.totalSessions.Load(),
	}
}

// RecordSession counts a persisted recording session of n samples.
func (r *Recorder) RecordSession(label string, n int) {
	if r == nil || n < 0 {
		return
	}
	r.totalSessions.Add(1)
	r.totalSamples.Add(uint64(n))
	r.log.Debug("session recorded", "label", label, "samples", n)
}

// StreamMetrics accumulates statistics for one prediction connection. It is
// owned by the connection's goroutine.
type StreamMetrics struct {
	recorder *Recorder
	log      *slog.Logger

	started      time.Time
	observations int
	noHands      int
	tokens       int
	closed       atomic.Bool
}

// StartStream registers a new prediction connection.
func (r *Recorder) StartStream(connID, remote string) *StreamMetrics {
	if r == nil {
		return nil
	}

	r.totalConnections.Add(1)
	r.activeConnections.Add(1)

	return &StreamMetrics{
		recorder: r,
		log:      r.log.With("conn_id", connID, "remote", remote),
		started:  time.Now(),
	}
}

// RecordObservation counts one classified observation.
func (s *StreamMetrics) RecordObservation(code int) {
	if s == nil {
		return
	}
	s.observations++
	s.recorder.totalObservations.Add(1)
	if code == labels.NoHands {
		s.noHands++
		s.recorder.totalNoHands.Add(1)
	}
}

// RecordToken counts a token appended to the connection's sentence.
func (s *StreamMetrics) RecordToken(token string) {
	if s == nil {
		return
	}
	s.tokens++
	s.recorder.totalTokens.Add(1)
	s.log.Debug("token appended", "token", token)
}

// Finish logs a summary and updates active connection counters. Calls
// after the first are ignored.
func (s *StreamMetrics) Finish(err error) {
	if s == nil {
		return
	}
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	defer s.recorder.activeConnections.Add(-1)

	args := []any{
		"duration_ms", time.Since(s.started).Milliseconds(),
		"observations", s.observations,
		"no_hands", s.noHands,
		"tokens", s.tokens,
	}

	if err != nil {
		s.log.Error("stream closed with error", append(args, "error", err)...)
		return
	}

	s.log.Info("stream closed", args...)
}
