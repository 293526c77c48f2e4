// Package collect implements labeled training-data capture: the recording
// state machine and the per-session sample buffer.
package collect

import "github.com/ayusman/signbridge/internal/features"

// DefaultTrailingDrop is the number of final frames discarded on stop. They
// usually show the hand returning to rest.
const DefaultTrailingDrop = 10

// LabeledSample is one recorded frame.
type LabeledSample struct {
	Label    int
	Features features.Vector
}

// Buffer accumulates the samples of one recording in arrival order.
type Buffer struct {
	samples []LabeledSample
}

// Append adds a sample at the end of the buffer.
func (b *Buffer) Append(label int, v features.Vector) {
	b.samples = append(b.samples, LabeledSample{Label: label, Features: v})
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Flush returns the buffered samples without the last drop entries and
// empties the buffer. A buffer of drop entries or fewer flushes to nothing.
func (b *Buffer) Flush(drop int) []LabeledSample {
	if drop < 0 {
		drop = 0
	}
	var out []LabeledSample
	if n := len(b.samples) - drop; n > 0 {
		out = make([]LabeledSample, n)
		copy(out, b.samples[:n])
	}
	b.samples = nil
	return out
}

// Discard empties the buffer without returning anything.
func (b *Buffer) Discard() {
	b.samples = nil
}
