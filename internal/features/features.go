// Package features converts hand landmark sets into the fixed-length
// feature vectors consumed by the sign classifier.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/signbridge/internal/detector"
)

const (
	// PerHand is the number of values contributed by one hand (21 points x 3).
	PerHand = detector.NumLandmarks * 3
	// Size is the total feature vector length, left hand then right hand.
	Size = 2 * PerHand
)

// ErrLength is returned when a raw payload does not have exactly Size values.
var ErrLength = errors.New("features: wrong vector length")

// Vector is the wrist-relative encoding of both hands. The layout is fixed
// because a trained model's input weights depend on it.
type Vector [Size]float64

// Normalize encodes a landmark set. Each present hand is translated so its
// wrist sits at the origin and flattened point by point as x, y, z. An absent
// hand contributes PerHand zeros. Scale and rotation are left untouched.
func Normalize(set detector.LandmarkSet) Vector {
	var v Vector
	encodeHand(v[:PerHand], set.Left)
	encodeHand(v[PerHand:], set.Right)
	return v
}

func encodeHand(dst []float64, h *detector.Hand) {
	if h == nil {
		return
	}
	wrist := h.Points[detector.Wrist]
	for i, p := range h.Points {
		dst[i*3] = finite(p.X - wrist.X)
		dst[i*3+1] = finite(p.Y - wrist.Y)
		dst[i*3+2] = finite(p.Z - wrist.Z)
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FromSlice validates a pre-extracted feature payload.
func FromSlice(values []float64) (Vector, error) {
	var v Vector
	if len(values) != Size {
		return v, fmt.Errorf("%w: got %d, want %d", ErrLength, len(values), Size)
	}
	for i, f := range values {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v, fmt.Errorf("features: value %d is not finite", i)
		}
	}
	copy(v[:], values)
	return v, nil
}

// IsZero reports whether every value is zero, which is what Normalize
// produces when no hand was detected.
func (v Vector) IsZero() bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}

// Slice returns the vector as a freshly allocated slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, v[:])
	return out
}
