// Package classifier wraps the external sign model behind a narrow interface
// and turns its probability output into a labelled result.
package classifier

import (
	"math"

	"github.com/ayusman/signbridge/internal/features"
	"github.com/ayusman/signbridge/internal/labels"
)

// Classifier maps a feature vector to a probability distribution over the
// label set. Index i of the output is the probability of label code i.
type Classifier interface {
	Predict(v features.Vector) ([]float64, error)
}

// Func adapts an ordinary function to the Classifier interface.
type Func func(v features.Vector) ([]float64, error)

// Predict calls f(v).
func (f Func) Predict(v features.Vector) ([]float64, error) {
	return f(v)
}

// Result is one per-observation classification.
type Result struct {
	Code       int     `json:"code"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// NoHandsResult is produced when there was nothing to classify.
func NoHandsResult() Result {
	return Result{Code: labels.NoHands, Label: labels.NoHandsName, Confidence: 0}
}

// Argmax selects the most probable label, ignoring NaN entries. Ties go to
// the lower index. An index outside the label set yields an Unknown result
// that still carries the probability.
func Argmax(probs []float64, set *labels.Set) Result {
	if len(probs) == 0 {
		return Result{Code: labels.Unknown, Label: labels.UnknownName}
	}

	// NaN entries never win; an all-NaN row falls back to index 0.
	best := -1
	for i, p := range probs {
		if math.IsNaN(p) {
			continue
		}
		if best < 0 || p > probs[best] {
			best = i
		}
	}
	if best < 0 {
		best = 0
	}

	r := Result{Code: best, Label: set.Name(best), Confidence: clamp(probs[best])}
	if !set.Contains(best) {
		r.Code = labels.Unknown
	}
	return r
}

func clamp(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
