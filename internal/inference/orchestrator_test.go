package inference

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ayusman/signbridge/internal/classifier"
	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/features"
	"github.com/ayusman/signbridge/internal/labels"
	"github.com/ayusman/signbridge/internal/sentence"
)

// countingClassifier always predicts code with probability p.
type countingClassifier struct {
	code  int
	p     float64
	err   error
	calls int
	last  features.Vector
}

func (c *countingClassifier) Predict(v features.Vector) ([]float64, error) {
	c.calls++
	c.last = v
	if c.err != nil {
		return nil, c.err
	}
	probs := make([]float64, 10)
	for i := range probs {
		probs[i] = (1 - c.p) / 9
	}
	probs[c.code] = c.p
	return probs, nil
}

func newOrchestrator(t *testing.T, est detector.Estimator, clf classifier.Classifier) *Orchestrator {
	t.Helper()
	o, err := New(est, clf, labels.MustDefault(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func TestOrchestrator_Classify(t *testing.T) {
	t.Run("no hands short-circuits", func(t *testing.T) {
		est := detector.NewMockEstimator()
		clf := &countingClassifier{code: 0, p: 0.9}
		o := newOrchestrator(t, est, clf)

		r := o.Classify(nil)
		if r != classifier.NoHandsResult() {
			t.Errorf("Classify() = %+v, want no hands", r)
		}
		if clf.calls != 0 {
			t.Errorf("classifier called %d times for empty frame", clf.calls)
		}
		if est.Calls() != 1 {
			t.Errorf("estimator called %d times, want 1", est.Calls())
		}
	})

	t.Run("estimator failure degrades to no hands", func(t *testing.T) {
		est := detector.NewMockEstimator()
		est.SetError(errors.New("camera glitch"))
		clf := &countingClassifier{code: 0, p: 0.9}
		o := newOrchestrator(t, est, clf)

		if r := o.Classify(nil); r.Code != labels.NoHands {
			t.Errorf("Classify() = %+v, want no hands", r)
		}
		if clf.calls != 0 {
			t.Error("classifier called after estimator failure")
		}
	})

	t.Run("detected hands are normalized and classified", func(t *testing.T) {
		est := detector.NewMockEstimator()
		palm := detector.OpenPalm()
		set := detector.LandmarkSet{Right: &palm}
		est.SetLandmarks(set)
		clf := &countingClassifier{code: 4, p: 0.92}
		o := newOrchestrator(t, est, clf)

		r := o.Classify(nil)
		if r.Code != 4 || r.Label != "Hello" || r.Confidence != 0.92 {
			t.Errorf("Classify() = %+v, want Hello at 0.92", r)
		}
		if clf.last != features.Normalize(set) {
			t.Error("classifier did not receive the normalized landmark vector")
		}
	})

	t.Run("nil estimator yields no hands", func(t *testing.T) {
		o := newOrchestrator(t, nil, &countingClassifier{})
		if r := o.Classify(nil); r.Code != labels.NoHands {
			t.Errorf("Classify() = %+v, want no hands", r)
		}
	})
}

func TestOrchestrator_ClassifyVector(t *testing.T) {
	clf := &countingClassifier{code: 1, p: 0.85}
	o := newOrchestrator(t, nil, clf)

	if r := o.ClassifyVector(features.Vector{}); r.Code != labels.NoHands {
		t.Errorf("zero vector classified as %+v", r)
	}
	if clf.calls != 0 {
		t.Error("classifier called for zero vector")
	}

	var v features.Vector
	v[10] = 0.2
	if r := o.ClassifyVector(v); r.Label != "B" {
		t.Errorf("ClassifyVector() = %+v, want B", r)
	}
}

func TestOrchestrator_ClassifierError(t *testing.T) {
	clf := &countingClassifier{err: errors.New("model crashed")}
	o := newOrchestrator(t, nil, clf)

	palm := detector.OpenPalm()
	r := o.ClassifyLandmarks(detector.LandmarkSet{Right: &palm})
	if r.Code != labels.NoHands {
		t.Errorf("ClassifyLandmarks() = %+v, want no hands on classifier error", r)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, nil, labels.MustDefault(), nil); err == nil {
		t.Error("expected error without classifier")
	}
	if _, err := New(nil, &countingClassifier{}, nil, nil); err == nil {
		t.Error("expected error without label set")
	}
}

func TestObserve(t *testing.T) {
	clf := &countingClassifier{code: 5, p: 0.95}
	o := newOrchestrator(t, nil, clf)
	engine := sentence.NewEngine(sentence.DefaultConfig())

	palm := detector.OpenPalm()
	set := detector.LandmarkSet{Right: &palm}

	var out Output
	for i := 0; i < 10; i++ {
		out = Observe(engine, o.ClassifyLandmarks(set))
	}

	if !out.Appended || out.Token != "My" {
		t.Errorf("last output = %+v, want appended My", out)
	}
	if !reflect.DeepEqual(out.Sentence, []string{"My"}) {
		t.Errorf("sentence = %v, want [My]", out.Sentence)
	}
}
