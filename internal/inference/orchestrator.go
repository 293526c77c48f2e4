// Package inference runs one observation through the estimator and the
// classifier and produces a classification result.
package inference

import (
	"errors"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/ayusman/signbridge/internal/classifier"
	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/features"
	"github.com/ayusman/signbridge/internal/labels"
	"github.com/ayusman/signbridge/internal/sentence"
)

// Orchestrator is safe for concurrent use when its estimator and classifier
// are. It holds no per-stream state; callers pass their own sentence engine.
type Orchestrator struct {
	estimator  detector.Estimator
	classifier classifier.Classifier
	labels     *labels.Set
	log        *slog.Logger
}

// New creates an Orchestrator. The estimator may be nil when only
// pre-extracted landmarks or features will be classified.
func New(est detector.Estimator, clf classifier.Classifier, set *labels.Set, logger *slog.Logger) (*Orchestrator, error) {
	if clf == nil {
		return nil, errors.New("inference: classifier is required")
	}
	if set == nil {
		return nil, errors.New("inference: label set is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		estimator:  est,
		classifier: clf,
		labels:     set,
		log:        logger.With("component", "inference.Orchestrator"),
	}, nil
}

// Classify estimates hands on frame and classifies them. A frame without
// hands short-circuits to a NoHands result and the classifier is not called.
func (o *Orchestrator) Classify(frame *gocv.Mat) classifier.Result {
	if o.estimator == nil {
		return classifier.NoHandsResult()
	}
	set, err := o.estimator.Estimate(frame)
	if err != nil {
		o.log.Debug("estimation failed", "error", err)
		return classifier.NoHandsResult()
	}
	return o.ClassifyLandmarks(set)
}

// ClassifyLandmarks classifies an already estimated landmark set.
func (o *Orchestrator) ClassifyLandmarks(set detector.LandmarkSet) classifier.Result {
	if set.Empty() {
		return classifier.NoHandsResult()
	}
	return o.predict(features.Normalize(set))
}

// ClassifyVector classifies a pre-extracted feature vector. An all-zero
// vector is what Normalize yields without hands, so it is treated as NoHands.
func (o *Orchestrator) ClassifyVector(v features.Vector) classifier.Result {
	if v.IsZero() {
		return classifier.NoHandsResult()
	}
	return o.predict(v)
}

func (o *Orchestrator) predict(v features.Vector) classifier.Result {
	probs, err := o.classifier.Predict(v)
	if err != nil {
		o.log.Warn("classifier failed", "error", err)
		return classifier.NoHandsResult()
	}
	return classifier.Argmax(probs, o.labels)
}

// Output pairs a classification with its effect on a sentence engine.
type Output struct {
	Result   classifier.Result
	Token    string
	Appended bool
	Sentence []string
}

// Observe feeds r into engine and captures the resulting sentence.
func Observe(engine *sentence.Engine, r classifier.Result) Output {
	token, ok := engine.Observe(r)
	return Output{
		Result:   r,
		Token:    token,
		Appended: ok,
		Sentence: engine.Sentence(),
	}
}

// Labels returns the label set used to name results.
func (o *Orchestrator) Labels() *labels.Set {
	return o.labels
}
