package app

import (
	"context"
	"errors"

	"gocv.io/x/gocv"

	"github.com/ayusman/signbridge/internal/capture"
	"github.com/ayusman/signbridge/internal/collect"
	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/inference"
	"github.com/ayusman/signbridge/internal/sentence"
	"github.com/ayusman/signbridge/internal/telemetry"
)

// Collector drives a collect.Machine from camera frames and control events.
//
// Per tick:
// 1. Read a frame; a failed read ends the loop with an error
// 2. Estimate hands; a failed estimate is an empty observation
// 3. Take at most one pending event
// 4. Advance the machine
// 5. Report the status; a persist failure only ends that recording
// 6. Return once the machine has terminated
type Collector struct {
	Camera    capture.Camera
	Estimator detector.Estimator
	Machine   *collect.Machine
	Events    EventSource
	Telemetry *telemetry.Recorder
	// OnStatus, when set, receives every tick's status.
	OnStatus func(collect.Status)
	Options
}

// Run blocks until quit, ctx cancellation, or acquisition failure.
func (c *Collector) Run(ctx context.Context) error {
	opts := c.Options.withDefaults(c.Camera)
	log := opts.Logger.With("component", "app.Collector")

	return runTicker(ctx, c.Camera, opts.Interval, func(frame *gocv.Mat) error {
		obs := estimate(c.Estimator, frame, log)
		ev := c.Events.Take()

		st, err := c.Machine.Tick(opts.Now(), ev, obs)
		switch {
		case errors.Is(err, collect.ErrTerminated):
			return errStop
		case errors.Is(err, collect.ErrPersist):
			log.Error("recording lost", "error", err)
		case err != nil:
			return err
		}

		if st.Summary != nil {
			c.Telemetry.RecordSession(st.Summary.Name, st.Summary.Saved)
		}
		if c.OnStatus != nil {
			c.OnStatus(st)
		}
		if st.State == collect.Terminated {
			return errStop
		}
		return nil
	})
}

// Interpreter classifies camera frames and assembles a sentence.
type Interpreter struct {
	Camera       capture.Camera
	Orchestrator *inference.Orchestrator
	Engine       *sentence.Engine
	Events       EventSource
	// Threshold gates the "current sign" readout; it does not affect the
	// sentence, which applies its own threshold.
	Threshold float64
	// OnOutput, when set, receives every tick's result.
	OnOutput func(inference.Output)
	Options
}

// Run blocks until quit, ctx cancellation, or acquisition failure. A clear
// event empties the sentence before the tick's frame is observed.
func (it *Interpreter) Run(ctx context.Context) error {
	opts := it.Options.withDefaults(it.Camera)
	log := opts.Logger.With("component", "app.Interpreter")

	return runTicker(ctx, it.Camera, opts.Interval, func(frame *gocv.Mat) error {
		switch ev := it.Events.Take(); ev.Kind {
		case collect.EventQuit:
			return errStop
		case collect.EventClear:
			it.Engine.Reset()
			log.Info("sentence cleared")
		}

		out := inference.Observe(it.Engine, it.Orchestrator.Classify(frame))
		if current := Current(out, it.Threshold); current != "" {
			log.Debug("current sign", "label", current, "confidence", out.Result.Confidence)
		}
		if out.Appended {
			log.Info("token appended", "token", out.Token, "sentence", it.Engine.String())
		}
		if it.OnOutput != nil {
			it.OnOutput(out)
		}
		return nil
	})
}

// Current returns the display label for out: the result's label when it
// meets threshold, otherwise empty.
func Current(out inference.Output, threshold float64) string {
	if out.Result.Code < 0 || out.Result.Confidence < threshold {
		return ""
	}
	return out.Result.Label
}
