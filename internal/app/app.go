// Package app runs the capture-driven loops: sample collection and live
// interpretation.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signbridge/internal/capture"
	"github.com/ayusman/signbridge/internal/collect"
	"github.com/ayusman/signbridge/internal/detector"
)

// EventSource yields at most one pending control event per call.
// *control.Latch satisfies it.
type EventSource interface {
	Take() collect.Event
}

// Options holds settings shared by both loops.
type Options struct {
	// Interval is the tick period. Zero means one tick per camera frame
	// at the camera's FPS.
	Interval time.Duration
	// Now is the clock; tests inject a fake one.
	Now    func() time.Time
	Logger *slog.Logger
}

func (o Options) withDefaults(cam capture.Camera) Options {
	if o.Interval <= 0 {
		fps := cam.FPS()
		if fps <= 0 {
			fps = capture.DefaultFPS
		}
		o.Interval = time.Second / time.Duration(fps)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// errStop ends a loop without an error.
var errStop = errors.New("stop")

// runTicker opens cam and calls step with one frame per tick until ctx is
// done, step returns errStop, or acquisition fails.
func runTicker(ctx context.Context, cam capture.Camera, interval time.Duration, step func(frame *gocv.Mat) error) error {
	if err := cam.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer cam.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		mat, err := cam.ReadFrame()
		if err != nil {
			return fmt.Errorf("acquire frame: %w", err)
		}
		err = step(mat)
		mat.Close()
		if errors.Is(err, errStop) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// estimate runs est on frame. Estimation failures count as no detection.
func estimate(est detector.Estimator, frame *gocv.Mat, log *slog.Logger) detector.LandmarkSet {
	if est == nil {
		return detector.LandmarkSet{}
	}
	set, err := est.Estimate(frame)
	if err != nil {
		log.Debug("estimation failed", "error", err)
		return detector.LandmarkSet{}
	}
	return set
}
