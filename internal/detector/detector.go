package detector

import "gocv.io/x/gocv"

// Estimator defines the interface for hand landmark estimation.
type Estimator interface {
	// Estimate analyzes a video frame and returns the hands it found.
	// Either slot of the returned set may be nil.
	Estimate(frame *gocv.Mat) (LandmarkSet, error)

	// Close releases any resources held by the estimator.
	Close() error
}

// Config holds configuration options for hand estimation.
type Config struct {
	// Script is the path to the MediaPipe service script. Empty means search
	// the default locations.
	Script string

	// Python is the interpreter used to run Script. Empty means look for a
	// virtual environment, then fall back to python3.
	Python string

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
