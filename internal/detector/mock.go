package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockEstimator is a test implementation of the Estimator interface.
// It allows tests to control the estimation results.
type MockEstimator struct {
	mu    sync.Mutex
	set   LandmarkSet
	err   error
	calls int
}

// NewMockEstimator creates a new MockEstimator instance.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// SetLandmarks sets the landmark set that will be returned by Estimate.
func (m *MockEstimator) SetLandmarks(set LandmarkSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set = set
}

// SetError sets the error that will be returned by Estimate.
func (m *MockEstimator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Estimate was invoked.
func (m *MockEstimator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Estimate returns the pre-configured landmarks or error.
func (m *MockEstimator) Estimate(frame *gocv.Mat) (LandmarkSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return LandmarkSet{}, m.err
	}
	return m.set, nil
}

// Close is a no-op for the mock estimator.
func (m *MockEstimator) Close() error {
	return nil
}

// OpenPalm returns a preset right hand with all fingers extended.
func OpenPalm() Hand {
	h := Hand{Handedness: HandRight, Score: 0.95}

	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	h.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	h.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	h.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	h.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	h.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	h.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	h.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	h.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	h.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	h.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	h.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	h.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	h.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	h.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	h.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	h.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	h.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return h
}

// Fist returns a preset left hand with every finger curled toward the palm.
func Fist() Hand {
	h := Hand{Handedness: HandLeft, Score: 0.93}

	h.Points[Wrist] = Point3D{X: 0.3, Y: 0.8, Z: 0.0}

	h.Points[ThumbCMC] = Point3D{X: 0.27, Y: 0.75, Z: -0.01}
	h.Points[ThumbMCP] = Point3D{X: 0.25, Y: 0.70, Z: -0.02}
	h.Points[ThumbIP] = Point3D{X: 0.27, Y: 0.66, Z: -0.04}
	h.Points[ThumbTip] = Point3D{X: 0.30, Y: 0.65, Z: -0.05}

	for i, base := range []int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP} {
		x := 0.26 + float64(i)*0.03
		h.Points[base] = Point3D{X: x, Y: 0.68, Z: -0.02}
		h.Points[base+1] = Point3D{X: x, Y: 0.66, Z: -0.05}
		h.Points[base+2] = Point3D{X: x, Y: 0.69, Z: -0.04}
		h.Points[base+3] = Point3D{X: x, Y: 0.71, Z: -0.02}
	}

	return h
}
