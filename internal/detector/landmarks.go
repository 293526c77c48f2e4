// Package detector provides hand landmark types and the estimator adapters
// that produce them from video frames.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the estimator.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Hand holds the 21 landmarks of a single detected hand.
type Hand struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"`
	Score      float64               `json:"score"`
}

// LandmarkSet is the per-observation snapshot of both hands. A nil hand
// means the estimator did not report it on this frame.
type LandmarkSet struct {
	Left  *Hand `json:"left,omitempty"`
	Right *Hand `json:"right,omitempty"`
}

// Empty reports whether neither hand was detected.
func (s LandmarkSet) Empty() bool {
	return s.Left == nil && s.Right == nil
}

// NewLandmarkSet assigns detected hands to the left and right slots by their
// handedness. Hands with unknown handedness fill the first free slot, left
// first. Extra hands are ignored.
func NewLandmarkSet(hands []Hand) LandmarkSet {
	var set LandmarkSet
	var unassigned []int

	for i := range hands {
		h := hands[i]
		switch h.Handedness {
		case HandLeft:
			if set.Left == nil {
				set.Left = &h
				continue
			}
		case HandRight:
			if set.Right == nil {
				set.Right = &h
				continue
			}
		}
		unassigned = append(unassigned, i)
	}

	for _, i := range unassigned {
		h := hands[i]
		switch {
		case set.Left == nil:
			set.Left = &h
		case set.Right == nil:
			set.Right = &h
		}
	}

	return set
}
