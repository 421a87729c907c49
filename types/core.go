package types

/*

	These are the "immutable" core types of Fallwatch,
	provided for cross-package use (e.g. Plugins) and testing.

	There are no functions defined here beyond enum helpers.
	Constructors are housed in their own packages.

*/

import "time"

// Body landmark indices, following the 33 point MediaPipe pose convention.
// Only the indices used for features and drawing are named.
const (
	Nose          = 0
	LeftEyeInner  = 1
	RightEyeInner = 4
	RightEye      = 5
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
	NumLandmarks  = 33
)

// Landmark is a single tracked keypoint.
// X and Y are normalized to the camera frame, Y grows downward.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// LandmarkFrame is one pose estimate, index addressed.
// Being an array it is copied by value, so a received frame is never mutated downstream.
type LandmarkFrame [NumLandmarks]Landmark

// FeatureSet is recomputed for every frame and never retained
type FeatureSet struct {
	VerticalVelocity float64 // head drop speed, normalized units per second, positive is down
	TorsoAngleDeg    float64 // 0 = horizontal torso, 90 = vertical torso
	BodyHeight       float64 // max(y) - min(y) over all landmarks
}

// Status is the closed set of labels shown to the user.
// DetectionState only ever holds Normal, PotentialFall or FallDetected;
// Ready is the idle label reported after a reset.
type Status int

const (
	Normal Status = iota
	PotentialFall
	FallDetected
	Ready
)

func (s Status) String() string {
	switch s {
	case Normal:
		return "NORMAL"
	case PotentialFall:
		return "POTENTIAL_FALL"
	case FallDetected:
		return "FALL_DETECTED"
	case Ready:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// Tone is an audible alert profile
type Tone struct {
	FrequencyHz float64
	Duration    time.Duration
}

// Alert is what output plugins receive when a status should be announced
type Alert struct {
	Status    Status
	Tone      Tone
	Location  string
	Velocity  float64
	AngleDeg  float64
	Timestamp time.Time
}
