package fallwatch

import (
	"math"

	Ft "github.com/maroda/fallwatch/types"
)

// torsoEpsilon replaces an exactly zero horizontal torso delta
const torsoEpsilon = 0.00001

// HeadSample is the previous head position threaded between calls.
// Valid is false until the first frame has been seen.
type HeadSample struct {
	Y      float64
	TimeMs float64
	Valid  bool
}

// FeatureExtractor keeps the last HeadSample so callers
// only need to hand it the smoothed frame and the time.
type FeatureExtractor struct {
	Prev HeadSample
}

// Extract computes the features for one smoothed frame and remembers the head for next time
func (fe *FeatureExtractor) Extract(smoothed Ft.LandmarkFrame, nowMs float64) Ft.FeatureSet {
	fs, next := ExtractFeatures(smoothed, fe.Prev, nowMs)
	fe.Prev = next
	return fs
}

func (fe *FeatureExtractor) Reset() {
	fe.Prev = HeadSample{}
}

// ExtractFeatures is the stateless form of Extract.
// nowMs is expected to increase strictly between calls.
func ExtractFeatures(smoothed Ft.LandmarkFrame, prev HeadSample, nowMs float64) (Ft.FeatureSet, HeadSample) {
	headY := smoothed[Ft.Nose].Y

	velocity := 0.0
	if prev.Valid {
		velocity = CalcVelocity(headY, prev.Y, nowMs, prev.TimeMs)
	}

	fs := Ft.FeatureSet{
		VerticalVelocity: velocity,
		TorsoAngleDeg:    CalcTorsoAngle(smoothed),
		BodyHeight:       CalcBodyHeight(smoothed),
	}

	return fs, HeadSample{Y: headY, TimeMs: nowMs, Valid: true}
}

// CalcVelocity returns the vertical speed per second between two head samples.
// Positive means the head moved down the screen.
// A non-positive time delta yields 0.
func CalcVelocity(currY, prevY, nowMs, prevMs float64) float64 {
	dt := (nowMs - prevMs) / 1000
	if dt <= 0 {
		return 0
	}
	return (currY - prevY) / dt
}

// CalcTorsoAngle is the angle in degrees between the shoulder-hip midline and the horizontal.
// It is a cheap proxy: 0 is a horizontal torso, 90 a vertical one.
func CalcTorsoAngle(f Ft.LandmarkFrame) float64 {
	midShoulderX := (f[Ft.LeftShoulder].X + f[Ft.RightShoulder].X) / 2
	midShoulderY := (f[Ft.LeftShoulder].Y + f[Ft.RightShoulder].Y) / 2
	midHipX := (f[Ft.LeftHip].X + f[Ft.RightHip].X) / 2
	midHipY := (f[Ft.LeftHip].Y + f[Ft.RightHip].Y) / 2

	dy := midHipY - midShoulderY
	dx := midHipX - midShoulderX
	if dx == 0 {
		dx = torsoEpsilon
	}

	return math.Atan(math.Abs(dy/dx)) * 180 / math.Pi
}

// CalcBodyHeight is the vertical extent of all landmarks
func CalcBodyHeight(f Ft.LandmarkFrame) float64 {
	minY, maxY := f[0].Y, f[0].Y
	for _, lm := range f[1:] {
		minY = math.Min(minY, lm.Y)
		maxY = math.Max(maxY, lm.Y)
	}
	return maxY - minY
}
