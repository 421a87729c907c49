package fallwatch

import (
	"math"

	Ft "github.com/maroda/fallwatch/types"
)

// Pose places a synthetic body on the frame.
// The body is a straight axis of Length from head to feet centered on (CenterX, CenterY),
// TiltDeg is the axis angle from horizontal: 90 stands, 0 lies flat.
type Pose struct {
	CenterX float64
	CenterY float64
	Length  float64
	TiltDeg float64
}

var (
	Standing = Pose{CenterX: 0.5, CenterY: 0.5, Length: 0.8, TiltDeg: 90}
	Lying    = Pose{CenterX: 0.5, CenterY: 0.85, Length: 0.8, TiltDeg: 0}
	Seated   = Pose{CenterX: 0.5, CenterY: 0.65, Length: 0.5, TiltDeg: 90}
)

// bodyAxis maps each landmark to (distance along the axis, lateral offset).
// Distances are fractions of Length measured from the head.
var bodyAxis = [Ft.NumLandmarks][2]float64{
	{0.00, 0.00},                                 // nose
	{0.01, -0.01}, {0.01, -0.015}, {0.01, -0.02}, // left eye
	{0.01, 0.01}, {0.01, 0.015}, {0.01, 0.02}, // right eye
	{0.02, -0.03}, {0.02, 0.03}, // ears
	{0.04, -0.01}, {0.04, 0.01}, // mouth
	{0.15, -0.08}, {0.15, 0.08}, // shoulders
	{0.30, -0.10}, {0.30, 0.10}, // elbows
	{0.45, -0.11}, {0.45, 0.11}, // wrists
	{0.47, -0.11}, {0.47, 0.11}, // pinky
	{0.47, -0.10}, {0.47, 0.10}, // index
	{0.46, -0.10}, {0.46, 0.10}, // thumb
	{0.50, -0.05}, {0.50, 0.05}, // hips
	{0.75, -0.05}, {0.75, 0.05}, // knees
	{0.98, -0.05}, {0.98, 0.05}, // ankles
	{1.00, -0.05}, {1.00, 0.05}, // heels
	{1.00, -0.07}, {1.00, 0.07}, // foot index
}

// BodyFrame renders a Pose into 33 landmarks
func BodyFrame(p Pose) Ft.LandmarkFrame {
	rad := p.TiltDeg * math.Pi / 180
	// axis points from head to feet, y grows downward
	ax, ay := math.Cos(rad), math.Sin(rad)
	// perpendicular for left/right spread
	nx, ny := -ay, ax

	headX := p.CenterX - ax*p.Length/2
	headY := p.CenterY - ay*p.Length/2

	var f Ft.LandmarkFrame
	for i, a := range bodyAxis {
		along := a[0] * p.Length
		f[i] = Ft.Landmark{
			X:          headX + ax*along + nx*a[1],
			Y:          headY + ay*along + ny*a[1],
			Visibility: 0.99,
		}
	}
	return f
}

// Segment moves linearly From one pose To another over DurationMs
type Segment struct {
	From       Pose
	To         Pose
	DurationMs float64
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func (s Segment) at(t float64) Pose {
	return Pose{
		CenterX: lerp(s.From.CenterX, s.To.CenterX, t),
		CenterY: lerp(s.From.CenterY, s.To.CenterY, t),
		Length:  lerp(s.From.Length, s.To.Length, t),
		TiltDeg: lerp(s.From.TiltDeg, s.To.TiltDeg, t),
	}
}

// RenderScript samples the segments at fps starting from startMs
func RenderScript(script []Segment, fps int, startMs float64) []TimedFrame {
	if fps <= 0 {
		fps = 30
	}
	step := 1000 / float64(fps)

	var frames []TimedFrame
	now := startMs
	for _, seg := range script {
		n := int(math.Round(seg.DurationMs / step))
		for i := 1; i <= n; i++ {
			f := BodyFrame(seg.at(float64(i) / float64(n)))
			frames = append(frames, TimedFrame{TimeMs: now, Frame: &f})
			now += step
		}
	}
	return frames
}

// FallScript stands, falls to the floor, stays down long enough to confirm, then gets up
func FallScript() []Segment {
	return []Segment{
		{From: Standing, To: Standing, DurationMs: 1000},
		{From: Standing, To: Lying, DurationMs: 400},
		{From: Lying, To: Lying, DurationMs: 4000},
		{From: Lying, To: Standing, DurationMs: 1000},
		{From: Standing, To: Standing, DurationMs: 2000},
	}
}

// SitDownScript drops the head quickly but keeps the torso upright
func SitDownScript() []Segment {
	return []Segment{
		{From: Standing, To: Standing, DurationMs: 1000},
		{From: Standing, To: Seated, DurationMs: 500},
		{From: Seated, To: Seated, DurationMs: 3000},
	}
}

// ScenarioFrames is the demo session used when no replay file is given
func ScenarioFrames(fps int) []TimedFrame {
	return RenderScript(FallScript(), fps, 1000)
}
