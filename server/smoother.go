package fallwatch

import (
	Ft "github.com/maroda/fallwatch/types"
	"gonum.org/v1/gonum/stat"
)

// SmoothingWindow is the number of frames averaged by the Smoother
const SmoothingWindow = 5

// Smoother is a rolling moving average over the last MaxSize frames.
// Frames is used as a ring, Current is the slot of the newest frame
// and Count is how many slots hold real data.
type Smoother struct {
	Frames  []Ft.LandmarkFrame
	MaxSize int
	Current int
	Count   int
}

func NewSmoother(window int) *Smoother {
	if window < 1 {
		window = SmoothingWindow
	}
	return &Smoother{
		Frames:  make([]Ft.LandmarkFrame, window),
		MaxSize: window,
	}
}

// Len is the number of buffered frames, never more than MaxSize
func (s *Smoother) Len() int { return s.Count }

// Reset empties the history
func (s *Smoother) Reset() {
	clear(s.Frames)
	s.Current = 0
	s.Count = 0
}

// Smooth records the frame and returns the per-landmark mean of x, y, z
// across the buffered history. Visibility comes from the frame passed in.
// Until two frames are buffered the input is returned untouched.
//
// Call exactly once per incoming frame, in order.
func (s *Smoother) Smooth(frame Ft.LandmarkFrame) Ft.LandmarkFrame {
	// oldest slot is overwritten once the ring is full
	s.Current = (s.Current + 1) % s.MaxSize
	s.Frames[s.Current] = frame
	if s.Count < s.MaxSize {
		s.Count++
	}

	if s.Count < 2 {
		return frame
	}

	xs := make([]float64, s.Count)
	ys := make([]float64, s.Count)
	zs := make([]float64, s.Count)

	var smoothed Ft.LandmarkFrame
	for i := range smoothed {
		for n := 0; n < s.Count; n++ {
			// walk back from newest to oldest
			lm := s.Frames[(s.Current-n+s.MaxSize)%s.MaxSize][i]
			xs[n] = lm.X
			ys[n] = lm.Y
			zs[n] = lm.Z
		}
		smoothed[i] = Ft.Landmark{
			X:          stat.Mean(xs, nil),
			Y:          stat.Mean(ys, nil),
			Z:          stat.Mean(zs, nil),
			Visibility: frame[i].Visibility,
		}
	}

	return smoothed
}
