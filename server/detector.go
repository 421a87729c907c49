package fallwatch

import (
	"sync"

	Ft "github.com/maroda/fallwatch/types"
)

// Classifier is the per-camera fall detection pipeline.
// Display and transport code only need this much of a Detector.
type Classifier interface {
	Process(frame Ft.LandmarkFrame, nowMs float64) Result
	Reset() Ft.Status
	Status() Ft.Status
	Last() Result
}

// Transition records a change of the internal DetectionState
type Transition struct {
	From Ft.Status
	To   Ft.Status
}

// Result is everything one frame produced.
// Status is what gets reported, State is the DetectionState after the frame.
type Result struct {
	Status     Ft.Status
	State      Ft.Status
	Features   Ft.FeatureSet
	Smoothed   Ft.LandmarkFrame
	TimeMs     float64
	Transition *Transition
}

// Detector wires Smoother -> FeatureExtractor -> StateMachine.
// Process is meant to be driven from one frame callback at a time,
// MU lets HTTP handlers read Status and Last while that happens.
type Detector struct {
	MU        sync.RWMutex
	Smoother  *Smoother
	Extractor *FeatureExtractor
	Machine   *StateMachine
	last      Result
}

func NewDetector() *Detector {
	return NewDetectorWithThresholds(DefaultThresholds())
}

func NewDetectorWithThresholds(th Thresholds) *Detector {
	return &Detector{
		Smoother:  NewSmoother(SmoothingWindow),
		Extractor: &FeatureExtractor{},
		Machine:   NewStateMachine(th),
		last:      Result{Status: Ft.Ready, State: Ft.Normal},
	}
}

// Process runs one frame through the pipeline
func (d *Detector) Process(frame Ft.LandmarkFrame, nowMs float64) Result {
	d.MU.Lock()
	defer d.MU.Unlock()

	smoothed := d.Smoother.Smooth(frame)
	fs := d.Extractor.Extract(smoothed, nowMs)

	from := d.Machine.State
	status := d.Machine.Classify(fs, nowMs)

	r := Result{
		Status:   status,
		State:    d.Machine.State,
		Features: fs,
		Smoothed: smoothed,
		TimeMs:   nowMs,
	}
	if from != r.State {
		r.Transition = &Transition{From: from, To: r.State}
	}

	d.last = r
	return r
}

// Reset puts the pipeline back to its initial state and reports Ready.
// It is idempotent and does not need a frame in flight.
func (d *Detector) Reset() Ft.Status {
	d.MU.Lock()
	defer d.MU.Unlock()

	d.Smoother.Reset()
	d.Extractor.Reset()
	d.Machine.Reset()
	d.last = Result{Status: Ft.Ready, State: Ft.Normal}

	return Ft.Ready
}

// Status is the last reported status, Ready before any frame
func (d *Detector) Status() Ft.Status {
	d.MU.RLock()
	defer d.MU.RUnlock()
	return d.last.Status
}

// State is the internal DetectionState
func (d *Detector) State() Ft.Status {
	d.MU.RLock()
	defer d.MU.RUnlock()
	return d.Machine.State
}

// Last returns a copy of the most recent Result
func (d *Detector) Last() Result {
	d.MU.RLock()
	defer d.MU.RUnlock()
	return d.last
}

// HistoryLen exposes the smoother fill level
func (d *Detector) HistoryLen() int {
	d.MU.RLock()
	defer d.MU.RUnlock()
	return d.Smoother.Len()
}
