package fallwatch

import (
	Ft "github.com/maroda/fallwatch/types"
)

// Thresholds holds every tuning constant of the state machine.
// They are fixed at construction; DefaultThresholds is what runs in production.
type Thresholds struct {
	DropVelocity       float64 // head speed (units/sec) that counts as falling
	HorizontalAngleDeg float64 // torso angles below this are lying down
	MinFallHeight      float64 // body must be taller than this for a fall to start
	RecoveryHeight     float64 // body taller than this (and upright) clears a detected fall
	RecoveryWindowMs   float64 // upright this long after the drop cancels a potential fall
	LyingDurationMs    float64 // horizontal longer than this confirms a fall
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		DropVelocity:       0.3,
		HorizontalAngleDeg: 45,
		MinFallHeight:      0.4,
		RecoveryHeight:     0.5,
		RecoveryWindowMs:   1500,
		LyingDurationMs:    3000,
	}
}

// Timers are wall clock milliseconds, 0 means not started
type Timers struct {
	FallStartMs  float64
	LyingStartMs float64
}

// StateMachine is the three state debouncer.
// State is the DetectionState and is always Normal, PotentialFall or FallDetected.
type StateMachine struct {
	Limits Thresholds
	State  Ft.Status
	Timers Timers
}

func NewStateMachine(th Thresholds) *StateMachine {
	return &StateMachine{
		Limits: th,
		State:  Ft.Normal,
	}
}

// Reset returns to Normal with both timers cleared. Safe to call repeatedly.
func (sm *StateMachine) Reset() {
	sm.State = Ft.Normal
	sm.Timers = Timers{}
}

// Classify advances the machine by one frame and returns the status to report.
//
// The reported status lags the internal state: the frame that enters PotentialFall
// reports Normal, and while in PotentialFall only a horizontal torso reports
// PotentialFall or FallDetected. Every other path reports Normal.
// NaN features compare false and so fall through to Normal.
func (sm *StateMachine) Classify(fs Ft.FeatureSet, nowMs float64) Ft.Status {
	isFalling := fs.VerticalVelocity > sm.Limits.DropVelocity
	isHorizontal := fs.TorsoAngleDeg < sm.Limits.HorizontalAngleDeg

	status := Ft.Normal

	switch sm.State {
	case Ft.Normal:
		// a fall has to start from an extended body, not from the floor
		if isFalling && fs.BodyHeight > sm.Limits.MinFallHeight {
			sm.State = Ft.PotentialFall
			sm.Timers.FallStartMs = nowMs
		}

	case Ft.PotentialFall:
		timeSinceFall := nowMs - sm.Timers.FallStartMs

		if isHorizontal {
			if sm.Timers.LyingStartMs == 0 {
				sm.Timers.LyingStartMs = nowMs
			}
			timeLying := nowMs - sm.Timers.LyingStartMs
			if timeLying > sm.Limits.LyingDurationMs {
				sm.State = Ft.FallDetected
				status = Ft.FallDetected
			} else {
				status = Ft.PotentialFall
			}
		} else if timeSinceFall > sm.Limits.RecoveryWindowMs {
			// upright after the drop: sat down or crouched
			sm.State = Ft.Normal
			sm.Timers.LyingStartMs = 0
		}

	case Ft.FallDetected:
		status = Ft.FallDetected
		if !isHorizontal && fs.BodyHeight > sm.Limits.RecoveryHeight {
			sm.State = Ft.Normal
			sm.Timers.LyingStartMs = 0
		}
	}

	return status
}
