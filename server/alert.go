package fallwatch

import (
	"sync"
	"time"

	Ft "github.com/maroda/fallwatch/types"
)

// Tone profiles, one per audible status
var (
	WarningTone = Ft.Tone{FrequencyHz: 1000, Duration: 200 * time.Millisecond}
	AlarmTone   = Ft.Tone{FrequencyHz: 2500, Duration: 400 * time.Millisecond}
)

// ToneFor returns the tone for a status, false when the status is silent
func ToneFor(s Ft.Status) (Ft.Tone, bool) {
	switch s {
	case Ft.PotentialFall:
		return WarningTone, true
	case Ft.FallDetected:
		return AlarmTone, true
	default:
		return Ft.Tone{}, false
	}
}

// NewAlert builds the alert metadata for a result.
// There is no boolean, callers only build one when a tone is due.
func NewAlert(r Result, location string, now time.Time) *Ft.Alert {
	tone, _ := ToneFor(r.Status)
	return &Ft.Alert{
		Status:    r.Status,
		Tone:      tone,
		Location:  location,
		Velocity:  r.Features.VerticalVelocity,
		AngleDeg:  r.Features.TorsoAngleDeg,
		Timestamp: now,
	}
}

// AlertPacer keeps tones from firing on every frame.
// Both statuses share one clock of the last tone played.
type AlertPacer struct {
	MU           sync.Mutex
	LastTone     time.Time
	WarningEvery time.Duration
	AlarmEvery   time.Duration
}

func NewAlertPacer() *AlertPacer {
	return &AlertPacer{
		WarningEvery: 1 * time.Second,
		AlarmEvery:   500 * time.Millisecond,
	}
}

// Allow reports whether a tone for s may play at now, and if so records it
func (p *AlertPacer) Allow(s Ft.Status, now time.Time) bool {
	p.MU.Lock()
	defer p.MU.Unlock()

	var every time.Duration
	switch s {
	case Ft.PotentialFall:
		every = p.WarningEvery
	case Ft.FallDetected:
		every = p.AlarmEvery
	default:
		return false
	}

	if !p.LastTone.IsZero() && now.Sub(p.LastTone) <= every {
		return false
	}
	p.LastTone = now
	return true
}

func (p *AlertPacer) Reset() {
	p.MU.Lock()
	defer p.MU.Unlock()
	p.LastTone = time.Time{}
}
