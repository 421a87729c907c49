package fallwatch_test

import (
	"testing"
	"time"

	Fs "github.com/maroda/fallwatch/server"
	Ft "github.com/maroda/fallwatch/types"
)

func TestToneFor(t *testing.T) {
	tests := []struct {
		name    string
		status  Ft.Status
		hz      float64
		audible bool
	}{
		{"potential fall warns", Ft.PotentialFall, 1000, true},
		{"detected fall alarms", Ft.FallDetected, 2500, true},
		{"normal is silent", Ft.Normal, 0, false},
		{"ready is silent", Ft.Ready, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tone, ok := Fs.ToneFor(tt.status)
			if ok != tt.audible {
				t.Errorf("audible = %v, want %v", ok, tt.audible)
			}
			assertFloat(t, tone.FrequencyHz, tt.hz)
		})
	}

	t.Run("Alarm is longer than the warning", func(t *testing.T) {
		if Fs.AlarmTone.Duration <= Fs.WarningTone.Duration {
			t.Errorf("alarm %s should outlast warning %s", Fs.AlarmTone.Duration, Fs.WarningTone.Duration)
		}
	})
}

func TestNewAlert(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := Fs.Result{
		Status:   Ft.FallDetected,
		Features: Ft.FeatureSet{VerticalVelocity: 0.7, TorsoAngleDeg: 12},
	}

	a := Fs.NewAlert(r, "Living Room", now)
	assertDetect(t, a.Status, Ft.FallDetected)
	assertFloat(t, a.Tone.FrequencyHz, Fs.AlarmTone.FrequencyHz)
	assertString(t, a.Location, "Living Room")
	assertFloat(t, a.Velocity, 0.7)
	assertFloat(t, a.AngleDeg, 12)
	if !a.Timestamp.Equal(now) {
		t.Errorf("timestamp %s, want %s", a.Timestamp, now)
	}
}

func TestAlertPacer(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Warnings play at most once a second", func(t *testing.T) {
		p := Fs.NewAlertPacer()
		assertAllow(t, p.Allow(Ft.PotentialFall, t0), true)
		assertAllow(t, p.Allow(Ft.PotentialFall, t0.Add(500*time.Millisecond)), false)
		assertAllow(t, p.Allow(Ft.PotentialFall, t0.Add(1000*time.Millisecond)), false)
		assertAllow(t, p.Allow(Ft.PotentialFall, t0.Add(1001*time.Millisecond)), true)
	})

	t.Run("Alarms play at most twice a second", func(t *testing.T) {
		p := Fs.NewAlertPacer()
		assertAllow(t, p.Allow(Ft.FallDetected, t0), true)
		assertAllow(t, p.Allow(Ft.FallDetected, t0.Add(300*time.Millisecond)), false)
		assertAllow(t, p.Allow(Ft.FallDetected, t0.Add(600*time.Millisecond)), true)
		assertAllow(t, p.Allow(Ft.FallDetected, t0.Add(1200*time.Millisecond)), true)
	})

	t.Run("Statuses share one clock", func(t *testing.T) {
		p := Fs.NewAlertPacer()
		assertAllow(t, p.Allow(Ft.PotentialFall, t0), true)
		assertAllow(t, p.Allow(Ft.FallDetected, t0.Add(400*time.Millisecond)), false)
		assertAllow(t, p.Allow(Ft.FallDetected, t0.Add(600*time.Millisecond)), true)
	})

	t.Run("Silent statuses never play", func(t *testing.T) {
		p := Fs.NewAlertPacer()
		assertAllow(t, p.Allow(Ft.Normal, t0), false)
		assertAllow(t, p.Allow(Ft.Ready, t0), false)
		if !p.LastTone.IsZero() {
			t.Errorf("silent status should not touch the clock")
		}
	})

	t.Run("Reset clears the clock", func(t *testing.T) {
		p := Fs.NewAlertPacer()
		p.Allow(Ft.FallDetected, t0)
		p.Reset()
		assertAllow(t, p.Allow(Ft.FallDetected, t0.Add(10*time.Millisecond)), true)
	})
}

func assertAllow(t testing.TB, got, want bool) {
	t.Helper()
	if got != want {
		t.Errorf("allow = %v, want %v", got, want)
	}
}
