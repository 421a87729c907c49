package fallwatch_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	Fd "github.com/maroda/fallwatch/display"
	Fo "github.com/maroda/fallwatch/obvy"
	Fs "github.com/maroda/fallwatch/server"
	Ft "github.com/maroda/fallwatch/types"
)

func TestSession_Observe(t *testing.T) {
	out := &recordOutput{}
	s := Fd.NewSession(context.Background(), "Kitchen", Fo.NewStatsInternal(), out)

	var last Fd.Reply
	for _, tf := range Fs.ScenarioFrames(30) {
		last = s.Observe(tf)
		if math.IsNaN(last.Velocity) || math.IsNaN(last.Angle) {
			t.Fatalf("reply carries NaN: %+v", last)
		}
	}

	t.Run("Ends back on its feet", func(t *testing.T) {
		assertString(t, last.Status, Ft.Normal.String())
		assertString(t, last.Session, s.ID)
		if !last.Present {
			t.Errorf("reply should mark the body present")
		}
	})

	t.Run("Warned and then alarmed", func(t *testing.T) {
		warned, alarmed := out.count(Ft.PotentialFall), out.count(Ft.FallDetected)
		if warned == 0 || alarmed == 0 {
			t.Errorf("got %d warnings and %d alarms, want both", warned, alarmed)
		}
		for _, a := range out.alerts() {
			assertString(t, a.Location, "Kitchen")
		}
	})

	t.Run("Alarms are paced on frame time", func(t *testing.T) {
		// about 1.7s of reported falls at 30fps, at most one alarm per 500ms
		alarmed := out.count(Ft.FallDetected)
		if alarmed > 6 {
			t.Errorf("got %d alarms, pacing is not applied", alarmed)
		}
	})
}

func TestSession_Absent(t *testing.T) {
	s := Fd.NewSession(context.Background(), "Kitchen", Fo.NewStatsInternal(), nil)
	frames := Fs.ScenarioFrames(30)

	// stop partway into the lying segment
	for _, tf := range frames[:100] {
		s.Observe(tf)
	}
	before := s.Detector.Last()

	reply := s.Observe(Fs.TimedFrame{TimeMs: frames[100].TimeMs})
	if reply.Present {
		t.Errorf("absent frame reported a body")
	}
	assertString(t, reply.Status, before.Status.String())

	after := s.Detector.Last()
	if after.TimeMs != before.TimeMs || after.State != before.State {
		t.Errorf("absent frame changed the detector: %+v -> %+v", before, after)
	}
}

func TestSession_Reset(t *testing.T) {
	s := Fd.NewSession(context.Background(), "Kitchen", Fo.NewStatsInternal(), nil)
	for _, tf := range Fs.ScenarioFrames(30)[:150] {
		s.Observe(tf)
	}

	reply := s.Reset()
	assertString(t, reply.Status, Ft.Ready.String())
	assertString(t, reply.State, Ft.Normal.String())
	assertString(t, s.Detector.Status().String(), Ft.Ready.String())
}

func TestSession_Record(t *testing.T) {
	var buf bytes.Buffer
	s := Fd.NewSession(context.Background(), "Kitchen", Fo.NewStatsInternal(), nil)
	s.Recorder = Fs.NewFrameRecorder("buffer", &buf)

	frames := Fs.ScenarioFrames(30)[:40]
	var want Fd.Reply
	for _, tf := range frames {
		want = s.Observe(tf)
	}
	s.Reset()

	got, err := Fs.ParseFrames(&buf)
	assertError(t, err, nil)
	assertInt(t, len(got), len(frames)+1)
	if !got[len(frames)].Reset {
		t.Errorf("reset was not recorded")
	}

	t.Run("Replaying the recording gives the same reply", func(t *testing.T) {
		replay := Fd.NewSession(context.Background(), "Kitchen", Fo.NewStatsInternal(), nil)
		var again Fd.Reply
		for _, tf := range got[:len(frames)] {
			again = replay.Observe(tf)
		}
		assertString(t, again.Status, want.Status)
		assertString(t, again.State, want.State)
		if math.Abs(again.Velocity-want.Velocity) > 1e-9 || math.Abs(again.Angle-want.Angle) > 1e-9 {
			t.Errorf("got %+v, want %+v", again, want)
		}
	})
}

func TestNewSession(t *testing.T) {
	a := Fd.NewSession(context.Background(), "", Fo.NewStatsInternal(), nil)
	b := Fd.NewSession(context.Background(), "", Fo.NewStatsInternal(), nil)
	if a.ID == b.ID {
		t.Errorf("sessions share an ID %q", a.ID)
	}
	assertString(t, a.Detector.Status().String(), Ft.Ready.String())
}

// recordOutput keeps every alert it is handed
type recordOutput struct {
	mu   sync.Mutex
	list []Ft.Alert
}

func (r *recordOutput) WriteAlert(alert *Ft.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, *alert)
	return nil
}

func (r *recordOutput) Flush() error { return nil }
func (r *recordOutput) Close() error { return nil }
func (r *recordOutput) Type() string { return "record" }

func (r *recordOutput) alerts() []Ft.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Ft.Alert(nil), r.list...)
}

func (r *recordOutput) count(s Ft.Status) int {
	n := 0
	for _, a := range r.alerts() {
		if a.Status == s {
			n++
		}
	}
	return n
}

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertStatus(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct status, got %d, want %d", got, want)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertString(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func assertStringContains(t *testing.T, full, want string) {
	t.Helper()
	if !strings.Contains(full, want) {
		t.Errorf("Did not find %q, expected string contains %q", want, full)
	}
}
