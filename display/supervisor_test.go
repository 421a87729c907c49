package fallwatch_test

import (
	"testing"
	"time"

	Fs "github.com/maroda/fallwatch/server"
	Ft "github.com/maroda/fallwatch/types"
)

func TestReplaySupervisor(t *testing.T) {
	t.Run("Creates new struct", func(t *testing.T) {
		view := makeTestViewWithScreen(t)
		ps := view.NewReplaySupervisor(nil, false)

		// Check if the view is the same
		if ps.View != view {
			t.Errorf("NewReplaySupervisor() view = %v, want %v", ps.View, view)
		}
		if view.Supervisor != ps {
			t.Errorf("view does not know its supervisor")
		}
	})

	t.Run("Steps through every frame once", func(t *testing.T) {
		view := makeTestView(t)
		frames := Fs.ScenarioFrames(30)
		ps := view.NewReplaySupervisor(frames, false)

		steps := 0
		for ps.Step() {
			steps++
		}
		assertInt(t, steps, len(frames))
		assertString(t, view.LastReply().Status, Ft.Normal.String())

		// exhausted stays exhausted
		if ps.Step() {
			t.Errorf("step after the last frame")
		}
	})

	t.Run("Looping starts over with a fresh detector", func(t *testing.T) {
		view := makeTestView(t)
		frames := Fs.ScenarioFrames(30)[:20]
		ps := view.NewReplaySupervisor(frames, true)

		for i := 0; i < len(frames); i++ {
			ps.Step()
		}
		if !ps.Step() {
			t.Fatalf("looping replay stopped")
		}
		assertInt(t, ps.Next, 1)
		assertString(t, view.LastReply().Status, Ft.Normal.String())
	})

	t.Run("Reset marker resets the detector", func(t *testing.T) {
		view := makeTestViewWithScreen(t)
		frames := append(Fs.ScenarioFrames(30)[:60], Fs.TimedFrame{Reset: true})
		ps := view.NewReplaySupervisor(frames, false)

		for ps.Step() {
		}
		assertString(t, view.LastReply().Status, Ft.Ready.String())
		detector := view.Session.Detector.(*Fs.Detector)
		assertString(t, detector.State().String(), Ft.Normal.String())
		assertInt(t, detector.HistoryLen(), 0)
		assertStringContains(t, screenRow(view, 1), "STATUS: READY")
	})

	t.Run("Empty replay never steps", func(t *testing.T) {
		view := makeTestView(t)
		ps := view.NewReplaySupervisor(nil, true)
		if ps.Step() {
			t.Errorf("stepped an empty replay")
		}
	})
}

func TestReplaySupervisor_StartStop(t *testing.T) {
	view := makeTestViewWithScreen(t)
	view.Config.FPS = 200
	frames := Fs.ScenarioFrames(30)[:40]
	ps := view.NewReplaySupervisor(frames, false)

	t.Run("Starts the replay", func(t *testing.T) {
		ps.Start()
		if ps.StopChan == nil {
			t.Errorf("StopChan() should be initialized, not nil")
		}
		if ps.Ticker == nil {
			t.Errorf("Ticker() should be initialized, not nil")
		}

		waitFor(t, func() bool {
			ps.MU.Lock()
			defer ps.MU.Unlock()
			return ps.Next == len(frames)
		})
		// 40 frames in, the body is tipping over
		assertString(t, view.LastReply().Status, Ft.PotentialFall.String())
		if !view.LastReply().Present {
			t.Errorf("last frame should have a body")
		}
	})

	t.Run("Stops the replay", func(t *testing.T) {
		done := make(chan struct{})
		go func() {
			ps.Stop()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Stop() did not return")
		}

		// and again
		ps.Stop()
	})

	t.Run("Restart rewinds and resets", func(t *testing.T) {
		// slow enough that no frame lands before the checks
		view.Config.FPS = 1
		ps.Restart()

		ps.MU.Lock()
		assertInt(t, ps.Next, 0)
		ps.MU.Unlock()

		detector := view.Session.Detector.(*Fs.Detector)
		assertString(t, detector.State().String(), Ft.Normal.String())
		assertInt(t, detector.HistoryLen(), 0)
		assertString(t, view.LastReply().Status, Ft.Ready.String())
		ps.Stop()
	})

	t.Run("Replays the same after a restart", func(t *testing.T) {
		view.Config.FPS = 200
		ps.Start()
		defer ps.Stop()

		waitFor(t, func() bool {
			ps.MU.Lock()
			defer ps.MU.Unlock()
			return ps.Next == len(frames)
		})
		assertString(t, view.LastReply().Status, Ft.PotentialFall.String())
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before the deadline")
}
