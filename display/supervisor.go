package fallwatch

import (
	"sync"
	"time"

	Fs "github.com/maroda/fallwatch/server"
)

// ReplaySupervisor feeds recorded frames into the View at the configured FPS
type ReplaySupervisor struct {
	MU       sync.Mutex // guards Next
	life     sync.Mutex // serializes Start, Stop and Restart
	View     *View
	Frames   []Fs.TimedFrame
	Loop     bool // start over with a fresh detector after the last frame
	Next     int
	Ticker   *time.Ticker
	StopChan chan struct{}
	WG       sync.WaitGroup
}

// NewReplaySupervisor is a wrapper around the View that manages the replay goroutine
// They are strongly coupled, one knows about the other
func (v *View) NewReplaySupervisor(frames []Fs.TimedFrame, loop bool) *ReplaySupervisor {
	ps := &ReplaySupervisor{
		View:   v,
		Frames: frames,
		Loop:   loop,
	}
	v.Supervisor = ps
	return ps
}

// Step ingests the next frame, false once the replay is exhausted.
// Next only moves past a frame once it has been ingested.
func (p *ReplaySupervisor) Step() bool {
	p.MU.Lock()
	if p.Next >= len(p.Frames) {
		if !p.Loop || len(p.Frames) == 0 {
			p.MU.Unlock()
			return false
		}
		// replay timestamps start over, so must the detector
		p.Next = 0
		p.MU.Unlock()
		p.View.Reset()
		p.MU.Lock()
	}
	tf := p.Frames[p.Next]
	p.MU.Unlock()

	p.View.Ingest(tf)

	p.MU.Lock()
	p.Next++
	p.MU.Unlock()
	return true
}

// Start the ReplaySupervisor
func (p *ReplaySupervisor) Start() {
	p.life.Lock()
	defer p.life.Unlock()
	p.start()
}

func (p *ReplaySupervisor) start() {
	fps := p.View.Config.FPS
	if fps <= 0 {
		fps = 30
	}

	p.StopChan = make(chan struct{})
	p.Ticker = time.NewTicker(time.Second / time.Duration(fps))

	p.WG.Add(1)
	go func(stop chan struct{}, ticker *time.Ticker) {
		defer p.WG.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !p.Step() {
					return
				}
			case <-stop:
				return
			}
		}
	}(p.StopChan, p.Ticker)
}

// Stop the ReplaySupervisor
func (p *ReplaySupervisor) Stop() {
	p.life.Lock()
	defer p.life.Unlock()
	p.stop()
}

func (p *ReplaySupervisor) stop() {
	if p.StopChan != nil {
		close(p.StopChan)
		p.WG.Wait()
		p.StopChan = nil
	}
}

// Restart resets the detector and replays from the first frame
func (p *ReplaySupervisor) Restart() {
	p.life.Lock()
	defer p.life.Unlock()

	p.stop()
	p.View.Reset()
	p.MU.Lock()
	p.Next = 0
	p.MU.Unlock()
	p.start()
}
