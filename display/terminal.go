package fallwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	Fo "github.com/maroda/fallwatch/obvy"
	Fp "github.com/maroda/fallwatch/plugin"
	Fs "github.com/maroda/fallwatch/server"
	Ft "github.com/maroda/fallwatch/types"
)

const (
	topBar    = 2 // border row plus status row
	pointRune = '●'
)

// Bones are the landmark pairs drawn as the skeleton
var Bones = [][2]int{
	{Ft.LeftShoulder, Ft.RightShoulder},
	{Ft.LeftHip, Ft.RightHip},
	{Ft.LeftShoulder, Ft.LeftHip},
	{Ft.RightShoulder, Ft.RightHip},
	{Ft.LeftShoulder, Ft.LeftElbow},
	{Ft.LeftElbow, Ft.LeftWrist},
	{Ft.RightShoulder, Ft.RightElbow},
	{Ft.RightElbow, Ft.RightWrist},
	{Ft.LeftHip, Ft.LeftKnee},
	{Ft.LeftKnee, Ft.LeftAnkle},
	{Ft.RightHip, Ft.RightKnee},
	{Ft.RightKnee, Ft.RightAnkle},
	{Ft.Nose, Ft.LeftEyeInner},
	{Ft.LeftEyeInner, Ft.RightEyeInner},
	{Ft.RightEyeInner, Ft.RightEye},
	{Ft.Nose, Ft.RightEye},
}

// View draws the latest frame and status of its Session
type View struct {
	MU         sync.Mutex        // State locks for frame and reply
	Config     *Fs.ConfigFile    // Camera deployment
	Session    *Session          // Detector fed by the replay
	Screen     tcell.Screen      // the screen itself, nil for web only
	Stats      *Fo.StatsInternal // Internal status for prometheus
	Output     Fp.AlertOutput    // Alert tones, shared by all sessions
	Supervisor *ReplaySupervisor // Frame feed
	server     *http.Server      // API and websocket server
	frame      *Ft.LandmarkFrame // last frame with a body, nil blanks the canvas
	reply      Reply             // last reply, shown in the top bar
}

// StatusColor is the skeleton and text color for a status
func StatusColor(s Ft.Status) tcell.Color {
	switch s {
	case Ft.PotentialFall:
		return tcell.ColorOrange
	case Ft.FallDetected:
		return tcell.ColorRed
	default:
		return tcell.ColorMediumPurple
	}
}

func parseStatus(s string) Ft.Status {
	for _, st := range []Ft.Status{Ft.Normal, Ft.PotentialFall, Ft.FallDetected, Ft.Ready} {
		if st.String() == s {
			return st
		}
	}
	return Ft.Ready
}

// Ingest runs a frame through the View's Session and redraws.
// A reset marker from a replay resets instead.
func (v *View) Ingest(tf Fs.TimedFrame) Reply {
	if tf.Reset {
		return v.Reset()
	}
	reply := v.Session.Observe(tf)

	v.MU.Lock()
	v.frame = tf.Frame
	v.reply = reply
	v.MU.Unlock()

	if v.Screen != nil {
		v.UpdateScreen()
	}
	return reply
}

// Reset stops and starts the detection lifecycle
func (v *View) Reset() Reply {
	reply := v.Session.Reset()

	v.MU.Lock()
	v.frame = nil
	v.reply = reply
	v.MU.Unlock()

	slog.Info("Detector reset", slog.String("session", reply.Session))
	if v.Screen != nil {
		v.UpdateScreen()
	}
	return reply
}

// LastReply is what the top bar currently shows
func (v *View) LastReply() Reply {
	v.MU.Lock()
	defer v.MU.Unlock()
	return v.reply
}

// CanvasPoint maps normalized landmark coordinates into the screen below the top bar
func (v *View) CanvasPoint(lm Ft.Landmark) (int, int) {
	width, height := v.GetScreenSize()
	x := 1 + int(lm.X*float64(width-3))
	y := topBar + int(lm.Y*float64(height-topBar-2))
	return x, y
}

func (v *View) inCanvas(x, y int) bool {
	width, height := v.GetScreenSize()
	return x >= 1 && x < width-1 && y >= topBar && y < height-1
}

// DrawLine is Bresenham between two cells, clipped to the canvas
func (v *View) DrawLine(x0, y0, x1, y1 int, r rune, style tcell.Style) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if v.inCanvas(x0, y0) {
			v.Screen.SetContent(x0, y0, r, nil, style)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// DrawSkeleton draws the bones then the landmark points on top
func (v *View) DrawSkeleton(f *Ft.LandmarkFrame, s Ft.Status) {
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(StatusColor(s))

	for _, b := range Bones {
		x0, y0 := v.CanvasPoint(f[b[0]])
		x1, y1 := v.CanvasPoint(f[b[1]])
		v.DrawLine(x0, y0, x1, y1, '·', style)
	}

	pointStyle := style.Bold(true)
	for _, lm := range f {
		x, y := v.CanvasPoint(lm)
		if v.inCanvas(x, y) {
			v.Screen.SetContent(x, y, pointRune, nil, pointStyle)
		}
	}
}

// DrawText displays the text string at the given (x1, y1) with box size (x2, y2)
func (v *View) DrawText(x1, y1, x2, y2 int, text string, style tcell.Style) {
	row := y1
	col := x1
	for _, r := range text {
		v.Screen.SetContent(col, row, r, nil, style)
		col++
		if col >= x2 {
			row++
			col = x1
		}
		if row > y2 {
			break
		}
	}
}

// DrawViewBorder displays the outline of the View
func (v *View) DrawViewBorder(width, height int, color tcell.Color) {
	hvStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(color)
	v.Screen.SetContent(0, 0, tcell.RuneULCorner, nil, hvStyle)
	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, 0, tcell.RuneHLine, nil, hvStyle)
	}
	v.Screen.SetContent(width, 0, tcell.RuneURCorner, nil, hvStyle)

	for i := 1; i < height; i++ {
		v.Screen.SetContent(0, i, tcell.RuneVLine, nil, hvStyle)
	}

	v.Screen.SetContent(0, height, tcell.RuneLLCorner, nil, hvStyle)

	for i := 1; i < height; i++ {
		v.Screen.SetContent(width, i, tcell.RuneVLine, nil, hvStyle)
	}

	v.Screen.SetContent(width, height, tcell.RuneLRCorner, nil, hvStyle)

	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, height, tcell.RuneHLine, nil, hvStyle)
	}
}

// DrawFallView draws the status bar and the skeleton.
// The alarm border only shows on a confirmed fall.
func (v *View) DrawFallView() {
	width, height := v.GetScreenSize()

	v.MU.Lock()
	frame := v.frame
	reply := v.reply
	v.MU.Unlock()

	status := parseStatus(reply.Status)
	color := StatusColor(status)

	if status == Ft.FallDetected {
		v.DrawViewBorder(width-1, height-1, color)
	}

	textStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(color).Bold(true)
	v.DrawText(2, 1, width-2, 1, fmt.Sprintf("STATUS: %s", reply.Status), textStyle)

	if frame == nil {
		return
	}

	metrics := fmt.Sprintf("Spd: %.2f | Ang: %d deg", reply.Velocity, int(reply.Angle))
	mx := width - 2 - len(metrics)
	if mx < 24 {
		mx = 24
	}
	infoStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorLightSteelBlue)
	v.DrawText(mx, 1, width-2, 1, metrics, infoStyle)

	v.DrawSkeleton(frame, status)
}

// Exit cleanly
func (v *View) exit() {
	if v.Supervisor != nil {
		v.Supervisor.Stop()
	}
	if v.Output != nil {
		v.Output.Flush()
		v.Output.Close()
	}
	v.MU.Lock()
	defer v.MU.Unlock()
	v.Screen.Fini()
	os.Exit(0)
}

// Running Loop to handle events
func (v *View) handleKeyBoardEvent() {
	for {
		ev := v.Screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			v.ResizeScreen()
		case *tcell.EventKey:
			// Catch quit and exit
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				v.exit()
			}

			// Reset with 'r', restarting the replay from the top
			if ev.Rune() == 'r' {
				if v.Supervisor != nil {
					v.Supervisor.Restart()
				} else {
					v.Reset()
				}
			}
		}
	}
}

// GetScreenSize provides the terminal size for drawing
func (v *View) GetScreenSize() (int, int) {
	width, height := v.Screen.Size()
	return width, height
}

// ResizeScreen redraws after terminal changes
func (v *View) ResizeScreen() {
	v.Screen.Sync()
	v.UpdateScreen()
}

func (v *View) UpdateScreen() {
	v.Screen.Clear()
	v.DrawFallView()
	v.Screen.Show()
}

// RespWriter is a wrapper with StatsMiddleware, used for Prometheus
type RespWriter struct {
	http.ResponseWriter
	Status int
}

// WriteHeader is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (v *View) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		v.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
	})
}

// NewView builds the View without a screen, AttachScreen adds one
func NewView(c *Fs.ConfigFile, output Fp.AlertOutput) (*View, error) {
	if c == nil {
		slog.Error("Could not get a config for display")
		return nil, errors.New("config not found")
	}

	// create an attached prometheus registry
	stats := Fo.NewStatsInternal()

	view := &View{
		Config:  c,
		Session: NewSession(context.Background(), c.Location, stats, output),
		Stats:   stats,
		Output:  output,
	}
	view.reply = Reply{
		Session: view.Session.ID,
		Status:  Ft.Ready.String(),
		State:   Ft.Normal.String(),
	}

	return view, nil
}

// AttachScreen creates the tcell screen that displays the skeleton
func (v *View) AttachScreen() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		slog.Error("Could not get new screen", slog.Any("Error", err))
		return err
	}
	if err := screen.Init(); err != nil {
		slog.Error("Could not initialize screen", slog.Any("Error", err))
		return err
	}

	// Define and configure the default screen
	defStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorMediumPurple)
	screen.SetStyle(defStyle)

	v.Screen = screen
	v.UpdateScreen()
	return nil
}

// outputFromConfig looks up the configured alert output, nil when none
func outputFromConfig(c *Fs.ConfigFile) Fp.AlertOutput {
	if c.Output == "" {
		return nil
	}
	out, err := Fp.OutputLookup(c.Output, Fp.OutputConfig{
		Cooldown: time.Duration(c.AlertCooldownSec) * time.Second,
		MIDIPort: c.MIDIPort,
	})
	if err != nil {
		slog.Error("Alert output unavailable, continuing silent",
			slog.String("output", c.Output),
			slog.Any("Error", err))
		return nil
	}
	slog.Info("Alert output ready", slog.String("output", out.Type()))
	return out
}

func (v *View) serve() {
	v.server = &http.Server{
		Addr:    v.Config.Listen,
		Handler: v.SetupMux(),
	}

	slog.Info("Starting FallWatch endpoint...", slog.String("Port", v.Config.Listen))
	if err := v.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Could not start endpoint", slog.Any("Error", err))
	}
}

// StartWatchView is called by main to run the terminal renderer.
// Frames are replayed at the configured FPS, the API and /metrics run alongside.
func StartWatchView(c *Fs.ConfigFile, frames []Fs.TimedFrame) error {
	view, err := NewView(c, outputFromConfig(c))
	if err != nil {
		slog.Error("Could not start FallWatch", slog.Any("Error", err))
		return err
	}

	if err := view.AttachScreen(); err != nil {
		return err
	}

	go view.serve()

	view.NewReplaySupervisor(frames, true).Start()

	view.handleKeyBoardEvent()

	return nil
}

// StartReplayNoTUI replays frames once through the detector and logs every status change
func StartReplayNoTUI(c *Fs.ConfigFile, frames []Fs.TimedFrame) error {
	view, err := NewView(c, outputFromConfig(c))
	if err != nil {
		return err
	}
	if view.Output != nil {
		defer view.Output.Close()
	}

	ps := view.NewReplaySupervisor(frames, false)
	last := ""
	for ps.Step() {
		reply := view.LastReply()
		if reply.Status != last {
			slog.Info("Status", slog.String("status", reply.Status),
				slog.Float64("velocity", reply.Velocity),
				slog.Float64("angle", reply.Angle))
			last = reply.Status
		}
	}
	return nil
}

// StartWebNoTUI serves the websocket ingest, each connection gets its own detector
func StartWebNoTUI(c *Fs.ConfigFile) error {
	view, err := NewView(c, outputFromConfig(c))
	if err != nil {
		return err
	}

	view.server = &http.Server{
		Addr:    c.Listen,
		Handler: view.SetupMux(),
	}

	slog.Info("Starting FallWatch web endpoint...", slog.String("Port", c.Listen))
	if err := view.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Could not start web endpoint", slog.Any("Error", err))
		return err
	}
	return nil
}
