package fallwatch

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	Fo "github.com/maroda/fallwatch/obvy"
	Fp "github.com/maroda/fallwatch/plugin"
	Fs "github.com/maroda/fallwatch/server"
	Ft "github.com/maroda/fallwatch/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Reply is what the UI text and alert collaborators consume for each frame
type Reply struct {
	Session  string  `json:"session"`
	Status   string  `json:"status"`
	State    string  `json:"state"`
	Velocity float64 `json:"velocity"`
	Angle    float64 `json:"angle"`
	Present  bool    `json:"present"`
	Error    string  `json:"error,omitempty"`
}

// Session is one camera feed: its own detector and alert pacing.
// Observe must not be called concurrently for the same Session.
type Session struct {
	ID       string
	Location string
	Detector Fs.Classifier
	Pacer    *Fs.AlertPacer
	Output   Fp.AlertOutput    // nil is silent
	Recorder *Fs.FrameRecorder // nil records nothing
	Stats    *Fo.StatsInternal
	span     trace.Span
}

// NewSession starts a fresh pipeline, span events go to the span in ctx if any
func NewSession(ctx context.Context, location string, stats *Fo.StatsInternal, output Fp.AlertOutput) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Location: location,
		Detector: Fs.NewDetector(),
		Pacer:    Fs.NewAlertPacer(),
		Output:   output,
		Stats:    stats,
		span:     trace.SpanFromContext(ctx),
	}
}

// Observe classifies one frame. A nil frame means no body was found:
// nothing is classified and the detection state is left alone.
func (s *Session) Observe(tf Fs.TimedFrame) Reply {
	if tf.Reset {
		return s.Reset()
	}
	s.record(tf)

	if tf.Frame == nil {
		s.Stats.RecAbsent()
		return Reply{
			Session: s.ID,
			Status:  s.Detector.Status().String(),
			State:   s.Detector.Last().State.String(),
		}
	}

	start := time.Now()
	r := s.Detector.Process(*tf.Frame, tf.TimeMs)
	s.Stats.RecFrame(r.Status.String(), time.Since(start))

	if r.Transition != nil {
		from, to := r.Transition.From.String(), r.Transition.To.String()
		s.Stats.RecTransition(from, to)
		s.span.AddEvent("transition", trace.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
			attribute.Float64("t_ms", r.TimeMs)))
		slog.Debug("Detection state changed",
			slog.String("session", s.ID),
			slog.String("from", from),
			slog.String("to", to))
	}

	s.announce(r)

	return Reply{
		Session:  s.ID,
		Status:   r.Status.String(),
		State:    r.State.String(),
		Velocity: finite(r.Features.VerticalVelocity),
		Angle:    finite(r.Features.TorsoAngleDeg),
		Present:  true,
	}
}

// announce hands a paced tone to the output.
// Pacing runs on frame time, the same clock the detector uses.
func (s *Session) announce(r Fs.Result) {
	if _, ok := Fs.ToneFor(r.Status); !ok {
		return
	}
	if !s.Pacer.Allow(r.Status, time.UnixMilli(int64(r.TimeMs))) {
		return
	}
	s.Stats.RecAlert(r.Status.String())
	if s.Output == nil {
		return
	}
	if err := s.Output.WriteAlert(Fs.NewAlert(r, s.Location, time.Now())); err != nil {
		slog.Error("Alert output failed",
			slog.String("output", s.Output.Type()),
			slog.Any("error", err))
	}
}

// Reset is the stop/start lifecycle: back to initial state, reporting Ready
func (s *Session) Reset() Reply {
	s.record(Fs.TimedFrame{Reset: true})
	status := s.Detector.Reset()
	s.Pacer.Reset()
	return Reply{
		Session: s.ID,
		Status:  status.String(),
		State:   Ft.Normal.String(),
	}
}

func (s *Session) record(tf Fs.TimedFrame) {
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.Record(tf); err != nil {
		slog.Error("Recording failed, stopping it",
			slog.String("session", s.ID),
			slog.String("file", s.Recorder.Name),
			slog.Any("error", err))
		s.Recorder = nil
	}
}

// finite keeps NaN and Inf from degenerate landmarks out of JSON
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
