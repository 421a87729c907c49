package fallwatch

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	Fo "github.com/maroda/fallwatch/obvy"
	Fs "github.com/maroda/fallwatch/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketHandler runs one detector session per connection.
// The client sends a FrameMessage per pose callback and gets a Reply back.
func (v *View) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, span := otel.Tracer(Fo.TracerName).Start(r.Context(), "fallwatch.session")
	defer span.End()

	session := NewSession(ctx, v.Config.Location, v.Stats, v.Output)
	span.SetAttributes(attribute.String("session", session.ID))

	if v.Config.RecordDir != "" {
		rec, err := Fs.CreateFrameRecorder(v.Config.RecordDir, session.ID)
		if err != nil {
			slog.Error("Could not start recording", slog.String("session", session.ID), slog.Any("error", err))
		} else {
			session.Recorder = rec
			defer rec.Close()
			slog.Info("Recording session", slog.String("file", rec.Name))
		}
	}

	v.Stats.SessionOpen()
	defer v.Stats.SessionClose()
	slog.Info("Session opened", slog.String("session", session.ID), slog.String("remote", r.RemoteAddr))
	defer slog.Info("Session closed", slog.String("session", session.ID))

	for {
		var msg Fs.FrameMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Error("Session read failed", slog.String("session", session.ID), slog.Any("error", err))
			}
			return
		}

		reply := v.handleMessage(session, msg, span)
		if err := conn.WriteJSON(reply); err != nil {
			return // Connection closed
		}
	}
}

func (v *View) handleMessage(session *Session, msg Fs.FrameMessage, span trace.Span) Reply {
	if msg.Type == Fs.ResetMessage {
		span.AddEvent("reset")
		return session.Reset()
	}

	frame, err := msg.Frame()
	if err != nil {
		return Reply{
			Session: session.ID,
			Status:  session.Detector.Status().String(),
			State:   session.Detector.Last().State.String(),
			Error:   err.Error(),
		}
	}

	// clients that do not stamp frames get the server clock
	t := msg.T
	if t == 0 {
		t = Fs.NowMs()
	}

	return session.Observe(Fs.TimedFrame{TimeMs: t, Frame: frame})
}
