package plugin

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	Ft "github.com/maroda/fallwatch/types"
)

// LogOutput writes alarms to the structured log.
// FallDetected alarms are rate limited by Cooldown, warnings only go to debug.
type LogOutput struct {
	MU        sync.Mutex
	Logger    *slog.Logger
	Cooldown  time.Duration
	LastAlarm time.Time
	Alarms    int // alarms actually logged
}

func NewLogOutput(cooldown time.Duration) *LogOutput {
	return &LogOutput{
		Logger:   slog.Default(),
		Cooldown: cooldown,
	}
}

func (lo *LogOutput) WriteAlert(alert *Ft.Alert) error {
	lo.MU.Lock()
	defer lo.MU.Unlock()

	if alert.Status != Ft.FallDetected {
		lo.Logger.Debug("Fall warning",
			slog.String("status", alert.Status.String()),
			slog.String("location", alert.Location),
			slog.Float64("velocity", alert.Velocity),
			slog.Float64("angle", alert.AngleDeg))
		return nil
	}

	if !lo.LastAlarm.IsZero() && alert.Timestamp.Sub(lo.LastAlarm) < lo.Cooldown {
		return nil
	}
	lo.LastAlarm = alert.Timestamp
	lo.Alarms++

	msg := fmt.Sprintf("ALARM: %s detected at %s on %s",
		alert.Status, alert.Location, alert.Timestamp.Format(time.DateTime))
	lo.Logger.Warn(msg,
		slog.String("location", alert.Location),
		slog.Float64("angle", alert.AngleDeg))

	return nil
}

func (lo *LogOutput) Flush() error { return nil }
func (lo *LogOutput) Close() error { return nil }
func (lo *LogOutput) Type() string { return "log" }
