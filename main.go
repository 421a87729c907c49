package main

import (
	"io"
	"log/slog"
	"os"

	Fd "github.com/maroda/fallwatch/display"
	Fo "github.com/maroda/fallwatch/obvy"
	Fs "github.com/maroda/fallwatch/server"
)

func main() {
	mode := Fs.FillEnvVar("FALLWATCH_MODE")
	if mode == "ENOENT" {
		mode = "web"
	}

	// The terminal belongs to tcell, logs only go to a file when asked
	if mode == "tui" {
		var w io.Writer = io.Discard
		if name := Fs.FillEnvVar("FALLWATCH_LOG"); name != "ENOENT" {
			f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				slog.Error("Could not open log file", slog.Any("Error", err))
				os.Exit(1)
			}
			defer f.Close()
			w = f
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(w, nil)))
	}

	config, err := Fs.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Could not load config", slog.Any("Error", err))
		os.Exit(1)
	}
	config.FPS = Fs.FillEnvVarInt("FALLWATCH_FPS", config.FPS)
	if dir := Fs.FillEnvVar("FALLWATCH_RECORD"); dir != "ENOENT" {
		config.RecordDir = dir
	}

	shutdown, err := Fo.InitOTel(Fs.FillEnvVar("FALLWATCH_OTEL"))
	if err != nil {
		slog.Error("Could not start tracing, continuing without", slog.Any("Error", err))
	} else {
		defer shutdown()
	}

	slog.Info("FallWatch starting",
		slog.String("mode", mode),
		slog.String("id", config.ID),
		slog.String("location", config.Location))

	switch mode {
	case "web":
		err = Fd.StartWebNoTUI(config)
	case "tui":
		err = Fd.StartWatchView(config, replayFrames(config))
	case "replay":
		err = Fd.StartReplayNoTUI(config, replayFrames(config))
	default:
		slog.Error("Unknown mode, want web, tui or replay", slog.String("mode", mode))
		os.Exit(1)
	}

	if err != nil {
		slog.Error("FallWatch stopped", slog.Any("Error", err))
		os.Exit(1)
	}
}

// replayFrames reads FALLWATCH_REPLAY, or renders the demo fall when it is unset
func replayFrames(c *Fs.ConfigFile) []Fs.TimedFrame {
	name := Fs.FillEnvVar("FALLWATCH_REPLAY")
	if name == "ENOENT" {
		slog.Info("No FALLWATCH_REPLAY, using the demo scenario")
		return Fs.ScenarioFrames(c.FPS)
	}

	frames, err := Fs.LoadReplayFile(name)
	if err != nil {
		slog.Error("Could not load replay", slog.String("file", name), slog.Any("Error", err))
		os.Exit(1)
	}
	slog.Info("Replay loaded", slog.String("file", name), slog.Int("frames", len(frames)))
	return frames
}
