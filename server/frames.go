package fallwatch

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	Ft "github.com/maroda/fallwatch/types"
)

var ErrLandmarkCount = errors.New("wrong landmark count")

// ResetMessage is the FrameMessage type for the stop/start lifecycle
const ResetMessage = "reset"

// FrameMessage is the JSON form of one pose callback.
// Landmarks is null when no body was found in the frame.
// Type is "reset" for lifecycle messages and empty for frames.
type FrameMessage struct {
	Type      string        `json:"type,omitempty"`
	T         float64       `json:"t,omitempty"`
	Landmarks []Ft.Landmark `json:"landmarks"`
}

// Frame converts the message, nil means absent body
func (m FrameMessage) Frame() (*Ft.LandmarkFrame, error) {
	if m.Landmarks == nil {
		return nil, nil
	}
	if len(m.Landmarks) != Ft.NumLandmarks {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLandmarkCount, len(m.Landmarks), Ft.NumLandmarks)
	}
	var f Ft.LandmarkFrame
	copy(f[:], m.Landmarks)
	return &f, nil
}

// TimedFrame is a frame with the time it was captured.
// A nil Frame is a capture where no body was found.
// Reset marks a lifecycle reset in a replay, the other fields are unused.
type TimedFrame struct {
	TimeMs float64
	Frame  *Ft.LandmarkFrame
	Reset  bool
}

// NewFrameMessage is the inverse of FrameMessage.Frame
func NewFrameMessage(tf TimedFrame) FrameMessage {
	if tf.Reset {
		return FrameMessage{Type: ResetMessage}
	}
	m := FrameMessage{T: tf.TimeMs}
	if tf.Frame != nil {
		m.Landmarks = tf.Frame[:]
	}
	return m
}

// LoadReplayFile reads a recorded session off local disk
func LoadReplayFile(filename string) ([]TimedFrame, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := validateLoad(file); err != nil {
		return nil, err
	}

	return ParseFrames(file)
}

// ParseFrames reads newline delimited FrameMessage JSON,
// skipping blank lines, comments, unknown message types and lines that do not decode.
func ParseFrames(reader io.Reader) ([]TimedFrame, error) {
	var frames []TimedFrame
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// ignore whitespace and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var msg FrameMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			slog.Warn("Invalid replay line", slog.Int("line", lineNo), slog.Any("error", err))
			continue
		}

		switch msg.Type {
		case "":
		case ResetMessage:
			frames = append(frames, TimedFrame{Reset: true})
			continue
		default:
			slog.Warn("Unknown replay message", slog.Int("line", lineNo), slog.String("type", msg.Type))
			continue
		}

		f, err := msg.Frame()
		if err != nil {
			slog.Warn("Invalid replay frame", slog.Int("line", lineNo), slog.Any("error", err))
			continue
		}
		frames = append(frames, TimedFrame{TimeMs: msg.T, Frame: f})
	}

	if err := scanner.Err(); err != nil {
		slog.Error("Problem scanning input", slog.Any("Error", err))
		return nil, fmt.Errorf("scanning error: %w", err)
	}

	return frames, nil
}

// WriteFrames is the inverse of ParseFrames
func WriteFrames(w io.Writer, frames []TimedFrame) error {
	enc := json.NewEncoder(w)
	for _, tf := range frames {
		if err := enc.Encode(NewFrameMessage(tf)); err != nil {
			return fmt.Errorf("encode frame: %w", err)
		}
	}
	return nil
}

// FrameRecorder appends a session's frames to an NDJSON replay as they arrive
type FrameRecorder struct {
	MU   sync.Mutex
	Name string
	w    io.Writer
}

func NewFrameRecorder(name string, w io.Writer) *FrameRecorder {
	return &FrameRecorder{Name: name, w: w}
}

// CreateFrameRecorder starts a new recording at <dir>/<session>.ndjson
func CreateFrameRecorder(dir, session string) (*FrameRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := filepath.Join(dir, session+".ndjson")
	file, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	return NewFrameRecorder(name, file), nil
}

// Record writes one frame, readable back with ParseFrames
func (fr *FrameRecorder) Record(tf TimedFrame) error {
	fr.MU.Lock()
	defer fr.MU.Unlock()
	return WriteFrames(fr.w, []TimedFrame{tf})
}

// Close closes the underlying writer when it has one
func (fr *FrameRecorder) Close() error {
	fr.MU.Lock()
	defer fr.MU.Unlock()
	if c, ok := fr.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
