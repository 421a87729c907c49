package fallwatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ConfigFile describes one camera deployment.
// Detection thresholds are intentionally absent, see DefaultThresholds.
type ConfigFile struct {
	ID               string `json:"id"`
	Location         string `json:"location"`
	Listen           string `json:"listen"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	FPS              int    `json:"fps"`
	AlertCooldownSec int    `json:"alertCooldownSec"`
	Output           string `json:"output"` // "log", "midi", or empty for none
	MIDIPort         int    `json:"midiPort"`
	RecordDir        string `json:"recordDir"` // NDJSON recording of every /ws session, empty for none
}

func DefaultConfig() *ConfigFile {
	return &ConfigFile{
		ID:               "camera-1",
		Location:         "Unknown",
		Listen:           ":8090",
		Width:            640,
		Height:           480,
		FPS:              30,
		AlertCooldownSec: 10,
		Output:           "log",
	}
}

// LoadConfigFileName pulls a given filename config off local disk
// Validation is performed on the file before opening
func LoadConfigFileName(filename string) (*ConfigFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// validation
	err = validateLoad(file)
	if err != nil {
		slog.Error("Validation failed", slog.Any("Error", err))
		return nil, err
	}

	return LoadConfig(file)
}

func validateLoad(file *os.File) error {
	// validate file
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	// validate size
	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

// LoadConfig decodes JSON over the defaults, so omitted keys keep their default
func LoadConfig(r io.Reader) (*ConfigFile, error) {
	config := DefaultConfig()
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(config); err != nil {
		slog.Error("could not decode file")
		return nil, fmt.Errorf("config decode: %w", err)
	}

	if config.FPS <= 0 {
		return nil, fmt.Errorf("config fps must be positive, got %d", config.FPS)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("config canvas must be positive, got %dx%d", config.Width, config.Height)
	}

	return config, nil
}

// LoadConfigFromEnv reads FALLWATCH_CONFIG, or returns defaults when it is unset
func LoadConfigFromEnv() (*ConfigFile, error) {
	filename := FillEnvVar("FALLWATCH_CONFIG")
	if filename == "ENOENT" {
		slog.Info("No FALLWATCH_CONFIG, using defaults")
		return DefaultConfig(), nil
	}
	return LoadConfigFileName(filename)
}
