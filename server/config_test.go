package fallwatch_test

import (
	"os"
	"strings"
	"testing"

	Fs "github.com/maroda/fallwatch/server"
)

// Temporary OS file to use for testing configurations
func createTempFile(t testing.TB, data string) (*os.File, func()) {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "fallwatch")
	if err != nil {
		t.Fatalf("could not create temp file %v", err)
	}

	tmpfile.Write([]byte(data))
	removeFile := func() {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
	}
	return tmpfile, removeFile
}

func TestLoadConfigFileName(t *testing.T) {
	configFile, delConfig := createTempFile(t, `{
		  "id": "hallway-cam",
		  "location": "Hallway",
		  "fps": 15,
		  "output": "midi",
		  "midiPort": 2
		}`)
	defer delConfig()
	fileName := configFile.Name()

	t.Run("Reads the configured fields", func(t *testing.T) {
		c, err := Fs.LoadConfigFileName(fileName)
		assertError(t, err, nil)
		assertString(t, c.ID, "hallway-cam")
		assertString(t, c.Location, "Hallway")
		assertString(t, c.Output, "midi")
		assertInt(t, c.FPS, 15)
		assertInt(t, c.MIDIPort, 2)
	})

	t.Run("Keeps defaults for omitted fields", func(t *testing.T) {
		c, err := Fs.LoadConfigFileName(fileName)
		assertError(t, err, nil)
		assertString(t, c.Listen, ":8090")
		assertInt(t, c.Width, 640)
		assertInt(t, c.Height, 480)
		assertInt(t, c.AlertCooldownSec, 10)
	})

	t.Run("Errors with malformed JSON", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, `{"id": "hallway-cam", "fps": "fast"}`)
		defer delConfig()

		_, err := Fs.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with an empty file", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, ``)
		defer delConfig()

		_, err := Fs.LoadConfigFileName(configFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with missing file", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, ``)
		name := configFile.Name()
		delConfig()

		_, err := Fs.LoadConfigFileName(name)
		assertGotError(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("Rejects a non-positive frame rate", func(t *testing.T) {
		_, err := Fs.LoadConfig(strings.NewReader(`{"fps": 0}`))
		assertGotError(t, err)
	})

	t.Run("Rejects an empty canvas", func(t *testing.T) {
		_, err := Fs.LoadConfig(strings.NewReader(`{"width": 0, "height": 480}`))
		assertGotError(t, err)
	})

	t.Run("An empty object is all defaults", func(t *testing.T) {
		c, err := Fs.LoadConfig(strings.NewReader(`{}`))
		assertError(t, err, nil)
		want := Fs.DefaultConfig()
		if *c != *want {
			t.Errorf("got %+v, want %+v", c, want)
		}
	})
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("Defaults without FALLWATCH_CONFIG", func(t *testing.T) {
		t.Setenv("FALLWATCH_CONFIG", "")
		c, err := Fs.LoadConfigFromEnv()
		assertError(t, err, nil)
		assertString(t, c.ID, "camera-1")
	})

	t.Run("Reads the named file", func(t *testing.T) {
		configFile, delConfig := createTempFile(t, `{"id": "porch"}`)
		defer delConfig()

		t.Setenv("FALLWATCH_CONFIG", configFile.Name())
		c, err := Fs.LoadConfigFromEnv()
		assertError(t, err, nil)
		assertString(t, c.ID, "porch")
	})
}
