package fallwatch

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// FillEnvVar returns the value of a runtime Environment Variable
func FillEnvVar(ev string) string {
	// If the EnvVar doesn't exist return a default string
	value := os.Getenv(ev)
	if value == "" {
		value = "ENOENT"
	}
	return value
}

// FillEnvVarInt reads an integer Environment Variable, falling back to def
func FillEnvVarInt(ev string, def int) int {
	value := os.Getenv(ev)
	if value == "" {
		return def
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		slog.Error("Not an integer, using default",
			slog.String("var", ev),
			slog.String("value", value),
			slog.Int("default", def))
		return def
	}
	return i
}

// NowMs is the wall clock in milliseconds, the time base of the detector
func NowMs() float64 {
	return float64(time.Now().UnixMilli())
}
