package plugin

import (
	"math"

	Ft "github.com/maroda/fallwatch/types"
)

// ToneNote converts a frequency to the nearest MIDI note number, A4 = 440Hz = 69
func ToneNote(hz float64) uint8 {
	if hz <= 0 {
		return 0
	}
	n := math.Round(69 + 12*math.Log2(hz/440))
	return uint8(math.Max(0, math.Min(127, n)))
}

// ToneVelocity makes the alarm louder than the warning
func ToneVelocity(s Ft.Status) uint8 {
	if s == Ft.FallDetected {
		return 127
	}
	return 90
}
