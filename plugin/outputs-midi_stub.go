//go:build nomidi

package plugin

import (
	"fmt"

	Ft "github.com/maroda/fallwatch/types"
)

type MIDIOutput struct{}

func NewMIDIOutput(port int) (*MIDIOutput, error) {
	return nil, fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) WriteAlert(alert *Ft.Alert) error {
	return fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) Flush() error { return nil }
func (m *MIDIOutput) Close() error { return nil }
func (m *MIDIOutput) Type() string { return "midi-disabled" }
