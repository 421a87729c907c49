//go:build !nomidi

package plugin

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	Ft "github.com/maroda/fallwatch/types"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// MIDIOutput plays each alert tone as a single note
type MIDIOutput struct {
	Port    drivers.Out
	Send    func(msg midi.Message) error
	Channel uint8
	WG      sync.WaitGroup
}

func NewMIDIOutput(port int) (*MIDIOutput, error) {
	out, err := midi.OutPort(port)
	if err != nil {
		slog.Error("Error opening MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error opening MIDI port: %w", err)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		slog.Error("Error sending to MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error sending to MIDI port: %w", err)
	}

	return &MIDIOutput{
		Port: out,
		Send: send,
	}, nil
}

func (mo *MIDIOutput) SendNoteOnMIDI(midic, midin, midiv uint8) error {
	return mo.Send(midi.NoteOn(midic, midin, midiv))
}

func (mo *MIDIOutput) SendNoteOffMIDI(midic, midin uint8) error {
	return mo.Send(midi.NoteOff(midic, midin))
}

// WriteAlert sounds the tone for its duration without blocking the frame loop
func (mo *MIDIOutput) WriteAlert(alert *Ft.Alert) error {
	if alert.Tone.FrequencyHz <= 0 {
		return fmt.Errorf("no tone for status %s", alert.Status)
	}

	note := ToneNote(alert.Tone.FrequencyHz)
	velocity := ToneVelocity(alert.Status)
	duration := alert.Tone.Duration

	mo.WG.Add(1)
	go func() {
		defer mo.WG.Done()
		if err := mo.SendNoteOnMIDI(mo.Channel, note, velocity); err != nil {
			slog.Error("NoteOn event failed", slog.Any("error", err))
			return
		}
		time.Sleep(duration)
		if err := mo.SendNoteOffMIDI(mo.Channel, note); err != nil {
			slog.Error("NoteOff event failed, attempting Flush")
			mo.Flush()
		}
	}()

	return nil
}

func (mo *MIDIOutput) Flush() error {
	return mo.Send(midi.ControlChange(mo.Channel, midi.AllNotesOff, midi.Off))
}

func (mo *MIDIOutput) Close() error {
	mo.WG.Wait()

	if mo.Port != nil {
		mo.Port.Close()
		midi.CloseDriver()
	}
	return nil
}

func (mo *MIDIOutput) Type() string { return "MIDI" }
