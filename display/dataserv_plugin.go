//go:build !nomidi

package fallwatch

import (
	Fp "github.com/maroda/fallwatch/plugin"
	Fs "github.com/maroda/fallwatch/server"
)

func (v *View) getMIDISystemInfo(systemInfo *SystemInfo) {
	// If the output type is MIDI, fill in the details
	if midiOut, ok := v.Output.(*Fp.MIDIOutput); ok {
		if midiOut.Port != nil {
			systemInfo.MIDIPort = midiOut.Port.String()
		}
		systemInfo.MIDIChannel = int(midiOut.Channel)
		systemInfo.MIDIWarnNote = int(Fp.ToneNote(Fs.WarningTone.FrequencyHz))
		systemInfo.MIDIAlarmNote = int(Fp.ToneNote(Fs.AlarmTone.FrequencyHz))
	}
}
