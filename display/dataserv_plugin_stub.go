//go:build nomidi

package fallwatch

func (v *View) getMIDISystemInfo(systemInfo *SystemInfo) {}
