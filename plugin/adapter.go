package plugin

/*

	The Adapter sits aside /fallwatch/
	Contains core interfaces for Plugin

*/

import (
	Ft "github.com/maroda/fallwatch/types"
)

// AlertOutput is where audible or logged alerts go.
// The caller already paced the alerts, an output plays or records each one it is given.
type AlertOutput interface {
	WriteAlert(alert *Ft.Alert) error // Announce a single alert
	Flush() error                     // Silence anything still sounding
	Close() error                     // Close the adapter and release resources
	Type() string                     // ID for output
}
