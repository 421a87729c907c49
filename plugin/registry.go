package plugin

import (
	"fmt"
	"time"
)

// OutputConfig carries the settings any output factory might need
type OutputConfig struct {
	Cooldown time.Duration
	MIDIPort int
}

// Outputs is a global map of AlertOutput plugins.
var Outputs = map[string]func(OutputConfig) (AlertOutput, error){
	"log": func(c OutputConfig) (AlertOutput, error) {
		return NewLogOutput(c.Cooldown), nil
	},
	"midi": func(c OutputConfig) (AlertOutput, error) {
		out, err := NewMIDIOutput(c.MIDIPort)
		if err != nil {
			return nil, err
		}
		return out, nil
	},
}

func OutputLookup(name string, c OutputConfig) (AlertOutput, error) {
	factory, ok := Outputs[name]
	if !ok {
		return nil, fmt.Errorf("unknown output: %s", name)
	}
	return factory(c)
}
