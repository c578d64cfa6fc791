// Package audiodev enumerates audio output devices so the user can pick a
// trigger device from a list instead of typing its exact name.
package audiodev

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device is an audio output device as reported by the host API.
type Device struct {
	Name    string
	Default bool
}

// ListOutputs returns all output-capable devices. Each call re-initializes
// PortAudio so the list reflects devices plugged in since the last call.
func ListOutputs() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	defaultDevice, _ := portaudio.DefaultOutputDevice()

	result := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.MaxOutputChannels > 0 {
			result = append(result, Device{
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}

	return result, nil
}
