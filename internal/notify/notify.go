// Package notify renders the app's semantic events as desktop notifications.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

const appTitle = "Sonos Volume Control"

// Desktop sends system notifications via beeep. Delivery is best-effort; a
// failed toast is logged and dropped.
type Desktop struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Desktop {
	return &Desktop{log: log}
}

func (d *Desktop) VolumeChanged(speaker string, volume int) {
	// Volume taps come in bursts; the HUD-ish feedback lives in the tray
	// title, not in a notification per key press.
	d.log.Info().Str("speaker", speaker).Int("volume", volume).Msg("Volume changed")
}

func (d *Desktop) DeviceChanged(device string) {
	d.send("Audio Device Changed", fmt.Sprintf("Now using: %s", device))
}

func (d *Desktop) SpeakerSelected(name string, volume int, volumeKnown bool) {
	d.send("Sonos Device Selected", fmt.Sprintf("Now controlling: %s", name))
}

func (d *Desktop) DiscoveryCompleted(count int) {
	if count == 0 {
		d.send("No Sonos Devices", "No devices found on network")
		return
	}
	d.send("Sonos Devices Found", fmt.Sprintf("Found %d device(s)", count))
}

func (d *Desktop) CommunicationError(err error) {
	d.send("Sonos Error", err.Error())
}

func (d *Desktop) send(title, body string) {
	if err := beeep.Notify(appTitle+": "+title, body, ""); err != nil {
		d.log.Warn().Err(err).Str("title", title).Msg("Failed to send notification")
	}
}
