package tray

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/petems/sonos-tray/internal/app"
	"github.com/petems/sonos-tray/internal/audiodev"
	"github.com/petems/sonos-tray/internal/config"
	"github.com/petems/sonos-tray/internal/notify"
	"github.com/rs/zerolog"
)

// UI is the menu-bar projection of the app state. It implements
// app.Notifier; the menu only ever reflects state, it never decides.
type UI struct {
	app     *app.App
	cfg     *config.Config
	toaster *notify.Desktop
	version string
	commit  string
	log     zerolog.Logger

	// Menu items
	mVolume   *systray.MenuItem
	mDevice   *systray.MenuItem
	mEnabled  *systray.MenuItem
	mSpeakers *systray.MenuItem
	mTrigger  *systray.MenuItem

	mu           sync.Mutex
	speakerItems map[string]*systray.MenuItem
	triggerItems map[string]*systray.MenuItem
	speakerName  string
	volumeText   string
}

func New(application *app.App, cfg *config.Config, toaster *notify.Desktop, version, commit string, log zerolog.Logger) *UI {
	return &UI{
		app:          application,
		cfg:          cfg,
		toaster:      toaster,
		version:      version,
		commit:       commit,
		log:          log,
		speakerItems: make(map[string]*systray.MenuItem),
		triggerItems: make(map[string]*systray.MenuItem),
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

// app.Notifier implementation. These are called from the app's background
// goroutines; systray item mutations are safe off the main thread.

func (u *UI) VolumeChanged(speaker string, volume int) {
	u.mu.Lock()
	u.volumeText = volumeBar(volume)
	u.mu.Unlock()

	if u.mVolume != nil {
		u.mVolume.SetTitle("Volume: " + volumeBar(volume))
	}
	u.updateTitle()
	u.toaster.VolumeChanged(speaker, volume)
}

func (u *UI) DeviceChanged(device string) {
	if u.mDevice != nil {
		u.mDevice.SetTitle("Current Device: " + device)
	}
	u.toaster.DeviceChanged(device)
}

func (u *UI) SpeakerSelected(name string, volume int, volumeKnown bool) {
	u.mu.Lock()
	u.speakerName = name
	if volumeKnown {
		u.volumeText = volumeBar(volume)
	} else {
		u.volumeText = "--"
	}
	u.mu.Unlock()

	if u.mVolume != nil {
		if volumeKnown {
			u.mVolume.SetTitle("Volume: " + volumeBar(volume))
		} else {
			u.mVolume.SetTitle("Volume: --")
		}
	}
	u.checkSpeakerItem(name)
	u.updateTitle()
	u.toaster.SpeakerSelected(name, volume, volumeKnown)
}

func (u *UI) DiscoveryCompleted(count int) {
	u.rebuildSpeakerMenu()
	u.toaster.DiscoveryCompleted(count)
}

func (u *UI) CommunicationError(err error) {
	u.toaster.CommunicationError(err)
}

func (u *UI) onReady() {
	systray.SetTitle("♫")
	systray.SetTooltip("Redirect volume keys to a Sonos speaker")

	u.mVolume = systray.AddMenuItem("Volume: --", "Current speaker volume")
	u.mVolume.Disable()
	u.mDevice = systray.AddMenuItem("Current Device: "+u.app.CurrentDevice(), "Active audio output device")
	u.mDevice.Disable()
	systray.AddSeparator()

	u.mEnabled = systray.AddMenuItemCheckbox("Enable Sonos Control", "Intercept volume keys", u.app.Enabled())
	systray.AddSeparator()

	hotkeys := systray.AddMenuItem(fmt.Sprintf("Hotkeys: %s (Down) / %s (Up)", u.cfg.HotkeyDown, u.cfg.HotkeyUp), "")
	hotkeys.Disable()
	systray.AddSeparator()

	u.mSpeakers = systray.AddMenuItem("Sonos Speakers", "Select the speaker to control")
	mRefresh := systray.AddMenuItem("Refresh Devices", "Search the network for speakers")
	systray.AddSeparator()

	u.mTrigger = systray.AddMenuItem("Trigger Device", "Output device that arms interception")
	u.buildTriggerMenu()
	mCopy := systray.AddMenuItem("Copy Current Device Name", "Copy the active output device name")

	systray.AddSeparator()
	mAbout := systray.AddMenuItem("About", "About sonos-tray")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	// Event loop
	go u.handleEvents(mRefresh, mCopy, mAbout, mQuit)
}

func (u *UI) handleEvents(mRefresh, mCopy, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mEnabled.ClickedCh:
			u.toggleEnabled()
		case <-mRefresh.ClickedCh:
			u.app.Refresh()
		case <-mCopy.ClickedCh:
			u.copyDeviceName()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) toggleEnabled() {
	enabled := !u.app.Enabled()
	u.app.SetEnabled(enabled)
	if enabled {
		u.mEnabled.Check()
	} else {
		u.mEnabled.Uncheck()
	}
}

// copyDeviceName puts the active output device name on the clipboard so the
// user can paste it into the trigger-device config without retyping system
// device names exactly.
func (u *UI) copyDeviceName() {
	device := u.app.CurrentDevice()
	if err := clipboard.WriteAll(device); err != nil {
		u.log.Error().Err(err).Msg("Failed to copy device name")
		return
	}
	u.log.Info().Str("device", device).Msg("Copied device name to clipboard")
}

// rebuildSpeakerMenu syncs the speaker submenu with the registry's current
// set. systray cannot remove items, so stale entries are hidden instead.
func (u *UI) rebuildSpeakerMenu() {
	speakers := u.app.Speakers()
	selected := u.app.SelectedSpeaker()

	u.mu.Lock()
	defer u.mu.Unlock()

	current := make(map[string]bool, len(speakers))
	for _, sp := range speakers {
		name := sp.Name()
		current[name] = true

		item, ok := u.speakerItems[name]
		if !ok {
			item = u.mSpeakers.AddSubMenuItemCheckbox(name, "", name == selected)
			u.speakerItems[name] = item

			go func(speakerName string, menuItem *systray.MenuItem) {
				for range menuItem.ClickedCh {
					if err := u.app.Select(speakerName); err != nil {
						u.log.Error().Err(err).Str("speaker", speakerName).Msg("Failed to select speaker")
					}
				}
			}(name, item)
			continue
		}

		item.Show()
		if name == selected {
			item.Check()
		} else {
			item.Uncheck()
		}
	}

	for name, item := range u.speakerItems {
		if !current[name] {
			item.Hide()
		}
	}
}

func (u *UI) checkSpeakerItem(selected string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for name, item := range u.speakerItems {
		if name == selected {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// buildTriggerMenu lists the output devices the OS knows about; clicking one
// makes it the trigger device.
func (u *UI) buildTriggerMenu() {
	devices, err := audiodev.ListOutputs()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list audio output devices")
		return
	}

	trigger := u.app.TriggerDevice()
	for _, dev := range devices {
		item := u.mTrigger.AddSubMenuItemCheckbox(dev.Name, "", dev.Name == trigger)
		u.triggerItems[dev.Name] = item

		go func(deviceName string, menuItem *systray.MenuItem) {
			for range menuItem.ClickedCh {
				u.app.SetTriggerDevice(deviceName)
				u.mu.Lock()
				for name, itm := range u.triggerItems {
					if name == deviceName {
						itm.Check()
					} else {
						itm.Uncheck()
					}
				}
				u.mu.Unlock()
				u.log.Info().Str("device", deviceName).Msg("Trigger device changed")
			}
		}(dev.Name, item)
	}
}

func (u *UI) showAbout() {
	fmt.Printf("sonos-tray %s (%s)\nRedirects volume keys to a Sonos speaker\n", u.version, u.commit)
}

func (u *UI) onExit() {
	// Cleanup
}

// updateTitle sets the menu bar title to the selected speaker and volume.
func (u *UI) updateTitle() {
	u.mu.Lock()
	name := u.speakerName
	volume := u.volumeText
	u.mu.Unlock()

	if name == "" {
		systray.SetTitle("♫")
		return
	}
	systray.SetTitle(fmt.Sprintf("♫ %s %s", shortName(name), barPercent(volume)))
}

const barLength = 20

// volumeBar renders the textual volume bar shown in the menu.
func volumeBar(volume int) string {
	filled := barLength * volume / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", barLength-filled) + fmt.Sprintf(" %d%%", volume)
}

// barPercent extracts the trailing percentage for the compact title.
func barPercent(bar string) string {
	if i := strings.LastIndex(bar, " "); i >= 0 {
		return bar[i+1:]
	}
	return bar
}

// shortName truncates long speaker names for the menu bar.
func shortName(name string) string {
	runes := []rune(name)
	if len(runes) <= 8 {
		return name
	}
	return string(runes[:8]) + "…"
}
