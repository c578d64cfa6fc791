package app

import (
	"context"
	"sync"
	"time"

	"github.com/petems/sonos-tray/internal/config"
	"github.com/petems/sonos-tray/internal/devicewatcher"
	"github.com/petems/sonos-tray/internal/intercept"
	"github.com/petems/sonos-tray/internal/mediakeys"
	"github.com/petems/sonos-tray/internal/registry"
	"github.com/petems/sonos-tray/internal/sonos"
	"github.com/petems/sonos-tray/internal/volumectl"
	"github.com/rs/zerolog"
)

// Notifier receives the app's semantic events. How they render (menu text,
// toasts, nothing) is entirely the consumer's business.
type Notifier interface {
	VolumeChanged(speaker string, volume int)
	DeviceChanged(device string)
	SpeakerSelected(name string, volume int, volumeKnown bool)
	DiscoveryCompleted(count int)
	CommunicationError(err error)
}

type Config struct {
	Registry   *registry.Registry
	Volume     *volumectl.Controller
	Discoverer sonos.Discoverer
	Watcher    *devicewatcher.Watcher
	Config     *config.Config
	Logger     zerolog.Logger
	Notifier   Notifier // Optional - can be nil
}

// App wires the key/hotkey sources, the device watcher and discovery into
// the shared state the intercept decision reads.
type App struct {
	reg   *registry.Registry
	vol   *volumectl.Controller
	disc  sonos.Discoverer
	watch *devicewatcher.Watcher
	cfg   *config.Config
	log   zerolog.Logger
	notif Notifier

	dispatcher *intercept.Dispatcher

	mu            sync.Mutex
	currentDevice string
	discovering   bool
}

func New(cfg Config) *App {
	a := &App{
		reg:           cfg.Registry,
		vol:           cfg.Volume,
		disc:          cfg.Discoverer,
		watch:         cfg.Watcher,
		cfg:           cfg.Config,
		log:           cfg.Logger,
		notif:         cfg.Notifier,
		currentDevice: devicewatcher.Unknown,
	}

	keymap := intercept.Keymap{
		cfg.Config.KeyCodes.VolumeUp:   intercept.ActionVolumeUp,
		cfg.Config.KeyCodes.VolumeDown: intercept.ActionVolumeDown,
		cfg.Config.KeyCodes.Mute:       intercept.ActionMuteToggle,
	}
	a.dispatcher = intercept.NewDispatcher(keymap, a.snapshot, a.apply)
	return a
}

// Start begins consuming device-change events and kicks off an initial
// discovery round. It returns immediately.
func (a *App) Start(ctx context.Context) {
	if a.watch != nil {
		changes := a.watch.Listen()

		a.mu.Lock()
		a.currentDevice = a.watch.Current()
		a.mu.Unlock()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case device, ok := <-changes:
					if !ok {
						return
					}
					a.mu.Lock()
					a.currentDevice = device
					a.mu.Unlock()
					a.log.Info().Str("device", device).Msg("Current output device updated")
					if a.notif != nil {
						a.notif.DeviceChanged(device)
					}
				}
			}
		}()
	}

	a.Refresh()
}

// OnMediaKey handles one raw key event from the OS tap. It returns true
// when the event was redirected and must be suppressed.
func (a *App) OnMediaKey(ev mediakeys.Event) bool {
	verdict := a.dispatcher.OnKey(intercept.Event{Code: ev.Code, Repeat: ev.Repeat})
	return verdict == intercept.Suppressed
}

// OnHotkey handles the configured F-key bindings. Only the press edge acts;
// releases are ignored. Unlike the media-key path there is nothing to
// suppress: the grab already consumed the key.
func (a *App) OnHotkey(action intercept.Action, pressed bool) {
	if !pressed {
		return
	}

	s := a.snapshot()
	if !intercept.ShouldIntercept(s.Enabled, s.CurrentDevice, s.TriggerDevice, s.SpeakerSelected) {
		a.log.Debug().Stringer("action", action).Msg("Hotkey ignored (not intercepting)")
		return
	}
	a.apply(action)
}

// snapshot returns the decision inputs as they are right now. Each key event
// reads a fresh snapshot; momentary inconsistency between the fields during
// a device change is tolerated.
func (a *App) snapshot() intercept.State {
	a.mu.Lock()
	device := a.currentDevice
	enabled := a.cfg.Enabled
	trigger := a.cfg.TriggerDevice
	a.mu.Unlock()

	return intercept.State{
		Enabled:         enabled,
		CurrentDevice:   device,
		TriggerDevice:   trigger,
		SpeakerSelected: a.reg.Selected() != nil,
	}
}

// apply performs an intercepted action against the selected speaker. Speaker
// I/O runs without holding the app lock.
func (a *App) apply(action intercept.Action) {
	sp := a.reg.Selected()
	if sp == nil {
		// Selection raced away between the decision and now.
		return
	}

	a.mu.Lock()
	step := a.cfg.VolumeStep
	a.mu.Unlock()

	switch action {
	case intercept.ActionVolumeUp, intercept.ActionVolumeDown:
		delta := step
		if action == intercept.ActionVolumeDown {
			delta = -step
		}
		vol, err := a.vol.Adjust(sp, delta)
		if err != nil {
			a.log.Error().Err(err).Str("speaker", sp.Name()).Msg("Volume change failed")
			if a.notif != nil {
				a.notif.CommunicationError(err)
			}
			return
		}
		if a.notif != nil {
			a.notif.VolumeChanged(sp.Name(), vol)
		}
	case intercept.ActionMuteToggle:
		muted, err := a.vol.ToggleMute(sp)
		if err != nil {
			a.log.Error().Err(err).Str("speaker", sp.Name()).Msg("Mute toggle failed")
			if a.notif != nil {
				a.notif.CommunicationError(err)
			}
			return
		}
		a.log.Info().Str("speaker", sp.Name()).Bool("muted", muted).Msg("Mute toggled")
	}
}

// Refresh runs speaker discovery on a background goroutine. A round already
// in flight is not doubled up.
func (a *App) Refresh() {
	a.mu.Lock()
	if a.discovering {
		a.mu.Unlock()
		return
	}
	a.discovering = true
	timeout := a.cfg.DiscoveryTimeout()
	a.mu.Unlock()

	go func() {
		defer func() {
			a.mu.Lock()
			a.discovering = false
			a.mu.Unlock()
		}()

		a.log.Info().Dur("timeout", timeout).Msg("Discovering Sonos devices")

		ctx, cancel := context.WithTimeout(context.Background(), timeout+2*time.Second)
		defer cancel()

		speakers, err := a.disc.Discover(ctx, timeout)
		if err != nil {
			// Keep the previous speaker set on a failed round.
			a.log.Error().Err(err).Msg("Discovery failed")
			if a.notif != nil {
				a.notif.CommunicationError(err)
			}
			return
		}

		a.reg.Replace(speakers)

		a.mu.Lock()
		defaultSpeaker := a.cfg.DefaultSpeaker
		lastSelected := a.cfg.LastSelectedSpeaker
		a.mu.Unlock()

		if sp := a.reg.AutoSelect(defaultSpeaker, lastSelected); sp != nil {
			a.log.Info().Str("speaker", sp.Name()).Msg("Auto-selected speaker")
			a.announceSelection(sp)
		}

		a.log.Info().Int("count", len(speakers)).Msg("Discovery completed")
		if a.notif != nil {
			a.notif.DiscoveryCompleted(len(speakers))
		}
	}()
}

// Select sets the controlled speaker explicitly and persists it as the last
// selected one.
func (a *App) Select(name string) error {
	sp, err := a.reg.Select(name)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.cfg.LastSelectedSpeaker = name
	a.mu.Unlock()
	if err := a.cfg.Save(); err != nil {
		a.log.Error().Err(err).Msg("Failed to persist speaker selection")
	}

	a.log.Info().Str("speaker", name).Msg("Speaker selected")
	a.announceSelection(sp)
	return nil
}

// announceSelection refreshes the cached volume from the speaker and emits
// the selection event. A failed read leaves the volume unknown.
func (a *App) announceSelection(sp sonos.Speaker) {
	vol, err := a.vol.Refresh(sp)
	known := err == nil
	if err != nil {
		a.log.Warn().Err(err).Str("speaker", sp.Name()).Msg("Could not read volume of selected speaker")
	}
	if a.notif != nil {
		a.notif.SpeakerSelected(sp.Name(), vol, known)
	}
}

// SetEnabled flips the master switch and persists it.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.cfg.Enabled = enabled
	a.mu.Unlock()
	if err := a.cfg.Save(); err != nil {
		a.log.Error().Err(err).Msg("Failed to persist enabled flag")
	}
	a.log.Info().Bool("enabled", enabled).Msg("Sonos control toggled")
}

func (a *App) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Enabled
}

// SetTriggerDevice changes which output device arms interception.
func (a *App) SetTriggerDevice(name string) {
	a.mu.Lock()
	a.cfg.TriggerDevice = name
	a.mu.Unlock()
	if err := a.cfg.Save(); err != nil {
		a.log.Error().Err(err).Msg("Failed to persist trigger device")
	}
	a.log.Info().Str("device", name).Msg("Trigger device configured")
}

func (a *App) TriggerDevice() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.TriggerDevice
}

// CurrentDevice returns the last observed output device name.
func (a *App) CurrentDevice() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentDevice
}

func (a *App) Speakers() []sonos.Speaker {
	return a.reg.Speakers()
}

func (a *App) SelectedSpeaker() string {
	return a.reg.SelectedName()
}

// LastVolume returns the cached display volume.
func (a *App) LastVolume() (int, bool) {
	return a.vol.LastVolume()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.watch != nil {
		a.watch.Stop()
	}
	return nil
}
