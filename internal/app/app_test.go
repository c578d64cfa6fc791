package app

import (
	"context"
	"testing"
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

// Mock implementations for testing
type mockSpeaker struct {
	name   string
	volume int
	muted  bool
}

func (m *mockSpeaker) Name() string { return m.name }
func (m *mockSpeaker) Volume() (int, error) {
	return m.volume, nil
}
func (m *mockSpeaker) SetVolume(v int) error {
	m.volume = v
	return nil
}
func (m *mockSpeaker) Muted() (bool, error) { return m.muted, nil }
func (m *mockSpeaker) SetMute(muted bool) error {
	m.muted = muted
	return nil
}

type mockDiscoverer struct {
	speakers []sonos.Speaker
}

func (m *mockDiscoverer) Discover(ctx context.Context, timeout time.Duration) ([]sonos.Speaker, error) {
	return m.speakers, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("APPDATA", dir)

	return &config.Config{
		Enabled:          true,
		TriggerDevice:    "DELL U2723QE",
		VolumeStep:       5,
		DiscoverySeconds: 1,
		KeyCodes:         config.KeyCodes{VolumeUp: 16, VolumeDown: 17, Mute: 18},
	}
}

func newTestApp(t *testing.T, cfg *config.Config, speakers ...sonos.Speaker) *App {
	t.Helper()

	watcher := devicewatcher.New(
		devicewatcher.QueryFunc(func() (string, error) { return "DELL U2723QE", nil }),
		time.Hour, // no ticks during the test; only the priming query runs
		zerolog.Nop(),
	)

	a := New(Config{
		Registry:   registry.New(),
		Volume:     volumectl.New(zerolog.Nop()),
		Discoverer: &mockDiscoverer{speakers: speakers},
		Watcher:    watcher,
		Config:     cfg,
		Logger:     zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	t.Cleanup(func() { a.Shutdown(context.Background()) })
	a.Start(ctx)

	waitForSelection(t, a)
	return a
}

func waitForSelection(t *testing.T, a *App) {
	t.Helper()
	for i := 0; i < 100; i++ { // Poll for 1 second
		if a.reg.Selected() != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for a speaker selection")
}

func TestMediaKeyRedirectedWhenArmed(t *testing.T) {
	cfg := testConfig(t)
	cfg.LastSelectedSpeaker = "Kitchen"
	sp := &mockSpeaker{name: "Kitchen", volume: 50}

	a := newTestApp(t, cfg, sp)

	if !a.OnMediaKey(mediakeys.Event{Code: 16}) {
		t.Fatal("volume-up should be suppressed while intercepting")
	}
	if sp.volume != 55 {
		t.Errorf("expected speaker volume 55, got %d", sp.volume)
	}

	if !a.OnMediaKey(mediakeys.Event{Code: 17}) {
		t.Fatal("volume-down should be suppressed while intercepting")
	}
	if sp.volume != 50 {
		t.Errorf("expected speaker volume 50, got %d", sp.volume)
	}
}

func TestMediaKeyPassedThroughWhenDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.LastSelectedSpeaker = "Kitchen"
	sp := &mockSpeaker{name: "Kitchen", volume: 50}

	a := newTestApp(t, cfg, sp)
	a.SetEnabled(false)

	if a.OnMediaKey(mediakeys.Event{Code: 16}) {
		t.Fatal("expected pass-through while disabled")
	}
	if sp.volume != 50 {
		t.Errorf("speaker volume must be untouched, got %d", sp.volume)
	}
}

func TestMediaKeyPassedThroughOnDeviceMismatch(t *testing.T) {
	cfg := testConfig(t)
	cfg.TriggerDevice = "Some Other Monitor"
	cfg.LastSelectedSpeaker = "Kitchen"
	sp := &mockSpeaker{name: "Kitchen", volume: 50}

	a := newTestApp(t, cfg, sp)

	if a.OnMediaKey(mediakeys.Event{Code: 16}) {
		t.Fatal("expected pass-through when the trigger device is not active")
	}
}

func TestMediaKeyRepeatNeverActs(t *testing.T) {
	cfg := testConfig(t)
	cfg.LastSelectedSpeaker = "Kitchen"
	sp := &mockSpeaker{name: "Kitchen", volume: 50}

	a := newTestApp(t, cfg, sp)

	if a.OnMediaKey(mediakeys.Event{Code: 16, Repeat: true}) {
		t.Fatal("repeat events must be passed through")
	}
	if sp.volume != 50 {
		t.Errorf("repeat must not change the volume, got %d", sp.volume)
	}
}

func TestMediaKeyMuteToggle(t *testing.T) {
	cfg := testConfig(t)
	cfg.LastSelectedSpeaker = "Kitchen"
	sp := &mockSpeaker{name: "Kitchen", volume: 50}

	a := newTestApp(t, cfg, sp)

	if !a.OnMediaKey(mediakeys.Event{Code: 18}) {
		t.Fatal("mute should be suppressed while intercepting")
	}
	if !sp.muted {
		t.Error("expected speaker muted")
	}

	if !a.OnMediaKey(mediakeys.Event{Code: 18}) {
		t.Fatal("second mute should also be suppressed")
	}
	if sp.muted {
		t.Error("expected mute toggled back off")
	}
}

func TestHotkeyActsOnPressOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.LastSelectedSpeaker = "Kitchen"
	sp := &mockSpeaker{name: "Kitchen", volume: 50}

	a := newTestApp(t, cfg, sp)

	a.OnHotkey(intercept.ActionVolumeUp, false) // release
	if sp.volume != 50 {
		t.Errorf("release must not act, got %d", sp.volume)
	}

	a.OnHotkey(intercept.ActionVolumeUp, true)
	if sp.volume != 55 {
		t.Errorf("expected 55 after hotkey press, got %d", sp.volume)
	}
}

func TestAutoSelectPrefersDefaultSpeaker(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultSpeaker = "Office"
	cfg.LastSelectedSpeaker = "Kitchen"

	a := newTestApp(t, cfg,
		&mockSpeaker{name: "Kitchen", volume: 20},
		&mockSpeaker{name: "Office", volume: 30},
	)

	if got := a.SelectedSpeaker(); got != "Office" {
		t.Errorf("expected default speaker Office to win, got %q", got)
	}

	// The selection-time volume read primes the display cache.
	if vol, known := a.LastVolume(); !known || vol != 30 {
		t.Errorf("expected cached volume 30, got %d (known=%v)", vol, known)
	}
}

func TestSelectPersistsLastSelected(t *testing.T) {
	cfg := testConfig(t)
	cfg.LastSelectedSpeaker = "Kitchen"

	a := newTestApp(t, cfg,
		&mockSpeaker{name: "Kitchen", volume: 20},
		&mockSpeaker{name: "Office", volume: 30},
	)

	if err := a.Select("Office"); err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if cfg.LastSelectedSpeaker != "Office" {
		t.Errorf("expected last selected Office, got %q", cfg.LastSelectedSpeaker)
	}
	if got := a.SelectedSpeaker(); got != "Office" {
		t.Errorf("expected selection Office, got %q", got)
	}
}

func TestSelectUnknownSpeakerFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.LastSelectedSpeaker = "Kitchen"

	a := newTestApp(t, cfg, &mockSpeaker{name: "Kitchen", volume: 20})

	if err := a.Select("Garage"); err == nil {
		t.Fatal("expected error selecting an unknown speaker")
	}
	if cfg.LastSelectedSpeaker != "Kitchen" {
		t.Errorf("failed selection must not overwrite the persisted name, got %q", cfg.LastSelectedSpeaker)
	}
}
