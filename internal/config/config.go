package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

type Config struct {
	Enabled             bool     `json:"enabled"`
	TriggerDevice       string   `json:"trigger_device"`
	VolumeStep          int      `json:"volume_step"`
	DefaultSpeaker      string   `json:"default_speaker,omitempty"`
	LastSelectedSpeaker string   `json:"last_selected_speaker,omitempty"`
	HotkeyDown          string   `json:"hotkey_down"`
	HotkeyUp            string   `json:"hotkey_up"`
	PollSeconds         int      `json:"poll_interval_seconds"`
	DiscoverySeconds    int      `json:"discovery_timeout_seconds"`
	LogLevel            string   `json:"log_level"`
	KeyCodes            KeyCodes `json:"key_codes"`
}

// KeyCodes are the raw media-key codes the OS delivers. The NSEvent data1
// values (16/17/18) are the default; the IOKit NX_KEYTYPE constants (0/1/7)
// show up on other delivery paths, so the codes stay configurable.
type KeyCodes struct {
	VolumeUp   int `json:"volume_up"`
	VolumeDown int `json:"volume_down"`
	Mute       int `json:"mute"`
}

const (
	minVolumeStep = 1
	maxVolumeStep = 20
)

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	path := configPath()

	// Default config
	cfg := &Config{
		Enabled:          true,
		TriggerDevice:    "",
		VolumeStep:       5,
		HotkeyDown:       "F11",
		HotkeyUp:         "F12",
		PollSeconds:      2,
		DiscoverySeconds: 3,
		LogLevel:         "info",
		KeyCodes: KeyCodes{
			VolumeUp:   16,
			VolumeDown: 17,
			Mute:       18,
		},
	}

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.normalize()
	return cfg, nil
}

// Save writes the config to disk. Every settings mutation calls it
// immediately; there is no batching.
func (c *Config) Save() error {
	path := configPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// PollInterval returns the audio device poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// DiscoveryTimeout returns the network discovery timeout.
func (c *Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.DiscoverySeconds) * time.Second
}

// normalize clamps values a hand-edited config file could push out of range.
func (c *Config) normalize() {
	if c.VolumeStep < minVolumeStep {
		c.VolumeStep = minVolumeStep
	}
	if c.VolumeStep > maxVolumeStep {
		c.VolumeStep = maxVolumeStep
	}
	if c.PollSeconds <= 0 {
		c.PollSeconds = 2
	}
	if c.DiscoverySeconds <= 0 {
		c.DiscoverySeconds = 3
	}
	if c.HotkeyDown == "" {
		c.HotkeyDown = "F11"
	}
	if c.HotkeyUp == "" {
		c.HotkeyUp = "F12"
	}
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "sonos-tray", "config.json")
}
