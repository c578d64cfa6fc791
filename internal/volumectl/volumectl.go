// Package volumectl applies bounded volume changes and mute toggles to a
// speaker and tracks the last known volume for display.
package volumectl

import (
	"fmt"
	"sync"

	"github.com/petems/sonos-tray/internal/sonos"
	"github.com/rs/zerolog"
)

// Controller writes volume and mute changes to speakers. The cached volume
// is best-effort: a physical remote can change the speaker out-of-band and
// the cache only catches up on the next successful call.
type Controller struct {
	log zerolog.Logger

	mu     sync.Mutex
	volume int
	known  bool
}

func New(log zerolog.Logger) *Controller {
	return &Controller{log: log}
}

// Adjust reads the speaker's current volume, applies delta clamped to
// [0, 100], writes the result back if it changed and returns it. On a
// communication failure the cache is left unchanged.
func (c *Controller) Adjust(sp sonos.Speaker, delta int) (int, error) {
	current, err := sp.Volume()
	if err != nil {
		return 0, fmt.Errorf("reading volume of %s: %w", sp.Name(), err)
	}

	next := clamp(current + delta)
	if next != current {
		if err := sp.SetVolume(next); err != nil {
			return 0, fmt.Errorf("setting volume of %s: %w", sp.Name(), err)
		}
	}

	c.log.Debug().Str("speaker", sp.Name()).Int("from", current).Int("to", next).Msg("Volume adjusted")
	c.record(next)
	return next, nil
}

// ToggleMute flips the speaker's mute flag and returns the new state.
func (c *Controller) ToggleMute(sp sonos.Speaker) (bool, error) {
	muted, err := sp.Muted()
	if err != nil {
		return false, fmt.Errorf("reading mute of %s: %w", sp.Name(), err)
	}
	if err := sp.SetMute(!muted); err != nil {
		return false, fmt.Errorf("setting mute of %s: %w", sp.Name(), err)
	}

	c.log.Debug().Str("speaker", sp.Name()).Bool("muted", !muted).Msg("Mute toggled")
	return !muted, nil
}

// Refresh reads the speaker's volume into the cache, for use right after a
// speaker is selected. A failed read leaves the cache unknown.
func (c *Controller) Refresh(sp sonos.Speaker) (int, error) {
	vol, err := sp.Volume()
	if err != nil {
		c.mu.Lock()
		c.known = false
		c.mu.Unlock()
		return 0, fmt.Errorf("reading volume of %s: %w", sp.Name(), err)
	}
	c.record(vol)
	return vol, nil
}

// LastVolume returns the cached volume and whether one is known.
func (c *Controller) LastVolume() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume, c.known
}

func (c *Controller) record(v int) {
	c.mu.Lock()
	c.volume = v
	c.known = true
	c.mu.Unlock()
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
