// Package registry tracks the discovered speakers and which one, if any, is
// currently selected for control.
package registry

import (
	"errors"
	"sort"
	"sync"

	"github.com/petems/sonos-tray/internal/sonos"
)

// ErrUnknownSpeaker is returned when selecting a name that is not in the
// current speaker set.
var ErrUnknownSpeaker = errors.New("unknown speaker")

// Registry owns the speaker set. The set is replaced wholesale on each
// discovery cycle; speaker identity across cycles is name equality only.
//
// The selected name is sticky: an empty or failed discovery leaves it in
// place so it can re-resolve on the next successful cycle. While the name
// is unresolved Selected returns nil, which keeps interception off.
type Registry struct {
	mu           sync.Mutex
	speakers     []sonos.Speaker
	selected     sonos.Speaker
	selectedName string
}

func New() *Registry {
	return &Registry{}
}

// Replace swaps in a freshly discovered speaker set, sorted by name, and
// re-resolves the retained selection name against it.
func (r *Registry) Replace(speakers []sonos.Speaker) {
	sorted := make([]sonos.Speaker, len(speakers))
	copy(sorted, speakers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.speakers = sorted
	r.selected = r.findLocked(r.selectedName)
}

// AutoSelect applies the post-discovery selection policy: the configured
// default speaker wins, then the last selected name, then nothing. It
// returns the resolved speaker, or nil when neither name matched (the
// retained name is kept for later re-matching).
func (r *Registry) AutoSelect(defaultName, lastSelected string) sonos.Speaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range []string{defaultName, lastSelected} {
		if name == "" {
			continue
		}
		if sp := r.findLocked(name); sp != nil {
			r.selected = sp
			r.selectedName = name
			return sp
		}
	}
	return nil
}

// Select sets the selection explicitly by name.
func (r *Registry) Select(name string) (sonos.Speaker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sp := r.findLocked(name)
	if sp == nil {
		return nil, ErrUnknownSpeaker
	}
	r.selected = sp
	r.selectedName = name
	return sp, nil
}

// Selected returns the resolved selected speaker, or nil when none is
// selected or the selection is stale.
func (r *Registry) Selected() sonos.Speaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// SelectedName returns the retained selection name, which may be set even
// while unresolved.
func (r *Registry) SelectedName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selectedName
}

// Speakers returns a copy of the current set, sorted by name.
func (r *Registry) Speakers() []sonos.Speaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sonos.Speaker, len(r.speakers))
	copy(out, r.speakers)
	return out
}

func (r *Registry) findLocked(name string) sonos.Speaker {
	if name == "" {
		return nil
	}
	for _, sp := range r.speakers {
		if sp.Name() == name {
			return sp
		}
	}
	return nil
}
