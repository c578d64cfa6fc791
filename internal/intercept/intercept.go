// Package intercept decides whether a hardware volume-key press should be
// redirected to the selected network speaker or passed through to the OS.
package intercept

// Action is a logical media-key action.
type Action int

const (
	ActionNone Action = iota
	ActionVolumeUp
	ActionVolumeDown
	ActionMuteToggle
)

func (a Action) String() string {
	switch a {
	case ActionVolumeUp:
		return "volume-up"
	case ActionVolumeDown:
		return "volume-down"
	case ActionMuteToggle:
		return "mute-toggle"
	default:
		return "none"
	}
}

// Event is a raw key-down occurrence as delivered by the OS key tap.
type Event struct {
	Code   int
	Repeat bool
}

// Verdict is the outcome of dispatching a single key event.
type Verdict int

const (
	// Passed means the OS should apply its default behavior.
	Passed Verdict = iota
	// Suppressed means the event was consumed and must not reach the OS.
	Suppressed
)

// Keymap maps raw hardware key codes to logical actions. The exact codes
// differ between macOS key-delivery APIs, so they are configurable rather
// than fixed.
type Keymap map[int]Action

// DefaultKeymap returns the NSEvent data1 key codes observed on current
// macOS for the three media keys.
func DefaultKeymap() Keymap {
	return Keymap{
		16: ActionVolumeUp,
		17: ActionVolumeDown,
		18: ActionMuteToggle,
	}
}

// ShouldIntercept reports whether a volume key should be redirected to the
// selected speaker. Device names are compared exactly, case-sensitive; system
// device names can change wording across OS versions, which is a known
// limitation of the exact-match policy.
//
// Pure function. Callers must re-evaluate it on every key event since all
// inputs change asynchronously.
func ShouldIntercept(enabled bool, currentDevice, triggerDevice string, speakerSelected bool) bool {
	return enabled && currentDevice == triggerDevice && speakerSelected
}

// State is the snapshot of shared state the decision reads.
type State struct {
	Enabled         bool
	CurrentDevice   string
	TriggerDevice   string
	SpeakerSelected bool
}

// StateFunc returns the latest state snapshot at dispatch time. Both global
// and local key observers call it independently and reach the same outcome
// for the same logical event.
type StateFunc func() State

// HandlerFunc applies an intercepted action to the selected speaker.
type HandlerFunc func(Action)

// Dispatcher routes raw key events: unknown codes and repeats pass through,
// recognized actions are either redirected (and suppressed) or passed to the
// OS depending on ShouldIntercept.
type Dispatcher struct {
	keys   Keymap
	state  StateFunc
	handle HandlerFunc
}

func NewDispatcher(keys Keymap, state StateFunc, handle HandlerFunc) *Dispatcher {
	if keys == nil {
		keys = DefaultKeymap()
	}
	return &Dispatcher{keys: keys, state: state, handle: handle}
}

// OnKey processes one key-down event. Repeat events never trigger an action.
func (d *Dispatcher) OnKey(ev Event) Verdict {
	if ev.Repeat {
		return Passed
	}

	action, ok := d.keys[ev.Code]
	if !ok || action == ActionNone {
		return Passed
	}

	s := d.state()
	if !ShouldIntercept(s.Enabled, s.CurrentDevice, s.TriggerDevice, s.SpeakerSelected) {
		return Passed
	}

	d.handle(action)
	return Suppressed
}
