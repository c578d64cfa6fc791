// Package mediakeys captures hardware media-key presses at the OS level and
// lets the handler suppress individual events.
package mediakeys

// Event is a single media-key key-down occurrence.
type Event struct {
	// Code is the raw key code extracted from the OS event.
	Code int
	// Repeat is set on auto-repeat deliveries of a held key.
	Repeat bool
}

// Handler receives each key-down event synchronously on the tap's delivery
// thread. Returning true suppresses the event before the OS applies its
// default behavior; returning false passes it through.
type Handler func(Event) bool

// Tap is a platform key-event tap for media keys.
type Tap interface {
	Start(handler Handler) error
	Stop() error
}
