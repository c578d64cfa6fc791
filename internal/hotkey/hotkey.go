package hotkey

import (
	"fmt"
	"strconv"
	"strings"
)

// Manager defines the interface for global hotkey management
type Manager interface {
	Register(accel string, callback func(pressed bool)) error
	Unregister(accel string) error
	Close() error
}

// parseFKey parses an accelerator of the form "F1".."F20" and returns the
// function key number. The app only binds plain function keys (F11 for
// volume down and F12 for volume up by default).
func parseFKey(accel string) (int, error) {
	s := strings.TrimSpace(accel)
	if len(s) < 2 || (s[0] != 'F' && s[0] != 'f') {
		return 0, fmt.Errorf("unsupported hotkey %q (expected F1..F20)", accel)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 1 || n > 20 {
		return 0, fmt.Errorf("unsupported hotkey %q (expected F1..F20)", accel)
	}
	return n, nil
}
