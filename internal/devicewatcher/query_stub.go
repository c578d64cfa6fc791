//go:build !darwin

package devicewatcher

import "errors"

// SystemQuery has no implementation off macOS; the watcher keeps reporting
// Unknown, which never matches a trigger device.
type SystemQuery struct{}

func (SystemQuery) Current() (string, error) {
	return Unknown, errors.New("audio device query not supported on this platform")
}
