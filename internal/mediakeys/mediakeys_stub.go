//go:build !darwin

package mediakeys

import "errors"

// ErrUnsupported is returned on platforms without a media-key tap; the
// configured F-key hotkeys remain the only control path there.
var ErrUnsupported = errors.New("media key tap not supported on this platform")

type stubTap struct{}

func New() (Tap, error) {
	return stubTap{}, nil
}

func (stubTap) Start(Handler) error { return ErrUnsupported }
func (stubTap) Stop() error         { return nil }
