//go:build darwin

package devicewatcher

import (
	"context"
	"os/exec"
	"time"
)

const profilerTimeout = 5 * time.Second

// SystemQuery asks CoreAudio (via system_profiler) for the default output
// device.
type SystemQuery struct{}

func (SystemQuery) Current() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), profilerTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "system_profiler", "SPAudioDataType", "-json").Output()
	if err != nil {
		return Unknown, err
	}
	return parseDefaultOutput(out)
}
