// Package devicewatcher polls the OS for the active audio output device and
// reports changes.
package devicewatcher

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Unknown is the sentinel device name used when the OS query cannot
// determine the default output.
const Unknown = "Unknown"

// Query returns the display name of the current default output device.
type Query interface {
	Current() (string, error)
}

// QueryFunc adapts a function to the Query interface.
type QueryFunc func() (string, error)

func (f QueryFunc) Current() (string, error) { return f() }

// Watcher polls the query at a fixed interval on its own goroutine. A failed
// query retains the last known value and retries on the next tick; nothing
// stops the loop except Stop.
type Watcher struct {
	query    Query
	interval time.Duration
	log      zerolog.Logger

	mu   sync.Mutex
	last string

	stopCh   chan struct{}
	stopOnce sync.Once
}

func New(query Query, interval time.Duration, log zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		query:    query,
		interval: interval,
		log:      log,
		last:     Unknown,
		stopCh:   make(chan struct{}),
	}
}

// Listen primes the current device with one synchronous query, then starts
// the poll loop. It returns a channel that emits the device name whenever it
// changes; the channel is closed when the watcher is stopped.
func (w *Watcher) Listen() <-chan string {
	if name, err := w.query.Current(); err == nil {
		w.mu.Lock()
		w.last = name
		w.mu.Unlock()
	} else {
		w.log.Warn().Err(err).Msg("Initial audio device query failed")
	}

	ch := make(chan string, 1)
	go w.loop(ch)
	return ch
}

// Current returns the last known device name.
func (w *Watcher) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Stop signals the poll loop to exit. The loop checks the signal once per
// iteration; an in-flight query is not interrupted.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *Watcher) loop(ch chan<- string) {
	defer close(ch)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
		}

		name, err := w.query.Current()
		if err != nil {
			// Retain the last known device and retry next tick.
			w.log.Warn().Err(err).Msg("Audio device query failed")
			continue
		}

		w.mu.Lock()
		changed := name != w.last
		if changed {
			w.last = name
		}
		w.mu.Unlock()

		if changed {
			w.log.Info().Str("device", name).Msg("Audio output device changed")
			select {
			case ch <- name:
			case <-w.stopCh:
				return
			}
		}
	}
}
