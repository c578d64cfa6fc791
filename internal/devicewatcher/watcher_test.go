package devicewatcher

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type scriptedQuery struct {
	mu      sync.Mutex
	results []string
	errs    []error
	pos     int
}

func (s *scriptedQuery) Current() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.pos
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.pos++
	return s.results[i], s.errs[i]
}

func TestWatcherEmitsOnChange(t *testing.T) {
	q := &scriptedQuery{
		results: []string{"MacBook Pro Speakers", "MacBook Pro Speakers", "DELL U2723QE"},
		errs:    []error{nil, nil, nil},
	}
	w := New(q, 5*time.Millisecond, zerolog.Nop())
	defer w.Stop()

	ch := w.Listen()
	if got := w.Current(); got != "MacBook Pro Speakers" {
		t.Fatalf("expected primed device, got %q", got)
	}

	select {
	case name := <-ch:
		if name != "DELL U2723QE" {
			t.Fatalf("expected change to DELL U2723QE, got %q", name)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for device change")
	}

	if got := w.Current(); got != "DELL U2723QE" {
		t.Errorf("expected Current to track the change, got %q", got)
	}
}

func TestWatcherRetainsOnQueryError(t *testing.T) {
	q := &scriptedQuery{
		results: []string{"DELL U2723QE", Unknown, "DELL U2723QE"},
		errs:    []error{nil, errors.New("query timed out"), nil},
	}
	w := New(q, 5*time.Millisecond, zerolog.Nop())
	defer w.Stop()

	ch := w.Listen()

	// The failed tick must not emit; the steady value afterwards is not a
	// change either.
	select {
	case name := <-ch:
		t.Fatalf("unexpected change notification %q", name)
	case <-time.After(50 * time.Millisecond):
	}

	if got := w.Current(); got != "DELL U2723QE" {
		t.Errorf("expected last known device to be retained, got %q", got)
	}
}

func TestWatcherStopClosesChannel(t *testing.T) {
	q := &scriptedQuery{results: []string{"DELL U2723QE"}, errs: []error{nil}}
	w := New(q, 5*time.Millisecond, zerolog.Nop())

	ch := w.Listen()
	w.Stop()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to close without a value")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestParseDefaultOutput(t *testing.T) {
	data := []byte(`{
		"SPAudioDataType": [{
			"_items": [
				{"_name": "MacBook Pro Microphone"},
				{"_name": "DELL U2723QE", "coreaudio_default_audio_output_device": "spaudio_yes"},
				{"_name": "MacBook Pro Speakers"}
			]
		}]
	}`)

	got, err := parseDefaultOutput(data)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got != "DELL U2723QE" {
		t.Errorf("expected DELL U2723QE, got %q", got)
	}
}

func TestParseDefaultOutputNoDefault(t *testing.T) {
	got, err := parseDefaultOutput([]byte(`{"SPAudioDataType": [{"_items": []}]}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got != Unknown {
		t.Errorf("expected Unknown sentinel, got %q", got)
	}

	if got, err := parseDefaultOutput([]byte(`not json`)); err == nil || got != Unknown {
		t.Errorf("expected Unknown and an error for garbage input, got %q, %v", got, err)
	}
}
