// Package sonos talks to Sonos zone players over UPnP: SSDP discovery plus
// the two RenderingControl actions the app needs (volume and mute).
package sonos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrUnreachable is returned when a zone player cannot be contacted or
// rejects a command.
var ErrUnreachable = errors.New("speaker unreachable")

// Speaker is a controllable network speaker. Any call may fail with an
// error wrapping ErrUnreachable.
type Speaker interface {
	Name() string
	Volume() (int, error)
	SetVolume(volume int) error
	Muted() (bool, error)
	SetMute(muted bool) error
}

// Discoverer finds the speakers currently reachable on the network.
type Discoverer interface {
	Discover(ctx context.Context, timeout time.Duration) ([]Speaker, error)
}

const (
	renderingControlURN  = "urn:schemas-upnp-org:service:RenderingControl:1"
	renderingControlPath = "/MediaRenderer/RenderingControl/Control"

	soapTimeout = 5 * time.Second
)

// ZonePlayer is a single Sonos device, addressed by its control endpoint
// (http://<ip>:1400).
type ZonePlayer struct {
	name     string
	endpoint string
	client   *http.Client
}

// NewZonePlayer returns a speaker handle for the player at endpoint.
func NewZonePlayer(name, endpoint string) *ZonePlayer {
	return &ZonePlayer{
		name:     name,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: soapTimeout},
	}
}

func (z *ZonePlayer) Name() string {
	return z.name
}

// Volume reads the current master volume (0-100).
func (z *ZonePlayer) Volume() (int, error) {
	body, err := z.soapCall("GetVolume", "<InstanceID>0</InstanceID><Channel>Master</Channel>")
	if err != nil {
		return 0, err
	}
	raw, err := extractTag(body, "CurrentVolume")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	vol, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: bad volume %q", ErrUnreachable, raw)
	}
	return vol, nil
}

// SetVolume writes the master volume. The value must already be in 0-100;
// clamping is the caller's job.
func (z *ZonePlayer) SetVolume(volume int) error {
	args := fmt.Sprintf("<InstanceID>0</InstanceID><Channel>Master</Channel><DesiredVolume>%d</DesiredVolume>", volume)
	_, err := z.soapCall("SetVolume", args)
	return err
}

// Muted reads the master mute flag.
func (z *ZonePlayer) Muted() (bool, error) {
	body, err := z.soapCall("GetMute", "<InstanceID>0</InstanceID><Channel>Master</Channel>")
	if err != nil {
		return false, err
	}
	raw, err := extractTag(body, "CurrentMute")
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return raw == "1", nil
}

// SetMute writes the master mute flag.
func (z *ZonePlayer) SetMute(muted bool) error {
	desired := "0"
	if muted {
		desired = "1"
	}
	args := fmt.Sprintf("<InstanceID>0</InstanceID><Channel>Master</Channel><DesiredMute>%s</DesiredMute>", desired)
	_, err := z.soapCall("SetMute", args)
	return err
}

func (z *ZonePlayer) soapCall(action, args string) (string, error) {
	envelope := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>`+
		`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">`+
		`<s:Body><u:%s xmlns:u="%s">%s</u:%s></s:Body></s:Envelope>`,
		action, renderingControlURN, args, action)

	req, err := http.NewRequest(http.MethodPost, z.endpoint+renderingControlPath, strings.NewReader(envelope))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", fmt.Sprintf(`"%s#%s"`, renderingControlURN, action))

	resp, err := z.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %s", ErrUnreachable, action, resp.Status)
	}
	return string(body), nil
}

// extractTag pulls the text content of the first occurrence of <tag> out of
// a SOAP response. The responses are flat enough that a full XML decode
// (with its namespace handling) buys nothing here.
func extractTag(body, tag string) (string, error) {
	openTag := "<" + tag + ">"
	closeTag := "</" + tag + ">"

	start := strings.Index(body, openTag)
	if start < 0 {
		return "", fmt.Errorf("missing <%s> in response", tag)
	}
	start += len(openTag)
	end := strings.Index(body[start:], closeTag)
	if end < 0 {
		return "", fmt.Errorf("unterminated <%s> in response", tag)
	}
	return strings.TrimSpace(body[start : start+end]), nil
}
