package sonos

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	ssdpAddr     = "239.255.255.250:1900"
	zonePlayerST = "urn:schemas-upnp-org:device:ZonePlayer:1"
)

// SSDPDiscoverer finds zone players via an SSDP M-SEARCH multicast and
// resolves each responder's room name from its device description.
type SSDPDiscoverer struct {
	log    zerolog.Logger
	client *http.Client
}

func NewDiscoverer(log zerolog.Logger) *SSDPDiscoverer {
	return &SSDPDiscoverer{
		log:    log,
		client: &http.Client{Timeout: soapTimeout},
	}
}

// Discover runs one search round and returns the reachable speakers, one per
// room name. The timeout bounds the whole round; the call is not cancelable
// mid-flight beyond ctx expiry between steps.
func (d *SSDPDiscoverer) Discover(ctx context.Context, timeout time.Duration) ([]Speaker, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("ssdp listen: %w", err)
	}
	defer conn.Close()

	dst, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		return nil, fmt.Errorf("ssdp resolve: %w", err)
	}

	search := "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: " + ssdpAddr + "\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"MX: 1\r\n" +
		"ST: " + zonePlayerST + "\r\n\r\n"

	if _, err := conn.WriteTo([]byte(search), dst); err != nil {
		return nil, fmt.Errorf("ssdp search: %w", err)
	}

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	locations := map[string]struct{}{}
	buf := make([]byte, 2048)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			// Deadline expiry ends the collection round.
			break
		}
		if loc := parseLocation(string(buf[:n])); loc != "" {
			locations[loc] = struct{}{}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	speakers := make([]Speaker, 0, len(locations))
	seen := map[string]struct{}{}
	for loc := range locations {
		name, endpoint, err := d.describe(ctx, loc)
		if err != nil {
			d.log.Warn().Err(err).Str("location", loc).Msg("Skipping undescribable zone player")
			continue
		}
		// Stereo pairs answer once per unit; one handle per room is enough.
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		speakers = append(speakers, NewZonePlayer(name, endpoint))
	}

	sort.Slice(speakers, func(i, j int) bool { return speakers[i].Name() < speakers[j].Name() })
	return speakers, nil
}

// describe fetches a device description and returns the room name together
// with the player's control endpoint.
func (d *SSDPDiscoverer) describe(ctx context.Context, location string) (name, endpoint string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("device description returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256<<10))
	if err != nil {
		return "", "", err
	}
	name, err = extractTag(string(body), "roomName")
	if err != nil {
		return "", "", err
	}

	u, err := url.Parse(location)
	if err != nil {
		return "", "", err
	}
	return name, "http://" + u.Host, nil
}

// parseLocation extracts the LOCATION header from an SSDP response.
func parseLocation(response string) string {
	for _, line := range strings.Split(response, "\r\n") {
		if len(line) > 9 && strings.EqualFold(line[:9], "LOCATION:") {
			return strings.TrimSpace(line[9:])
		}
	}
	return ""
}
