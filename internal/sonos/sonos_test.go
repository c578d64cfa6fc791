package sonos

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func soapResponse(action, inner string) string {
	return `<?xml version="1.0"?>` +
		`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">` +
		`<s:Body><u:` + action + `Response xmlns:u="` + renderingControlURN + `">` +
		inner +
		`</u:` + action + `Response></s:Body></s:Envelope>`
}

func TestZonePlayerVolume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != renderingControlPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("SOAPACTION"); !strings.Contains(got, "#GetVolume") {
			t.Errorf("unexpected SOAPACTION %q", got)
		}
		io.WriteString(w, soapResponse("GetVolume", "<CurrentVolume>42</CurrentVolume>"))
	}))
	defer srv.Close()

	zp := NewZonePlayer("Kitchen", srv.URL)
	vol, err := zp.Volume()
	if err != nil {
		t.Fatalf("Volume() error: %v", err)
	}
	if vol != 42 {
		t.Errorf("expected volume 42, got %d", vol)
	}
}

func TestZonePlayerSetVolume(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		io.WriteString(w, soapResponse("SetVolume", ""))
	}))
	defer srv.Close()

	zp := NewZonePlayer("Kitchen", srv.URL)
	if err := zp.SetVolume(35); err != nil {
		t.Fatalf("SetVolume() error: %v", err)
	}
	if !strings.Contains(gotBody, "<DesiredVolume>35</DesiredVolume>") {
		t.Errorf("request body missing desired volume: %s", gotBody)
	}
	if !strings.Contains(gotBody, "<Channel>Master</Channel>") {
		t.Errorf("request body missing master channel: %s", gotBody)
	}
}

func TestZonePlayerMute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("SOAPACTION"), "#GetMute") {
			io.WriteString(w, soapResponse("GetMute", "<CurrentMute>1</CurrentMute>"))
			return
		}
		io.WriteString(w, soapResponse("SetMute", ""))
	}))
	defer srv.Close()

	zp := NewZonePlayer("Office", srv.URL)
	muted, err := zp.Muted()
	if err != nil {
		t.Fatalf("Muted() error: %v", err)
	}
	if !muted {
		t.Error("expected muted=true")
	}
	if err := zp.SetMute(false); err != nil {
		t.Fatalf("SetMute() error: %v", err)
	}
}

func TestZonePlayerUnreachable(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	zp := NewZonePlayer("Kitchen", srv.URL)
	if _, err := zp.Volume(); !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
	if err := zp.SetVolume(10); !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestZonePlayerSoapFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upnp error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	zp := NewZonePlayer("Kitchen", srv.URL)
	if _, err := zp.Volume(); !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable on fault, got %v", err)
	}
}

func TestExtractTag(t *testing.T) {
	body := "<a><CurrentVolume> 7 </CurrentVolume></a>"
	got, err := extractTag(body, "CurrentVolume")
	if err != nil {
		t.Fatalf("extractTag error: %v", err)
	}
	if got != "7" {
		t.Errorf("expected trimmed %q, got %q", "7", got)
	}

	if _, err := extractTag("<a></a>", "CurrentVolume"); err == nil {
		t.Error("expected error for missing tag")
	}
	if _, err := extractTag("<CurrentVolume>7", "CurrentVolume"); err == nil {
		t.Error("expected error for unterminated tag")
	}
}

func TestParseLocation(t *testing.T) {
	resp := "HTTP/1.1 200 OK\r\n" +
		"CACHE-CONTROL: max-age = 1800\r\n" +
		"location: http://192.168.1.50:1400/xml/device_description.xml\r\n" +
		"ST: " + zonePlayerST + "\r\n\r\n"

	got := parseLocation(resp)
	want := "http://192.168.1.50:1400/xml/device_description.xml"
	if got != want {
		t.Errorf("parseLocation = %q, want %q", got, want)
	}

	if parseLocation("HTTP/1.1 200 OK\r\n\r\n") != "" {
		t.Error("expected empty location for response without header")
	}
}
