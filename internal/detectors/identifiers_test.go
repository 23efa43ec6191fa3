package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-anonymizing-proxy/internal/span"
)

func TestDetectIdentifiers_IPv4(t *testing.T) {
	out := DetectIdentifiers("server at 192.168.1.10 responded", typeSet(span.TypeMetadata))
	assert.NotEmpty(t, out)
	assert.Equal(t, "ipv4", out[0].Source)
}

func TestDetectIdentifiers_UnselectedTypeYieldsNothing(t *testing.T) {
	out := DetectIdentifiers("192.168.1.10", typeSet(span.TypeEmail))
	assert.Empty(t, out)
}

func TestDetectIdentifiers_MACAddress(t *testing.T) {
	out := DetectIdentifiers("device 3a:4b:5c:6d:7e:8f seen", typeSet(span.TypeMetadata))
	found := false
	for _, e := range out {
		if e.Source == "mac" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectIdentifiers_SessionToken(t *testing.T) {
	out := DetectIdentifiers("Set-Cookie: sessionid=abc123def456", typeSet(span.TypeMetadata))
	found := false
	for _, e := range out {
		if e.Source == "session_token" {
			assert.Equal(t, "abc123def456", e.Text)
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectIdentifiers_HostnameRequiresContext(t *testing.T) {
	withoutContext := DetectIdentifiers("visit example.com today", typeSet(span.TypeMetadata))
	withContext := DetectIdentifiers("internal hostname: example.com", typeSet(span.TypeMetadata))

	hasHostname := func(entities []span.Entity) bool {
		for _, e := range entities {
			if e.Source == "hostname" {
				return true
			}
		}
		return false
	}
	assert.False(t, hasHostname(withoutContext))
	assert.True(t, hasHostname(withContext))
}

func TestDetectIdentifiers_GPSCoordinates(t *testing.T) {
	out := DetectIdentifiers("lat/long: 37.774900, -122.419400", typeSet(span.TypeMetadata))
	found := false
	for _, e := range out {
		if e.Source == "gps" {
			assert.Equal(t, 0.85, e.Score)
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectIdentifiers_GPSOutOfRangeRejected(t *testing.T) {
	out := DetectIdentifiers("coordinates: 999.123456, 999.123456", typeSet(span.TypeMetadata))
	for _, e := range out {
		assert.NotEqual(t, "gps", e.Source)
	}
}

func TestDetectIdentifiers_IMEIRequiresContext(t *testing.T) {
	withoutContext := DetectIdentifiers("number 123456789012345 appeared", typeSet(span.TypeMetadata))
	withContext := DetectIdentifiers("imei: 123456789012345", typeSet(span.TypeMetadata))

	hasIMEI := func(entities []span.Entity) bool {
		for _, e := range entities {
			if e.Source == "imei" {
				return true
			}
		}
		return false
	}
	assert.False(t, hasIMEI(withoutContext))
	assert.True(t, hasIMEI(withContext))
}

func TestDetectIdentifiers_ItineraryDate(t *testing.T) {
	out := DetectIdentifiers("flight departure on 2026-08-14", typeSet(span.TypeMetadata))
	found := false
	for _, e := range out {
		if e.Source == "itinerary_date" {
			found = true
		}
	}
	assert.True(t, found)
}
