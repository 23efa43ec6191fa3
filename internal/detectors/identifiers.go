package detectors

import (
	"regexp"
	"strconv"

	"golang.org/x/net/idna"

	"ai-anonymizing-proxy/internal/span"
)

var (
	ipv4RE     = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`)
	ipv6RE     = regexp.MustCompile(`\b(?:[A-Fa-f0-9]{1,4}:){2,7}[A-Fa-f0-9]{1,4}\b`)
	macRE      = regexp.MustCompile(`\b(?:[A-Fa-f0-9]{2}[:\-]){5}[A-Fa-f0-9]{2}\b`)
	sessionRE  = regexp.MustCompile(`(?i)\b(?:sessionid|jsessionid|csrftoken|auth_token|sid)=([A-Za-z0-9_\-.]{6,})`)
	hostnameRE = regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}\b`)
	imeiRE     = regexp.MustCompile(`\b\d{15}\b`)
	meidRE     = regexp.MustCompile(`\b[A-Fa-f0-9]{14}\b`)
	gpsRE      = regexp.MustCompile(`\b(-?\d{1,3}\.\d{3,8}),\s*(-?\d{1,3}\.\d{3,8})\b`)
	geohashRE  = regexp.MustCompile(`\b[0-9b-hjkmnp-z]{5,9}\b`)

	hostContextRE  = regexp.MustCompile(`(?i)host|hostname|domain`)
	imeiContextRE  = regexp.MustCompile(`(?i)imei|meid`)
	geohashLabelRE = regexp.MustCompile(`(?i)geohash`)
	gpsLabelRE     = regexp.MustCompile(`(?i)lat|long|gps|coordinate`)
	travelRE       = regexp.MustCompile(`(?i)flight|itinerary|departure|arrival|boarding|gate|trip`)
	dateTokenRE2   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
)

const (
	hostContextWindow = 32
	imeiContextWindow = 32
)

// DetectIdentifiers implements spec §4.2's "Identifiers (metadata)"
// family: every match is tagged span.TypeMetadata and keeps its originating
// sub-rule in Source for provenance, per the roll-up design.
func DetectIdentifiers(text string, selected map[span.Type]bool) []span.Entity {
	if !wants(selected, span.TypeMetadata) {
		return nil
	}

	var out []span.Entity
	out = append(out, matchAll(text, ipv4RE, 0.85, "ipv4")...)
	out = append(out, matchAll(text, ipv6RE, 0.8, "ipv6")...)
	out = append(out, matchAll(text, macRE, 0.9, "mac")...)
	out = append(out, sessionSpans(text)...)
	out = append(out, hostnameSpans(text)...)
	out = append(out, imeiMeidSpans(text)...)
	out = append(out, gpsSpans(text)...)
	out = append(out, geohashSpans(text)...)
	out = append(out, itinerarySpans(text)...)
	return out
}

func matchAll(text string, re *regexp.Regexp, score float64, source string) []span.Entity {
	var out []span.Entity
	for _, loc := range re.FindAllStringIndex(text, -1) {
		s, e := clampToRune(text, loc[0]), clampToRune(text, loc[1])
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: span.TypeMetadata, Start: s, End: e, Text: text[s:e], Score: score, Source: source})
	}
	return out
}

func sessionSpans(text string) []span.Entity {
	var out []span.Entity
	for _, loc := range sessionRE.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2], loc[3]
		s, e := clampToRune(text, start), clampToRune(text, end)
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: span.TypeMetadata, Start: s, End: e, Text: text[s:e], Score: 0.9, Source: "session_token"})
	}
	return out
}

// hostnameSpans only accepts a hostname candidate when it validates as an
// IDNA A-label AND a host/hostname/domain keyword appears in the ±32-char
// window (spec §4.2).
func hostnameSpans(text string) []span.Entity {
	var out []span.Entity
	for _, loc := range hostnameRE.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		candidate := text[start:end]
		if _, err := idna.Lookup.ToASCII(candidate); err != nil {
			continue
		}
		if !hostContextRE.MatchString(windowAround(text, start, end, hostContextWindow)) {
			continue
		}
		s, e := clampToRune(text, start), clampToRune(text, end)
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: span.TypeMetadata, Start: s, End: e, Text: text[s:e], Score: 0.7, Source: "hostname"})
	}
	return out
}

func imeiMeidSpans(text string) []span.Entity {
	var out []span.Entity
	for _, loc := range imeiRE.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if !imeiContextRE.MatchString(windowAround(text, start, end, imeiContextWindow)) {
			continue
		}
		s, e := clampToRune(text, start), clampToRune(text, end)
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: span.TypeMetadata, Start: s, End: e, Text: text[s:e], Score: 0.85, Source: "imei"})
	}
	for _, loc := range meidRE.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if !imeiContextRE.MatchString(windowAround(text, start, end, imeiContextWindow)) {
			continue
		}
		s, e := clampToRune(text, start), clampToRune(text, end)
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: span.TypeMetadata, Start: s, End: e, Text: text[s:e], Score: 0.75, Source: "meid"})
	}
	return out
}

func gpsSpans(text string) []span.Entity {
	var out []span.Entity
	for _, loc := range gpsRE.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		latStr := text[loc[2]:loc[3]]
		lonStr := text[loc[4]:loc[5]]
		lat, err1 := strconv.ParseFloat(latStr, 64)
		lon, err2 := strconv.ParseFloat(lonStr, 64)
		if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}
		score := 0.6
		if gpsLabelRE.MatchString(windowAround(text, start, end, hostContextWindow)) {
			score = 0.85
		}
		s, e := clampToRune(text, start), clampToRune(text, end)
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: span.TypeMetadata, Start: s, End: e, Text: text[s:e], Score: score, Source: "gps"})
	}
	return out
}

func geohashSpans(text string) []span.Entity {
	var out []span.Entity
	for _, loc := range geohashRE.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if !geohashLabelRE.MatchString(windowAround(text, start, end, hostContextWindow)) {
			continue
		}
		s, e := clampToRune(text, start), clampToRune(text, end)
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: span.TypeMetadata, Start: s, End: e, Text: text[s:e], Score: 0.6, Source: "geohash"})
	}
	return out
}

// itinerarySpans flags a date token as travel-related metadata when travel
// vocabulary appears nearby (spec §4.2's "itinerary heuristic").
func itinerarySpans(text string) []span.Entity {
	var out []span.Entity
	for _, loc := range dateTokenRE2.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if !travelRE.MatchString(windowAround(text, start, end, contextWindow)) {
			continue
		}
		s, e := clampToRune(text, start), clampToRune(text, end)
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: span.TypeMetadata, Start: s, End: e, Text: text[s:e], Score: 0.55, Source: "itinerary_date"})
	}
	return out
}
