package detectors

import (
	"regexp"
	"strings"

	"ai-anonymizing-proxy/internal/span"
)

var streetSuffixRE = regexp.MustCompile(`(?i)\b(street|st|avenue|ave|boulevard|blvd|road|rd|drive|dr|lane|ln|court|ct|place|pl|way|terrace|ter|circle|cir|highway|hwy|parkway|pkwy)\b`)

var unitKeywordRE = regexp.MustCompile(`(?i)\b(apt|apartment|suite|ste|unit|floor|fl|#)\b`)

var leadingNumberRE = regexp.MustCompile(`^\s*\d+\s`)

var explicitAddressLabelRE = regexp.MustCompile(`(?i)^\s*address\s*:\s*`)

var cityStateZipRE = regexp.MustCompile(`(?i)\b[A-Z][a-zA-Z]+,\s*[A-Z]{2}\s+\d{5}(-\d{4})?\b`)

// DetectAddress implements spec §4.2's line-based address heuristic: a
// line qualifies if it starts with a number and contains a street-suffix
// token, or if it contains a suffix and a unit keyword. An explicit
// "address:" label also qualifies outright. Confidence rises when the
// next line looks like a city/state/ZIP line.
func DetectAddress(text string, selected map[span.Type]bool) []span.Entity {
	if !wants(selected, span.TypeAddress) {
		return nil
	}

	var out []span.Entity
	offset := 0
	lines := splitKeepEnds(text)
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r\n")
		qualifies, source := qualifiesAsAddress(trimmed)
		if qualifies {
			score := 0.65
			if i+1 < len(lines) && cityStateZipRE.MatchString(lines[i+1]) {
				score = 0.85
			}
			start := offset
			end := offset + len(trimmed)
			start = clampToRune(text, start)
			end = clampToRune(text, end)
			if start < end {
				out = append(out, span.Entity{
					Type:   span.TypeAddress,
					Start:  start,
					End:    end,
					Text:   text[start:end],
					Score:  score,
					Source: source,
				})
			}
		}
		offset += len(line)
	}
	return out
}

func qualifiesAsAddress(line string) (bool, string) {
	if explicitAddressLabelRE.MatchString(line) {
		return true, "address_label"
	}
	hasSuffix := streetSuffixRE.MatchString(line)
	if leadingNumberRE.MatchString(line) && hasSuffix {
		return true, "street_line"
	}
	if hasSuffix && unitKeywordRE.MatchString(line) {
		return true, "street_unit_line"
	}
	return false, ""
}

// splitKeepEnds splits text into lines, retaining the trailing newline on
// every line but the last, so cumulative offsets stay aligned with the
// original buffer.
func splitKeepEnds(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
