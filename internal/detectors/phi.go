package detectors

import (
	"regexp"

	"ai-anonymizing-proxy/internal/span"
)

var (
	icd10RE = regexp.MustCompile(`\b[A-TV-Z]\d{2}(?:\.[A-Z0-9]{1,4})?\b`)
	cptRE   = regexp.MustCompile(`\b\d{5}\b`)
	mrnRE   = regexp.MustCompile(`(?i)\b(?:MRN|Med Rec No|Medical Record Number|Member ID|Policy #)\s*:?\s*([A-Z0-9]{6,12})\b`)
)

// DetectPHI implements spec §4.2's PHI family: ICD-10 codes, 5-digit CPT
// candidates (deliberately ambiguous; the policy threshold resolves false
// positives rather than the detector), and MRN/insurance IDs that directly
// follow a recognized label.
func DetectPHI(text string, selected map[span.Type]bool) []span.Entity {
	if !wants(selected, span.TypeHealth) {
		return nil
	}

	var out []span.Entity
	out = append(out, matchTyped(text, icd10RE, span.TypeHealth, 0.75, "icd10")...)
	out = append(out, matchTyped(text, cptRE, span.TypeHealth, 0.4, "cpt")...)
	out = append(out, mrnSpans(text)...)
	return out
}

func matchTyped(text string, re *regexp.Regexp, t span.Type, score float64, source string) []span.Entity {
	var out []span.Entity
	for _, loc := range re.FindAllStringIndex(text, -1) {
		s, e := clampToRune(text, loc[0]), clampToRune(text, loc[1])
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: t, Start: s, End: e, Text: text[s:e], Score: score, Source: source})
	}
	return out
}

func mrnSpans(text string) []span.Entity {
	var out []span.Entity
	for _, loc := range mrnRE.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2], loc[3]
		s, e := clampToRune(text, start), clampToRune(text, end)
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: span.TypeHealth, Start: s, End: e, Text: text[s:e], Score: 0.85, Source: "mrn"})
	}
	return out
}
