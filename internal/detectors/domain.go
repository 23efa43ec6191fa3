package detectors

import (
	"regexp"
	"strings"

	"ai-anonymizing-proxy/internal/span"
)

var (
	vinRE   = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)
	plateRE = regexp.MustCompile(`(?i)\b(?:plate|license plate)\s*:?\s*#?\s*([A-Z0-9\-]{4,8})\b`)

	legalPhraseRE = regexp.MustCompile(`(?i)\b(case no\.?|docket no\.?|privileged and confidential|attorney[- ]client privilege|settlement agreement)\b`)

	commercialKeywordRE = regexp.MustCompile(`(?i)\b(invoice|purchase order|contract value|quote|proposal)\b`)
	currencyRE          = regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:\.\d{2})?`)

	commHeaderRE = regexp.MustCompile(`(?im)^(From|To|Subject|Date|Message-ID|Received):.*$`)

	employmentIDRE = regexp.MustCompile(`(?i)\b(?:employee id|student id|badge number)\s*:?\s*([A-Z0-9\-]{4,12})\b`)
)

// gdprSpecialCategoryTerms and childrensDataTerms are loaded once as
// immutable process-wide dictionaries (spec §5/§9): no per-document state,
// safe to share across concurrent detector invocations.
var gdprSpecialCategoryTerms = []string{
	"racial origin", "ethnic origin", "political opinion", "religious belief",
	"philosophical belief", "trade union membership", "genetic data",
	"biometric data", "sexual orientation", "sex life",
}

var childrensDataTerms = []string{
	"minor's", "child's medical", "student health record", "parental consent",
	"date of birth (minor)", "guardian consent",
}

// DetectDomain implements spec §4.2's "Domain-sensitive" family: VIN,
// license plates, legal phrases, commercial keywords boosted by nearby
// currency, communication headers, employment/education IDs, and
// dictionary lookups for GDPR special categories and children's data.
func DetectDomain(text string, selected map[span.Type]bool) []span.Entity {
	var out []span.Entity
	if wants(selected, span.TypeGovernmentID) {
		out = append(out, vinSpans(text)...)
		out = append(out, labeledCapture(text, plateRE, span.TypeGovernmentID, 0.8, "license_plate")...)
	}
	if wants(selected, span.TypeOrganization) {
		out = append(out, matchTyped(text, legalPhraseRE, span.TypeOrganization, 0.6, "legal_phrase")...)
		out = append(out, commercialSpans(text)...)
		out = append(out, matchTyped(text, commHeaderRE, span.TypeOrganization, 0.5, "comm_header")...)
		out = append(out, labeledCapture(text, employmentIDRE, span.TypeOrganization, 0.75, "employment_id")...)
	}
	if wants(selected, span.TypeHealth) {
		out = append(out, dictionarySpans(text, gdprSpecialCategoryTerms, "gdpr_special_category")...)
		out = append(out, dictionarySpans(text, childrensDataTerms, "childrens_data")...)
	}
	return out
}

func vinSpans(text string) []span.Entity {
	var out []span.Entity
	for _, loc := range vinRE.FindAllStringIndex(text, -1) {
		s, e := clampToRune(text, loc[0]), clampToRune(text, loc[1])
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: span.TypeGovernmentID, Start: s, End: e, Text: text[s:e], Score: 0.7, Source: "vin"})
	}
	return out
}

func labeledCapture(text string, re *regexp.Regexp, t span.Type, score float64, source string) []span.Entity {
	var out []span.Entity
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if len(loc) < 4 || loc[2] < 0 {
			continue
		}
		start, end := loc[2], loc[3]
		s, e := clampToRune(text, start), clampToRune(text, end)
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: t, Start: s, End: e, Text: text[s:e], Score: score, Source: source})
	}
	return out
}

func commercialSpans(text string) []span.Entity {
	var out []span.Entity
	for _, loc := range commercialKeywordRE.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		score := 0.4
		if currencyRE.MatchString(windowAround(text, start, end, contextWindow)) {
			score = 0.7
		}
		s, e := clampToRune(text, start), clampToRune(text, end)
		if s >= e {
			continue
		}
		out = append(out, span.Entity{Type: span.TypeOrganization, Start: s, End: e, Text: text[s:e], Score: score, Source: "commercial_keyword"})
	}
	return out
}

// dictionarySpans performs a case-insensitive literal lookup against a
// fixed term list. Terms are short phrases rather than regexes; the
// closed detector families above cover structured patterns, this one
// covers vocabulary (spec §4.2, GDPR/children's-data lookup).
func dictionarySpans(text string, terms []string, source string) []span.Entity {
	lower := strings.ToLower(text)
	var out []span.Entity
	for _, term := range terms {
		termLower := strings.ToLower(term)
		idx := 0
		for {
			rel := strings.Index(lower[idx:], termLower)
			if rel < 0 {
				break
			}
			pos := idx + rel
			s, e := clampToRune(text, pos), clampToRune(text, pos+len(term))
			if s < e {
				out = append(out, span.Entity{Type: span.TypeHealth, Start: s, End: e, Text: text[s:e], Score: 0.65, Source: source})
			}
			idx = pos + len(term)
		}
	}
	return out
}
