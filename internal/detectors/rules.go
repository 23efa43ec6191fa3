package detectors

import (
	"regexp"

	"ai-anonymizing-proxy/internal/span"
)

// rulePattern pairs a compiled regex with the type it evidences and a base
// confidence score reflecting how specifically the pattern identifies that
// type (fewer false positives -> higher score).
type rulePattern struct {
	re     *regexp.Regexp
	typ    span.Type
	score  float64
	source string
}

var rulePatterns = []rulePattern{
	{regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`), span.TypeEmail, 0.95, "email"},
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4,6}\b`), span.TypePhone, 0.75, "phone"},
	{regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`), span.TypePostalCode, 0.55, "zip"},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), span.TypeGovernmentID, 0.9, "ssn"},
	{regexp.MustCompile(`\bAKIA[A-Z0-9]{16}\b`), span.TypeCredentials, 0.97, "aws_access_key_id"},
	{regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\b`), span.TypeCredentials, 0.92, "jwt"},
	{regexp.MustCompile(`(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`), span.TypeCredentials, 0.97, "pem_block"},
	{regexp.MustCompile(`\b(?:\d[ \-]?){13,19}\b`), span.TypeFinancial, 0.7, "payment_card"},
	{regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`), span.TypeFinancial, 0.85, "iban"},
}

// minPhoneDigits is the minimum digit count a phone match must carry once
// separators are stripped (spec §4.2: "digits with separators, length ≥ 8").
const minPhoneDigits = 8

// DetectRules applies the fixed regular-language patterns from spec §4.2
// ("Pattern rules"): email, phone, ZIP, SSN, AWS access key, JWT, PEM
// blocks, payment card, IBAN. Each pattern family only runs when at least
// one of its candidate types is selected.
func DetectRules(text string, selected map[span.Type]bool) []span.Entity {
	var out []span.Entity
	for _, p := range rulePatterns {
		if !wants(selected, p.typ) {
			continue
		}
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			match := text[start:end]

			if p.source == "phone" && digitCount(match) < minPhoneDigits {
				continue
			}

			start = clampToRune(text, start)
			end = clampToRune(text, end)
			if start >= end {
				continue
			}
			out = append(out, span.Entity{
				Type:   p.typ,
				Start:  start,
				End:    end,
				Text:   text[start:end],
				Score:  p.score,
				Source: p.source,
			})
		}
	}
	return out
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

