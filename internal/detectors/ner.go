package detectors

import "ai-anonymizing-proxy/internal/span"

// NERBackend is the capability a pluggable named-entity model provides:
// given text, return PERSON-labeled mentions as (start, end) byte offsets.
// Treated as a capability, not a concrete model, per spec §9 ("do not
// couple core types to any specific model").
type NERBackend interface {
	PersonMentions(text string) []NERMention
}

// NERMention is a single named-entity hit from a backend, prior to score
// assignment by the wrapping detector.
type NERMention struct {
	Start int
	End   int
	Score float64
}

// nerDetectFunc adapts an NERBackend (possibly nil) into a Detector
// function. A nil backend yields nothing — never fails, per spec §4.2.
func nerDetectFunc(backend NERBackend) func(string, map[span.Type]bool) []span.Entity {
	return func(text string, selected map[span.Type]bool) []span.Entity {
		if backend == nil || !wants(selected, span.TypePersonName) {
			return nil
		}
		mentions := backend.PersonMentions(text)
		out := make([]span.Entity, 0, len(mentions))
		for _, m := range mentions {
			s, e := clampToRune(text, m.Start), clampToRune(text, m.End)
			if s >= e {
				continue
			}
			score := m.Score
			if score <= 0 {
				score = 0.8
			}
			out = append(out, span.Entity{Type: span.TypePersonName, Start: s, End: e, Text: text[s:e], Score: score, Source: "ner"})
		}
		return out
	}
}
