// Package rewriter edits text (and, in pdf.go, PDF page content) using
// policy-driven actions while preserving offset integrity outside any
// retained span.
package rewriter

import (
	"strings"

	"ai-anonymizing-proxy/internal/pseudonymizer"
	"ai-anonymizing-proxy/internal/span"
)

// Pseudonymizer is the subset of *pseudonymizer.Pseudonymizer the rewriter
// depends on, so tests can substitute a stub.
type Pseudonymizer interface {
	Pseudonymize(original string, entityType span.Type, template string, opts pseudonymizer.Options) string
}

// RewriteText applies policy to text given already-aggregated, policy-
// filtered spans (the output of aggregator.FilterByPolicy). Spans
// are walked in start order; a later span that starts before the previous
// span's end (cross-type overlap surviving aggregation) is clamped to the
// previous end and dropped if that leaves it zero-length (spec §4.4).
//
// mask_all bypasses all of the above: every Basic-Latin letter/digit is
// replaced with 'x', spans are ignored entirely.
func RewriteText(text string, entities []span.Entity, p *span.Policy, pz Pseudonymizer) string {
	if p != nil && p.MaskAll {
		return maskAll(text)
	}

	sorted := make([]span.Entity, len(entities))
	copy(sorted, entities)
	sortByStart(sorted)

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, e := range sorted {
		start, end := e.Start, e.End
		if start < cursor {
			start = cursor
		}
		if start >= end {
			continue
		}
		b.WriteString(text[cursor:start])
		b.WriteString(replacement(text[start:end], e.Type, p, pz))
		cursor = end
	}
	b.WriteString(text[cursor:])
	return b.String()
}

func sortByStart(entities []span.Entity) {
	for i := 1; i < len(entities); i++ {
		for j := i; j > 0 && entities[j-1].Start > entities[j].Start; j-- {
			entities[j-1], entities[j] = entities[j], entities[j-1]
		}
	}
}

// replacement computes the masked text for one span's original value,
// dispatching on the policy's configured action for its type (spec §4.4).
func replacement(original string, t span.Type, p *span.Policy, pz Pseudonymizer) string {
	cfg, hasAction := p.ActionFor(t)
	if !hasAction {
		return pseudonymizeFallback(original, t, "", nil, p, pz)
	}

	switch cfg.Action {
	case span.ActionRemove:
		return ""
	case span.ActionPlaceholder:
		if cfg.Template != "" {
			return cfg.Template
		}
		return "[" + string(t) + "]"
	case span.ActionFormat:
		return pseudonymizeFallback(original, t, "{shape}", cfg.KeepParts, p, pz)
	case span.ActionPseudonymize:
		return pseudonymizeFallback(original, t, cfg.Template, cfg.KeepParts, p, pz)
	default:
		return pseudonymizeFallback(original, t, cfg.Template, cfg.KeepParts, p, pz)
	}
}

// pseudonymizeFallback invokes the pseudonymizer, falling back to a
// length-preserving x-run (or, failing that, a bracketed type tag) if no
// pseudonymizer is wired up (spec §4.4/§7: prefer x-runs over [<type>] to
// avoid accidental length oracles).
func pseudonymizeFallback(original string, t span.Type, template string, keep *span.KeepParts, p *span.Policy, pz Pseudonymizer) string {
	if pz == nil {
		return lengthPreservingFallback(original, t, p)
	}
	if template == "" {
		template = pseudonymizer.DefaultTemplate(t)
	}
	var opts pseudonymizer.Options
	if keep != nil {
		opts.KeepParts = keep
	}
	return pz.Pseudonymize(original, t, template, opts)
}

func lengthPreservingFallback(original string, t span.Type, p *span.Policy) string {
	preserve := p == nil || p.PreserveLength
	if preserve {
		return strings.Repeat("x", len([]rune(original)))
	}
	return "[" + string(t) + "]"
}

// maskAll replaces every Basic-Latin letter or digit with 'x', leaving all
// other bytes (including whitespace) untouched (spec §4.4, scenario 2).
func maskAll(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isBasicLatinAlnum(r) {
			b.WriteByte('x')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isBasicLatinAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}
