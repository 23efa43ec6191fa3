// Package detectors composes independent span producers — one per
// domain/family (pattern rules, secrets, addresses, identifiers, PHI,
// domain-sensitive markers, optional NER) — into a uniform span stream.
//
// Every detector is invoked through a safe wrapper that converts an
// internal panic or error into an empty span list, so one faulty
// detector family cannot deny the rest of the pipeline.
package detectors

import (
	"ai-anonymizing-proxy/internal/metrics"
	"ai-anonymizing-proxy/internal/span"
)

// Detector is a pure function over (text, selected types) producing spans
// confined to the requested types. A detector never emits overlapping
// spans of its own; it may overlap with spans from another detector.
type Detector interface {
	Name() string
	Detect(text string, selected map[span.Type]bool) []span.Entity
}

// DetectorFunc adapts a plain function to the Detector interface.
type DetectorFunc struct {
	FuncName string
	Fn       func(text string, selected map[span.Type]bool) []span.Entity
}

func (f DetectorFunc) Name() string { return f.FuncName }

func (f DetectorFunc) Detect(text string, selected map[span.Type]bool) []span.Entity {
	return f.Fn(text, selected)
}

// Registry runs a fixed, ordered set of detectors and concatenates their
// output. Order only affects provenance in pathological tie cases; the
// aggregator's sort makes final span order independent of registration
// order.
type Registry struct {
	detectors []Detector

	// Metrics is optional; nil means no metrics collection. Set after
	// construction (e.g. registry.Metrics = m) so Default()'s call sites
	// don't need to thread a *metrics.Metrics through every constructor.
	Metrics *metrics.Metrics
}

// NewRegistry builds a registry over the given detectors, each wrapped so
// a panic or error is converted to an empty result (spec §4.2/§7).
func NewRegistry(ds ...Detector) *Registry {
	r := &Registry{}
	wrapped := make([]Detector, len(ds))
	for i, d := range ds {
		wrapped[i] = safe(d, r)
	}
	r.detectors = wrapped
	return r
}

// Default returns the standard registry covering every built-in detector
// family. nerBackend may be nil, in which case NER contributes nothing.
func Default(nerBackend NERBackend) *Registry {
	return NewRegistry(
		DetectorFunc{FuncName: "rules", Fn: DetectRules},
		DetectorFunc{FuncName: "secrets", Fn: DetectSecrets},
		DetectorFunc{FuncName: "address", Fn: DetectAddress},
		DetectorFunc{FuncName: "identifiers", Fn: DetectIdentifiers},
		DetectorFunc{FuncName: "phi", Fn: DetectPHI},
		DetectorFunc{FuncName: "domain", Fn: DetectDomain},
		DetectorFunc{FuncName: "ner", Fn: nerDetectFunc(nerBackend)},
	)
}

// Run invokes every registered detector and concatenates their spans. The
// result is unsorted and unmerged; callers pass it to the aggregator.
func (r *Registry) Run(text string, selected map[span.Type]bool) []span.Entity {
	var out []span.Entity
	for _, d := range r.detectors {
		out = append(out, d.Detect(text, selected)...)
	}
	return out
}

// safe wraps d so that a panic inside Detect becomes an empty result
// instead of propagating (spec §4.2: "never deny the whole pipeline").
// r's Metrics field is read at call time (not wrap time) so callers may
// attach metrics to the registry after construction.
func safe(d Detector, r *Registry) Detector {
	return DetectorFunc{
		FuncName: d.Name(),
		Fn: func(text string, selected map[span.Type]bool) (out []span.Entity) {
			defer func() {
				if rec := recover(); rec != nil {
					out = nil
					if r.Metrics != nil {
						r.Metrics.ErrorsDetector.Add(1)
					}
				}
			}()
			return d.Detect(text, selected)
		},
	}
}

// wants reports whether t is present (or absent but the selected set is
// nil, meaning "no filter applied yet" — callers always pass a non-nil
// set in production, this guards defensively for direct unit tests).
func wants(selected map[span.Type]bool, t span.Type) bool {
	if selected == nil {
		return true
	}
	return selected[t]
}

// clampToRune nudges a byte offset in s forward to the next rune boundary,
// so a detector that computed an offset inside a multi-byte UTF-8
// sequence never hands the rewriter a mid-codepoint cut (spec §9).
func clampToRune(s string, offset int) int {
	for offset > 0 && offset < len(s) && !isRuneStart(s[offset]) {
		offset++
	}
	if offset > len(s) {
		offset = len(s)
	}
	return offset
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
