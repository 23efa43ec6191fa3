// Package engine is the registry/orchestrator: it runs detectors safely,
// feeds their spans to the aggregator, and drives the rewriter (plus an
// optional pseudonymizer), producing masked output and an entity ledger
// (spec §2, "Registry/orchestrator").
package engine

import (
	"time"

	"ai-anonymizing-proxy/internal/aggregator"
	"ai-anonymizing-proxy/internal/detectors"
	"ai-anonymizing-proxy/internal/metrics"
	"ai-anonymizing-proxy/internal/rewriter"
	"ai-anonymizing-proxy/internal/span"
)

// LedgerEntry is one retained span's dry-run report record (spec §6).
type LedgerEntry struct {
	EntityID   int       `json:"entity_id"`
	EntityType span.Type `json:"entity_type"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Text       string    `json:"text"`
	MaskedText string    `json:"masked_text,omitempty"`
	Action     string    `json:"action"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	SpanID     int       `json:"span_id"`
}

// Result is the outcome of processing one document's text.
type Result struct {
	MaskedText string
	Ledger     []LedgerEntry
}

// Process runs the full pipeline over text: detect, aggregate, filter,
// rewrite. registry is the detector set to run (typically
// detectors.Default(nerBackend)); pz may be nil, in which case
// pseudonymize/format actions fall back per spec §4.4/§7. m is optional
// (nil = no metrics collection) and, when set, records per-stage latency
// and span-volume counters (SPEC_FULL.md §10.5).
func Process(text string, p *span.Policy, registry *detectors.Registry, pz rewriter.Pseudonymizer, m *metrics.Metrics) Result {
	if p != nil && p.MaskAll {
		return Result{MaskedText: rewriter.RewriteText(text, nil, p, pz)}
	}

	detectStart := time.Now()
	raw := registry.Run(text, p.Entities)
	if m != nil {
		m.RecordDetectLatency(time.Since(detectStart))
		m.SpansDetected.Add(int64(len(raw)))
	}

	merged := aggregator.MergeOverlaps(raw)
	retained := aggregator.FilterByPolicy(merged, p)

	rewriteStart := time.Now()
	masked := rewriter.RewriteText(text, retained, p, pz)
	if m != nil {
		m.RecordRewriteLatency(time.Since(rewriteStart))
		m.SpansRewritten.Add(int64(len(retained)))
	}

	ledger := make([]LedgerEntry, 0, len(retained))
	for i, e := range retained {
		action, _ := p.ActionFor(e.Type)
		ledger = append(ledger, LedgerEntry{
			EntityID:   i + 1,
			EntityType: e.Type,
			Start:      e.Start,
			End:        e.End,
			Text:       e.Text,
			Action:     string(action.Action),
			Confidence: e.Score,
			Source:     e.Source,
			SpanID:     i + 1,
		})
	}

	return Result{MaskedText: masked, Ledger: ledger}
}

// Detect runs only the detect+aggregate+filter stages, returning the
// retained spans without rewriting — used by evaluation mode.
func Detect(text string, p *span.Policy, registry *detectors.Registry, m *metrics.Metrics) []span.Entity {
	detectStart := time.Now()
	raw := registry.Run(text, p.Entities)
	if m != nil {
		m.RecordDetectLatency(time.Since(detectStart))
		m.SpansDetected.Add(int64(len(raw)))
	}
	merged := aggregator.MergeOverlaps(raw)
	return aggregator.FilterByPolicy(merged, p)
}
