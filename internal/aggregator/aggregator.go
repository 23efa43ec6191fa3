// Package aggregator merges overlapping detector spans and filters the
// merged set against a policy's entity selection and score thresholds.
package aggregator

import (
	"sort"

	"ai-anonymizing-proxy/internal/span"
)

// MergeOverlaps sorts spans by (start ascending, end descending) and walks
// once, merging consecutive spans that share a type and overlap
// (next.Start <= current.End). The merged span is the union of the run,
// keeping the highest score. Idempotent: MergeOverlaps(MergeOverlaps(x))
// yields the same result as MergeOverlaps(x).
func MergeOverlaps(entities []span.Entity) []span.Entity {
	if len(entities) == 0 {
		return nil
	}

	sorted := make([]span.Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	merged := make([]span.Entity, 0, len(sorted))
	current := sorted[0]
	for _, e := range sorted[1:] {
		if e.Type == current.Type && e.Start <= current.End {
			// Union the span; Text is not recomputed here (callers that
			// need the exact merged substring re-slice the original
			// buffer using Start/End — Text carries only the first
			// constituent span's verbatim slice).
			if e.End > current.End {
				current.End = e.End
			}
			if e.Score > current.Score {
				current.Score = e.Score
			}
		} else {
			merged = append(merged, current)
			current = e
		}
	}
	merged = append(merged, current)
	return merged
}

// FilterByPolicy drops spans whose type is not selected by the policy, and
// spans whose score falls below the type's configured threshold (default
// 0 when unset). If the policy selects no entities, the result is empty.
// Input order is preserved. Monotone in thresholds: raising a threshold
// never increases the output cardinality for that type.
func FilterByPolicy(entities []span.Entity, p *span.Policy) []span.Entity {
	if p == nil || len(p.Entities) == 0 {
		return nil
	}
	out := make([]span.Entity, 0, len(entities))
	for _, e := range entities {
		if !p.HasEntity(e.Type) {
			continue
		}
		if e.Score < p.Threshold(e.Type) {
			continue
		}
		out = append(out, e)
	}
	return out
}
