// Package evaluation computes counter-only precision/recall/F1 against a
// labelled truth set. No span text or other content is ever logged or
// retained beyond the counters (spec §4.8).
package evaluation

import "ai-anonymizing-proxy/internal/span"

// TruthSpan is one labelled ground-truth span against which predictions
// are scored.
type TruthSpan struct {
	Type  span.Type
	Start int
	End   int
}

// Result holds the counter-only outcome of one evaluation run.
type Result struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
}

// Precision returns TP / (TP + FP), or 0 if there were no predictions.
func (r Result) Precision() float64 {
	denom := r.TruePositives + r.FalsePositives
	if denom == 0 {
		return 0
	}
	return float64(r.TruePositives) / float64(denom)
}

// Recall returns TP / (TP + FN), or 0 if there was no truth.
func (r Result) Recall() float64 {
	denom := r.TruePositives + r.FalseNegatives
	if denom == 0 {
		return 0
	}
	return float64(r.TruePositives) / float64(denom)
}

// F1 returns the harmonic mean of Precision and Recall, or 0 if both are 0.
func (r Result) F1() float64 {
	p, rc := r.Precision(), r.Recall()
	if p+rc == 0 {
		return 0
	}
	return 2 * p * rc / (p + rc)
}

// Evaluate scores predicted spans against truth. A predicted span is a
// true positive iff it overlaps at least one unmatched truth span of the
// same type; each truth span matches at most once. Unmatched truths count
// as false negatives, unmatched predictions as false positives (spec
// §4.8).
func Evaluate(predicted []span.Entity, truth []TruthSpan) Result {
	matched := make([]bool, len(truth))
	var tp, fp int

	for _, pred := range predicted {
		found := false
		for i, t := range truth {
			if matched[i] {
				continue
			}
			if t.Type != pred.Type {
				continue
			}
			if overlaps(pred.Start, pred.End, t.Start, t.End) {
				matched[i] = true
				found = true
				break
			}
		}
		if found {
			tp++
		} else {
			fp++
		}
	}

	fn := 0
	for _, m := range matched {
		if !m {
			fn++
		}
	}

	return Result{TruePositives: tp, FalsePositives: fp, FalseNegatives: fn}
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
