package rewriter

import (
	"regexp"

	"ai-anonymizing-proxy/internal/span"
)

// Rect is a page-space bounding rectangle, origin and units left to the
// caller's PDF library convention.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// PageToken is one text run extracted from a PDF page layout: its literal
// text, bounding rectangle, and font size (spec §4.5).
type PageToken struct {
	Text     string
	Rect     Rect
	FontSize float64
}

// Redaction is the primitive the PDF library applies: blank (or
// replacement-text-bearing) a rectangle.
type Redaction struct {
	Rect            Rect
	ReplacementText string // empty means a blank fill with no overlaid text
}

// pdfBaselinePatterns covers only the three types the PDF layer can safely
// check at the glyph-fragment level (spec §4.5/§9: "the PDF path cannot
// rerun the full detector set on glyph-level fragments safely").
var pdfBaselinePatterns = []rulePattern{
	{regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`), span.TypeEmail, 0.95, "email"},
	{regexp.MustCompile(`^(?:\+?\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4,6}$`), span.TypePhone, 0.75, "phone"},
	{regexp.MustCompile(`^\d{5}(?:-\d{4})?$`), span.TypePostalCode, 0.55, "zip"},
}

// RewritePage matches each PageToken's full text against the baseline
// patterns, and for any token whose resulting type is policy-selected,
// computes its replacement via the same action dispatch the text rewriter
// uses and emits a Redaction. The caller applies all of a page's
// redactions atomically after this returns (spec §4.5).
func RewritePage(tokens []PageToken, p *span.Policy, pz Pseudonymizer) []Redaction {
	if p == nil {
		return nil
	}
	var out []Redaction
	for _, tok := range tokens {
		t, score, source, ok := matchBaseline(tok.Text)
		if !ok {
			continue
		}
		if !p.HasEntity(t) || score < p.Threshold(t) {
			continue
		}
		e := span.Entity{Type: t, Start: 0, End: len(tok.Text), Text: tok.Text, Score: score, Source: source}
		replacementText := replacement(e.Text, e.Type, p, pz)
		out = append(out, Redaction{Rect: tok.Rect, ReplacementText: replacementText})
	}
	return out
}

func matchBaseline(text string) (span.Type, float64, string, bool) {
	for _, p := range pdfBaselinePatterns {
		if p.re.MatchString(text) {
			return p.typ, p.score, p.source, true
		}
	}
	return "", 0, "", false
}

// Metadata is the subset of PDF document metadata that must be cleared
// before save (spec §4.5).
type Metadata struct {
	Author   string
	Title    string
	Producer string
	XMP      string
}

// ClearedMetadata returns the zero-value Metadata, the required
// post-redaction state for every field named in spec §4.5.
func ClearedMetadata() Metadata {
	return Metadata{}
}

// SaveOptions captures the required save-time behavior: deflation, full
// garbage collection of dead objects, and no incremental-update mode
// (spec §4.5). The PDF library itself is an external collaborator
// (spec §1); this type documents the contract a caller must honor when
// invoking it.
type SaveOptions struct {
	Deflate          bool
	GarbageCollectAll bool
	Incremental      bool
}

// RequiredSaveOptions is the single valid SaveOptions value per spec §4.5.
func RequiredSaveOptions() SaveOptions {
	return SaveOptions{Deflate: true, GarbageCollectAll: true, Incremental: false}
}
