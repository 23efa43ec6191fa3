// Package pseudonymizer produces deterministic, keyed pseudonym strings
// from detected entity values.
//
// Determinism is keyed on (env_key, doc_key, entity_type, normalized_value):
// identical inputs always produce byte-identical output, within one process
// or across many. Unlinkability holds across different env_key or doc_key
// values — changing either scope changes every derived pseudonym.
//
// Per-entity-type counters increment monotonically across the lifetime of
// one Pseudonymizer and reset to zero on SetDocumentKey, matching a fresh
// document's pseudonym space.
package pseudonymizer

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // legacy algorithm selectable for existing templates, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"ai-anonymizing-proxy/internal/span"
)

// fieldSeparator is a unit-separator-like delimiter placed between the
// entity type and the normalized value before hashing, preventing a value
// that happens to contain the type name from colliding across types.
const fieldSeparator = "␟"

// Algo selects the HMAC hash function used for digest derivation.
type Algo string

// Supported algorithms. SHA256 is the default; SHA1 is selectable only for
// compatibility with legacy templates.
const (
	AlgoSHA256 Algo = "sha256"
	AlgoSHA1   Algo = "sha1"
)

func (a Algo) newHash() func() hash.Hash {
	if a == AlgoSHA1 {
		return sha1.New
	}
	return sha256.New
}

// Pseudonymizer is created per document, or reused across documents with
// an explicit SetDocumentKey call, which also resets its counters. It is
// not safe to share across concurrent documents without external
// synchronization around SetDocumentKey.
type Pseudonymizer struct {
	envKey []byte
	docKey []byte
	algo   Algo

	mu       sync.Mutex
	counters map[span.Type]int

	ledger *ledgerStore // nil unless EnableLedger was called
}

// New creates a Pseudonymizer scoped to envKey and (optionally) docKey.
// An empty docKey means the scoped key is envKey itself.
func New(envKey, docKey []byte, algo Algo) *Pseudonymizer {
	if algo == "" {
		algo = AlgoSHA256
	}
	return &Pseudonymizer{
		envKey:   append([]byte(nil), envKey...),
		docKey:   append([]byte(nil), docKey...),
		algo:     algo,
		counters: make(map[span.Type]int),
	}
}

// SetDocumentKey rescopes the pseudonymizer to a new document key and
// resets all per-type counters to zero, so a reused instance starts a
// fresh pseudonym space for the new document.
func (p *Pseudonymizer) SetDocumentKey(docKey []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docKey = append([]byte(nil), docKey...)
	p.counters = make(map[span.Type]int)
}

// scopedKey derives HMAC(env_key, doc_key) when a doc_key is set, else
// returns env_key unchanged.
func (p *Pseudonymizer) scopedKey() []byte {
	if len(p.docKey) == 0 {
		return p.envKey
	}
	mac := hmac.New(p.algo.newHash(), p.envKey)
	mac.Write(p.docKey)
	return mac.Sum(nil)
}

func (p *Pseudonymizer) digestHex(message string) string {
	mac := hmac.New(p.algo.newHash(), p.scopedKey())
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// nextIndex returns the next monotonically increasing counter value for
// entityType, starting at 1.
func (p *Pseudonymizer) nextIndex(entityType span.Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counters[entityType]++
	return p.counters[entityType]
}

// Options carries the optional parameters to Pseudonymize. The zero value
// picks: current-UTC date, auto-incrementing index, no kept suffix.
type Options struct {
	Index     *int // override the per-type counter
	Date      *time.Time
	KeepParts *span.KeepParts
}

// Pseudonymize renders a pseudonym string for originalValue according to
// template, using entityType as the HMAC domain separator. Template tokens
// are expanded one kind at a time (see expandTemplate); unknown tokens pass
// through literally (templating is total — it never fails).
func (p *Pseudonymizer) Pseudonymize(originalValue string, entityType span.Type, template string, opts Options) string {
	normalized := strings.TrimSpace(originalValue)

	index := opts.Index
	if index == nil {
		n := p.nextIndex(entityType)
		index = &n
	}

	date := opts.Date
	if date == nil {
		now := time.Now().UTC()
		date = &now
	}

	digest := p.digestHex(string(entityType) + fieldSeparator + normalized)

	result := expandTemplate(template, normalized, digest, *index, *date)

	if opts.KeepParts != nil && opts.KeepParts.Last > 0 && !strings.Contains(template, "{orig_last:") {
		result += lastN(normalized, opts.KeepParts.Last)
	}

	if p.ledger != nil {
		p.ledger.record(result, entityType, normalized, p.docKeyHash())
	}

	return result
}

var (
	hashTokenRE     = regexp.MustCompile(`\{hash(\d+)\}`)
	dateTokenRE     = regexp.MustCompile(`\{date:([^}]+)\}`)
	origLastTokenRE = regexp.MustCompile(`\{orig_last:(\d+)\}`)
)

// expandTemplate expands the spec §4.1 tokens in one pass per token kind,
// in this order: {index}, {shape}, {hashN}, {date:FMT}, {orig_last:N}. It
// is not a single scan: text produced by an earlier pass is seen by the
// later ones, so a token assembled from another token's output (e.g.
// "{orig_last:{index}}") is expanded as well.
func expandTemplate(template, normalized, digest string, index int, date time.Time) string {
	result := template
	result = strings.ReplaceAll(result, "{index}", strconv.Itoa(index))
	if strings.Contains(result, "{shape}") {
		result = strings.ReplaceAll(result, "{shape}", shape(normalized))
	}
	result = hashTokenRE.ReplaceAllStringFunc(result, func(m string) string {
		n := atoiOr(hashTokenRE.FindStringSubmatch(m)[1], 0)
		if n > len(digest) {
			n = len(digest)
		}
		return digest[:n]
	})
	result = dateTokenRE.ReplaceAllStringFunc(result, func(m string) string {
		fmtSpec := dateTokenRE.FindStringSubmatch(m)[1]
		return formatGoTime(date, fmtSpec)
	})
	result = origLastTokenRE.ReplaceAllStringFunc(result, func(m string) string {
		n := atoiOr(origLastTokenRE.FindStringSubmatch(m)[1], 0)
		return lastN(normalized, n)
	})
	return result
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func lastN(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if n >= len(r) {
		return s
	}
	return string(r[len(r)-n:])
}

// shape projects value onto its character-class skeleton: digits -> '9',
// uppercase -> 'A', lowercase -> 'a', whitespace -> ' ', everything else
// passes through unchanged.
func shape(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteByte('9')
		case r >= 'A' && r <= 'Z':
			b.WriteByte('A')
		case r >= 'a' && r <= 'z':
			b.WriteByte('a')
		case isSpace(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// formatGoTime maps the small set of strftime-style directives used by the
// default templates onto Go's reference-time layout. Unrecognized
// directives pass through literally rather than erroring, keeping
// templating total.
func formatGoTime(t time.Time, fmtSpec string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006",
		"%m", "01",
		"%d", "02",
		"%H", "15",
		"%M", "04",
		"%S", "05",
	)
	layout := replacer.Replace(fmtSpec)
	return t.Format(layout)
}

// DefaultTemplate returns the rewriter's default pseudonymize template for
// entityType, falling back to a generic "<TYPE>_{hash6}" shape (spec §4.4).
func DefaultTemplate(entityType span.Type) string {
	switch entityType {
	case span.TypePersonName:
		return "NAME_{hash8}"
	case span.TypeEmail:
		return "EMAIL_{hash6}@mask.local"
	case span.TypePhone:
		return "PHONE_{hash6}_{orig_last:4}"
	case span.TypePostalCode:
		return "ZIP_{hash4}"
	case span.TypeAddress:
		return "ADDRESS_{hash6}"
	default:
		return fmt.Sprintf("%s_{hash6}", strings.ToUpper(string(entityType)))
	}
}

// docKeyHash returns a short identifier for the current doc_key for ledger
// bookkeeping, without storing the raw key itself.
func (p *Pseudonymizer) docKeyHash() string {
	if len(p.docKey) == 0 {
		return ""
	}
	sum := sha256.Sum256(p.docKey)
	return hex.EncodeToString(sum[:])[:16]
}
