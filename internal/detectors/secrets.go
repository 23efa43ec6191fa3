package detectors

import (
	"math"
	"regexp"

	"ai-anonymizing-proxy/internal/span"
)

// vendorTokenPatterns are fixed-prefix API token shapes published by their
// respective vendors, plus a generic "Authorization: Bearer" extraction.
var vendorTokenPatterns = []rulePattern{
	{regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`), span.TypeCredentials, 0.97, "github_token"},
	{regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9\-]{10,}\b`), span.TypeCredentials, 0.97, "slack_token"},
	{regexp.MustCompile(`\bsk_(?:live|test)_[A-Za-z0-9]{16,}\b`), span.TypeCredentials, 0.97, "stripe_key"},
	{regexp.MustCompile(`\bAIza[A-Za-z0-9_\-]{35}\b`), span.TypeCredentials, 0.96, "google_api_key"},
	{regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`), span.TypeCredentials, 0.95, "openai_key"},
	{regexp.MustCompile(`\bAC[a-f0-9]{32}\b`), span.TypeCredentials, 0.9, "twilio_account_sid"},
	{regexp.MustCompile(`(?i)authorization:\s*bearer\s+([A-Za-z0-9_\-.]{8,})`), span.TypeCredentials, 0.9, "bearer_token"},
	// Crypto-wallet secrets: Bitcoin WIF private key, Ethereum private key.
	{regexp.MustCompile(`\b[5KL][1-9A-HJ-NP-Za-km-z]{50,51}\b`), span.TypeCredentials, 0.85, "btc_wif_key"},
	{regexp.MustCompile(`\b0x[a-fA-F0-9]{64}\b`), span.TypeCredentials, 0.8, "eth_private_key"},
}

// entropyTokenRE matches candidate high-entropy tokens: ≥24 chars from the
// base64url-ish alphabet, used as the entropy supplement's search space.
var entropyTokenRE = regexp.MustCompile(`[A-Za-z0-9_\-]{24,}`)

// minEntropyBitsPerChar is the Shannon-entropy floor a token must clear
// before the context-keyword check is even consulted (spec §4.2).
const minEntropyBitsPerChar = 3.5

// contextKeywordRE is the proximity-window vocabulary that upgrades a
// high-entropy token into a credentials span.
var contextKeywordRE = regexp.MustCompile(`(?i)key|token|secret|password|bearer|auth|api[_-]?key|mnemonic|seed|recovery`)

const contextWindow = 64

// bip39WordRE is a loose lowercase-word matcher used by the mnemonic
// heuristic; it does not validate against the actual BIP-39 wordlist,
// matching the spec's "12 lowercase 3+-letter words" heuristic rather than
// a dictionary membership test.
var bip39WordRE = regexp.MustCompile(`\b[a-z]{3,}\b`)

const bip39MinWords = 12

// DetectSecrets implements spec §4.2's "Secrets" family: vendor token
// patterns, an Authorization-header extraction, a Shannon-entropy
// supplement gated on nearby context keywords, and a BIP-39-style mnemonic
// heuristic.
func DetectSecrets(text string, selected map[span.Type]bool) []span.Entity {
	if !wants(selected, span.TypeCredentials) {
		return nil
	}

	var out []span.Entity
	out = append(out, vendorSpans(text)...)
	out = append(out, entropySpans(text, out)...)
	if m := bip39Span(text); m != nil {
		out = append(out, *m)
	}
	return out
}

func vendorSpans(text string) []span.Entity {
	var out []span.Entity
	for _, p := range vendorTokenPatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			// Prefer the capture group span (e.g. the bearer token itself)
			// when the pattern has one.
			if len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			start = clampToRune(text, start)
			end = clampToRune(text, end)
			if start >= end {
				continue
			}
			out = append(out, span.Entity{
				Type:   span.TypeCredentials,
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

func entropySpans(text string, existing []span.Entity) []span.Entity {
	var out []span.Entity
	for _, loc := range entropyTokenRE.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if overlapsAny(existing, start, end) {
			continue
		}
		token := text[start:end]
		if shannonEntropy(token) < minEntropyBitsPerChar {
			continue
		}
		if !contextKeywordRE.MatchString(windowAround(text, start, end, contextWindow)) {
			continue
		}
		s, e := clampToRune(text, start), clampToRune(text, end)
		if s >= e {
			continue
		}
		out = append(out, span.Entity{
			Type:   span.TypeCredentials,
			Start:  s,
			End:    e,
			Text:   text[s:e],
			Score:  0.75,
			Source: "entropy",
		})
	}
	return out
}

func bip39Span(text string) *span.Entity {
	locs := bip39WordRE.FindAllStringIndex(text, -1)
	if len(locs) < bip39MinWords {
		return nil
	}
	windowStart := locs[0][0]
	windowEnd := locs[bip39MinWords-1][1]
	if !contextKeywordRE.MatchString(windowAround(text, windowStart, windowEnd, contextWindow)) {
		return nil
	}
	s, e := clampToRune(text, windowStart), clampToRune(text, windowEnd)
	if s >= e {
		return nil
	}
	return &span.Entity{
		Type:   span.TypeCredentials,
		Start:  s,
		End:    e,
		Text:   text[s:e],
		Score:  0.6,
		Source: "mnemonic",
	}
}

func overlapsAny(entities []span.Entity, start, end int) bool {
	for _, e := range entities {
		if start < e.End && e.Start < end {
			return true
		}
	}
	return false
}

func windowAround(text string, start, end, radius int) string {
	ws := start - radius
	if ws < 0 {
		ws = 0
	}
	we := end + radius
	if we > len(text) {
		we = len(text)
	}
	return text[ws:we]
}

// shannonEntropy computes bits-per-character Shannon entropy over s's byte
// distribution.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}
	n := float64(len(s))
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}
