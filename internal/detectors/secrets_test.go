package detectors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-anonymizing-proxy/internal/span"
)

func TestDetectSecrets_GitHubToken(t *testing.T) {
	out := DetectSecrets("token: ghp_"+strings.Repeat("a1B2c3", 7), typeSet(span.TypeCredentials))
	assert.NotEmpty(t, out)
	assert.Equal(t, "github_token", out[0].Source)
}

func TestDetectSecrets_UnselectedTypeYieldsNothing(t *testing.T) {
	out := DetectSecrets("ghp_"+strings.Repeat("a1B2c3", 7), typeSet(span.TypeEmail))
	assert.Empty(t, out)
}

func TestDetectSecrets_BearerToken(t *testing.T) {
	out := DetectSecrets("Authorization: Bearer abcdef1234567890", typeSet(span.TypeCredentials))
	found := false
	for _, e := range out {
		if e.Source == "bearer_token" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestShannonEntropy_LowForRepeatedChars(t *testing.T) {
	assert.Equal(t, 0.0, shannonEntropy("aaaaaaaa"))
}

func TestShannonEntropy_HigherForVariedChars(t *testing.T) {
	uniform := shannonEntropy("aaaaaaaa")
	varied := shannonEntropy("aB3$kZ9!")
	assert.Greater(t, varied, uniform)
}

func TestDetectSecrets_EntropySupplementRequiresContextKeyword(t *testing.T) {
	token := "Tz9Xk3pQ7mNw2vRb8Lc1Ys5Ed"
	withoutContext := DetectSecrets("random blob: "+token, typeSet(span.TypeCredentials))
	withContext := DetectSecrets("api_key: "+token, typeSet(span.TypeCredentials))

	hasEntropySpan := func(entities []span.Entity) bool {
		for _, e := range entities {
			if e.Source == "entropy" {
				return true
			}
		}
		return false
	}
	assert.False(t, hasEntropySpan(withoutContext))
	assert.True(t, hasEntropySpan(withContext))
}

func TestDetectSecrets_BIP39Mnemonic(t *testing.T) {
	phrase := "seed phrase: abandon ability able about above absent absorb abstract absurd abuse access accident"
	out := DetectSecrets(phrase, typeSet(span.TypeCredentials))
	found := false
	for _, e := range out {
		if e.Source == "mnemonic" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectSecrets_BTCWIFKey(t *testing.T) {
	out := DetectSecrets("wallet key: 5JKXXXXXXKbxLMPqvgxnCGr2tbqhrkwpA2tdM92LRkjYX5u6hMp", typeSet(span.TypeCredentials))
	found := false
	for _, e := range out {
		if e.Source == "btc_wif_key" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectSecrets_EthereumPrivateKey(t *testing.T) {
	out := DetectSecrets("key: 0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318", typeSet(span.TypeCredentials))
	found := false
	for _, e := range out {
		if e.Source == "eth_private_key" {
			found = true
		}
	}
	assert.True(t, found)
}
