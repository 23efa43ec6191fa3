package pseudonymizer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-anonymizing-proxy/internal/span"
)

func newTestLedgerPseudonymizer(t *testing.T) *Pseudonymizer {
	t.Helper()
	p := New([]byte("env-key"), []byte("doc-key"), AlgoSHA256)
	path := filepath.Join(t.TempDir(), "ledger.db")
	require.NoError(t, p.EnableLedger(path, 16))
	t.Cleanup(func() { _ = p.CloseLedger() })
	return p
}

func TestEnableLedger_RecordsAndLooksUp(t *testing.T) {
	p := newTestLedgerPseudonymizer(t)
	token := p.Pseudonymize("jane@example.com", span.TypeEmail, "EMAIL_{hash6}", Options{})

	entityType, normalized, docKeyHash, ok := p.LookupPseudonym(token)
	assert.True(t, ok)
	assert.Equal(t, span.TypeEmail, entityType)
	assert.Equal(t, "jane@example.com", normalized)
	assert.NotEmpty(t, docKeyHash)
}

func TestLookupPseudonym_UnknownTokenNotFound(t *testing.T) {
	p := newTestLedgerPseudonymizer(t)
	_, _, _, ok := p.LookupPseudonym("never-recorded")
	assert.False(t, ok)
}

func TestLookupPseudonym_NoLedgerEnabled(t *testing.T) {
	p := New([]byte("env-key"), nil, AlgoSHA256)
	_, _, _, ok := p.LookupPseudonym("anything")
	assert.False(t, ok)
}

func TestCloseLedger_NoopWithoutLedger(t *testing.T) {
	p := New([]byte("env-key"), nil, AlgoSHA256)
	assert.NoError(t, p.CloseLedger())
}

func TestEnableLedger_EvictsBeyondCapacity(t *testing.T) {
	p := New([]byte("env-key"), []byte("doc-key"), AlgoSHA256)
	path := filepath.Join(t.TempDir(), "ledger.db")
	require.NoError(t, p.EnableLedger(path, 4))
	defer func() { _ = p.CloseLedger() }()

	var tokens []string
	for i := 0; i < 20; i++ {
		tok := p.Pseudonymize("user"+string(rune('a'+i))+"@example.com", span.TypeEmail, "EMAIL_{hash8}_{index}", Options{})
		tokens = append(tokens, tok)
	}

	// The most recently written token must still be resolvable even though
	// capacity was exceeded many times over.
	_, _, _, ok := p.LookupPseudonym(tokens[len(tokens)-1])
	assert.True(t, ok)
}
