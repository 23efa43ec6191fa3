package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-anonymizing-proxy/internal/span"
)

func TestParseAndValidate_EmptyInput(t *testing.T) {
	p := ParseAndValidate(nil)
	assert.False(t, p.MaskAll)
	assert.Empty(t, p.Entities)
	assert.True(t, p.PreserveLength)
}

func TestParseAndValidate_MalformedJSONDegradesGracefully(t *testing.T) {
	p := ParseAndValidate([]byte(`{not json`))
	assert.False(t, p.MaskAll)
	assert.Empty(t, p.Entities)
}

func TestParseAndValidate_MaskAll(t *testing.T) {
	p := ParseAndValidate([]byte(`{"mask_all": true}`))
	assert.True(t, p.MaskAll)
}

func TestParseAndValidate_Entities(t *testing.T) {
	p := ParseAndValidate([]byte(`{"entities": ["email", "phone"]}`))
	assert.True(t, p.HasEntity(span.TypeEmail))
	assert.True(t, p.HasEntity(span.TypePhone))
	assert.False(t, p.HasEntity(span.TypeAddress))
}

func TestParseAndValidate_Thresholds(t *testing.T) {
	p := ParseAndValidate([]byte(`{"thresholds": {"email": 0.8, "phone": "bogus"}}`))
	assert.InDelta(t, 0.8, p.Threshold(span.TypeEmail), 0.0001)
	assert.Equal(t, 0.0, p.Threshold(span.TypePhone))
}

func TestParseAndValidate_UnknownActionDefaultsToRemove(t *testing.T) {
	p := ParseAndValidate([]byte(`{"actions": {"email": {"action": "obliterate"}}}`))
	cfg, ok := p.ActionFor(span.TypeEmail)
	assert.True(t, ok)
	assert.Equal(t, span.ActionRemove, cfg.Action)
}

func TestParseAndValidate_EchoTokenStripped(t *testing.T) {
	p := ParseAndValidate([]byte(`{"actions": {"email": {"action": "placeholder", "template": "leaked: {orig}"}}}`))
	cfg, ok := p.ActionFor(span.TypeEmail)
	assert.True(t, ok)
	assert.Empty(t, cfg.Template)
}

func TestParseAndValidate_SafeTemplateKept(t *testing.T) {
	p := ParseAndValidate([]byte(`{"actions": {"email": {"action": "pseudonymize", "template": "EMAIL_{hash6}"}}}`))
	cfg, ok := p.ActionFor(span.TypeEmail)
	assert.True(t, ok)
	assert.Equal(t, "EMAIL_{hash6}", cfg.Template)
}

func TestParseAndValidate_KeepPartsLast(t *testing.T) {
	p := ParseAndValidate([]byte(`{"actions": {"phone": {"action": "placeholder", "keep_parts": {"last": 4}}}}`))
	cfg, ok := p.ActionFor(span.TypePhone)
	assert.True(t, ok)
	assert.NotNil(t, cfg.KeepParts)
	assert.Equal(t, 4, cfg.KeepParts.Last)
}

func TestParseAndValidate_NegativeKeepPartsIgnored(t *testing.T) {
	p := ParseAndValidate([]byte(`{"actions": {"phone": {"action": "placeholder", "keep_parts": {"last": -1}}}}`))
	cfg, ok := p.ActionFor(span.TypePhone)
	assert.True(t, ok)
	assert.Nil(t, cfg.KeepParts)
}

func TestParseAndValidate_PreserveLengthDefaultsFalseWhenActionsSet(t *testing.T) {
	p := ParseAndValidate([]byte(`{"actions": {"email": {"action": "remove"}}}`))
	assert.False(t, p.PreserveLength)
}

func TestParseAndValidate_PreserveLengthExplicit(t *testing.T) {
	p := ParseAndValidate([]byte(`{"actions": {"email": {"action": "remove"}}, "preserve_length": true}`))
	assert.True(t, p.PreserveLength)
}
