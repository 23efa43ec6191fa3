package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_NilSafe(t *testing.T) {
	var p *Policy
	assert.False(t, p.HasEntity(TypeEmail))
	assert.Equal(t, 0.0, p.Threshold(TypeEmail))
	_, ok := p.ActionFor(TypeEmail)
	assert.False(t, ok)
}

func TestPolicy_HasEntity(t *testing.T) {
	p := &Policy{Entities: map[Type]bool{TypeEmail: true}}
	assert.True(t, p.HasEntity(TypeEmail))
	assert.False(t, p.HasEntity(TypePhone))
}

func TestPolicy_Threshold_DefaultsZero(t *testing.T) {
	p := &Policy{Thresholds: map[Type]float64{TypeEmail: 0.6}}
	assert.Equal(t, 0.6, p.Threshold(TypeEmail))
	assert.Equal(t, 0.0, p.Threshold(TypePhone))
}

func TestPolicy_ActionFor(t *testing.T) {
	p := &Policy{Actions: map[Type]ActionConfig{TypeEmail: {Action: ActionRemove}}}
	cfg, ok := p.ActionFor(TypeEmail)
	assert.True(t, ok)
	assert.Equal(t, ActionRemove, cfg.Action)

	_, ok = p.ActionFor(TypePhone)
	assert.False(t, ok)
}
